// Command timecapsule is the interactive client for composing, listing and
// opening capsules.
package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/timecapsule/internal/client/cli"
	"github.com/dmitrijs2005/timecapsule/internal/client/config"
)

func main() {
	log.SetPrefix("timecapsule: ")

	ctx := context.Background()
	app, err := cli.NewApp(ctx, config.LoadConfig())
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	app.Run(ctx)
}
