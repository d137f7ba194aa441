// Command timecapsule-server runs the capsule authority: the gRPC API and the
// unlock dispatcher, until SIGINT, SIGTERM or SIGQUIT.
package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/timecapsule/internal/server"
	"github.com/dmitrijs2005/timecapsule/internal/server/config"
)

func main() {
	log.SetPrefix("timecapsule-server: ")

	ctx := context.Background()
	app, err := server.NewApp(ctx, config.LoadConfig())
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	app.Run(ctx)
}
