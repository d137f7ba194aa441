package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/timecapsule/internal/api"
)

func (a *App) Friends(ctx context.Context) error {
	resp, err := a.socialService.Friends(ctx)
	if err != nil {
		return err
	}
	printFriends("Friends", resp.Friends)
	printFriends("Waiting for your answer", resp.Incoming)
	printFriends("Requested", resp.Outgoing)
	printFriends("Blocked", resp.Blocked)
	if len(resp.Friends)+len(resp.Incoming)+len(resp.Outgoing)+len(resp.Blocked) == 0 {
		printlnFn("No friends yet. Use 'request <email>' or 'invite <email>'.")
	}
	return nil
}

func printFriends(title string, list []api.Friend) {
	if len(list) == 0 {
		return
	}
	printlnFn(title + ":")
	for _, f := range list {
		if f.DisplayName != "" {
			printlnFn(fmt.Sprintf("  %s <%s>", f.DisplayName, f.Email))
		} else {
			printlnFn("  " + f.Email)
		}
	}
}

type edgeFn func(ctx context.Context, email string) (string, error)

func (a *App) edge(ctx context.Context, args []string, call edgeFn) error {
	email, err := a.argOrPrompt(args, "Email")
	if err != nil {
		return err
	}
	status, err := call(ctx, email)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%s: %s", email, status))
	return nil
}

func (a *App) Request(ctx context.Context, args []string) error {
	return a.edge(ctx, args, a.socialService.Request)
}

func (a *App) Accept(ctx context.Context, args []string) error {
	return a.edge(ctx, args, a.socialService.Accept)
}

func (a *App) Decline(ctx context.Context, args []string) error {
	return a.edge(ctx, args, a.socialService.Decline)
}

func (a *App) Block(ctx context.Context, args []string) error {
	return a.edge(ctx, args, a.socialService.Block)
}
