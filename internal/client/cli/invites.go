package cli

import (
	"context"
	"fmt"
)

func (a *App) Invite(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, "Email")
	if err != nil {
		return err
	}
	message, err := getSimpleText(a.reader, "Message (optional)", a.out)
	if err != nil {
		return err
	}

	inv, resent, err := a.socialService.Invite(ctx, email, message)
	if err != nil {
		return err
	}

	verb := "sent"
	if resent {
		verb = "resent"
	}
	printlnFn(fmt.Sprintf("Invite %s to %s, valid until %s", verb, inv.Email, inv.ExpiresAt.Local().Format(timeLayout)))
	if inv.Token != "" {
		printlnFn("Token: " + inv.Token)
	}
	return nil
}

func (a *App) Invites(ctx context.Context) error {
	list, err := a.socialService.Invites(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No invites")
		return nil
	}
	for _, inv := range list {
		printlnFn(fmt.Sprintf("%s  %s  [%s, expires %s]", inv.ID, inv.Email, inv.Status, inv.ExpiresAt.Local().Format(timeLayout)))
	}
	return nil
}

func (a *App) Join(ctx context.Context, args []string) error {
	token, err := a.argOrPrompt(args, "Invite token")
	if err != nil {
		return err
	}
	inv, err := a.socialService.Join(ctx, token)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Invite %s accepted", inv.ID))
	return nil
}
