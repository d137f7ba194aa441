package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/timecapsule/internal/client/models"
	"github.com/dmitrijs2005/timecapsule/internal/client/services"
	"github.com/dmitrijs2005/timecapsule/internal/common"
)

// Compose asks for the capsule contents step by step and seals it.
func (a *App) Compose(ctx context.Context) error {
	headline, err := getSimpleText(a.reader, "Headline", a.out)
	if err != nil {
		return err
	}
	message, err := getMultiline(a.reader, "Message", a.out)
	if err != nil {
		return err
	}

	when, err := getSimpleText(a.reader, "Unlock at (2006-01-02 15:04, RFC 3339, or +72h / +10d)", a.out)
	if err != nil {
		return err
	}
	unlockAt, err := ParseUnlockAt(when, a.now())
	if err != nil {
		return err
	}

	if friends, err := a.socialService.Eligible(ctx); err == nil && len(friends) > 0 {
		names := make([]string, 0, len(friends))
		for _, f := range friends {
			names = append(names, f.Email)
		}
		fmt.Fprintf(a.out, "Friends you can send to: %s\n", strings.Join(names, ", "))
	}
	to, err := getSimpleText(a.reader, "Recipients (comma separated emails)", a.out)
	if err != nil {
		return err
	}
	surprise, err := getSimpleText(a.reader, "Surprise? Recipients learn about it only when it unlocks (y/N)", a.out)
	if err != nil {
		return err
	}

	passphrase, err := getPassword(a.out, "Capsule passphrase")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(passphrase)
	confirm, err := getPassword(a.out, "Repeat passphrase")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	c, err := a.capsuleService.Compose(ctx, services.ComposeInput{
		OwnerEmail:   a.session.Email,
		Headline:     headline,
		Message:      message,
		UnlockAt:     unlockAt,
		Recipients:   splitList(to),
		Surprise:     yes(surprise),
		Passphrase:   string(passphrase),
		Confirmation: string(confirm),
	})
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Capsule %s sealed until %s. Share the passphrase with the recipients yourself.",
		c.ID, c.UnlockAt.Local().Format(timeLayout)))
	return nil
}

func (a *App) Sent(ctx context.Context) error {
	l, err := a.capsuleService.ListSent(ctx)
	if err != nil {
		return err
	}
	a.printListing(l)
	return nil
}

func (a *App) Received(ctx context.Context) error {
	l, err := a.capsuleService.ListReceived(ctx)
	if err != nil {
		return err
	}
	a.printListing(l)
	return nil
}

func (a *App) printListing(l *models.Listing) {
	if l.Cached {
		if l.SyncedAt.IsZero() {
			printlnFn("Offline, nothing cached yet")
		} else {
			printlnFn(fmt.Sprintf("Offline, showing data as of %s", l.SyncedAt.Local().Format(timeLayout)))
		}
	}
	if len(l.Capsules) == 0 {
		printlnFn("No capsules")
		return
	}
	for i := range l.Capsules {
		printlnFn(l.Capsules[i].Line(l.ServerTime))
	}
}

// Open asks the server for the capsule and decrypts it with the passphrase.
func (a *App) Open(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Capsule id")
	if err != nil {
		return err
	}

	passphrase, err := getPassword(a.out, "Capsule passphrase")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(passphrase)

	opened, err := a.capsuleService.Open(ctx, id, string(passphrase))
	if err != nil {
		return err
	}
	defer common.WipeByteArray(opened.Plaintext)

	from := opened.Capsule.OwnerEmail
	if opened.Capsule.OwnerName != "" {
		from = opened.Capsule.OwnerName
	}
	printlnFn(fmt.Sprintf("%q from %s, sealed %s",
		opened.Capsule.Headline, from, opened.Capsule.CreatedAt.Local().Format(timeLayout)))
	printlnFn(string(opened.Plaintext))
	return nil
}

func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}
