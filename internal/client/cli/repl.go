package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	Compose(ctx context.Context) error
	Sent(ctx context.Context) error
	Received(ctx context.Context) error
	Open(ctx context.Context, args []string) error

	Friends(ctx context.Context) error
	Request(ctx context.Context, args []string) error
	Accept(ctx context.Context, args []string) error
	Decline(ctx context.Context, args []string) error
	Block(ctx context.Context, args []string) error

	Invite(ctx context.Context, args []string) error
	Invites(ctx context.Context) error
	Join(ctx context.Context, args []string) error
}

const (
	helpGuest  = "Available commands: register, login, exit"
	helpMember = "Available commands: compose, sent, received, open <id>, friends, request <email>, " +
		"accept <email>, decline <email>, block <email>, invite <email>, invites, join <token>, logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  help, register, login, exit | quit
//
//	Logged in:
//	  compose           seal a new capsule
//	  sent, received    list capsules (cached when offline)
//	  open <id>         open a capsule whose unlock time has passed
//	  friends           show friends and pending requests
//	  request, accept, decline, block <email>
//	  invite <email>    invite someone who is not a member yet
//	  invites           list sent invitations
//	  join <token>      accept an invitation
//	  logout
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("tc %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn("Error:", describe(err))
		}
	}
}

var memberOnly = map[string]bool{
	"compose": true, "sent": true, "received": true, "open": true,
	"friends": true, "request": true, "accept": true, "decline": true, "block": true,
	"invite": true, "invites": true, "join": true, "logout": true,
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	if memberOnly[cmd] && !a.isLoggedIn() {
		printlnFn("Please login first")
		return nil
	}

	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpMember)
		} else {
			printlnFn(helpGuest)
		}
		return nil

	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "logout":
		return a.Logout(ctx)

	case "compose":
		return a.Compose(ctx)
	case "sent":
		return a.Sent(ctx)
	case "received":
		return a.Received(ctx)
	case "open":
		return a.Open(ctx, args)

	case "friends":
		return a.Friends(ctx)
	case "request":
		return a.Request(ctx, args)
	case "accept":
		return a.Accept(ctx, args)
	case "decline":
		return a.Decline(ctx, args)
	case "block":
		return a.Block(ctx, args)

	case "invite":
		return a.Invite(ctx, args)
	case "invites":
		return a.Invites(ctx)
	case "join":
		return a.Join(ctx, args)
	}

	printlnFn("Unknown command:", cmd)
	return nil
}
