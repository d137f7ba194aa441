package cli

import (
	"context"
	"strings"
)

// getStatus is the prompt decoration: the signed-in address and the
// connectivity mode, whichever are known.
func (a *App) getStatus() string {
	var parts []string
	if a.session != nil {
		parts = append(parts, a.session.Email)
	}
	if m := a.mode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Root prints the banner, starts the connectivity watcher and runs the REPL
// until the user exits or input ends.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to Time Capsule (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}
