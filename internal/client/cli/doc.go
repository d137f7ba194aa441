// Package cli provides the interactive time capsule client.
//
// It wires configuration, the local cache, the API client and a REPL that
// keeps working for listings when the server is unreachable. Composing and
// opening capsules always need the server: whether a capsule may be opened is
// never decided by the local clock.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
