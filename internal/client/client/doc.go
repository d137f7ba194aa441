// Package client talks to the capsule authority for the CLI.
//
// GRPCClient implements Client over the hand-declared gRPC service in
// internal/api. An interceptor attaches the access token to every call and,
// when the server reports the token expired, rotates the pair once and
// retries.
//
// Failures are mapped back to local errors: transport problems become
// ErrUnavailable, authentication problems ErrUnauthorized, and domain
// failures the same common sentinel the server returned, restored from the
// x-error-reason trailer. A capsule that is not yet openable comes back as a
// *common.NotYetError carrying the server's unlock instant.
//
// InitDatabase opens the local SQLite cache and applies the embedded goose
// migrations.
package client
