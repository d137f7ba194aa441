package metadata

import (
	"context"
)

// Keys of the offline login record.
const (
	KeyEmail       = "email"
	KeyDisplayName = "display_name"
	KeySalt        = "salt"
	KeyVerifier    = "verifier"
)

// Repository is a small key/value store in the client cache. Get returns
// (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
