package models

import "github.com/dmitrijs2005/timecapsule/internal/capsule"

// StoredCapsule is a capsule as kept in Postgres. The ciphertext lives in
// the blob store under StorageKey, so Capsule.Sealed.Ciphertext is empty
// when loaded from the database.
type StoredCapsule struct {
	capsule.Capsule
	StorageKey string
}
