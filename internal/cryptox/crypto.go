// Package cryptox implements the capsule encryption engine and the login
// verifier helpers.
//
// Capsules are sealed with AES-256-GCM under a key derived from the
// passphrase with PBKDF2-HMAC-SHA256. A context string (owner and unlock
// instant) is bound as additional authenticated data, so a ciphertext cannot
// be presented as belonging to another owner or another unlock time.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"strconv"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the PBKDF2 salt length in bytes.
	SaltSize = 16
	// NonceSize is the AES-GCM nonce (IV) length in bytes.
	NonceSize = 12
	// KeySize is the derived AES-256 key length in bytes.
	KeySize = 32
	// TagSize is the GCM authentication tag length appended to the ciphertext.
	TagSize = 16

	// Iterations is the fixed PBKDF2 work factor for capsule keys.
	Iterations = 310_000

	// ContextSeparator joins the owner and the unlock instant in UnlockContext.
	ContextSeparator = "|"
)

// Sealed is the output of Encrypt. All three fields are opaque bytes; any
// textual encoding belongs to the transport.
type Sealed struct {
	Ciphertext []byte
	IV         []byte
	Salt       []byte
}

// Engine encrypts and decrypts capsule payloads. It holds no key material
// between calls and is safe for concurrent use.
type Engine struct {
	iterations int
}

// NewEngine returns an Engine using the fixed Iterations work factor.
func NewEngine() *Engine {
	return &Engine{iterations: Iterations}
}

// UnlockContext builds the associated data for a capsule:
// the owner address and the unlock instant in Unix milliseconds.
//
//	UnlockContext("alice@example.com", time.UnixMilli(1735689600000))
//	// "alice@example.com|1735689600000"
func UnlockContext(owner string, unlockAt time.Time) string {
	return owner + ContextSeparator + strconv.FormatInt(unlockAt.UnixMilli(), 10)
}

// Encrypt seals plaintext under a key derived from passphrase and a fresh
// random salt. A fresh random nonce is used on every call. context is
// authenticated but not encrypted.
//
// An empty passphrase is rejected with common.ErrInvalidArgument before any
// cryptographic work is done.
func (e *Engine) Encrypt(plaintext []byte, passphrase, context string) (*Sealed, error) {
	if passphrase == "" {
		return nil, common.InvalidArgument("passphrase", "must not be empty")
	}

	salt := common.GenerateRandByteArray(SaltSize)
	nonce := common.GenerateRandByteArray(NonceSize)

	aead, err := e.newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, []byte(context))

	return &Sealed{Ciphertext: ciphertext, IV: nonce, Salt: salt}, nil
}

// Decrypt re-derives the key from passphrase and sealed.Salt and opens the
// ciphertext with context as associated data.
//
// Every failure is reported as common.ErrAuthenticationFailure. A wrong
// passphrase, a different context and corrupted bytes are indistinguishable
// to the caller.
func (e *Engine) Decrypt(sealed *Sealed, passphrase, context string) ([]byte, error) {
	if passphrase == "" {
		return nil, common.InvalidArgument("passphrase", "must not be empty")
	}
	if sealed == nil || len(sealed.IV) != NonceSize || len(sealed.Ciphertext) < TagSize {
		return nil, common.ErrAuthenticationFailure
	}

	aead, err := e.newAEAD(passphrase, sealed.Salt)
	if err != nil {
		return nil, common.ErrAuthenticationFailure
	}

	plaintext, err := aead.Open(nil, sealed.IV, sealed.Ciphertext, []byte(context))
	if err != nil {
		return nil, common.ErrAuthenticationFailure
	}
	return plaintext, nil
}

// newAEAD derives the key and builds the GCM instance. The key and the
// passphrase copy are wiped before returning; the cipher keeps its own
// expanded schedule for the lifetime of the returned value only.
func (e *Engine) newAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	pass := []byte(passphrase)
	defer common.WipeByteArray(pass)

	key := pbkdf2.Key(pass, salt, e.iterations, KeySize, sha256.New)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithTagSize(block, TagSize)
}

// DeriveMasterKey derives the account key used to build a login verifier.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier hashes a master key into the value the server stores and
// compares on login.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}
