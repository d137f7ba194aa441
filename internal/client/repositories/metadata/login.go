package metadata

import "context"

// Login is the record an offline login is checked against. It is written
// after every successful online login.
type Login struct {
	Email       string
	DisplayName string
	Salt        []byte
	Verifier    []byte
}

// SaveLogin replaces everything in r with l. Empty fields are not stored.
// Call it inside a transaction so a failure leaves the old record.
func SaveLogin(ctx context.Context, r Repository, l Login) error {
	if err := r.Clear(ctx); err != nil {
		return err
	}
	for key, value := range map[string][]byte{
		KeyEmail:       []byte(l.Email),
		KeyDisplayName: []byte(l.DisplayName),
		KeySalt:        l.Salt,
		KeyVerifier:    l.Verifier,
	} {
		if len(value) == 0 {
			continue
		}
		if err := r.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// LoadLogin returns the stored record, or nil when email, salt or verifier
// is missing.
func LoadLogin(ctx context.Context, r Repository) (*Login, error) {
	m, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	email, salt, verifier := m[KeyEmail], m[KeySalt], m[KeyVerifier]
	if len(email) == 0 || len(salt) == 0 || len(verifier) == 0 {
		return nil, nil
	}
	return &Login{
		Email:       string(email),
		DisplayName: string(m[KeyDisplayName]),
		Salt:        salt,
		Verifier:    verifier,
	}, nil
}
