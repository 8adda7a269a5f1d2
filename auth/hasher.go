// Package auth implements the two authentication strategies: local
// email+password verification and federated Google sign-in. Both resolve
// against the same credential store.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// FederatedSentinel marks accounts created through an external identity
// provider. It is not a valid bcrypt hash, so local verification against
// it can never succeed.
const FederatedSentinel = "federated"

// DefaultBcryptCost targets roughly a quarter second per verification on
// current hardware, expensive enough to blunt offline brute force.
const DefaultBcryptCost = 12

// dummyHash is compared against when the email is unknown, so the
// not-found path costs the same as a real mismatch (no user enumeration
// through timing). It is a cost-12 hash of an unused random value.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Hasher wraps bcrypt with a configured cost.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. Costs outside bcrypt's valid range fall
// back to DefaultBcryptCost.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return Hasher{cost: cost}
}

// Hash derives a salted hash of password.
func (h Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches secret. A secret that is not a
// bcrypt hash (such as the federated sentinel) never matches.
func (h Hasher) Verify(password, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(secret), []byte(password)) == nil
}

// burn performs a throwaway comparison to equalize timing on the
// unknown-email path.
func (h Hasher) burn(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
