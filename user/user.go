// Package user defines the identity record and its credential store.
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registration collides with an
	// existing account. The store's uniqueness constraint serializes
	// concurrent registrations; the loser gets this error.
	ErrEmailTaken = errors.New("email already registered")
)

// User is an identity record. Secret is either a bcrypt hash for local
// accounts or the federated sentinel for accounts that only sign in
// through an external provider.
type User struct {
	ID        uuid.UUID
	Email     string
	Secret    string
	CreatedAt time.Time
}

// Store is the credential store consumed by both auth strategies.
type Store interface {
	// ByEmail returns the user with the given email, or ErrNotFound.
	ByEmail(ctx context.Context, email string) (User, error)
	// ByID returns the user with the given ID, or ErrNotFound.
	ByID(ctx context.Context, id uuid.UUID) (User, error)
	// Create inserts a new user. A duplicate email yields ErrEmailTaken.
	Create(ctx context.Context, email, secret string) (User, error)
}

// NormalizeEmail lowercases and trims an email so lookups and the
// uniqueness constraint agree on one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
