package session

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence interface for sessions.
// Implementations must be safe for concurrent use.
type Store[Data any] interface {
	// GetByToken returns the session with the given token, or ErrNotFound.
	// Expiry is not checked here; the Manager owns that decision.
	GetByToken(ctx context.Context, token string) (*Session[Data], error)

	// Save inserts or updates the session row.
	Save(ctx context.Context, sess *Session[Data]) error

	// Delete removes the session. Deleting a missing session returns
	// ErrNotFound, which callers are free to ignore.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired sweeps expired rows and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
