package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/gamelog/user"
)

// Local verifies email+password credentials against the credential store.
type Local struct {
	users  user.Store
	hasher Hasher
}

// NewLocal creates the local strategy.
func NewLocal(users user.Store, hasher Hasher) *Local {
	return &Local{users: users, hasher: hasher}
}

// Login returns the user whose email and password both match.
// Unknown email and wrong password are indistinguishable: both return
// ErrInvalidCredentials, and the unknown-email path still performs a
// bcrypt comparison.
func (l *Local) Login(ctx context.Context, email, password string) (user.User, error) {
	u, err := l.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			l.hasher.burn(password)
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, fmt.Errorf("looking up user: %w", err)
	}

	if !l.hasher.Verify(password, u.Secret) {
		return user.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Register hashes the password and creates the account. The secret is
// computed before the store write, so a stored user always has a usable
// credential. A duplicate email surfaces as user.ErrEmailTaken.
func (l *Local) Register(ctx context.Context, email, password string) (user.User, error) {
	secret, err := l.hasher.Hash(password)
	if err != nil {
		return user.User{}, fmt.Errorf("hashing password: %w", err)
	}
	return l.users.Create(ctx, email, secret)
}
