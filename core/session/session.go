// Package session implements server-side session lifecycle management.
// Sessions are persisted through a Store so restarts do not log users out,
// and are referenced by a random token carried in a signed cookie.
//
// The Data type parameter holds application state scoped to one session,
// such as UI preferences. An anonymous session has UserID == uuid.Nil.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one client's authentication state plus session-scoped data.
type Session[Data any] struct {
	// ID is the stable session identifier used as the store key.
	ID uuid.UUID

	// Token is the unpredictable value handed to the client (32 bytes,
	// base64url). Rotated on every authentication state change.
	Token string

	// UserID identifies the authenticated user; uuid.Nil means anonymous.
	UserID uuid.UUID

	// Data holds session-scoped application state.
	Data Data

	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	// deleted marks the session for removal on the next save.
	deleted bool

	// modified tracks whether the session needs saving.
	modified bool
}

// New creates an anonymous session valid for ttl.
func New[Data any](ttl time.Duration) (Session[Data], error) {
	token, err := generateToken()
	if err != nil {
		return Session[Data]{}, errors.Join(ErrTokenGeneration, err)
	}

	now := time.Now()
	return Session[Data]{
		ID:        uuid.New(),
		Token:     token,
		UserID:    uuid.Nil,
		Data:      *new(Data),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
		modified:  true,
	}, nil
}

// Authenticate binds the session to userID and rotates the token so the
// pre-login token cannot be replayed (session fixation).
func (s *Session[Data]) Authenticate(userID uuid.UUID) error {
	if err := s.rotateToken(); err != nil {
		return err
	}
	s.UserID = userID
	s.UpdatedAt = time.Now()
	s.modified = true
	return nil
}

// Logout marks the session for deletion on the next save.
func (s *Session[Data]) Logout() {
	s.deleted = true
	s.modified = true
}

// SetData replaces the session-scoped data.
func (s *Session[Data]) SetData(data Data) {
	s.Data = data
	s.UpdatedAt = time.Now()
	s.modified = true
}

// Touch extends expiration when at least touchInterval has passed since the
// last update, throttling store writes on busy sessions.
func (s *Session[Data]) Touch(ttl, touchInterval time.Duration) {
	if time.Since(s.UpdatedAt) >= touchInterval {
		now := time.Now()
		s.ExpiresAt = now.Add(ttl)
		s.UpdatedAt = now
		s.modified = true
	}
}

// IsAuthenticated reports whether the session carries a user identity.
func (s Session[Data]) IsAuthenticated() bool {
	return s.UserID != uuid.Nil && s.Token != ""
}

// IsExpired reports whether the session is past its expiration time.
func (s Session[Data]) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsDeleted reports whether the session is marked for deletion.
func (s Session[Data]) IsDeleted() bool {
	return s.deleted
}

// IsModified reports whether the session has unsaved changes.
func (s Session[Data]) IsModified() bool {
	return s.modified
}

func (s *Session[Data]) rotateToken() error {
	token, err := generateToken()
	if err != nil {
		return errors.Join(ErrTokenGeneration, err)
	}
	s.Token = token
	s.modified = true
	return nil
}

// generateToken returns 32 bytes of crypto/rand entropy, base64url encoded.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
