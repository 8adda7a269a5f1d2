package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Manager drives the session lifecycle against a Store.
// The ttl is the idle timeout; touchInterval throttles sliding-expiration
// writes so hot sessions do not hit the store on every request.
type Manager[Data any] struct {
	store         Store[Data]
	ttl           time.Duration
	touchInterval time.Duration
}

// NewManager creates a session manager.
func NewManager[Data any](store Store[Data], ttl, touchInterval time.Duration) *Manager[Data] {
	return &Manager[Data]{
		store:         store,
		ttl:           ttl,
		touchInterval: touchInterval,
	}
}

// New creates and persists a fresh anonymous session.
func (m *Manager[Data]) New(ctx context.Context) (Session[Data], error) {
	sess, err := New[Data](m.ttl)
	if err != nil {
		return Session[Data]{}, err
	}
	sess.modified = false
	if err := m.store.Save(ctx, &sess); err != nil {
		return Session[Data]{}, errors.Join(ErrSaveSession, err)
	}
	return sess, nil
}

// GetByToken resolves a client token to a stored session.
// An expired session yields ErrExpired; the row is left for the sweep.
func (m *Manager[Data]) GetByToken(ctx context.Context, token string) (Session[Data], error) {
	sess, err := m.store.GetByToken(ctx, token)
	if err != nil {
		return Session[Data]{}, err
	}
	if sess.IsExpired() {
		return Session[Data]{}, ErrExpired
	}
	return *sess, nil
}

// Authenticate binds sess to userID, rotating the token, and persists the
// result. This is the commit point of a successful login.
func (m *Manager[Data]) Authenticate(ctx context.Context, sess Session[Data], userID uuid.UUID) (Session[Data], error) {
	if err := sess.Authenticate(userID); err != nil {
		return Session[Data]{}, err
	}
	sess.ExpiresAt = time.Now().Add(m.ttl)
	sess.modified = false
	if err := m.store.Save(ctx, &sess); err != nil {
		return Session[Data]{}, errors.Join(ErrSaveSession, err)
	}
	return sess, nil
}

// Logout deletes the stored session and returns a fresh anonymous one.
// Deleting an already-removed session is not an error, so logout is
// idempotent.
func (m *Manager[Data]) Logout(ctx context.Context, sess Session[Data]) (Session[Data], error) {
	if err := m.store.Delete(ctx, sess.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return Session[Data]{}, errors.Join(ErrDeleteSession, err)
	}
	return m.New(ctx)
}

// Save applies sliding expiration and persists the session when modified.
// The caller's session reflects the touched expiration afterwards, so a
// cookie max-age derived from it stays in sync with the store.
func (m *Manager[Data]) Save(ctx context.Context, sess *Session[Data]) error {
	if sess.IsDeleted() {
		if err := m.store.Delete(ctx, sess.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return errors.Join(ErrDeleteSession, err)
		}
		return nil
	}

	sess.Touch(m.ttl, m.touchInterval)
	if sess.IsModified() {
		// Cleared before the write so the stored copy is clean; restored
		// on failure so a retry still persists.
		sess.modified = false
		if err := m.store.Save(ctx, sess); err != nil {
			sess.modified = true
			return errors.Join(ErrSaveSession, err)
		}
	}
	return nil
}

// CleanupExpired sweeps expired rows. Run periodically from the application.
func (m *Manager[Data]) CleanupExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx)
}

// TTL returns the configured session time-to-live.
func (m *Manager[Data]) TTL() time.Duration {
	return m.ttl
}
