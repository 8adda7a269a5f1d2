// Package memstore provides an in-memory session store. It backs tests and
// single-process development runs; production uses the Postgres store.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gamelog/core/session"
)

// Store keeps sessions in process memory, indexed by ID and token.
type Store[Data any] struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]session.Session[Data]
	byToken map[string]uuid.UUID
}

// New creates an empty in-memory store.
func New[Data any]() *Store[Data] {
	return &Store[Data]{
		byID:    make(map[uuid.UUID]session.Session[Data]),
		byToken: make(map[string]uuid.UUID),
	}
}

// GetByToken implements session.Store.
func (s *Store[Data]) GetByToken(_ context.Context, token string) (*session.Session[Data], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byToken[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	sess := s.byID[id]
	return &sess, nil
}

// Save implements session.Store. The token index follows token rotation.
func (s *Store[Data]) Save(_ context.Context, sess *session.Session[Data]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byID[sess.ID]; ok && old.Token != sess.Token {
		delete(s.byToken, old.Token)
	}
	s.byID[sess.ID] = *sess
	s.byToken[sess.Token] = sess.ID
	return nil
}

// Delete implements session.Store.
func (s *Store[Data]) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byID[id]
	if !ok {
		return session.ErrNotFound
	}
	delete(s.byToken, sess.Token)
	delete(s.byID, id)
	return nil
}

// DeleteExpired implements session.Store.
func (s *Store[Data]) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var removed int64
	for id, sess := range s.byID {
		if now.After(sess.ExpiresAt) {
			delete(s.byToken, sess.Token)
			delete(s.byID, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions.
func (s *Store[Data]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
