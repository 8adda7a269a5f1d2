// Package pgstore persists sessions in PostgreSQL. Keeping sessions in a
// shared table instead of process memory means restarts do not log users
// out and memory does not grow with active users.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gamelog/core/session"
)

// Store implements session.Store on database/sql.
type Store[Data any] struct {
	db *sql.DB
}

// New creates a Postgres-backed session store.
func New[Data any](db *sql.DB) *Store[Data] {
	return &Store[Data]{db: db}
}

// GetByToken implements session.Store.
func (s *Store[Data]) GetByToken(ctx context.Context, token string) (*session.Session[Data], error) {
	const query = `
		SELECT id, token, user_id, data, expires_at, created_at, updated_at
		FROM sessions
		WHERE token = $1
	`
	return s.scan(s.db.QueryRowContext(ctx, query, token))
}

// Save implements session.Store using an upsert keyed by session ID, so a
// token rotation updates the existing row.
func (s *Store[Data]) Save(ctx context.Context, sess *session.Session[Data]) error {
	data, err := json.Marshal(sess.Data)
	if err != nil {
		return fmt.Errorf("marshaling session data: %w", err)
	}

	userID := uuid.NullUUID{UUID: sess.UserID, Valid: sess.UserID != uuid.Nil}

	const query = `
		INSERT INTO sessions (id, token, user_id, data, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			token = EXCLUDED.token,
			user_id = EXCLUDED.user_id,
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.Token, userID, data, sess.ExpiresAt, sess.CreatedAt, sess.UpdatedAt,
	); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Delete implements session.Store.
func (s *Store[Data]) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// DeleteExpired implements session.Store.
func (s *Store[Data]) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("sweeping expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting swept sessions: %w", err)
	}
	return n, nil
}

func (s *Store[Data]) scan(row *sql.Row) (*session.Session[Data], error) {
	var (
		sess   session.Session[Data]
		userID uuid.NullUUID
		data   []byte
	)
	err := row.Scan(&sess.ID, &sess.Token, &userID, &data, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	if userID.Valid {
		sess.UserID = userID.UUID
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &sess.Data); err != nil {
			return nil, fmt.Errorf("unmarshaling session data: %w", err)
		}
	}
	return &sess, nil
}
