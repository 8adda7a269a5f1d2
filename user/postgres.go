package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres error code raised when an insert breaks
// a unique constraint.
const uniqueViolation = "23505"

// PostgresStore implements Store on a users table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed credential store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ByEmail implements Store.
func (s *PostgresStore) ByEmail(ctx context.Context, email string) (User, error) {
	const query = `SELECT id, email, secret, created_at FROM users WHERE email = $1`
	return s.scan(s.db.QueryRowContext(ctx, query, NormalizeEmail(email)))
}

// ByID implements Store.
func (s *PostgresStore) ByID(ctx context.Context, id uuid.UUID) (User, error) {
	const query = `SELECT id, email, secret, created_at FROM users WHERE id = $1`
	return s.scan(s.db.QueryRowContext(ctx, query, id))
}

// Create implements Store. The email uniqueness constraint turns a lost
// race between concurrent registrations into ErrEmailTaken instead of a
// duplicate row.
func (s *PostgresStore) Create(ctx context.Context, email, secret string) (User, error) {
	const query = `
		INSERT INTO users (id, email, secret)
		VALUES ($1, $2, $3)
		RETURNING id, email, secret, created_at
	`
	u, err := s.scan(s.db.QueryRowContext(ctx, query, uuid.New(), NormalizeEmail(email), secret))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

func (s *PostgresStore) scan(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Secret, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}
