package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const reviewColumns = "game_id, title, completed, rating, notes, released_at, created_at"

// PostgresStore implements Store on a reviews table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed review store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// List implements Store. The sort key goes through the whitelist, never
// into the query text.
func (s *PostgresStore) List(ctx context.Context, sortBy string) ([]Review, error) {
	query, args, err := psql.
		Select("game_id", "title", "completed", "rating", "notes", "released_at", "created_at").
		From("reviews").
		OrderBy(sortColumns[NormalizeSort(sortBy)] + " DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reviews []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.GameID, &r.Title, &r.Completed, &r.Rating, &r.Notes, &r.ReleasedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reviews: %w", err)
	}
	return reviews, nil
}

// ByID implements Store.
func (s *PostgresStore) ByID(ctx context.Context, gameID int64) (Review, error) {
	const query = `
		SELECT game_id, title, completed, rating, notes, released_at, created_at
		FROM reviews
		WHERE game_id = $1
	`
	var r Review
	err := s.db.QueryRowContext(ctx, query, gameID).
		Scan(&r.GameID, &r.Title, &r.Completed, &r.Rating, &r.Notes, &r.ReleasedAt, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Review{}, ErrNotFound
	}
	if err != nil {
		return Review{}, fmt.Errorf("scanning review: %w", err)
	}
	return r, nil
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, r Review) error {
	const query = `
		INSERT INTO reviews (game_id, title, completed, rating, notes, released_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query,
		r.GameID, r.Title, r.Completed, r.Rating, r.Notes, r.ReleasedAt,
	); err != nil {
		return fmt.Errorf("inserting review: %w", err)
	}
	return nil
}

// Update implements Store. Title and release date are catalog facts and
// stay untouched; only the user's own fields change.
func (s *PostgresStore) Update(ctx context.Context, r Review) error {
	query, args, err := psql.
		Update("reviews").
		Set("completed", r.Completed).
		Set("rating", r.Rating).
		Set("notes", r.Notes).
		Where(sq.Eq{"game_id": r.GameID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating review: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, gameID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
