// Package review stores the user's game reviews. Titles and release dates
// come from the catalog at add time; the rest is the user's own rating and
// notes.
package review

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no review matches the given game ID.
var ErrNotFound = errors.New("review not found")

// Review is one stored game review, keyed by the catalog game ID.
type Review struct {
	GameID     int64
	Title      string
	Completed  bool
	Rating     int
	Notes      string
	ReleasedAt time.Time
	CreatedAt  time.Time
}

// Sort keys accepted by List. Anything else falls back to DefaultSort.
const (
	SortReleased = "released"
	SortRating   = "rating"
	SortTitle    = "title"

	DefaultSort = SortReleased
)

// sortColumns whitelists the ORDER BY column per sort key. Request input
// never reaches the query text directly.
var sortColumns = map[string]string{
	SortReleased: "released_at",
	SortRating:   "rating",
	SortTitle:    "title",
}

// NormalizeSort maps a request-supplied sort key to a known one.
func NormalizeSort(key string) string {
	if _, ok := sortColumns[key]; ok {
		return key
	}
	return DefaultSort
}

// Store is the review persistence interface.
type Store interface {
	// List returns all reviews ordered by the given sort key, newest or
	// highest first.
	List(ctx context.Context, sortBy string) ([]Review, error)
	// ByID returns the review for a game, or ErrNotFound.
	ByID(ctx context.Context, gameID int64) (Review, error)
	// Create inserts a review.
	Create(ctx context.Context, r Review) error
	// Update rewrites the user-editable fields of a review.
	Update(ctx context.Context, r Review) error
	// Delete removes a review. Missing reviews yield ErrNotFound.
	Delete(ctx context.Context, gameID int64) error
}
