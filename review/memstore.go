package review

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store used by tests and development runs.
type MemStore struct {
	mu      sync.RWMutex
	reviews map[int64]Review
}

// NewMemStore creates an empty in-memory review store.
func NewMemStore() *MemStore {
	return &MemStore{reviews: make(map[int64]Review)}
}

// List implements Store.
func (s *MemStore) List(_ context.Context, sortBy string) ([]Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		out = append(out, r)
	}

	switch NormalizeSort(sortBy) {
	case SortRating:
		sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case SortTitle:
		sort.Slice(out, func(i, j int) bool { return out[i].Title > out[j].Title })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].ReleasedAt.After(out[j].ReleasedAt) })
	}
	return out, nil
}

// ByID implements Store.
func (s *MemStore) ByID(_ context.Context, gameID int64) (Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[gameID]
	if !ok {
		return Review{}, ErrNotFound
	}
	return r, nil
}

// Create implements Store.
func (s *MemStore) Create(_ context.Context, r Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.reviews[r.GameID] = r
	return nil
}

// Update implements Store.
func (s *MemStore) Update(_ context.Context, r Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.reviews[r.GameID]
	if !ok {
		return ErrNotFound
	}
	existing.Completed = r.Completed
	existing.Rating = r.Rating
	existing.Notes = r.Notes
	s.reviews[r.GameID] = existing
	return nil
}

// Delete implements Store.
func (s *MemStore) Delete(_ context.Context, gameID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[gameID]; !ok {
		return ErrNotFound
	}
	delete(s.reviews, gameID)
	return nil
}
