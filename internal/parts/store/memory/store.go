package memory

import (
	"context"
	"sort"
	"sync"

	"craneguard/internal/parts"
	"craneguard/pkg/domain"
	"craneguard/pkg/platform/sentinel"
)

// Store keeps part requests in memory with the same structural guarantees as
// the Postgres store.
type Store struct {
	mu       sync.RWMutex
	requests map[domain.PartRequestID]parts.Request
}

func New() *Store {
	return &Store{requests: make(map[domain.PartRequestID]parts.Request)}
}

func (s *Store) Insert(_ context.Context, r *parts.Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[r.ID]; exists {
		return sentinel.ErrDuplicateID
	}
	s.requests[r.ID] = *r
	return nil
}

func (s *Store) FindByID(_ context.Context, id domain.PartRequestID) (*parts.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.requests[id]; ok {
		return &r, nil
	}
	return nil, sentinel.ErrNotFound
}

// UpdateStatus moves a request from one status to another. A request already
// past the expected status reports sentinel.ErrConflict.
func (s *Store) UpdateStatus(_ context.Context, id domain.PartRequestID, from, to parts.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.requests[id]
	if !exists {
		return sentinel.ErrNotFound
	}
	if current.Status != from {
		return sentinel.ErrConflict
	}
	current.Status = to
	s.requests[id] = current
	return nil
}

// List returns requests newest first, optionally filtered by status.
func (s *Store) List(_ context.Context, status parts.Status) ([]*parts.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*parts.Request
	for _, r := range s.requests {
		if status != "" && r.Status != status {
			continue
		}
		copied := r
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
