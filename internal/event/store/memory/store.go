package memory

import (
	"context"
	"sort"
	"sync"

	"craneguard/internal/event"
	"craneguard/pkg/domain"
	"craneguard/pkg/platform/sentinel"
)

// Store keeps events in memory. It enforces the same structural invariants as
// the Postgres store (unique id, optimistic revision check) so the lifecycle
// engine behaves identically against either backend.
type Store struct {
	mu     sync.RWMutex
	events map[domain.EventID]event.Event
}

func New() *Store {
	return &Store{events: make(map[domain.EventID]event.Event)}
}

// Insert adds a new event. Fails with sentinel.ErrDuplicateID when the id is
// already present; ids are never reused even after a delete.
func (s *Store) Insert(_ context.Context, e *event.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[e.ID]; exists {
		return sentinel.ErrDuplicateID
	}
	if e.Revision == 0 {
		e.Revision = 1
	}
	s.events[e.ID] = *e
	return nil
}

// Update applies the given state if the stored revision still matches
// expectedRevision, then increments the revision. A mismatch on an existing
// event reports sentinel.ErrConflict so the caller can reload and retry.
func (s *Store) Update(_ context.Context, e *event.Event, expectedRevision int64) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.events[e.ID]
	if !exists {
		return sentinel.ErrNotFound
	}
	if current.Revision != expectedRevision {
		return sentinel.ErrConflict
	}
	e.Revision = expectedRevision + 1
	s.events[e.ID] = *e
	return nil
}

// FindByID returns a copy of the stored event.
func (s *Store) FindByID(_ context.Context, id domain.EventID) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.events[id]; ok {
		return &e, nil
	}
	return nil, sentinel.ErrNotFound
}

// List returns events matching the filter, newest first.
func (s *Store) List(_ context.Context, filter event.Filter) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*event.Event
	for _, e := range s.events {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.ComponentID != "" && e.ComponentID != filter.ComponentID {
			continue
		}
		if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && e.Timestamp.After(filter.Until) {
			continue
		}
		copied := e
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
