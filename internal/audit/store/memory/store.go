package memory

import (
	"context"
	"sync"

	"craneguard/internal/audit"
)

// Store is an in-memory append-only audit log. It favors clarity over
// performance and backs unit tests and single-process deployments.
type Store struct {
	mu      sync.RWMutex
	entries []audit.Entry
	nextID  int64
}

func New() *Store {
	return &Store{nextID: 1}
}

// Append assigns the next surrogate key and records the entry. Entries are
// never updated or deleted; the interface offers no such operation.
func (s *Store) Append(_ context.Context, entry *audit.Entry) (int64, error) {
	if err := entry.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, *entry)
	return entry.ID, nil
}

// ListByEvent returns entries for one event ordered by surrogate key ascending.
func (s *Store) ListByEvent(_ context.Context, eventID string) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*audit.Entry
	for i := range s.entries {
		if s.entries[i].EventID == eventID {
			e := s.entries[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

// ListRecent returns up to limit entries, newest first, optionally filtered
// by role.
func (s *Store) ListRecent(_ context.Context, role string, limit int) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*audit.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if role != "" && s.entries[i].Role != role {
			continue
		}
		e := s.entries[i]
		out = append(out, &e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
