package memory

import (
	"context"
	"sync"

	"craneguard/internal/telemetry"
)

// Store is a fixed-capacity in-memory telemetry window. The oldest snapshot
// is dropped once capacity is reached.
type Store struct {
	mu       sync.RWMutex
	capacity int
	window   []telemetry.Snapshot
}

const defaultCapacity = 50

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{capacity: capacity}
}

func (s *Store) Push(_ context.Context, snapshot telemetry.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.window = append(s.window, snapshot)
	if len(s.window) > s.capacity {
		s.window = s.window[1:]
	}
	return nil
}

// Recent returns up to limit snapshots, oldest first. limit <= 0 returns the
// whole window.
func (s *Store) Recent(_ context.Context, limit int) ([]telemetry.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.window)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]telemetry.Snapshot, n)
	copy(out, s.window[len(s.window)-n:])
	return out, nil
}
