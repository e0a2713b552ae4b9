package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"craneguard/internal/telemetry"
)

const historyKeyPrefix = "telemetry:history:"

// Store keeps the telemetry window in a Redis list so multiple instances can
// serve history reads for the same crane. LPUSH+LTRIM keeps the list bounded
// in one round trip per snapshot.
type Store struct {
	client   *redis.Client
	capacity int
}

func New(client *redis.Client, capacity int) *Store {
	if capacity <= 0 {
		capacity = 50
	}
	return &Store{client: client, capacity: capacity}
}

func (s *Store) Push(ctx context.Context, snapshot telemetry.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	key := historyKeyPrefix + snapshot.ComponentID
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(s.capacity)-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push snapshot: %w", err)
	}
	return nil
}

// Recent returns up to limit snapshots for the component, oldest first.
// Reads fan out by component, so the store needs the component id; the
// ForComponent wrapper binds it for callers that speak telemetry.History.
func (s *Store) RecentForComponent(ctx context.Context, componentID string, limit int) ([]telemetry.Snapshot, error) {
	if limit <= 0 || limit > s.capacity {
		limit = s.capacity
	}

	raw, err := s.client.LRange(ctx, historyKeyPrefix+componentID, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	// LPUSH stores newest at the head; reverse into chronological order.
	out := make([]telemetry.Snapshot, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var snapshot telemetry.Snapshot
		if err := json.Unmarshal([]byte(raw[i]), &snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, snapshot)
	}
	return out, nil
}

// ForComponent adapts the store to telemetry.History for a single crane.
func (s *Store) ForComponent(componentID string) *ComponentHistory {
	return &ComponentHistory{store: s, componentID: componentID}
}

// ComponentHistory is a Store bound to one component id.
type ComponentHistory struct {
	store       *Store
	componentID string
}

func (h *ComponentHistory) Push(ctx context.Context, snapshot telemetry.Snapshot) error {
	if snapshot.ComponentID == "" {
		snapshot.ComponentID = h.componentID
	}
	return h.store.Push(ctx, snapshot)
}

func (h *ComponentHistory) Recent(ctx context.Context, limit int) ([]telemetry.Snapshot, error) {
	return h.store.RecentForComponent(ctx, h.componentID, limit)
}
