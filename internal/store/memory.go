package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TimurManjosov/segmentd/internal/rules"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map guarded by an RWMutex and is suitable for development,
// testing, or single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	segments map[memKey]rules.Segment
}

type memKey struct {
	key string
	env string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{segments: make(map[memKey]rules.Segment)}
}

func (m *MemoryStore) ListSegments(ctx context.Context, env string) ([]rules.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]rules.Segment, 0, len(m.segments))
	for _, s := range m.segments {
		if s.Env == env {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *MemoryStore) GetSegment(ctx context.Context, key, env string) (*rules.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.segments[memKey{key, env}]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) UpsertSegment(ctx context.Context, params UpsertParams) (*rules.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey{params.Key, params.Env}
	id := uuid.NewString()
	if existing, ok := m.segments[k]; ok {
		id = existing.ID
	}

	s := rules.Segment{
		ID:          id,
		Key:         params.Key,
		Description: params.Description,
		Condition:   params.Condition,
		Env:         params.Env,
		UpdatedAt:   time.Now().UTC(),
	}
	m.segments[k] = s
	return &s, nil
}

func (m *MemoryStore) DeleteSegment(ctx context.Context, key, env string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.segments, memKey{key, env})
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
