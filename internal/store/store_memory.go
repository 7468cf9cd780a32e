package store

import (
	"context"
	"sync"

	"hrms-backend/internal/hr"
)

// MemoryStore keeps the snapshot in process. Load and Save copy so callers
// never alias the stored state.
type MemoryStore struct {
	mu   sync.RWMutex
	snap *hr.Snapshot
}

// NewMemoryStore constructs a MemoryStore, optionally pre-populated.
func NewMemoryStore(initial *hr.Snapshot) *MemoryStore {
	m := &MemoryStore{}
	if initial != nil {
		m.snap = initial.Clone()
	}
	return m
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Load(ctx context.Context) (*hr.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		s := &hr.Snapshot{}
		s.Normalize()
		return s, nil
	}
	return m.snap.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, snap *hr.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
	return nil
}

var _ Store = (*MemoryStore)(nil)
