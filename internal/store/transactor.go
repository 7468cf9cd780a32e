package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"hrms-backend/internal/hr"
	"hrms-backend/internal/shared/metrics"
	"hrms-backend/internal/shared/telemetry"
)

// Transactor runs units of work against a Store. Writers are serialized
// in-process. TxStore backends also guard against other processes: the SQL
// store locks the row, the document store rejects a stale save.
type Transactor struct {
	store Store
	mu    sync.Mutex
}

func NewTransactor(s Store) *Transactor {
	return &Transactor{store: s}
}

// Store returns the underlying backend.
func (t *Transactor) Store() Store {
	return t.store
}

// View returns a committed snapshot the caller may read freely.
func (t *Transactor) View(ctx context.Context) (*hr.Snapshot, error) {
	snap, err := t.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	snap.Normalize()
	return snap, nil
}

// Update loads the committed snapshot, hands fn a private copy and saves the
// copy only if fn returns nil. On any error the copy is discarded, so the
// committed state never reflects a partial cascade.
func (t *Transactor) Update(ctx context.Context, fn func(*hr.Snapshot) error) (*hr.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var committed *hr.Snapshot
	run := func(ctx context.Context, s Store) error {
		base, err := s.Load(ctx)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		base.Normalize()

		work := base.Clone()
		if err := fn(work); err != nil {
			if errors.Is(err, ErrNoChange) {
				committed = base
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		work.Revision = base.Revision + 1
		if err := s.Save(ctx, work); err != nil {
			metrics.IncStoreSaveFailed()
			telemetry.Error("store.save_failed", map[string]any{
				"store":    s.Name(),
				"revision": work.Revision,
				"error":    err,
			})
			return fmt.Errorf("save snapshot: %w", err)
		}
		committed = work
		return nil
	}

	if txs, ok := t.store.(TxStore); ok {
		if err := txs.InTx(ctx, run); err != nil {
			return nil, err
		}
		return committed, nil
	}
	if err := run(ctx, t.store); err != nil {
		return nil, err
	}
	return committed, nil
}

// SeedIfEmpty stores seed when nothing has been saved yet. It reports whether
// the seed was written.
func (t *Transactor) SeedIfEmpty(ctx context.Context, seed *hr.Snapshot) (bool, error) {
	seeded := false
	_, err := t.Update(ctx, func(s *hr.Snapshot) error {
		if !s.Empty() {
			return ErrNoChange
		}
		*s = *seed.Clone()
		s.Normalize()
		seeded = true
		return nil
	})
	if errors.Is(err, ErrStaleSnapshot) {
		// another process wrote first, so the store is no longer empty
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return seeded, nil
}

// Ping checks the backend, falling back to a full load.
func (t *Transactor) Ping(ctx context.Context) error {
	if p, ok := t.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := t.store.Load(ctx)
	return err
}
