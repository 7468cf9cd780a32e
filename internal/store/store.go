package store

import (
	"context"
	"errors"
	"fmt"

	"hrms-backend/internal/hr"
)

// ErrNoChange may be returned from an Update callback to end the unit of work
// without saving. Update then returns the committed snapshot and a nil error.
var ErrNoChange = errors.New("no change")

// ErrStaleSnapshot is returned by Update when another writer committed between
// the load and the save. Nothing was written; the caller may retry.
var ErrStaleSnapshot = fmt.Errorf("%w: snapshot changed by another writer", hr.ErrConflict)

// Store loads and saves whole snapshots. A backend with nothing stored yet
// returns an empty, normalized snapshot rather than an error.
type Store interface {
	Load(ctx context.Context) (*hr.Snapshot, error)
	Save(ctx context.Context, snap *hr.Snapshot) error
	Name() string
}

// TxStore is implemented by backends that can hold a lock across Load and Save.
type TxStore interface {
	Store
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Pinger is implemented by backends with a cheap reachability check.
type Pinger interface {
	Ping(ctx context.Context) error
}
