package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"hrms-backend/internal/hr"
	"hrms-backend/internal/shared/storage/object"
)

// DocumentStore persists the snapshot as one JSON object in an ObjectStore
// (local filesystem or S3). When the object store supports conditional writes,
// InTx saves only if the document is still the version it loaded, so writers
// in other processes cannot be overwritten.
type DocumentStore struct {
	objects object.ObjectStore
	key     string
	name    string
}

func NewDocumentStore(objects object.ObjectStore, key, name string) *DocumentStore {
	return &DocumentStore{objects: objects, key: key, name: name}
}

func (d *DocumentStore) Name() string { return d.name }

func (d *DocumentStore) Load(ctx context.Context) (*hr.Snapshot, error) {
	rc, err := d.objects.Open(ctx, d.key)
	if err != nil {
		if errors.Is(err, object.ErrNotExist) {
			s := &hr.Snapshot{}
			s.Normalize()
			return s, nil
		}
		return nil, fmt.Errorf("open %s: %w", d.key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.key, err)
	}
	return decodeSnapshot(data)
}

func (d *DocumentStore) Save(ctx context.Context, snap *hr.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := d.objects.Put(ctx, d.key, "application/json", bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", d.key, err)
	}
	return nil
}

// InTx runs fn against a view of the document that remembers the version it
// loaded. Save from that view fails with ErrStaleSnapshot when another writer
// committed in between.
func (d *DocumentStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	cond, ok := d.objects.(object.ConditionalStore)
	if !ok {
		return fn(ctx, d)
	}
	return fn(ctx, &documentTx{parent: d, objects: cond})
}

type documentTx struct {
	parent  *DocumentStore
	objects object.ConditionalStore
	version string
	loaded  bool
}

func (t *documentTx) Name() string { return t.parent.name }

func (t *documentTx) Load(ctx context.Context) (*hr.Snapshot, error) {
	key := t.parent.key
	rc, version, err := t.objects.OpenVersion(ctx, key)
	if err != nil {
		if errors.Is(err, object.ErrNotExist) {
			t.version, t.loaded = "", true
			s := &hr.Snapshot{}
			s.Normalize()
			return s, nil
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	t.version, t.loaded = version, true
	return snap, nil
}

func (t *documentTx) Save(ctx context.Context, snap *hr.Snapshot) error {
	if !t.loaded {
		return fmt.Errorf("save %s before load", t.parent.key)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	version, err := t.objects.PutIfVersion(ctx, t.parent.key, "application/json", bytes.NewReader(data), t.version)
	if err != nil {
		if errors.Is(err, object.ErrVersionMismatch) {
			return fmt.Errorf("%w: %s revision %d", ErrStaleSnapshot, t.parent.key, snap.Revision)
		}
		return fmt.Errorf("write %s: %w", t.parent.key, err)
	}
	t.version = version
	return nil
}

func decodeSnapshot(data []byte) (*hr.Snapshot, error) {
	s := &hr.Snapshot{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
	}
	s.Normalize()
	return s, nil
}

var _ TxStore = (*DocumentStore)(nil)
