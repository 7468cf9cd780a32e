package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hrms-backend/internal/hr"
	"hrms-backend/internal/shared/storage/db"
	"hrms-backend/internal/shared/util"
)

const (
	ensureSnapshotSQL = `INSERT INTO hr_snapshots (id, revision, document, etag, updated_at)
VALUES (?, 0, '{}', ?, ?)
ON CONFLICT (id) DO NOTHING`

	selectSnapshotSQL = `SELECT document FROM hr_snapshots WHERE id = ?`

	upsertSnapshotSQL = `INSERT INTO hr_snapshots (id, revision, document, etag, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  revision = excluded.revision,
  document = excluded.document,
  etag = excluded.etag,
  updated_at = excluded.updated_at`

	insertActivitySQL = `INSERT INTO hr_activity_log (snapshot_id, id, type, title, description, status, occurred_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING`
)

// SQLStore keeps the snapshot as a JSON document row in hr_snapshots and
// mirrors newly appended activity into hr_activity_log. Postgres locks the
// row with FOR UPDATE for the length of a unit of work.
type SQLStore struct {
	db      *sql.DB
	dialect string
	id      string
	now     func() time.Time
}

// NewSQLStore wraps an open database. dialect is db.DialectPostgres or db.DialectSQLite.
func NewSQLStore(database *sql.DB, dialect, snapshotID string) *SQLStore {
	if snapshotID == "" {
		snapshotID = "default"
	}
	return &SQLStore{db: database, dialect: dialect, id: snapshotID, now: time.Now}
}

func (s *SQLStore) Name() string {
	if s.dialect == db.DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load reads the committed snapshot without locking.
func (s *SQLStore) Load(ctx context.Context) (*hr.Snapshot, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, s.rebind(selectSnapshotSQL), s.id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		empty := &hr.Snapshot{}
		empty.Normalize()
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return decodeSnapshot(doc)
}

// Save writes snap in its own transaction.
func (s *SQLStore) Save(ctx context.Context, snap *hr.Snapshot) error {
	return s.InTx(ctx, func(ctx context.Context, tx Store) error {
		return tx.Save(ctx, snap)
	})
}

// InTx runs fn with a Store bound to one database transaction. fn's error
// rolls the transaction back.
func (s *SQLStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &sqlTxStore{parent: s, tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type sqlTxStore struct {
	parent      *SQLStore
	tx          *sql.Tx
	maxActivity int64
}

func (t *sqlTxStore) Name() string { return t.parent.Name() }

func (t *sqlTxStore) Load(ctx context.Context) (*hr.Snapshot, error) {
	p := t.parent
	now := p.now().UTC().Format(time.RFC3339Nano)
	if _, err := t.tx.ExecContext(ctx, p.rebind(ensureSnapshotSQL), p.id, util.ContentHash([]byte("{}")), now); err != nil {
		return nil, fmt.Errorf("ensure snapshot row: %w", err)
	}
	query := selectSnapshotSQL
	if p.dialect == db.DialectPostgres {
		query += " FOR UPDATE"
	}
	var doc []byte
	if err := t.tx.QueryRowContext(ctx, p.rebind(query), p.id).Scan(&doc); err != nil {
		return nil, fmt.Errorf("select snapshot for update: %w", err)
	}
	snap, err := decodeSnapshot(doc)
	if err != nil {
		return nil, err
	}
	for _, a := range snap.Activity {
		t.maxActivity = max(t.maxActivity, a.ID)
	}
	return snap, nil
}

func (t *sqlTxStore) Save(ctx context.Context, snap *hr.Snapshot) error {
	p := t.parent
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	now := p.now().UTC().Format(time.RFC3339Nano)
	if _, err := t.tx.ExecContext(ctx, p.rebind(upsertSnapshotSQL), p.id, snap.Revision, string(data), util.ContentHash(data), now); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	for _, a := range snap.Activity {
		if a.ID <= t.maxActivity {
			continue
		}
		if _, err := t.tx.ExecContext(ctx, p.rebind(insertActivitySQL),
			p.id, a.ID, a.Type, a.Title, a.Description, a.Status, a.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert activity %d: %w", a.ID, err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != db.DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var (
	_ TxStore = (*SQLStore)(nil)
	_ Pinger  = (*SQLStore)(nil)
)
