package session

import (
	"context"
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// SnapshotRecord is one persisted session key/value pair.
type SnapshotRecord struct {
	bun.BaseModel `bun:"table:session_store,alias:ss"`
	Key           string `bun:"key,pk" json:"key"`
	Value         string `bun:"value,notnull" json:"value"`
}

// BunStore is the durable Store backed by a single key/value table. It is
// the local, file-backed stand-in for the browser storage the web clients
// use.
type BunStore struct {
	db *bun.DB
}

// NewBunStore wraps an existing bun DB.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// OpenBunStore opens (or creates) a SQLite-backed store at the given DSN and
// ensures the schema exists.
func OpenBunStore(ctx context.Context, dsn string) (*BunStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open session store")
	}

	store := NewBunStore(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// EnsureSchema creates the backing table when missing.
func (s *BunStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*SnapshotRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create session store schema")
	}
	return nil
}

// Get implements Store. Missing keys read back as "".
func (s *BunStore) Get(ctx context.Context, key string) (string, error) {
	record := new(SnapshotRecord)
	err := s.db.NewSelect().
		Model(record).
		Where("key = ?", key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read session store key")
	}
	return record.Value, nil
}

// Set implements Store with last-writer-wins upsert semantics.
func (s *BunStore) Set(ctx context.Context, key, value string) error {
	record := &SnapshotRecord{Key: key, Value: value}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write session store key")
	}
	return nil
}

// Delete implements Store. Deleting a missing key is a no-op.
func (s *BunStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*SnapshotRecord)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete session store key")
	}
	return nil
}

// Close releases the underlying database handle.
func (s *BunStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BunStore)(nil)
