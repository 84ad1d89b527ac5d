package deltalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"fluxcore/pkg/metnet"
	"fluxcore/pkg/ops"
)

// SQLiteLog persists delta records to a single SQLite table. Records are
// immutable, so writes are insert-or-ignore and reads never lock.
type SQLiteLog struct {
	db   *sql.DB
	path string
}

// NewSQLiteLog opens (creating if needed) a SQLite-backed delta log at the
// given file path (empty selects a default).
func NewSQLiteLog(path string) (*SQLiteLog, error) {
	if path == "" {
		path = "fluxcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS deltas (
		key TEXT PRIMARY KEY,
		model_id TEXT NOT NULL,
		conditions BLOB NOT NULL,
		operations BLOB NOT NULL,
		created_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create deltas table: %w", err)
	}
	return &SQLiteLog{db: db, path: path}, nil
}

var _ Log = (*SQLiteLog)(nil)

// Save inserts the record under its deterministic key; an existing record
// for the same key is left untouched.
func (l *SQLiteLog) Save(ctx context.Context, modelID string, conditions any, operations []ops.Operation) (string, error) {
	record, err := newRecord(modelID, conditions, operations)
	if err != nil {
		return "", err
	}
	encodedOps, err := json.Marshal(record.Operations)
	if err != nil {
		return "", fmt.Errorf("encode operations: %w", err)
	}
	if _, err := l.db.ExecContext(ctx,
		`INSERT INTO deltas(key, model_id, conditions, operations, created_at) VALUES(?,?,?,?,?)
		 ON CONFLICT(key) DO NOTHING`,
		record.Key, record.ModelID, []byte(record.Conditions), encodedOps, record.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("insert delta %s: %w", record.Key, err)
	}
	return record.Key, nil
}

// Load returns the operations stored under key.
func (l *SQLiteLog) Load(ctx context.Context, key string) ([]ops.Operation, error) {
	var encoded []byte
	err := l.db.QueryRowContext(ctx, `SELECT operations FROM deltas WHERE key = ?`, key).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, metnet.NotFoundError{Kind: metnet.KindDelta, ID: key}
	}
	if err != nil {
		return nil, fmt.Errorf("select delta %s: %w", key, err)
	}
	var operations []ops.Operation
	if err := json.Unmarshal(encoded, &operations); err != nil {
		return nil, fmt.Errorf("decode delta %s: %w", key, err)
	}
	return operations, nil
}

// Close releases the underlying database handle.
func (l *SQLiteLog) Close() error { return l.db.Close() }

// Path returns the configured database path.
func (l *SQLiteLog) Path() string { return l.path }

// DB exposes the underlying sql.DB for integration testing hooks.
func (l *SQLiteLog) DB() *sql.DB { return l.db }
