package deltalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"fluxcore/pkg/metnet"
	"fluxcore/pkg/ops"
)

const (
	postgresDriver = "pgx"
	// Default DSN keeps parity with Open defaults while allowing overrides
	// via env.
	defaultPostgresDSN = "postgres://localhost/fluxcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// PostgresLog persists delta records to a Postgres table with the same
// insert-or-ignore semantics as the SQLite backend.
type PostgresLog struct {
	db *sql.DB
}

// NewPostgresLog opens a Postgres-backed delta log using the provided DSN
// (falls back to a local default) and ensures the deltas table exists.
func NewPostgresLog(dsn string) (*PostgresLog, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	openMu.Lock()
	db, err := sqlOpen(postgresDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS deltas (
		key TEXT PRIMARY KEY,
		model_id TEXT NOT NULL,
		conditions JSONB NOT NULL,
		operations JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure deltas table: %w", err)
	}
	return &PostgresLog{db: db}, nil
}

var _ Log = (*PostgresLog)(nil)

// Save inserts the record under its deterministic key; conflicts are
// ignored because records for a key are immutable.
func (l *PostgresLog) Save(ctx context.Context, modelID string, conditions any, operations []ops.Operation) (string, error) {
	record, err := newRecord(modelID, conditions, operations)
	if err != nil {
		return "", err
	}
	encodedOps, err := json.Marshal(record.Operations)
	if err != nil {
		return "", fmt.Errorf("encode operations: %w", err)
	}
	if _, err := l.db.ExecContext(ctx,
		`INSERT INTO deltas(key, model_id, conditions, operations, created_at) VALUES($1,$2,$3,$4,$5)
		 ON CONFLICT(key) DO NOTHING`,
		record.Key, record.ModelID, []byte(record.Conditions), encodedOps, record.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("insert delta %s: %w", record.Key, err)
	}
	return record.Key, nil
}

// Load returns the operations stored under key.
func (l *PostgresLog) Load(ctx context.Context, key string) ([]ops.Operation, error) {
	var encoded []byte
	err := l.db.QueryRowContext(ctx, `SELECT operations FROM deltas WHERE key = $1`, key).Scan(&encoded)
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
func (l *PostgresLog) Close() error { return l.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (l *PostgresLog) DB() *sql.DB { return l.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a
// restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
