// Package deltalog associates a (model, conditions) pair with the operation
// sequence derived from it under a stable key, so clients can replay a
// previously derived condition set without re-deriving. The log exclusively
// owns the key-to-record mapping; no other component caches operations.
package deltalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"fluxcore/pkg/metnet"
	"fluxcore/pkg/ops"
)

// Record is an immutable delta: the raw conditions payload, the operations
// derived from it and the stable key they live under.
type Record struct {
	Key        string          `json:"key"`
	ModelID    string          `json:"model_id"`
	Conditions json.RawMessage `json:"conditions"`
	Operations []ops.Operation `json:"operations"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Log stores and replays derived operation sequences.
type Log interface {
	// Save stores the derived operations under the deterministic key for
	// (modelID, conditions) and returns that key. Saving identical input
	// again is idempotent and returns the same key.
	Save(ctx context.Context, modelID string, conditions any, operations []ops.Operation) (string, error)
	// Load returns the operations stored under key, or a NotFoundError.
	Load(ctx context.Context, key string) ([]ops.Operation, error)
}

// Key derives the stable delta key for a (modelID, conditions) pair. It is
// a pure function of its inputs: the conditions are canonicalized to JSON
// and hashed together with the model id.
func Key(modelID string, conditions any) (string, error) {
	canonical, err := canonicalJSON(conditions)
	if err != nil {
		return "", fmt.Errorf("canonicalize conditions: %w", err)
	}
	h := xxhash.New()
	_, _ = h.WriteString(modelID)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(canonical)
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// canonicalJSON round-trips the value through a generic decode so map keys
// marshal in sorted order regardless of the caller's concrete type.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(sortGeneric(generic))
}

// sortGeneric returns a representation whose encoding is order-stable.
// encoding/json already sorts map keys; slices keep declaration order on
// purpose since condition order is semantically load-bearing.
func sortGeneric(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			out[k] = sortGeneric(t[k])
		}
		return out
	case []any:
		for i := range t {
			t[i] = sortGeneric(t[i])
		}
		return t
	default:
		return v
	}
}

func newRecord(modelID string, conditions any, operations []ops.Operation) (Record, error) {
	key, err := Key(modelID, conditions)
	if err != nil {
		return Record{}, err
	}
	rawConditions, err := json.Marshal(conditions)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Key:        key,
		ModelID:    modelID,
		Conditions: rawConditions,
		Operations: append([]ops.Operation(nil), operations...),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// MemoryLog is the in-memory reference Log used in tests and ephemeral
// deployments.
type MemoryLog struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryLog returns an empty in-memory delta log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{records: make(map[string]Record)}
}

var _ Log = (*MemoryLog)(nil)

// Save stores the record under its deterministic key.
func (l *MemoryLog) Save(_ context.Context, modelID string, conditions any, operations []ops.Operation) (string, error) {
	record, err := newRecord(modelID, conditions, operations)
	if err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.records[record.Key]; !exists {
		l.records[record.Key] = record
	}
	return record.Key, nil
}

// Load returns the operations stored under key.
func (l *MemoryLog) Load(_ context.Context, key string) ([]ops.Operation, error) {
	l.mu.RLock()
	record, ok := l.records[key]
	l.mu.RUnlock()
	if !ok {
		return nil, metnet.NotFoundError{Kind: metnet.KindDelta, ID: key}
	}
	return append([]ops.Operation(nil), record.Operations...), nil
}

// Driver identifies a concrete delta log backend.
type Driver string

// Supported delta log drivers.
const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open selects a backend using environment variables, defaulting to an
// embedded SQLite file.
//
//	FLUXCORE_DELTA_DRIVER: memory|sqlite|postgres (default sqlite)
//	FLUXCORE_SQLITE_PATH: path to sqlite file (default ./fluxcore.db)
//	FLUXCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func Open() (Log, error) {
	driver := os.Getenv("FLUXCORE_DELTA_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return NewMemoryLog(), nil
	case DriverSQLite:
		return NewSQLiteLog(os.Getenv("FLUXCORE_SQLITE_PATH"))
	case DriverPostgres:
		return NewPostgresLog(os.Getenv("FLUXCORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown delta log driver %s", driver)
	}
}
