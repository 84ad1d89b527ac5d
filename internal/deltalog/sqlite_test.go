package deltalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fluxcore/pkg/metnet"
	"fluxcore/pkg/ops"
)

func openSQLite(t *testing.T) *SQLiteLog {
	t.Helper()
	log, err := NewSQLiteLog(filepath.Join(t.TempDir(), "deltas.db"))
	if err != nil {
		t.Fatalf("open sqlite log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestSQLiteLogRoundTrip(t *testing.T) {
	log := openSQLite(t)
	ctx := context.Background()
	conditions := map[string]any{
		"medium":       []any{map[string]any{"id": "CHEBI:17634", "namespace": "CHEBI"}},
		"measurements": []any{map[string]any{"type": "compound", "id": "glc__D", "measurements": []any{-9.0}}},
	}
	operations := []ops.Operation{
		ops.ModifyReactionBounds("EX_glc__D_e", -9, -9),
		ops.KnockoutGene("b2297"),
	}

	key, err := log.Save(ctx, "iJO1366", conditions, operations)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	wantKey, err := Key("iJO1366", conditions)
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if key != wantKey {
		t.Errorf("save returned %s, want deterministic key %s", key, wantKey)
	}

	loaded, err := log.Load(ctx, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(operations, loaded); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteLogSaveIdempotent(t *testing.T) {
	log := openSQLite(t)
	ctx := context.Background()
	conditions := map[string]any{"genotype": []any{"-b2297"}}
	first := []ops.Operation{ops.KnockoutGene("b2297")}

	key, err := log.Save(ctx, "m", conditions, first)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	// A conflicting save under the same key leaves the stored record
	// untouched: records are immutable.
	if _, err := log.Save(ctx, "m", conditions, []ops.Operation{ops.KnockoutReaction("PTA")}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	loaded, err := log.Load(ctx, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(first, loaded); diff != "" {
		t.Errorf("stored record changed on conflicting save (-want +got):\n%s", diff)
	}
}

func TestSQLiteLogLoadMissing(t *testing.T) {
	log := openSQLite(t)
	_, err := log.Load(context.Background(), "no-such-key")
	if !metnet.IsNotFound(err) {
		t.Fatalf("missing key returned %v, want NotFoundError", err)
	}
}

func TestSQLiteLogReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deltas.db")
	ctx := context.Background()

	first, err := NewSQLiteLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key, err := first.Save(ctx, "m", map[string]any{"genotype": []any{"-x"}}, []ops.Operation{ops.KnockoutGene("x")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := NewSQLiteLog(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = second.Close() }()
	if _, err := second.Load(ctx, key); err != nil {
		t.Errorf("load after reopen: %v", err)
	}
}
