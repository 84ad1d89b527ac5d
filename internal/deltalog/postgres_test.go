package deltalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"fluxcore/pkg/metnet"
	"fluxcore/pkg/ops"
)

// openPostgresOverSQLite exercises the Postgres log's SQL paths against an
// embedded database by swapping the open function. The statements are
// written to run on both engines ($n placeholders, ON CONFLICT DO NOTHING),
// so the backend-specific part under test is exactly the SQL.
func openPostgresOverSQLite(t *testing.T) *PostgresLog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pg-stub.db")
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" {
			t.Errorf("driver = %s, want pgx", driverName)
		}
		if !strings.HasPrefix(dsn, "postgres://") {
			t.Errorf("dsn = %s, want postgres scheme", dsn)
		}
		return sql.Open("sqlite", path)
	})
	t.Cleanup(restore)

	log, err := NewPostgresLog("postgres://stub/fluxcore")
	if err != nil {
		t.Fatalf("open postgres log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestPostgresLogRoundTrip(t *testing.T) {
	log := openPostgresOverSQLite(t)
	ctx := context.Background()
	conditions := map[string]any{"genotype": []any{"-b2297"}}
	operations := []ops.Operation{ops.KnockoutGene("b2297")}

	key, err := log.Save(ctx, "iJO1366", conditions, operations)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := log.Load(ctx, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "b2297" {
		t.Errorf("loaded = %+v", loaded)
	}

	if _, err := log.Save(ctx, "iJO1366", conditions, operations); err != nil {
		t.Errorf("idempotent re-save: %v", err)
	}
}

func TestPostgresLogLoadMissing(t *testing.T) {
	log := openPostgresOverSQLite(t)
	_, err := log.Load(context.Background(), "absent")
	if !metnet.IsNotFound(err) {
		t.Fatalf("missing key returned %v, want NotFoundError", err)
	}
}

func TestPostgresLogDefaultDSN(t *testing.T) {
	var captured string
	restore := OverrideSQLOpen(func(_, dsn string) (*sql.DB, error) {
		captured = dsn
		return sql.Open("sqlite", filepath.Join(t.TempDir(), "dsn.db"))
	})
	defer restore()

	log, err := NewPostgresLog("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = log.Close() }()
	if captured != defaultPostgresDSN {
		t.Errorf("dsn = %s, want %s", captured, defaultPostgresDSN)
	}
}
