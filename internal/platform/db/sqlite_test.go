package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenReturnsSameStorePerPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.sqlite")

	a, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	b, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if a != b {
		t.Fatal("expected the same Store instance for one path")
	}

	// An unnormalized spelling of the same path still hits the registry.
	c, err := Open(filepath.Join(filepath.Dir(path), ".", "shared.sqlite"))
	if err != nil {
		t.Fatalf("open unnormalized: %v", err)
	}
	if a != c {
		t.Fatal("expected path normalization to dedupe Store instances")
	}
}

func TestCloseRemovesStoreFromRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.sqlite")

	a, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := Open(path)
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	if a == b {
		t.Fatal("expected a fresh Store after Close")
	}
}

func TestDSNJournalModeByPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/var/lib/app/db.sqlite", "journal_mode(WAL)"},
		{`\\fileserver\share\db.sqlite`, "journal_mode(DELETE)"},
		{"//fileserver/share/db.sqlite", "journal_mode(DELETE)"},
	}
	for _, tt := range tests {
		got := dsn(tt.path)
		if !strings.Contains(got, tt.want) {
			t.Errorf("dsn(%q) = %q, want it to carry %s", tt.path, got, tt.want)
		}
		if !strings.Contains(got, "busy_timeout(5000)") {
			t.Errorf("dsn(%q) missing busy_timeout pragma", tt.path)
		}
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Provision(ctx); err != nil {
		t.Fatalf("provision: %v", err)
	}

	boom := errors.New("boom")
	err := store.WriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES ('k', 'v')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error back, got %v", err)
	}

	var n int
	if err := store.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM settings`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected rollback to discard the insert, found %d rows", n)
	}
}

func TestWithTxCommitsOnNil(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Provision(ctx); err != nil {
		t.Fatalf("provision: %v", err)
	}

	err := store.WriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES ('k', 'v')`)
		return err
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	var v string
	if err := store.DB().QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'k'`).Scan(&v); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if v != "v" {
		t.Fatalf("value = %q, want %q", v, "v")
	}
}

func TestProvisionIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Provision(ctx); err != nil {
		t.Fatalf("first provision: %v", err)
	}
	if err := store.Provision(ctx); err != nil {
		t.Fatalf("second provision: %v", err)
	}
	if err := store.VerifySchema(ctx); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifySchemaNamesMissingTables(t *testing.T) {
	store := openTestStore(t)

	err := store.VerifySchema(context.Background())
	if err == nil {
		t.Fatal("expected an error on an unprovisioned database")
	}
	for _, table := range []string{"oncology_data", "settings"} {
		if !strings.Contains(err.Error(), table) {
			t.Errorf("error %q does not name missing table %s", err, table)
		}
	}
}

func TestRequiredTablesParsing(t *testing.T) {
	script := `
CREATE TABLE IF NOT EXISTS alpha (
    id INTEGER PRIMARY KEY
);
CREATE INDEX idx_alpha ON alpha(id);
CREATE TABLE beta (id INTEGER);
`
	got := requiredTables(script)
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("requiredTables = %v, want [alpha beta]", got)
	}
}
