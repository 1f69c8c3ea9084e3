package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/HerbHall/netscope/pkg/plugin"
)

func memDB(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTable(name string) func(tx *sql.Tx) error {
	return func(tx *sql.Tx) error {
		_, err := tx.Exec("CREATE TABLE " + name + " (id INTEGER PRIMARY KEY)")
		return err
	}
}

func TestNew_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netscope.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	if _, err := New("/nonexistent/dir/netscope.db"); err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestTx_CommitAndRollback(t *testing.T) {
	s := memDB(t)
	ctx := context.Background()
	if _, err := s.DB().ExecContext(ctx, "CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)"); err != nil {
		t.Fatal(err)
	}

	if err := s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO kv VALUES ('a', '1')")
		return err
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	boom := errors.New("boom")
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO kv VALUES ('b', '2')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx() error = %v, want boom", err)
	}

	var n int
	if err := s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM kv").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestMigrate_AppliesOnceAndIsolatesPlugins(t *testing.T) {
	s := memDB(t)
	ctx := context.Background()
	var runs int
	migs := []plugin.Migration{
		{Version: 1, Description: "samples", Up: func(tx *sql.Tx) error { runs++; return createTable("history_a")(tx) }},
		{Version: 2, Description: "events", Up: func(tx *sql.Tx) error { runs++; return createTable("history_b")(tx) }},
	}
	for i := 0; i < 2; i++ {
		if err := s.Migrate(ctx, "history", migs); err != nil {
			t.Fatalf("Migrate #%d: %v", i, err)
		}
	}
	if runs != 2 {
		t.Errorf("migration bodies ran %d times, want 2", runs)
	}

	if err := s.Migrate(ctx, "settings", []plugin.Migration{
		{Version: 1, Description: "settings", Up: createTable("core_settings")},
	}); err != nil {
		t.Fatalf("settings Migrate: %v", err)
	}

	var n int
	if err := s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM _migrations").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("_migrations rows = %d, want 3", n)
	}
}

func TestMigrate_FailureKeepsEarlierSteps(t *testing.T) {
	s := memDB(t)
	ctx := context.Background()
	err := s.Migrate(ctx, "history", []plugin.Migration{
		{Version: 1, Description: "ok", Up: createTable("first")},
		{Version: 2, Description: "bad", Up: func(tx *sql.Tx) error {
			if err := createTable("second")(tx); err != nil {
				return err
			}
			return errors.New("fail")
		}},
	})
	if err == nil {
		t.Fatal("expected migration error")
	}

	var name string
	if err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE name = 'first'").Scan(&name); err != nil {
		t.Errorf("first table missing: %v", err)
	}
	if err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE name = 'second'").Scan(&name); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second table should be rolled back, err = %v", err)
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		current string
		wantErr error
		want    string
	}{
		{"first run", "", "1.0.0", nil, "1.0.0"},
		{"same", "1.0.0", "1.0.0", nil, "1.0.0"},
		{"upgrade", "1.0.0", "1.2.0", nil, "1.2.0"},
		{"patch upgrade", "v1.2.0", "v1.2.1", nil, "v1.2.1"},
		{"downgrade", "2.0.0", "1.9.0", ErrNewerSchema, "2.0.0"},
		{"dev binary", "2.0.0", "dev", nil, "dev"},
		{"dev database", "dev", "0.1.0", nil, "0.1.0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := memDB(t)
			ctx := context.Background()
			if tc.stored != "" {
				if err := s.CheckVersion(ctx, tc.stored); err != nil {
					t.Fatal(err)
				}
			}
			err := s.CheckVersion(ctx, tc.current)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("CheckVersion() error = %v, want %v", err, tc.wantErr)
			}
			var got string
			if err := s.DB().QueryRowContext(ctx, "SELECT app_version FROM _schema_meta").Scan(&got); err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("stored version = %q, want %q", got, tc.want)
			}
		})
	}
}
