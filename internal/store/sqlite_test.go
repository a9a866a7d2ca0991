package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/gerunddev/planbridge/internal/plan"
)

func TestNewSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() returned error: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() returned error: %v", err)
		}
	}()

	if s.conn == nil {
		t.Error("NewSQLiteStore() returned store with nil connection")
	}
}

func TestNewSQLiteStore_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "plans.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}
}

func TestSQLiteStore_MigratesOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	// A database from before scope and is_phased were columns.
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := conn.Exec(`
		CREATE TABLE plans (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			project_path TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			data TEXT NOT NULL
		)`); err != nil {
		t.Fatalf("create old table: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() on old schema: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() returned error: %v", err)
		}
	}()

	for _, column := range []string{"scope", "is_phased"} {
		exists, err := s.columnExists("plans", column)
		if err != nil {
			t.Fatalf("columnExists(%s): %v", column, err)
		}
		if !exists {
			t.Errorf("column %s not added", column)
		}
	}

	p := plan.New("after migration", "c", "test", "/proj", plan.ScopeLocal)
	if err := s.Save(p); err != nil {
		t.Fatalf("Save after migration: %v", err)
	}
	got, err := s.List(Filter{Scope: plan.ScopeLocal})
	if err != nil || len(got) != 1 {
		t.Errorf("List(local) = %d plans, err %v", len(got), err)
	}
}

func TestSQLiteStore_MigrateIsIdempotent(t *testing.T) {
	s := newTestSQLiteStore(t)
	if err := s.migrate(); err != nil {
		t.Errorf("second migrate() returned error: %v", err)
	}
}

func TestSQLiteStore_Close(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}
	// Double close should not panic or error
	if err := s.Close(); err != nil {
		t.Errorf("Double Close() returned error: %v", err)
	}
}
