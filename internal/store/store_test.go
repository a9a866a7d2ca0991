package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gerunddev/planbridge/internal/config"
	"github.com/gerunddev/planbridge/internal/plan"
)

// newTestFileStore creates a file store rooted in a temp directory.
func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "root"), ".plan-bridge")
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	return s
}

// newTestSQLiteStore creates a new in-memory store for testing.
func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return s
}

// eachBackend runs fn against a fresh store of every backend.
func eachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("file", func(t *testing.T) { fn(t, newTestFileStore(t)) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newTestSQLiteStore(t)) })
}

// pinClock makes plan timestamps advance one second per call.
func pinClock(t *testing.T) {
	t.Helper()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	restore := plan.SetClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
	t.Cleanup(restore)
}

func newPlan(name, projectPath string, scope plan.Scope) *plan.Plan {
	return plan.New(name, "content of "+name, "test", projectPath, scope)
}

func planIDs(plans []*plan.Plan) []string {
	ids := make([]string, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
	}
	return ids
}

// =============================================================================
// Filter Tests
// =============================================================================

func TestFilter_Match(t *testing.T) {
	p := newPlan("a", "/proj", plan.ScopeLocal)
	p.Status = plan.StatusNeedsFixes

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"status match", Filter{Status: plan.StatusNeedsFixes}, true},
		{"status mismatch", Filter{Status: plan.StatusCompleted}, false},
		{"project match", Filter{ProjectPath: "/proj"}, true},
		{"project mismatch", Filter{ProjectPath: "/other"}, false},
		{"scope match", Filter{Scope: plan.ScopeLocal}, true},
		{"scope mismatch", Filter{Scope: plan.ScopeGlobal}, false},
		{"all match", Filter{Status: plan.StatusNeedsFixes, ProjectPath: "/proj", Scope: plan.ScopeLocal}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(p); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Backend Behavior Tests
// =============================================================================

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		p := newPlan("round trip", "/proj", plan.ScopeGlobal)
		p.IsPhased = true
		p.Phases = []plan.Phase{{
			ID:              plan.NewID(),
			PhaseNumber:     1,
			Name:            "Setup",
			Dependencies:    []string{},
			Content:         "## Phase 1: Setup",
			Status:          plan.StatusSubmitted,
			Reviews:         []plan.Review{},
			FixReports:      []plan.FixReport{},
			SelfAssessments: []plan.SelfAssessment{},
		}}
		p.CurrentPhaseID = p.Phases[0].ID

		if err := s.Save(p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := s.Load(p.ID, "")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if diff := cmp.Diff(p, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestStore_SaveOverwrites(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		p := newPlan("overwrite", "/proj", plan.ScopeGlobal)
		if err := s.Save(p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		p.Status = plan.StatusCompleted
		if err := s.Save(p); err != nil {
			t.Fatalf("second Save failed: %v", err)
		}

		got, err := s.Load(p.ID, "")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Status != plan.StatusCompleted {
			t.Errorf("status = %s, want completed", got.Status)
		}
		all, err := s.List(Filter{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("got %d plans, want 1", len(all))
		}
	})
}

func TestStore_LoadNotFound(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		for _, id := range []string{plan.NewID(), "not-a-uuid", "../escape"} {
			if _, err := s.Load(id, ""); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load(%q) err = %v, want ErrNotFound", id, err)
			}
		}
	})
}

func TestStore_ListOrderAndFilters(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		pinClock(t)
		dir := t.TempDir()

		older := newPlan("older", dir, plan.ScopeGlobal)
		local := newPlan("local", dir, plan.ScopeLocal)
		newer := newPlan("newer", "/elsewhere", plan.ScopeGlobal)
		newer.Status = plan.StatusCompleted
		for _, p := range []*plan.Plan{older, local, newer} {
			if err := s.Save(p); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}

		tests := []struct {
			name   string
			filter Filter
			want   []string
		}{
			{"all newest first", Filter{}, []string{newer.ID, local.ID, older.ID}},
			{"by status", Filter{Status: plan.StatusSubmitted}, []string{local.ID, older.ID}},
			{"by project", Filter{ProjectPath: dir}, []string{local.ID, older.ID}},
			{"by scope", Filter{Scope: plan.ScopeLocal}, []string{local.ID}},
			{"no match", Filter{Status: plan.StatusNeedsFixes}, []string{}},
		}

		for _, tt := range tests {
			got, err := s.List(tt.filter)
			if err != nil {
				t.Fatalf("%s: List failed: %v", tt.name, err)
			}
			if diff := cmp.Diff(tt.want, planIDs(got)); diff != "" {
				t.Errorf("%s: ids mismatch (-want +got):\n%s", tt.name, diff)
			}
		}
	})
}

func TestStore_Latest(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		pinClock(t)

		if _, err := Latest(s, Filter{}); !errors.Is(err, ErrNotFound) {
			t.Errorf("empty store: err = %v, want ErrNotFound", err)
		}

		first := newPlan("first", "/proj", plan.ScopeGlobal)
		second := newPlan("second", "/proj", plan.ScopeGlobal)
		second.Status = plan.StatusNeedsFixes
		for _, p := range []*plan.Plan{first, second} {
			if err := s.Save(p); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}

		got, err := Latest(s, Filter{})
		if err != nil || got.ID != second.ID {
			t.Errorf("Latest() = %v, %v; want second plan", got, err)
		}
		got, err = Latest(s, Filter{Status: plan.StatusSubmitted})
		if err != nil || got.ID != first.ID {
			t.Errorf("Latest(submitted) = %v, %v; want first plan", got, err)
		}
	})
}

func TestStore_MigrateScope(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		dir := t.TempDir()
		p := newPlan("migrate", "/orig", plan.ScopeGlobal)
		if err := s.Save(p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := s.MigrateScope(p.ID, dir)
		if err != nil {
			t.Fatalf("MigrateScope to local failed: %v", err)
		}
		if got.Scope != plan.ScopeLocal || got.ProjectPath != dir {
			t.Errorf("after migrate: scope %s, path %q", got.Scope, got.ProjectPath)
		}
		locals, err := s.List(Filter{Scope: plan.ScopeLocal})
		if err != nil || len(locals) != 1 {
			t.Fatalf("local list = %d plans, err %v", len(locals), err)
		}
		globals, err := s.List(Filter{Scope: plan.ScopeGlobal})
		if err != nil || len(globals) != 0 {
			t.Errorf("old global copy should be gone, got %d plans (err %v)", len(globals), err)
		}

		back, err := s.MigrateScope(p.ID, "")
		if err != nil {
			t.Fatalf("MigrateScope to global failed: %v", err)
		}
		if back.Scope != plan.ScopeGlobal || back.ProjectPath != dir {
			t.Errorf("after migrate back: scope %s, path %q", back.Scope, back.ProjectPath)
		}
		all, err := s.List(Filter{})
		if err != nil || len(all) != 1 {
			t.Errorf("expected a single copy, got %d (err %v)", len(all), err)
		}
	})
}

func TestStore_MigrateScopeNotFound(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		if _, err := s.MigrateScope(plan.NewID(), ""); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_LocalRequiresProjectPath(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		p := newPlan("no path", "", plan.ScopeLocal)
		if err := s.Save(p); err == nil {
			t.Error("expected error saving local plan without project path")
		}
	})
}

// =============================================================================
// Open Tests
// =============================================================================

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		wantErr bool
		check   func(Store) bool
	}{
		{config.BackendFile, false, func(s Store) bool { _, ok := s.(*FileStore); return ok }},
		{config.BackendSQLite, false, func(s Store) bool { _, ok := s.(*SQLiteStore); return ok }},
		{"mongo", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.StorageBackend = tt.backend
			cfg.StorageDir = filepath.Join(dir, "root")
			cfg.DatabasePath = filepath.Join(dir, "db", "plans.db")

			s, err := Open(cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer func() {
				if err := s.Close(); err != nil {
					t.Errorf("Close failed: %v", err)
				}
			}()
			if !tt.check(s) {
				t.Errorf("unexpected store type %T", s)
			}
		})
	}
}
