package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gerunddev/planbridge/internal/plan"
)

func TestNewFileStore_CreatesGlobalDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "root")
	if _, err := NewFileStore(root, ""); err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	info, err := os.Stat(filepath.Join(root, "plans"))
	if err != nil || !info.IsDir() {
		t.Errorf("plans directory not created: %v", err)
	}
}

func TestNewFileStore_RequiresRoot(t *testing.T) {
	if _, err := NewFileStore("", ""); err == nil {
		t.Error("expected error for empty root")
	}
}

func TestFileStore_Layout(t *testing.T) {
	s := newTestFileStore(t)
	project := t.TempDir()

	global := newPlan("global", project, plan.ScopeGlobal)
	local := newPlan("local", project, plan.ScopeLocal)
	for _, p := range []*plan.Plan{global, local} {
		if err := s.Save(p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	if _, err := os.Stat(filepath.Join(s.root, "plans", global.ID+".json")); err != nil {
		t.Errorf("global plan file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(project, ".plan-bridge", "plans", local.ID+".json")); err != nil {
		t.Errorf("local plan file missing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.root, "projects.json"))
	if err != nil {
		t.Fatalf("registry missing: %v", err)
	}
	var reg registry
	if err := json.Unmarshal(data, &reg); err != nil {
		t.Fatalf("registry unreadable: %v", err)
	}
	if diff := cmp.Diff([]string{project}, reg.Projects); diff != "" {
		t.Errorf("registry mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStore_PlanFileIsSnakeCaseJSON(t *testing.T) {
	s := newTestFileStore(t)
	p := newPlan("json", "/proj", plan.ScopeGlobal)
	if err := s.Save(p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.root, "plans", p.ID+".json"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	for _, key := range []string{`"project_path"`, `"fix_reports": []`, `"self_assessments": []`, `"is_phased": false`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("plan file missing %s:\n%s", key, data)
		}
	}
}

func TestFileStore_LoadSearchOrder(t *testing.T) {
	s := newTestFileStore(t)
	project := t.TempDir()

	local := newPlan("local", project, plan.ScopeLocal)
	if err := s.Save(local); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Without a hint the registry finds the project.
	got, err := s.Load(local.ID, "")
	if err != nil {
		t.Fatalf("Load without hint failed: %v", err)
	}
	if got.Name != "local" {
		t.Errorf("loaded %q", got.Name)
	}

	// An unregistered project found through the hint.
	other := t.TempDir()
	dir := filepath.Join(other, ".plan-bridge", "plans")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	hinted := newPlan("hinted", other, plan.ScopeLocal)
	data, _ := json.Marshal(hinted)
	if err := os.WriteFile(filepath.Join(dir, hinted.ID+".json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load(hinted.ID, ""); err == nil {
		t.Error("unregistered plan should not be found without a hint")
	}
	if _, err := s.Load(hinted.ID, other); err != nil {
		t.Errorf("Load with hint failed: %v", err)
	}
}

func TestFileStore_SkipsCorruptAndForeignFiles(t *testing.T) {
	s := newTestFileStore(t)
	good := newPlan("good", "/proj", plan.ScopeGlobal)
	if err := s.Save(good); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dir := filepath.Join(s.root, "plans")
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	plans, err := s.List(Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if diff := cmp.Diff([]string{good.ID}, planIDs(plans)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStore_NormalizesLegacyPlans(t *testing.T) {
	s := newTestFileStore(t)
	id := plan.NewID()
	legacy := `{"id":"` + id + `","name":"old","content":"c","status":"submitted","source":"claude-code",` +
		`"project_path":"/p","created_at":"2024-01-01T00:00:00.000Z","updated_at":"2024-01-01T00:00:00.000Z",` +
		`"reviews":[],"fix_reports":[]}`
	if err := os.WriteFile(filepath.Join(s.root, "plans", id+".json"), []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := s.Load(id, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Scope != plan.ScopeGlobal {
		t.Errorf("scope = %q, want global", p.Scope)
	}
	if p.SelfAssessments == nil {
		t.Error("self_assessments should default to empty")
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	s := newTestFileStore(t)
	p := newPlan("atomic", "/proj", plan.ScopeGlobal)
	for i := 0; i < 3; i++ {
		if err := s.Save(p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(s.root, "plans"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != p.ID+".json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected files: %v", names)
	}
}

func TestFileStore_WatchDirs(t *testing.T) {
	s := newTestFileStore(t)
	project := t.TempDir()
	if err := s.Save(newPlan("local", project, plan.ScopeLocal)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dirs, err := s.WatchDirs()
	if err != nil {
		t.Fatalf("WatchDirs failed: %v", err)
	}
	want := []string{
		filepath.Join(s.root, "plans"),
		filepath.Join(project, ".plan-bridge", "plans"),
	}
	if diff := cmp.Diff(want, dirs); diff != "" {
		t.Errorf("dirs mismatch (-want +got):\n%s", diff)
	}
}
