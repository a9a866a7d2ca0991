package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/gerunddev/planbridge/internal/log"
	"github.com/gerunddev/planbridge/internal/plan"
)

const (
	plansDirName     = "plans"
	registryFileName = "projects.json"
)

// FileStore keeps each plan as <dir>/plans/<id>.json. Global plans live
// under root; local plans live under <project>/<localDirName>. A registry in
// root records every project that holds local plans.
type FileStore struct {
	root         string
	localDirName string
}

// registry is the on-disk list of projects with local plans.
type registry struct {
	Projects []string `json:"projects"`
}

// NewFileStore creates the global plan directory under root if needed.
func NewFileStore(root, localDirName string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("storage directory is required")
	}
	if localDirName == "" {
		localDirName = ".plan-bridge"
	}
	s := &FileStore{root: root, localDirName: localDirName}
	if err := os.MkdirAll(s.globalDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return s, nil
}

// Close is a no-op; FileStore holds no open resources.
func (s *FileStore) Close() error {
	return nil
}

// Load searches the hinted project first, then global storage, then every
// registered project.
func (s *FileStore) Load(id, projectPath string) (*plan.Plan, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}

	dirs := make([]string, 0, 2)
	if projectPath != "" {
		dirs = append(dirs, s.localDir(projectPath))
	}
	dirs = append(dirs, s.globalDir())

	projects, err := s.projects()
	if err != nil {
		return nil, err
	}
	for _, project := range projects {
		if project != projectPath {
			dirs = append(dirs, s.localDir(project))
		}
	}

	for _, dir := range dirs {
		p, err := readPlan(filepath.Join(dir, id+".json"))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, ErrNotFound
}

// Save writes p to the directory its scope selects. Saving a local plan
// registers its project.
func (s *FileStore) Save(p *plan.Plan) error {
	dir, err := s.dirFor(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create plan directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, p.ID+".json"), data); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}

	if p.Scope == plan.ScopeLocal {
		return s.register(p.ProjectPath)
	}
	return nil
}

// List reads global plans, plans of every registered project and, when the
// filter names a project, that project's local directory.
func (s *FileStore) List(f Filter) ([]*plan.Plan, error) {
	dirs := []string{s.globalDir()}
	projects, err := s.projects()
	if err != nil {
		return nil, err
	}
	if f.ProjectPath != "" && !slices.Contains(projects, f.ProjectPath) {
		projects = append(projects, f.ProjectPath)
	}
	for _, project := range projects {
		dirs = append(dirs, s.localDir(project))
	}

	seen := make(map[string]bool)
	var plans []*plan.Plan
	for _, dir := range dirs {
		found, err := readPlanDir(dir)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			if seen[p.ID] || !f.Match(p) {
				continue
			}
			seen[p.ID] = true
			plans = append(plans, p)
		}
	}

	sortByUpdated(plans)
	return plans, nil
}

// MigrateScope rewrites the plan under its new scope and removes the old file.
func (s *FileStore) MigrateScope(id, newPath string) (*plan.Plan, error) {
	p, err := s.Load(id, "")
	if err != nil {
		return nil, err
	}
	oldDir, err := s.dirFor(p)
	if err != nil {
		return nil, err
	}

	applyScope(p, newPath)
	if err := s.Save(p); err != nil {
		return nil, err
	}

	newDir, err := s.dirFor(p)
	if err != nil {
		return nil, err
	}
	if filepath.Clean(oldDir) != filepath.Clean(newDir) {
		oldPath := filepath.Join(oldDir, p.ID+".json")
		if err := os.Remove(oldPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove old plan copy: %w", err)
		}
	}

	log.Debug("migrated plan scope", "id", p.ID, "scope", p.Scope, "project", p.ProjectPath)
	return p, nil
}

// WatchDirs returns every directory that may hold plan files, for change
// notification.
func (s *FileStore) WatchDirs() ([]string, error) {
	projects, err := s.projects()
	if err != nil {
		return nil, err
	}
	dirs := []string{s.globalDir()}
	for _, project := range projects {
		dirs = append(dirs, s.localDir(project))
	}
	return dirs, nil
}

func (s *FileStore) globalDir() string {
	return filepath.Join(s.root, plansDirName)
}

func (s *FileStore) localDir(projectPath string) string {
	return filepath.Join(projectPath, s.localDirName, plansDirName)
}

func (s *FileStore) dirFor(p *plan.Plan) (string, error) {
	if p.Scope != plan.ScopeLocal {
		return s.globalDir(), nil
	}
	if p.ProjectPath == "" {
		return "", errors.New("local plan requires a project path")
	}
	return s.localDir(p.ProjectPath), nil
}

func (s *FileStore) registryPath() string {
	return filepath.Join(s.root, registryFileName)
}

// projects returns the registered project paths.
func (s *FileStore) projects() ([]string, error) {
	data, err := os.ReadFile(s.registryPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project registry: %w", err)
	}
	var reg registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse project registry: %w", err)
	}
	return reg.Projects, nil
}

func (s *FileStore) register(projectPath string) error {
	projects, err := s.projects()
	if err != nil {
		return err
	}
	if slices.Contains(projects, projectPath) {
		return nil
	}
	projects = append(projects, projectPath)
	sort.Strings(projects)

	data, err := json.MarshalIndent(registry{Projects: projects}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project registry: %w", err)
	}
	if err := writeFileAtomic(s.registryPath(), data); err != nil {
		return fmt.Errorf("failed to write project registry: %w", err)
	}
	return nil
}

// applyScope sets the plan's scope for a migration target path.
func applyScope(p *plan.Plan, newPath string) {
	if newPath == "" {
		p.Scope = plan.ScopeGlobal
	} else {
		p.Scope = plan.ScopeLocal
		p.ProjectPath = newPath
	}
	p.Touch()
}

func readPlan(path string) (*plan.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan %s: %w", filepath.Base(path), err)
	}
	p.Normalize()
	return &p, nil
}

// readPlanDir reads every plan file in dir. Unreadable files are skipped
// with a warning.
func readPlanDir(dir string) ([]*plan.Plan, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plan directory: %w", err)
	}

	var plans []*plan.Plan
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		p, err := readPlan(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Warn("skipping unreadable plan", "file", entry.Name(), "error", err)
			continue
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		log.CloseError("temp plan file", tmp.Close())
		log.CloseError("temp plan file", os.Remove(tmpName))
		return err
	}
	if err := tmp.Close(); err != nil {
		log.CloseError("temp plan file", os.Remove(tmpName))
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		log.CloseError("temp plan file", os.Remove(tmpName))
		return err
	}
	return nil
}
