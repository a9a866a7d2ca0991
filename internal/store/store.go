// Package store persists plans.
//
// Two backends implement Store: FileStore keeps one JSON document per plan,
// split between a global directory and per-project local directories, and
// SQLiteStore keeps every plan in a single database.
package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gerunddev/planbridge/internal/config"
	"github.com/gerunddev/planbridge/internal/plan"
)

// ErrNotFound is returned when a requested plan does not exist.
var ErrNotFound = errors.New("plan not found")

// Store loads and saves plans.
type Store interface {
	// Load returns the plan with the given id. projectPath is a hint for
	// locating local plans and may be empty.
	Load(id, projectPath string) (*plan.Plan, error)
	// Save writes the plan, replacing any previous copy.
	Save(p *plan.Plan) error
	// List returns matching plans, most recently updated first.
	List(f Filter) ([]*plan.Plan, error)
	// MigrateScope moves a plan to local storage under newPath, or to global
	// storage when newPath is empty.
	MigrateScope(id, newPath string) (*plan.Plan, error)
	Close() error
}

// Filter narrows List results. Zero-valued fields match everything.
type Filter struct {
	Status      plan.Status
	ProjectPath string
	Scope       plan.Scope
}

// Match reports whether p passes the filter.
func (f Filter) Match(p *plan.Plan) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.ProjectPath != "" && p.ProjectPath != f.ProjectPath {
		return false
	}
	if f.Scope != "" && p.Scope != f.Scope {
		return false
	}
	return true
}

// Latest returns the most recently updated plan matching f.
func Latest(s Store, f Filter) (*plan.Plan, error) {
	plans, err := s.List(f)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, ErrNotFound
	}
	return plans[0], nil
}

// Open creates the store selected by cfg.StorageBackend. cfg paths must
// already be expanded.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case config.BackendFile, "":
		return NewFileStore(cfg.StorageDir, cfg.LocalDirName)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.StorageBackend)
	}
}

// sortByUpdated orders plans newest first. Timestamps are fixed-width UTC
// so string comparison is chronological; ties fall back to id.
func sortByUpdated(plans []*plan.Plan) {
	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].UpdatedAt != plans[j].UpdatedAt {
			return plans[i].UpdatedAt > plans[j].UpdatedAt
		}
		return plans[i].ID < plans[j].ID
	})
}
