package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/gerunddev/planbridge/internal/log"
	"github.com/gerunddev/planbridge/internal/plan"
)

// schema is the SQL schema for the plan database. The full plan is kept as
// a JSON document in data; the other columns exist for filtering.
const schema = `
CREATE TABLE IF NOT EXISTS plans (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    status TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    project_path TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    data TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_plans_status ON plans(status);
CREATE INDEX IF NOT EXISTS idx_plans_updated ON plans(updated_at);
CREATE INDEX IF NOT EXISTS idx_plans_project ON plans(project_path);
`

// SQLiteStore keeps every plan in a single SQLite database. Scope is
// recorded but does not change where a plan is stored.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens the database at path and migrates it.
// If the path is ":memory:", an in-memory database is created.
// Otherwise, the parent directory is created if it doesn't exist.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		log.CloseError("database", conn.Close())
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		log.CloseError("database", conn.Close())
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Load returns the plan with the given id. The project path hint is unused.
func (s *SQLiteStore) Load(id, _ string) (*plan.Plan, error) {
	var data string
	err := s.conn.QueryRow(`SELECT data FROM plans WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return decodePlan(data)
}

// Save inserts or replaces the plan.
func (s *SQLiteStore) Save(p *plan.Plan) error {
	if p.Scope == plan.ScopeLocal && p.ProjectPath == "" {
		return errors.New("local plan requires a project path")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	_, err = s.conn.Exec(`
		INSERT INTO plans (id, name, status, source, project_path, scope, is_phased, created_at, updated_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			source = excluded.source,
			project_path = excluded.project_path,
			scope = excluded.scope,
			is_phased = excluded.is_phased,
			updated_at = excluded.updated_at,
			data = excluded.data`,
		p.ID, p.Name, p.Status, p.Source, p.ProjectPath, p.Scope, p.IsPhased,
		p.CreatedAt, p.UpdatedAt, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// List returns matching plans ordered by updated_at descending.
func (s *SQLiteStore) List(f Filter) ([]*plan.Plan, error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.ProjectPath != "" {
		where = append(where, "project_path = ?")
		args = append(args, f.ProjectPath)
	}
	if f.Scope != "" {
		where = append(where, "scope = ?")
		args = append(args, f.Scope)
	}

	query := `SELECT data FROM plans`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id ASC"

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", "operation", "List", "error", closeErr)
		}
	}()

	var plans []*plan.Plan
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		p, err := decodePlan(data)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// MigrateScope updates the plan's scope and project path in place.
func (s *SQLiteStore) MigrateScope(id, newPath string) (*plan.Plan, error) {
	p, err := s.Load(id, "")
	if err != nil {
		return nil, err
	}
	applyScope(p, newPath)
	if err := s.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

func decodePlan(data string) (*plan.Plan, error) {
	var p plan.Plan
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	p.Normalize()
	return &p, nil
}

// migrate creates the schema and applies incremental column additions for
// databases created by older versions.
func (s *SQLiteStore) migrate() error {
	if _, err := s.conn.Exec(schema); err != nil {
		return err
	}

	migrations := []struct {
		column string
		ddl    string
	}{
		{"scope", `ALTER TABLE plans ADD COLUMN scope TEXT NOT NULL DEFAULT 'global'`},
		{"is_phased", `ALTER TABLE plans ADD COLUMN is_phased INTEGER NOT NULL DEFAULT 0`},
	}
	for _, m := range migrations {
		exists, err := s.columnExists("plans", m.column)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := s.conn.Exec(m.ddl); err != nil {
			return fmt.Errorf("failed to add column %s: %w", m.column, err)
		}
	}

	_, err := s.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_plans_scope ON plans(scope)`)
	return err
}

// columnExists checks if a column exists in the specified table.
func (s *SQLiteStore) columnExists(table, column string) (bool, error) {
	rows, err := s.conn.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", "operation", "columnExists", "error", closeErr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
