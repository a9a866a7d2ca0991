// Package plan defines the plan review data model shared by the analyzer,
// the lifecycle state machine and the stores.
package plan

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle status of a plan or a phase.
type Status string

const (
	StatusSubmitted       Status = "submitted"
	StatusInProgress      Status = "in_progress"
	StatusReviewRequested Status = "review_requested"
	StatusNeedsFixes      Status = "needs_fixes"
	StatusCompleted       Status = "completed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusSubmitted,
	StatusInProgress,
	StatusReviewRequested,
	StatusNeedsFixes,
	StatusCompleted,
}

// ParseStatus converts text into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status: %q", s)
}

// StatusNames returns the status values as strings, for enum declarations.
func StatusNames() []string {
	names := make([]string, len(Statuses))
	for i, st := range Statuses {
		names[i] = string(st)
	}
	return names
}

// ReviewStatus is the verdict carried by a single review.
type ReviewStatus string

const (
	ReviewApproved   ReviewStatus = "approved"
	ReviewNeedsFixes ReviewStatus = "needs_fixes"
)

// Scope controls where a plan is stored and who sees it.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeLocal  Scope = "local"
)

// ParseScope converts text into a Scope. Empty input yields ScopeGlobal.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeGlobal:
		return ScopeGlobal, nil
	case ScopeLocal:
		return ScopeLocal, nil
	}
	return "", fmt.Errorf("unknown scope: %q", s)
}

// Review is one reviewer pass over a plan or phase.
type Review struct {
	ID        string       `json:"id" yaml:"id"`
	Timestamp string       `json:"timestamp" yaml:"timestamp"`
	Findings  []string     `json:"findings" yaml:"findings"`
	Status    ReviewStatus `json:"status" yaml:"status"`
}

// FixReport records the fixes an implementer applied for a review.
type FixReport struct {
	ID           string   `json:"id" yaml:"id"`
	Timestamp    string   `json:"timestamp" yaml:"timestamp"`
	ReviewID     string   `json:"review_id" yaml:"review_id"`
	FixesApplied []string `json:"fixes_applied" yaml:"fixes_applied"`
}

// SelfAssessment is the implementer's own report on a piece of work.
// It is informational only and never drives status transitions.
type SelfAssessment struct {
	ID              string   `json:"id" yaml:"id"`
	Timestamp       string   `json:"timestamp" yaml:"timestamp"`
	TargetID        string   `json:"target_id" yaml:"target_id"`
	FilesChanged    []string `json:"files_changed" yaml:"files_changed"`
	TestsRun        bool     `json:"tests_run" yaml:"tests_run"`
	TestsPassed     bool     `json:"tests_passed" yaml:"tests_passed"`
	TestSummary     string   `json:"test_summary,omitempty" yaml:"test_summary,omitempty"`
	RequirementsMet []string `json:"requirements_met" yaml:"requirements_met"`
	Concerns        []string `json:"concerns" yaml:"concerns"`
	Questions       []string `json:"questions" yaml:"questions"`
	DiffSummary     string   `json:"diff_summary" yaml:"diff_summary"`
}

// Phase is one ordered slice of a decomposed plan.
type Phase struct {
	ID              string           `json:"id" yaml:"id"`
	PhaseNumber     int              `json:"phase_number" yaml:"phase_number"`
	Name            string           `json:"name" yaml:"name"`
	Description     string           `json:"description" yaml:"description"`
	Dependencies    []string         `json:"dependencies" yaml:"dependencies"`
	Content         string           `json:"content" yaml:"content"`
	Status          Status           `json:"status" yaml:"status"`
	Reviews         []Review         `json:"reviews" yaml:"reviews"`
	FixReports      []FixReport      `json:"fix_reports" yaml:"fix_reports"`
	SelfAssessments []SelfAssessment `json:"self_assessments" yaml:"self_assessments"`
	CreatedAt       string           `json:"created_at" yaml:"created_at"`
	UpdatedAt       string           `json:"updated_at" yaml:"updated_at"`
}

// Plan is the top-level unit of review work.
type Plan struct {
	ID              string           `json:"id" yaml:"id"`
	Name            string           `json:"name" yaml:"name"`
	Content         string           `json:"content" yaml:"content"`
	Status          Status           `json:"status" yaml:"status"`
	Source          string           `json:"source" yaml:"source"`
	ProjectPath     string           `json:"project_path" yaml:"project_path"`
	Scope           Scope            `json:"scope" yaml:"scope"`
	CreatedAt       string           `json:"created_at" yaml:"created_at"`
	UpdatedAt       string           `json:"updated_at" yaml:"updated_at"`
	Reviews         []Review         `json:"reviews" yaml:"reviews"`
	FixReports      []FixReport      `json:"fix_reports" yaml:"fix_reports"`
	SelfAssessments []SelfAssessment `json:"self_assessments" yaml:"self_assessments"`
	IsPhased        bool             `json:"is_phased" yaml:"is_phased"`
	Phases          []Phase          `json:"phases,omitempty" yaml:"phases,omitempty"`
	CurrentPhaseID  string           `json:"current_phase_id,omitempty" yaml:"current_phase_id,omitempty"`
}

// New creates a freshly submitted plan with its id and timestamps assigned.
func New(name, content, source, projectPath string, scope Scope) *Plan {
	now := Timestamp()
	if scope == "" {
		scope = ScopeGlobal
	}
	return &Plan{
		ID:              NewID(),
		Name:            name,
		Content:         content,
		Status:          StatusSubmitted,
		Source:          source,
		ProjectPath:     projectPath,
		Scope:           scope,
		CreatedAt:       now,
		UpdatedAt:       now,
		Reviews:         []Review{},
		FixReports:      []FixReport{},
		SelfAssessments: []SelfAssessment{},
	}
}

// Normalize replaces nil history slices with empty ones so a decoded plan
// always serializes lists as [] rather than null.
func (p *Plan) Normalize() {
	if p.Reviews == nil {
		p.Reviews = []Review{}
	}
	if p.FixReports == nil {
		p.FixReports = []FixReport{}
	}
	if p.SelfAssessments == nil {
		p.SelfAssessments = []SelfAssessment{}
	}
	if p.Scope == "" {
		p.Scope = ScopeGlobal
	}
	for i := range p.Phases {
		ph := &p.Phases[i]
		if ph.Dependencies == nil {
			ph.Dependencies = []string{}
		}
		if ph.Reviews == nil {
			ph.Reviews = []Review{}
		}
		if ph.FixReports == nil {
			ph.FixReports = []FixReport{}
		}
		if ph.SelfAssessments == nil {
			ph.SelfAssessments = []SelfAssessment{}
		}
	}
}

// PhaseIndex returns the index of the phase with the given id, or -1.
func (p *Plan) PhaseIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range p.Phases {
		if p.Phases[i].ID == id {
			return i
		}
	}
	return -1
}

// CurrentPhase returns the active phase, or nil when the plan is unphased
// or every phase is done.
func (p *Plan) CurrentPhase() *Phase {
	if !p.IsPhased {
		return nil
	}
	idx := p.PhaseIndex(p.CurrentPhaseID)
	if idx < 0 {
		return nil
	}
	return &p.Phases[idx]
}

// PhaseByNumber returns the phase with the given 1-based number, or nil.
func (p *Plan) PhaseByNumber(n int) *Phase {
	for i := range p.Phases {
		if p.Phases[i].PhaseNumber == n {
			return &p.Phases[i]
		}
	}
	return nil
}

// CompletedPhases counts phases in the completed status.
func (p *Plan) CompletedPhases() int {
	n := 0
	for _, ph := range p.Phases {
		if ph.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// Touch stamps the plan's updated_at with the current time.
func (p *Plan) Touch() {
	p.UpdatedAt = Timestamp()
}

// TimestampLayout is the ISO-8601 layout used for every stored timestamp.
// It is fixed-width in UTC so timestamps sort lexicographically.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// nowFunc returns the current time. It can be replaced in tests.
var nowFunc = time.Now

// Timestamp returns the current time formatted with TimestampLayout.
func Timestamp() string {
	return nowFunc().UTC().Format(TimestampLayout)
}

// SetClock replaces the clock used by Timestamp and returns a function
// restoring the previous one.
func SetClock(now func() time.Time) (restore func()) {
	prev := nowFunc
	nowFunc = now
	return func() { nowFunc = prev }
}

// NewID generates a new unique identifier.
func NewID() string {
	return uuid.New().String()
}
