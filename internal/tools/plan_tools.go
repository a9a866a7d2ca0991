package tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gerunddev/planbridge/internal/complexity"
	"github.com/gerunddev/planbridge/internal/lifecycle"
	"github.com/gerunddev/planbridge/internal/log"
	"github.com/gerunddev/planbridge/internal/plan"
	"github.com/gerunddev/planbridge/internal/store"
)

// =============================================================================
// submit_plan
// =============================================================================

// SubmitPlanTool stores a new plan, splitting it into phases when complex.
type SubmitPlanTool struct{ deps *Deps }

// NewSubmitPlanTool creates the submit_plan tool.
func NewSubmitPlanTool(d *Deps) *SubmitPlanTool { return &SubmitPlanTool{deps: d} }

// Definition returns the tool schema.
func (t *SubmitPlanTool) Definition() mcp.Tool {
	return mcp.NewTool("submit_plan",
		mcp.WithDescription("Submit a new implementation plan. Complex plans are split into ordered phases unless auto_phase is false."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Short plan name")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full plan content (markdown)")),
		mcp.WithString("project_path", mcp.Required(), mcp.Description("Absolute path to the project")),
		mcp.WithString("source", mcp.Description("Who submitted: claude-code or opencode")),
		mcp.WithString("scope",
			mcp.Description("Where to store the plan: global (shared) or local (inside the project)"),
			mcp.Enum(string(plan.ScopeGlobal), string(plan.ScopeLocal)),
		),
		mcp.WithBoolean("auto_phase", mcp.Description("Split complex plans into phases (default true)")),
	)
}

// Handle serves submit_plan.
func (t *SubmitPlanTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := t.deps.Config

	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawPath, err := req.RequireString("project_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	projectPath, err := absPath(rawPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scope, err := plan.ParseScope(req.GetString("scope", cfg.DefaultScope))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source := req.GetString("source", cfg.DefaultSource)
	if source == "" {
		source = cfg.DefaultSource
	}

	p := plan.New(name, content, source, projectPath, scope)
	analysis := complexity.Analyze(content)
	if req.GetBool("auto_phase", cfg.AutoPhase) {
		phased := complexity.SplitIntoPhases(*p, analysis)
		p = &phased
	}

	if res := t.deps.save(p); res != nil {
		return res, nil
	}
	log.Info("plan submitted", "id", p.ID, "name", p.Name, "scope", p.Scope, "phases", len(p.Phases), "score", analysis.Score)

	return jsonResult(map[string]any{
		"id":               p.ID,
		"status":           p.Status,
		"name":             p.Name,
		"scope":            p.Scope,
		"is_phased":        p.IsPhased,
		"phase_count":      len(p.Phases),
		"complexity_score": analysis.Score,
	})
}

// =============================================================================
// get_plan
// =============================================================================

// GetPlanTool returns one plan, or the latest matching plan.
type GetPlanTool struct{ deps *Deps }

// NewGetPlanTool creates the get_plan tool.
func NewGetPlanTool(d *Deps) *GetPlanTool { return &GetPlanTool{deps: d} }

// Definition returns the tool schema.
func (t *GetPlanTool) Definition() mcp.Tool {
	return mcp.NewTool("get_plan",
		mcp.WithDescription("Get a plan by ID, or the latest plan optionally filtered by status and project"),
		mcp.WithString("id", mcp.Description("Plan ID. If omitted, returns latest plan.")),
		statusParam("status", "Filter by status when fetching latest", false),
		mcp.WithString("project_path", mcp.Description("Project path: lookup hint with id, filter without")),
	)
}

// Handle serves get_plan.
func (t *GetPlanTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, err := absPath(req.GetString("project_path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var p *plan.Plan
	if id := req.GetString("id", ""); id != "" {
		p, err = t.deps.Store.Load(id, projectPath)
	} else {
		f := store.Filter{ProjectPath: projectPath}
		if s := req.GetString("status", ""); s != "" {
			if f.Status, err = plan.ParseStatus(s); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		p, err = store.Latest(t.deps.Store, f)
	}
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultText(msgNoPlanFound), nil
	}
	if err != nil {
		return storageError("load plan", err)
	}
	return jsonResult(p)
}

// =============================================================================
// list_plans
// =============================================================================

// ListPlansTool lists plan summaries.
type ListPlansTool struct{ deps *Deps }

// NewListPlansTool creates the list_plans tool.
func NewListPlansTool(d *Deps) *ListPlansTool { return &ListPlansTool{deps: d} }

// PlanSummary is the list_plans view of a plan.
type PlanSummary struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Status          plan.Status `json:"status"`
	Source          string      `json:"source"`
	ProjectPath     string      `json:"project_path"`
	Scope           plan.Scope  `json:"scope"`
	UpdatedAt       string      `json:"updated_at"`
	ReviewsCount    int         `json:"reviews_count"`
	FixReportsCount int         `json:"fix_reports_count"`
	IsPhased        bool        `json:"is_phased"`
	PhaseCount      int         `json:"phase_count,omitempty"`
	PhasesCompleted int         `json:"phases_completed,omitempty"`
	CurrentPhase    string      `json:"current_phase,omitempty"`
}

// Summarize builds the summary of p. Review and fix counts include phases.
func Summarize(p *plan.Plan) PlanSummary {
	s := PlanSummary{
		ID:              p.ID,
		Name:            p.Name,
		Status:          p.Status,
		Source:          p.Source,
		ProjectPath:     p.ProjectPath,
		Scope:           p.Scope,
		UpdatedAt:       p.UpdatedAt,
		ReviewsCount:    len(p.Reviews),
		FixReportsCount: len(p.FixReports),
		IsPhased:        p.IsPhased,
	}
	for _, ph := range p.Phases {
		s.ReviewsCount += len(ph.Reviews)
		s.FixReportsCount += len(ph.FixReports)
	}
	if p.IsPhased {
		s.PhaseCount = len(p.Phases)
		s.PhasesCompleted = p.CompletedPhases()
		if cur := p.CurrentPhase(); cur != nil {
			s.CurrentPhase = cur.Name
		}
	}
	return s
}

// Definition returns the tool schema.
func (t *ListPlansTool) Definition() mcp.Tool {
	return mcp.NewTool("list_plans",
		mcp.WithDescription("List all plans with optional status, project_path and scope filters"),
		statusParam("status", "Filter by status", false),
		mcp.WithString("project_path", mcp.Description("Filter by project path")),
		mcp.WithString("scope",
			mcp.Description("Filter by storage scope"),
			mcp.Enum(string(plan.ScopeGlobal), string(plan.ScopeLocal)),
		),
	)
}

// Handle serves list_plans.
func (t *ListPlansTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var f store.Filter
	var err error
	if s := req.GetString("status", ""); s != "" {
		if f.Status, err = plan.ParseStatus(s); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if s := req.GetString("scope", ""); s != "" {
		if f.Scope, err = plan.ParseScope(s); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if f.ProjectPath, err = absPath(req.GetString("project_path", "")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	plans, err := t.deps.Store.List(f)
	if err != nil {
		return storageError("list plans", err)
	}
	summaries := make([]PlanSummary, 0, len(plans))
	for _, p := range plans {
		summaries = append(summaries, Summarize(p))
	}
	return jsonResult(summaries)
}

// =============================================================================
// update_plan_status
// =============================================================================

// UpdatePlanStatusTool overwrites a plan's status.
type UpdatePlanStatusTool struct{ deps *Deps }

// NewUpdatePlanStatusTool creates the update_plan_status tool.
func NewUpdatePlanStatusTool(d *Deps) *UpdatePlanStatusTool { return &UpdatePlanStatusTool{deps: d} }

// Definition returns the tool schema.
func (t *UpdatePlanStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("update_plan_status",
		mcp.WithDescription("Update the status of a plan"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Plan ID")),
		statusParam("status", "New status", true),
	)
}

// Handle serves update_plan_status.
func (t *UpdatePlanStatusTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := plan.ParseStatus(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, res := t.deps.loadPlan(req, "id")
	if p == nil {
		return res, nil
	}
	lifecycle.UpdateStatus(p, status)
	if res := t.deps.save(p); res != nil {
		return res, nil
	}
	return jsonResult(map[string]any{"id": p.ID, "status": p.Status})
}

// =============================================================================
// mark_complete
// =============================================================================

// MarkCompleteTool force-completes a plan.
type MarkCompleteTool struct{ deps *Deps }

// NewMarkCompleteTool creates the mark_complete tool.
func NewMarkCompleteTool(d *Deps) *MarkCompleteTool { return &MarkCompleteTool{deps: d} }

// Definition returns the tool schema.
func (t *MarkCompleteTool) Definition() mcp.Tool {
	return mcp.NewTool("mark_complete",
		mcp.WithDescription("Force-mark a plan as completed. Phases are not changed."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Plan ID")),
	)
}

// Handle serves mark_complete.
func (t *MarkCompleteTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, res := t.deps.loadPlan(req, "id")
	if p == nil {
		return res, nil
	}
	lifecycle.ForceComplete(p)
	if res := t.deps.save(p); res != nil {
		return res, nil
	}
	return jsonResult(map[string]any{"id": p.ID, "status": p.Status})
}

// =============================================================================
// reset_plan
// =============================================================================

// ResetPlanTool returns a plan to its submitted state.
type ResetPlanTool struct{ deps *Deps }

// NewResetPlanTool creates the reset_plan tool.
func NewResetPlanTool(d *Deps) *ResetPlanTool { return &ResetPlanTool{deps: d} }

// Definition returns the tool schema.
func (t *ResetPlanTool) Definition() mcp.Tool {
	return mcp.NewTool("reset_plan",
		mcp.WithDescription("Reset a plan and all its phases to submitted, clearing reviews and fix reports. Self-assessments are kept."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Plan ID")),
	)
}

// Handle serves reset_plan.
func (t *ResetPlanTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, res := t.deps.loadPlan(req, "id")
	if p == nil {
		return res, nil
	}
	lifecycle.Reset(p)
	if res := t.deps.save(p); res != nil {
		return res, nil
	}
	log.Info("plan reset", "id", p.ID)
	return jsonResult(map[string]any{
		"id":               p.ID,
		"status":           p.Status,
		"current_phase_id": p.CurrentPhaseID,
	})
}

// =============================================================================
// migrate_plan_scope
// =============================================================================

// MigratePlanScopeTool moves a plan between global and local storage.
type MigratePlanScopeTool struct{ deps *Deps }

// NewMigratePlanScopeTool creates the migrate_plan_scope tool.
func NewMigratePlanScopeTool(d *Deps) *MigratePlanScopeTool { return &MigratePlanScopeTool{deps: d} }

// Definition returns the tool schema.
func (t *MigratePlanScopeTool) Definition() mcp.Tool {
	return mcp.NewTool("migrate_plan_scope",
		mcp.WithDescription("Move a plan into a project's local storage, or back to global storage when project_path is omitted"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Plan ID")),
		mcp.WithString("project_path", mcp.Description("Project to store the plan in. Omit to make the plan global.")),
	)
}

// Handle serves migrate_plan_scope.
func (t *MigratePlanScopeTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	projectPath, err := absPath(req.GetString("project_path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, err := t.deps.Store.MigrateScope(id, projectPath)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultText(msgPlanNotFound), nil
	}
	if err != nil {
		return storageError("migrate plan", err)
	}
	log.Info("plan scope migrated", "id", p.ID, "scope", p.Scope)
	return jsonResult(map[string]any{
		"id":           p.ID,
		"scope":        p.Scope,
		"project_path": p.ProjectPath,
	})
}
