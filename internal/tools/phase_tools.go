package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gerunddev/planbridge/internal/complexity"
	"github.com/gerunddev/planbridge/internal/lifecycle"
	"github.com/gerunddev/planbridge/internal/log"
	"github.com/gerunddev/planbridge/internal/plan"
)

// PhaseSummary is the list view of a phase.
type PhaseSummary struct {
	ID              string      `json:"id"`
	PhaseNumber     int         `json:"phase_number"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Status          plan.Status `json:"status"`
	Dependencies    []string    `json:"dependencies"`
	IsCurrent       bool        `json:"is_current"`
	ReviewsCount    int         `json:"reviews_count"`
	FixReportsCount int         `json:"fix_reports_count"`
}

func summarizePhases(p *plan.Plan) []PhaseSummary {
	out := make([]PhaseSummary, 0, len(p.Phases))
	for _, ph := range p.Phases {
		out = append(out, PhaseSummary{
			ID:              ph.ID,
			PhaseNumber:     ph.PhaseNumber,
			Name:            ph.Name,
			Description:     ph.Description,
			Status:          ph.Status,
			Dependencies:    ph.Dependencies,
			IsCurrent:       ph.ID == p.CurrentPhaseID,
			ReviewsCount:    len(ph.Reviews),
			FixReportsCount: len(ph.FixReports),
		})
	}
	return out
}

// =============================================================================
// analyze_complexity
// =============================================================================

// AnalyzeComplexityTool scores text or a stored plan.
type AnalyzeComplexityTool struct{ deps *Deps }

// NewAnalyzeComplexityTool creates the analyze_complexity tool.
func NewAnalyzeComplexityTool(d *Deps) *AnalyzeComplexityTool { return &AnalyzeComplexityTool{deps: d} }

// Definition returns the tool schema.
func (t *AnalyzeComplexityTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_complexity",
		mcp.WithDescription("Score plan content for complexity and recommend phases. Pass content directly or the plan_id of a stored plan."),
		mcp.WithString("content", mcp.Description("Plan content to analyze")),
		mcp.WithString("plan_id", mcp.Description("Stored plan to analyze when content is omitted")),
	)
}

// Handle serves analyze_complexity.
func (t *AnalyzeComplexityTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		if req.GetString("plan_id", "") == "" {
			return mcp.NewToolResultError("content or plan_id is required"), nil
		}
		p, res := t.deps.loadPlan(req, "plan_id")
		if p == nil {
			return res, nil
		}
		content = p.Content
	}
	return jsonResult(complexity.Analyze(content))
}

// =============================================================================
// split_into_phases
// =============================================================================

// SplitIntoPhasesTool decomposes a stored, unphased plan.
type SplitIntoPhasesTool struct{ deps *Deps }

// NewSplitIntoPhasesTool creates the split_into_phases tool.
func NewSplitIntoPhasesTool(d *Deps) *SplitIntoPhasesTool { return &SplitIntoPhasesTool{deps: d} }

// Definition returns the tool schema.
func (t *SplitIntoPhasesTool) Definition() mcp.Tool {
	return mcp.NewTool("split_into_phases",
		mcp.WithDescription("Analyze a stored plan and split it into ordered phases if it is complex"),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan ID")),
	)
}

// Handle serves split_into_phases.
func (t *SplitIntoPhasesTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, res := t.deps.loadPlan(req, "plan_id")
	if p == nil {
		return res, nil
	}
	if p.IsPhased {
		return failure("Plan is already phased.")
	}

	analysis := complexity.Analyze(p.Content)
	phased := complexity.SplitIntoPhases(*p, analysis)
	if !phased.IsPhased {
		return jsonResult(map[string]any{
			"is_phased":        false,
			"complexity_score": analysis.Score,
			"message":          "Plan is not complex enough to split into phases.",
		})
	}

	phased.Touch()
	if res := t.deps.save(&phased); res != nil {
		return res, nil
	}
	log.Info("plan split into phases", "id", phased.ID, "phases", len(phased.Phases))

	return jsonResult(map[string]any{
		"is_phased":        true,
		"complexity_score": analysis.Score,
		"current_phase_id": phased.CurrentPhaseID,
		"phases":           summarizePhases(&phased),
	})
}

// =============================================================================
// get_current_phase
// =============================================================================

// GetCurrentPhaseTool returns the active phase of a plan.
type GetCurrentPhaseTool struct{ deps *Deps }

// NewGetCurrentPhaseTool creates the get_current_phase tool.
func NewGetCurrentPhaseTool(d *Deps) *GetCurrentPhaseTool { return &GetCurrentPhaseTool{deps: d} }

// Definition returns the tool schema.
func (t *GetCurrentPhaseTool) Definition() mcp.Tool {
	return mcp.NewTool("get_current_phase",
		mcp.WithDescription("Get the phase currently under implementation and review"),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan ID")),
	)
}

// Handle serves get_current_phase.
func (t *GetCurrentPhaseTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, res := t.deps.loadPlan(req, "plan_id")
	if p == nil {
		return res, nil
	}
	if !p.IsPhased {
		return jsonResult(map[string]any{
			"is_phased": false,
			"message":   "Plan is not phased; review the plan as a whole.",
		})
	}

	out := map[string]any{
		"is_phased":        true,
		"phase_count":      len(p.Phases),
		"phases_completed": p.CompletedPhases(),
	}
	cur := p.CurrentPhase()
	if cur == nil {
		out["all_phases_completed"] = true
		return jsonResult(out)
	}
	out["all_phases_completed"] = false
	out["phase"] = cur
	return jsonResult(out)
}

// =============================================================================
// list_phases
// =============================================================================

// ListPhasesTool lists the phases of a plan.
type ListPhasesTool struct{ deps *Deps }

// NewListPhasesTool creates the list_phases tool.
func NewListPhasesTool(d *Deps) *ListPhasesTool { return &ListPhasesTool{deps: d} }

// Definition returns the tool schema.
func (t *ListPhasesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_phases",
		mcp.WithDescription("List the phases of a plan with their status"),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan ID")),
	)
}

// Handle serves list_phases.
func (t *ListPhasesTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, res := t.deps.loadPlan(req, "plan_id")
	if p == nil {
		return res, nil
	}
	return jsonResult(map[string]any{
		"plan_id":          p.ID,
		"is_phased":        p.IsPhased,
		"current_phase_id": p.CurrentPhaseID,
		"phases":           summarizePhases(p),
	})
}

// =============================================================================
// advance_phase
// =============================================================================

// AdvancePhaseTool closes the current phase and moves to the next one.
type AdvancePhaseTool struct{ deps *Deps }

// NewAdvancePhaseTool creates the advance_phase tool.
func NewAdvancePhaseTool(d *Deps) *AdvancePhaseTool { return &AdvancePhaseTool{deps: d} }

// Definition returns the tool schema.
func (t *AdvancePhaseTool) Definition() mcp.Tool {
	return mcp.NewTool("advance_phase",
		mcp.WithDescription("Mark the current phase completed and make the next phase current. Completes the plan after the last phase."),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan ID")),
	)
}

// Handle serves advance_phase.
func (t *AdvancePhaseTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, res := t.deps.loadPlan(req, "plan_id")
	if p == nil {
		return res, nil
	}

	result, err := lifecycle.AdvancePhase(p)
	if err != nil {
		return lifecycleFailure(err)
	}
	if result.CompletedPhase != nil {
		if res := t.deps.save(p); res != nil {
			return res, nil
		}
	}

	out := map[string]any{
		"success":              true,
		"all_phases_completed": result.AllPhasesCompleted,
		"plan_status":          result.PlanStatus,
	}
	if ph := result.CompletedPhase; ph != nil {
		out["completed_phase"] = map[string]any{"id": ph.ID, "phase_number": ph.PhaseNumber, "name": ph.Name}
		log.Info("phase advanced", "plan", p.ID, "completed", ph.PhaseNumber, "all_done", result.AllPhasesCompleted)
	}
	if ph := result.CurrentPhase; ph != nil {
		out["current_phase"] = ph
	}
	return jsonResult(out)
}
