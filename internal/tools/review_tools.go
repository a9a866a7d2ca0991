package tools

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gerunddev/planbridge/internal/lifecycle"
	"github.com/gerunddev/planbridge/internal/log"
	"github.com/gerunddev/planbridge/internal/plan"
	"github.com/gerunddev/planbridge/internal/store"
)

// =============================================================================
// submit_review
// =============================================================================

// SubmitReviewTool records a review of a plan or its current phase.
type SubmitReviewTool struct{ deps *Deps }

// NewSubmitReviewTool creates the submit_review tool.
func NewSubmitReviewTool(d *Deps) *SubmitReviewTool { return &SubmitReviewTool{deps: d} }

// Definition returns the tool schema.
func (t *SubmitReviewTool) Definition() mcp.Tool {
	return mcp.NewTool("submit_review",
		mcp.WithDescription("Submit a code review for a plan, or for its current phase when phased. Empty findings array means approved."),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan ID to review")),
		stringArray("findings", mcp.Required(), mcp.Description("List of findings. Empty array = approved.")),
	)
}

// Handle serves submit_review.
func (t *SubmitReviewTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	findings, err := req.RequireStringSlice("findings")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, res := t.deps.loadPlan(req, "plan_id")
	if p == nil {
		return res, nil
	}

	result, err := lifecycle.SubmitReview(p, findings)
	if err != nil {
		return lifecycleFailure(err)
	}
	if res := t.deps.save(p); res != nil {
		return res, nil
	}
	log.Info("review submitted", "plan", p.ID, "approved", result.Approved, "findings", len(findings))

	out := map[string]any{
		"review_id":      result.Review.ID,
		"plan_status":    result.PlanStatus,
		"findings_count": len(result.Review.Findings),
		"approved":       result.Approved,
	}
	if result.PhaseID != "" {
		out["phase_id"] = result.PhaseID
		out["phase_status"] = result.PhaseStatus
		out["is_last_phase"] = result.IsLastPhase
	}
	return jsonResult(out)
}

// =============================================================================
// get_review
// =============================================================================

// GetReviewTool returns the latest review of a plan's target.
type GetReviewTool struct{ deps *Deps }

// NewGetReviewTool creates the get_review tool.
func NewGetReviewTool(d *Deps) *GetReviewTool { return &GetReviewTool{deps: d} }

// Definition returns the tool schema.
func (t *GetReviewTool) Definition() mcp.Tool {
	return mcp.NewTool("get_review",
		mcp.WithDescription("Get the latest review for a plan, or for its current phase when phased"),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan ID")),
	)
}

// Handle serves get_review.
func (t *GetReviewTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, res := t.deps.loadPlan(req, "plan_id")
	if p == nil {
		return res, nil
	}

	review, targetID := lifecycle.LatestReview(p)
	if review == nil {
		return mcp.NewToolResultText(msgNoReviews), nil
	}
	out := map[string]any{
		"plan_id":     p.ID,
		"plan_status": p.Status,
		"review":      review,
	}
	if targetID != p.ID {
		out["phase_id"] = targetID
	}
	return jsonResult(out)
}

// =============================================================================
// submit_fix_report
// =============================================================================

// SubmitFixReportTool records fixes applied for a review.
type SubmitFixReportTool struct{ deps *Deps }

// NewSubmitFixReportTool creates the submit_fix_report tool.
func NewSubmitFixReportTool(d *Deps) *SubmitFixReportTool { return &SubmitFixReportTool{deps: d} }

// Definition returns the tool schema.
func (t *SubmitFixReportTool) Definition() mcp.Tool {
	return mcp.NewTool("submit_fix_report",
		mcp.WithDescription("Report fixes applied for a review; sets the plan (or current phase) to review_requested"),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan ID")),
		mcp.WithString("review_id", mcp.Required(), mcp.Description("Review ID the fixes address")),
		stringArray("fixes_applied", mcp.Required(), mcp.Description("Description of each fix applied")),
	)
}

// Handle serves submit_fix_report.
func (t *SubmitFixReportTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reviewID, err := req.RequireString("review_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fixes, err := req.RequireStringSlice("fixes_applied")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, res := t.deps.loadPlan(req, "plan_id")
	if p == nil {
		return res, nil
	}

	result, err := lifecycle.SubmitFixReport(p, reviewID, fixes)
	if err != nil {
		return lifecycleFailure(err)
	}
	if res := t.deps.save(p); res != nil {
		return res, nil
	}
	log.Info("fix report submitted", "plan", p.ID, "review", reviewID, "fixes", len(fixes))

	out := map[string]any{
		"fix_report_id": result.FixReport.ID,
		"plan_status":   result.PlanStatus,
		"fixes_count":   len(result.FixReport.FixesApplied),
	}
	if result.PhaseID != "" {
		out["phase_id"] = result.PhaseID
		out["phase_status"] = result.PhaseStatus
	}
	return jsonResult(out)
}

// =============================================================================
// submit_self_assessment
// =============================================================================

// SubmitSelfAssessmentTool records the implementer's own report on its work.
type SubmitSelfAssessmentTool struct{ deps *Deps }

// NewSubmitSelfAssessmentTool creates the submit_self_assessment tool.
func NewSubmitSelfAssessmentTool(d *Deps) *SubmitSelfAssessmentTool {
	return &SubmitSelfAssessmentTool{deps: d}
}

// Definition returns the tool schema.
func (t *SubmitSelfAssessmentTool) Definition() mcp.Tool {
	return mcp.NewTool("submit_self_assessment",
		mcp.WithDescription("Record a self-assessment of the implementation for the plan or its current phase. Does not change status."),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan ID")),
		stringArray("files_changed", mcp.Required(), mcp.Description("Files touched by the implementation")),
		mcp.WithBoolean("tests_run", mcp.Required(), mcp.Description("Whether tests were run")),
		mcp.WithBoolean("tests_passed", mcp.Required(), mcp.Description("Whether the tests passed")),
		mcp.WithString("test_summary", mcp.Description("Short summary of the test run")),
		stringArray("requirements_met", mcp.Required(), mcp.Description("Plan requirements the work satisfies")),
		stringArray("concerns", mcp.Required(), mcp.Description("Known risks or weak spots")),
		stringArray("questions", mcp.Required(), mcp.Description("Open questions for the reviewer")),
		mcp.WithString("diff_summary", mcp.Required(), mcp.Description("Summary of the change")),
	)
}

// Handle serves submit_self_assessment.
func (t *SubmitSelfAssessmentTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a plan.SelfAssessment
	var err error

	if a.FilesChanged, err = req.RequireStringSlice("files_changed"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if a.TestsRun, err = req.RequireBool("tests_run"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if a.TestsPassed, err = req.RequireBool("tests_passed"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if a.RequirementsMet, err = req.RequireStringSlice("requirements_met"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if a.Concerns, err = req.RequireStringSlice("concerns"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if a.Questions, err = req.RequireStringSlice("questions"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if a.DiffSummary, err = req.RequireString("diff_summary"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a.TestSummary = req.GetString("test_summary", "")

	p, res := t.deps.loadPlan(req, "plan_id")
	if p == nil {
		return res, nil
	}
	saved, err := lifecycle.AddSelfAssessment(p, a)
	if err != nil {
		return lifecycleFailure(err)
	}
	if res := t.deps.save(p); res != nil {
		return res, nil
	}
	log.Info("self-assessment recorded", "plan", p.ID, "target", saved.TargetID, "tests_passed", saved.TestsPassed)

	return jsonResult(map[string]any{
		"assessment_id": saved.ID,
		"target_id":     saved.TargetID,
	})
}

// =============================================================================
// wait_for_status
// =============================================================================

// WaitForStatusTool blocks until a plan reaches a status.
type WaitForStatusTool struct{ deps *Deps }

// NewWaitForStatusTool creates the wait_for_status tool.
func NewWaitForStatusTool(d *Deps) *WaitForStatusTool { return &WaitForStatusTool{deps: d} }

// Definition returns the tool schema.
func (t *WaitForStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("wait_for_status",
		mcp.WithDescription("Poll a plan until it reaches the target status. Blocks up to timeout_seconds (default 300). "+
			"Used to automate the review loop: one side waits for the other to finish."),
		mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan ID to watch")),
		statusParam("target_status", "Status to wait for", true),
		mcp.WithNumber("timeout_seconds", mcp.Description("Max seconds to wait (default 300)")),
	)
}

// Handle serves wait_for_status.
func (t *WaitForStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("plan_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("target_status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := plan.ParseStatus(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	timeout := t.deps.Config.WaitTimeout()
	if secs := req.GetFloat("timeout_seconds", 0); secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}

	result, err := t.deps.Waiter.Wait(ctx, id, req.GetString("project_path", ""), target, timeout)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultText(msgPlanNotFound), nil
	}
	if err != nil {
		return storageError("load plan", err)
	}
	return jsonResult(result)
}
