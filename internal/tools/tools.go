// Package tools defines the MCP tools plan-bridge exposes.
//
// Each tool is a small type with a Definition (name, description and
// parameter schema) and a Handle method. Handlers load a plan, apply one
// lifecycle or analysis operation, save it and answer with text. Expected
// conditions such as a missing plan or an unphased plan are answered with a
// normal result; only I/O failures and bad arguments produce error results.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gerunddev/planbridge/internal/config"
	"github.com/gerunddev/planbridge/internal/lifecycle"
	"github.com/gerunddev/planbridge/internal/log"
	"github.com/gerunddev/planbridge/internal/plan"
	"github.com/gerunddev/planbridge/internal/store"
)

// Plain-text answers for conditions that are not failures.
const (
	msgPlanNotFound = "Plan not found."
	msgNoPlanFound  = "No plan found."
	msgNoReviews    = "No reviews yet."
)

// Tool is an MCP tool: its schema and the handler serving it.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Deps are the collaborators shared by every tool.
type Deps struct {
	Store  store.Store
	Config *config.Config
	Waiter *lifecycle.Waiter
}

// NewDeps builds Deps with a waiter polling s at the configured interval.
func NewDeps(s store.Store, cfg *config.Config) *Deps {
	return &Deps{
		Store:  s,
		Config: cfg,
		Waiter: &lifecycle.Waiter{Loader: s, Interval: cfg.PollInterval()},
	}
}

// All returns every tool in registration order.
func All(d *Deps) []Tool {
	return []Tool{
		NewSubmitPlanTool(d),
		NewGetPlanTool(d),
		NewListPlansTool(d),
		NewUpdatePlanStatusTool(d),
		NewSubmitReviewTool(d),
		NewGetReviewTool(d),
		NewSubmitFixReportTool(d),
		NewSubmitSelfAssessmentTool(d),
		NewMarkCompleteTool(d),
		NewResetPlanTool(d),
		NewAnalyzeComplexityTool(d),
		NewSplitIntoPhasesTool(d),
		NewGetCurrentPhaseTool(d),
		NewListPhasesTool(d),
		NewAdvancePhaseTool(d),
		NewMigratePlanScopeTool(d),
		NewWaitForStatusTool(d),
	}
}

// stringArray declares an array-of-strings parameter.
func stringArray(name string, opts ...mcp.PropertyOption) mcp.ToolOption {
	opts = append(opts, mcp.Items(map[string]any{"type": "string"}))
	return mcp.WithArray(name, opts...)
}

// statusParam declares a status parameter restricted to the known values.
func statusParam(name, description string, required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{
		mcp.Description(description),
		mcp.Enum(plan.StatusNames()...),
	}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithString(name, opts...)
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// failure reports an expected, non-fatal refusal as success:false.
func failure(message string) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"success": false, "message": message})
}

// storageError turns an unexpected storage failure into an error result.
func storageError(op string, err error) (*mcp.CallToolResult, error) {
	log.Error("storage operation failed", "op", op, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", op, err)), nil
}

// loadPlan reads the plan named by the request's idKey argument. A nil plan
// with a non-nil result means the handler should return that result.
func (d *Deps) loadPlan(req mcp.CallToolRequest, idKey string) (*plan.Plan, *mcp.CallToolResult) {
	id, err := req.RequireString(idKey)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	p, err := d.Store.Load(id, req.GetString("project_path", ""))
	if errors.Is(err, store.ErrNotFound) {
		return nil, mcp.NewToolResultText(msgPlanNotFound)
	}
	if err != nil {
		res, _ := storageError("load plan", err)
		return nil, res
	}
	return p, nil
}

// save persists p, returning an error result on failure.
func (d *Deps) save(p *plan.Plan) *mcp.CallToolResult {
	if err := d.Store.Save(p); err != nil {
		res, _ := storageError("save plan", err)
		return res
	}
	return nil
}

// lifecycleFailure maps lifecycle sentinel errors to success:false answers.
func lifecycleFailure(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotPhased):
		return failure("Plan is not phased.")
	case errors.Is(err, lifecycle.ErrNoActivePhase):
		return failure("Plan has no active phase.")
	case errors.Is(err, lifecycle.ErrReviewNotFound):
		return failure("Review not found on the current target.")
	}
	return mcp.NewToolResultError(err.Error()), nil
}

// absPath cleans a project path and makes it absolute. Empty stays empty.
func absPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid project path %q: %w", path, err)
	}
	return abs, nil
}
