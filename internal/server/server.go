// Package server wires the plan store and tools into an MCP server.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gerunddev/planbridge/internal/config"
	"github.com/gerunddev/planbridge/internal/log"
	"github.com/gerunddev/planbridge/internal/store"
	"github.com/gerunddev/planbridge/internal/tools"
)

// Name is the server name announced to clients.
const Name = "plan-bridge"

// Version is set at build time via ldflags.
var Version = "dev"

// New opens the configured store and returns an MCP server with every tool
// registered. The cleanup function closes the store; it is always non-nil.
func New(cfg *config.Config) (*server.MCPServer, func(), error) {
	s, err := store.Open(cfg)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to open %s store: %w", cfg.StorageBackend, err)
	}
	cleanup := func() { log.CloseError("plan store", s.Close()) }
	return NewWithStore(s, cfg), cleanup, nil
}

// NewWithStore builds the MCP server around an already open store.
func NewWithStore(s store.Store, cfg *config.Config) *server.MCPServer {
	srv := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	deps := tools.NewDeps(s, cfg)
	for _, t := range tools.All(deps) {
		srv.AddTool(t.Definition(), t.Handle)
	}
	return srv
}

// Serve runs the server over stdin/stdout until the client disconnects.
func Serve(cfg *config.Config) error {
	srv, cleanup, err := New(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	log.Info("serving MCP over stdio", "version", Version, "backend", cfg.StorageBackend)
	return server.ServeStdio(srv)
}

func noop() {}

const instructions = `plan-bridge shares implementation plans between a planning agent and a reviewing agent.

## Workflow

1. The planner calls submit_plan with the full plan. Complex plans are split into phases.
2. The implementer works on the plan, or on the current phase when phased, and may call submit_self_assessment.
3. The reviewer calls get_plan or get_current_phase, then submit_review. An empty findings array approves.
4. On findings, the implementer applies fixes and calls submit_fix_report with the review_id.
5. For phased plans, call advance_phase after a phase is approved to move to the next one.

Use wait_for_status to block until the other side has acted (for example wait for needs_fixes or completed).

## Statuses

submitted, in_progress, review_requested, needs_fixes, completed.

## Storage

Plans are global by default. Pass scope "local" to keep a plan inside the project, and use migrate_plan_scope to move it later.`
