package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/gerunddev/planbridge/internal/plan"
	"github.com/gerunddev/planbridge/internal/store"
	"github.com/gerunddev/planbridge/internal/tools"
	"github.com/gerunddev/planbridge/internal/tui"
)

// Maximum display width of the name column.
const listNameWidth = 40

type listOptions struct {
	status  string
	project string
	scope   string
}

func listCmd(opts *globalOptions) *cobra.Command {
	lo := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans",
		Long: `List stored plans, most recently updated first.

Example:
  plan-bridge list --status review_requested --project .`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := lo.filter()
			if err != nil {
				return err
			}
			_, s, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeStore(s)
			return runList(cmd.OutOrStdout(), s, f)
		},
	}
	cmd.Flags().StringVarP(&lo.status, "status", "s", "", "Filter by status")
	cmd.Flags().StringVarP(&lo.project, "project", "p", "", "Filter by project path")
	cmd.Flags().StringVar(&lo.scope, "scope", "", "Filter by scope (global or local)")
	return cmd
}

func (lo *listOptions) filter() (store.Filter, error) {
	var f store.Filter
	var err error
	if lo.status != "" {
		if f.Status, err = plan.ParseStatus(lo.status); err != nil {
			return f, err
		}
	}
	if lo.scope != "" {
		if f.Scope, err = plan.ParseScope(lo.scope); err != nil {
			return f, err
		}
	}
	if lo.project != "" {
		if f.ProjectPath, err = filepath.Abs(lo.project); err != nil {
			return f, fmt.Errorf("invalid project path: %w", err)
		}
	}
	return f, nil
}

func runList(w io.Writer, s store.Store, f store.Filter) error {
	plans, err := s.List(f)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Fprintln(w, "No plans found.")
		return nil
	}

	nameWidth := 4
	for _, p := range plans {
		if n := runewidth.StringWidth(p.Name); n > nameWidth {
			nameWidth = n
		}
	}
	if nameWidth > listNameWidth {
		nameWidth = listNameWidth
	}

	fmt.Fprintf(w, "%-36s  %s  %-16s  %-6s  %-6s  %s\n", "ID", runewidth.FillRight("NAME", nameWidth), "STATUS", "PHASE", "SCOPE", "UPDATED")
	for _, p := range plans {
		sum := tools.Summarize(p)
		phase := "-"
		if sum.IsPhased {
			phase = fmt.Sprintf("%d/%d", sum.PhasesCompleted, sum.PhaseCount)
		}
		status := tui.StatusStyle(sum.Status).Render(runewidth.FillRight(string(sum.Status), 16))
		name := runewidth.FillRight(tui.Truncate(sum.Name, nameWidth), nameWidth)
		fmt.Fprintf(w, "%-36s  %s  %s  %-6s  %-6s  %s\n", sum.ID, name, status, phase, sum.Scope, sum.UpdatedAt)
	}
	return nil
}
