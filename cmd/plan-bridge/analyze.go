package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gerunddev/planbridge/internal/complexity"
	"github.com/gerunddev/planbridge/internal/plan"
)

func analyzeCmd(opts *globalOptions) *cobra.Command {
	var phases bool
	var format string
	cmd := &cobra.Command{
		Use:   "analyze <plan-file>",
		Short: "Score a plan file for complexity",
		Long: `Run the complexity analyzer over a plan file and print the score,
the indicators and the recommended phases. Nothing is stored.

Example:
  plan-bridge analyze plan.md --phases`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(opts); err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read plan file: %w", err)
			}
			name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			return runAnalyze(cmd.OutOrStdout(), name, string(data), phases, format)
		},
	}
	cmd.Flags().BoolVar(&phases, "phases", false, "Also print the phases the plan would be split into")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}

// analyzeReport is the structured form of the analyze output.
type analyzeReport struct {
	Analysis complexity.Analysis `json:"analysis" yaml:"analysis"`
	Phases   []plan.Phase        `json:"phases,omitempty" yaml:"phases,omitempty"`
}

func runAnalyze(w io.Writer, name, content string, withPhases bool, format string) error {
	report := analyzeReport{Analysis: complexity.Analyze(content)}
	if withPhases {
		p := plan.New(name, content, "cli", "", plan.ScopeGlobal)
		report.Phases = complexity.SplitIntoPhases(*p, report.Analysis).Phases
	}

	if format != "text" {
		return writeFormatted(w, report, format)
	}

	a := report.Analysis
	verdict := "simple"
	if a.IsComplex {
		verdict = "complex"
	}
	fmt.Fprintf(w, "Score: %d (%s)\n\n", a.Score, verdict)
	fmt.Fprintf(w, "  files:        %d\n", a.Indicators.FileCount)
	fmt.Fprintf(w, "  steps:        %d\n", a.Indicators.EstimatedSteps)
	fmt.Fprintf(w, "  lines:        %d\n", a.Indicators.TotalLines)
	fmt.Fprintf(w, "  phases:       %t\n", a.Indicators.HasPhases)
	fmt.Fprintf(w, "  dependencies: %t\n", a.Indicators.HasDependencies)

	if len(a.RecommendedPhases) > 0 {
		fmt.Fprintf(w, "\nRecommended phases:\n")
		for i, r := range a.RecommendedPhases {
			fmt.Fprintf(w, "  %d. %s\n", i+1, r.Name)
			if r.Rationale != "" {
				fmt.Fprintf(w, "     %s\n", r.Rationale)
			}
			if len(r.EstimatedFiles) > 0 {
				fmt.Fprintf(w, "     files: %s\n", strings.Join(r.EstimatedFiles, ", "))
			}
		}
	}

	if withPhases {
		if len(report.Phases) == 0 {
			fmt.Fprintf(w, "\nThe plan would not be split.\n")
			return nil
		}
		for _, ph := range report.Phases {
			fmt.Fprintf(w, "\n--- Phase %d: %s ---\n%s\n", ph.PhaseNumber, ph.Name, ph.Content)
		}
	}
	return nil
}
