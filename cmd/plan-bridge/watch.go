package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gerunddev/planbridge/internal/store"
	"github.com/gerunddev/planbridge/internal/tui"
)

func watchCmd(opts *globalOptions) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard of plans and review progress",
		Long: `Open a terminal dashboard that refreshes as plans change.

Example:
  plan-bridge watch --project .`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var f store.Filter
			if project != "" {
				abs, err := filepath.Abs(project)
				if err != nil {
					return fmt.Errorf("invalid project path: %w", err)
				}
				f.ProjectPath = abs
			}
			cfg, s, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeStore(s)
			return tui.Run(s, f, cfg.PollInterval())
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Only show plans of this project")
	return cmd
}
