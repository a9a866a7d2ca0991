package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gerunddev/planbridge/internal/store"
)

func showCmd(opts *globalOptions) *cobra.Command {
	var project, format string
	cmd := &cobra.Command{
		Use:   "show <plan-id>",
		Short: "Print a plan",
		Long: `Print a stored plan with its phases, reviews and fix reports.

Example:
  plan-bridge show 3f1c... --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if project != "" {
				abs, err := filepath.Abs(project)
				if err != nil {
					return fmt.Errorf("invalid project path: %w", err)
				}
				project = abs
			}
			_, s, err := openStore(opts)
			if err != nil {
				return err
			}
			defer closeStore(s)
			return runShow(cmd.OutOrStdout(), s, args[0], project, format)
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project path to look for local plans in")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	return cmd
}

func runShow(w io.Writer, s store.Store, id, project, format string) error {
	p, err := s.Load(id, project)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("plan not found: %s", id)
	}
	if err != nil {
		return err
	}
	return writeFormatted(w, p, format)
}

// writeFormatted encodes v as indented JSON or YAML.
func writeFormatted(w io.Writer, v any, format string) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
