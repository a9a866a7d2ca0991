// Package main is the entry point for the plan-bridge CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gerunddev/planbridge/internal/config"
	"github.com/gerunddev/planbridge/internal/log"
	"github.com/gerunddev/planbridge/internal/server"
	"github.com/gerunddev/planbridge/internal/store"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	debug      bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "plan-bridge",
		Short: "Share implementation plans and reviews between coding agents",
		Long: `plan-bridge is an MCP server that lets a planning agent and a reviewing
agent exchange plans, reviews and fix reports. Complex plans are split into
phases that are reviewed one at a time.

Without a subcommand plan-bridge serves MCP over stdio.

Examples:
  plan-bridge                         # Serve MCP over stdio
  plan-bridge list --status needs_fixes
  plan-bridge show <id> --format yaml
  plan-bridge analyze plan.md --phases
  plan-bridge watch --project .`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Path to config file (default ~/.config/plan-bridge/config.json)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false,
		"Enable debug logging")

	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(listCmd(opts))
	rootCmd.AddCommand(showCmd(opts))
	rootCmd.AddCommand(analyzeCmd(opts))
	rootCmd.AddCommand(watchCmd(opts))

	return rootCmd
}

func serveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func runServe(opts *globalOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	return server.Serve(cfg)
}

// loadConfig reads the configuration and applies the log level.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if opts.debug {
		level = "debug"
	}
	if err := log.SetLevelName(level); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore loads the configuration and opens its store. The caller must
// close the store.
func openStore(opts *globalOptions) (*config.Config, store.Store, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open plan store: %w", err)
	}
	return cfg, s, nil
}

func closeStore(s store.Store) {
	if err := s.Close(); err != nil {
		log.Warn("failed to close plan store", "error", err)
	}
}
