package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"ocs/internal/appversion"
	"ocs/pkg/config"
	"ocs/pkg/workflow"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	baseURL    string
	verbose    bool

	cfg    config.Config
	logger *slog.Logger
}

// load reads the config, applies the persistent flags and builds the
// stderr logger.
func (a *app) load(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

// client returns a workflow API client for the loaded config.
func (a *app) client() *workflow.Client {
	return workflow.New(a.cfg.BaseURL,
		workflow.WithTimeout(a.cfg.RequestTimeout.Std()),
		workflow.WithLogger(a.logger))
}

// newRootCmd creates the root ocs command with all subcommands attached.
func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "ocs",
		Short:         "OCS workflow client",
		Long:          "ocs talks to the OCS workflow backend.\nIt lists goal tasks, tails the live log feed, drives goals and launches the dashboard.",
		Version:       fmt.Sprintf("ocs %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.ocs/config.toml, or $OCS_CONFIG)")
	cmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "backend base URL (overrides config and $OCS_BASE_URL)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")

	cmd.AddCommand(
		newDashCmd(a),
		newTasksCmd(a),
		newLogsCmd(a),
		newGoalCmd(a),
		newConfigCmd(a),
	)

	return cmd
}
