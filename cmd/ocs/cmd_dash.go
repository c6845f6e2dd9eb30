package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// dashBinary is the dashboard executable looked up on PATH.
const dashBinary = "ocs-dash"

// newDashCmd creates the "ocs dash" subcommand.
func newDashCmd(a *app) *cobra.Command {
	var goal, mode string
	var robot bool

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Launch interactive dashboard",
		Long:  "Opens the ocs dashboard TUI: the live log feed next to the task board of the active goal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dashCmd := exec.CommandContext(cmd.Context(), dashBinary, dashArgs(a, goal, mode, robot)...) //nolint:gosec // fixed binary, user flags
			dashCmd.Stdin = os.Stdin
			dashCmd.Stdout = cmd.OutOrStdout()
			dashCmd.Stderr = cmd.ErrOrStderr()

			if err := dashCmd.Run(); err != nil {
				return fmt.Errorf("run %s: %w", dashBinary, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&goal, "goal", "", "goal id to show on start")
	cmd.Flags().StringVar(&mode, "mode", "", "live feed transport: ws or sse")
	cmd.Flags().BoolVar(&robot, "robot", false, "print a JSON snapshot of the board and exit")
	return cmd
}

// dashArgs forwards the flags the dashboard understands.
func dashArgs(a *app, goal, mode string, robot bool) []string {
	var args []string
	if a.configPath != "" {
		args = append(args, "--config", a.configPath)
	}
	if a.baseURL != "" {
		args = append(args, "--base-url", a.baseURL)
	}
	if goal != "" {
		args = append(args, "--goal", goal)
	}
	if mode != "" {
		args = append(args, "--mode", mode)
	}
	if robot {
		args = append(args, "--robot")
	}
	return args
}
