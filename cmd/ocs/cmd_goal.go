package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"ocs/pkg/protocol"
)

// newGoalCmd creates the "ocs goal" command group.
func newGoalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Create and advance workflow goals",
	}
	cmd.AddCommand(newGoalCreateCmd(a), newGoalAdvanceCmd(a))
	return cmd
}

func newGoalCreateCmd(a *app) *cobra.Command {
	var req protocol.CreateGoalRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a new goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(req.Title) == "" {
				return errors.New("--title is required")
			}
			resp, err := a.client().CreateGoal(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("create goal: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created goal %s (%s)\n", resp.ID, resp.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "goal title")
	cmd.Flags().StringVar(&req.Description, "description", "", "goal description")
	return cmd
}

func newGoalAdvanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <goal-id> <state>",
		Short: "Move a goal to another workflow phase",
		Long:  "Requests a phase transition. Valid states:\n  " + strings.Join(protocol.WorkflowStates, "\n  "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			goal, state := args[0], strings.ToUpper(args[1])
			if !slices.Contains(protocol.WorkflowStates, state) {
				return fmt.Errorf("unknown state %q (want one of %s)", args[1], strings.Join(protocol.WorkflowStates, ", "))
			}
			resp, err := a.client().AdvanceGoal(cmd.Context(), goal, state)
			if err != nil {
				return fmt.Errorf("advance goal: %w", err)
			}
			verdict := "accepted"
			if !resp.Accepted {
				verdict = "rejected"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "goal %s -> %s: %s\n", resp.GoalID, resp.NewState, verdict)
			return nil
		},
	}
}
