package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ocs/pkg/board"
	"ocs/pkg/protocol"
)

// tasksOutput is the --json document of "ocs tasks".
type tasksOutput struct {
	Goal      string                     `json:"goal"`
	Columns   map[string][]protocol.Task `json:"columns"`
	Unmatched []protocol.Task            `json:"unmatched,omitempty"`
}

// newTasksCmd creates the "ocs tasks" subcommand.
func newTasksCmd(a *app) *cobra.Command {
	var asJSON, all bool

	cmd := &cobra.Command{
		Use:   "tasks <goal-id>",
		Short: "Show a goal's task board",
		Long:  "Fetches the tasks of a goal once and prints them by column.\nTasks whose status matches no column are hidden unless --all is set.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goal := args[0]
			tasks, err := a.client().GoalTasks(cmd.Context(), goal)
			if err != nil {
				return fmt.Errorf("fetch tasks: %w", err)
			}
			cols := board.Partition(tasks, a.cfg.Matcher())

			if asJSON {
				return writeTasksJSON(cmd.OutOrStdout(), goal, cols, all)
			}
			return writeTasksTable(cmd.OutOrStdout(), cols, all)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().BoolVar(&all, "all", false, "also show tasks whose status matches no column")
	return cmd
}

func writeTasksJSON(w io.Writer, goal string, cols board.Columns, all bool) error {
	out := tasksOutput{Goal: goal, Columns: make(map[string][]protocol.Task, len(board.Buckets))}
	for _, b := range board.Buckets {
		tasks := cols.Tasks(b)
		if tasks == nil {
			tasks = []protocol.Task{}
		}
		out.Columns[b.Key()] = tasks
	}
	if all {
		out.Unmatched = cols.Unmatched
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeTasksTable(w io.Writer, cols board.Columns, all bool) error {
	if cols.Total() == 0 && (!all || len(cols.Unmatched) == 0) {
		fmt.Fprintln(w, "no tasks found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tID\tTITLE\tTYPE\tASSIGNEE\tSTATUS")
	row := func(column string, t protocol.Task) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", column, t.ID, t.Title, t.Type, t.Assignee(), t.Status)
	}
	for _, b := range board.Buckets {
		for _, t := range cols.Tasks(b) {
			row(b.Title(), t)
		}
	}
	if all {
		for _, t := range cols.Unmatched {
			row("(unmatched)", t)
		}
	}
	return tw.Flush()
}
