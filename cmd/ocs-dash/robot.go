package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ocs/pkg/board"
	"ocs/pkg/protocol"
)

// robotSnapshot is the JSON document printed in robot mode.
type robotSnapshot struct {
	Goal      string                     `json:"goal"`
	Matcher   string                     `json:"matcher"`
	Columns   map[string][]protocol.Task `json:"columns"`
	Unmatched []protocol.Task            `json:"unmatched"`
	FetchedAt string                     `json:"fetched_at,omitempty"`
}

// robotMode outputs a JSON snapshot of the partitioned board for goal.
// With no goal nothing is fetched and the columns are empty.
func robotMode(ctx context.Context, source TaskSource, goal string, m board.Matcher) ([]byte, error) {
	if m == nil {
		m = board.Strict
	}
	snapshot := robotSnapshot{
		Goal:      goal,
		Matcher:   m.Name(),
		Columns:   make(map[string][]protocol.Task, len(board.Buckets)),
		Unmatched: []protocol.Task{},
	}

	var cols board.Columns
	if goal != "" {
		tasks, err := source.GoalTasks(ctx, goal)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch tasks: %w", err)
		}
		cols = board.Partition(tasks, m)
		snapshot.FetchedAt = time.Now().UTC().Format(time.RFC3339)
		if cols.Unmatched != nil {
			snapshot.Unmatched = cols.Unmatched
		}
	}
	for _, b := range board.Buckets {
		tasks := cols.Tasks(b)
		if tasks == nil {
			tasks = []protocol.Task{}
		}
		snapshot.Columns[b.Key()] = tasks
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}
