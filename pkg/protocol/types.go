package protocol

import (
	"encoding/json"
	"time"
)

// Task is one unit of work belonging to a goal, as returned by the
// workflow tasks endpoint. Status is free-form; the board matches it
// against known aliases.
type Task struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Type       string  `json:"type"`
	Status     string  `json:"status"`
	AssignedTo *string `json:"assigned_to"` // nil = unassigned
}

// Assignee returns the assigned agent, or "Unassigned".
func (t Task) Assignee() string {
	if t.AssignedTo == nil || *t.AssignedTo == "" {
		return "Unassigned"
	}
	return *t.AssignedTo
}

// LogEntry is one record delivered by the live feed.
type LogEntry struct {
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"` // ISO-8601 as sent by the backend
	Source    string          `json:"source"`
}

// Time parses Timestamp. The backend emits Python isoformat strings,
// which may omit the zone offset; those are read as UTC.
func (e LogEntry) Time() (time.Time, bool) {
	if e.Timestamp == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, e.Timestamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CreateGoalRequest is the body of POST /goals.
type CreateGoalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateGoalResponse is returned by POST /goals.
type CreateGoalResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// AdvanceGoalRequest is the body of POST /goals/{id}/advance.
type AdvanceGoalRequest struct {
	TargetState string `json:"target_state"`
}

// AdvanceGoalResponse is returned by POST /goals/{id}/advance.
type AdvanceGoalResponse struct {
	GoalID   string `json:"goal_id"`
	NewState string `json:"new_state"`
	Accepted bool   `json:"accepted"`
}
