package feed

import (
	"github.com/tidwall/gjson"

	"ocs/pkg/protocol"
)

// goalIDFields are checked in order; the first non-empty one wins.
var goalIDFields = []string{"id", "goal_id"} //nolint:gochecknoglobals // lookup order

// GoalID extracts the active goal id from a goal-started entry. ok is
// false for other topics and for payloads carrying neither field.
func GoalID(e protocol.LogEntry) (string, bool) {
	if e.Topic != protocol.TopicGoalStarted || len(e.Payload) == 0 {
		return "", false
	}
	for _, field := range goalIDFields {
		r := gjson.GetBytes(e.Payload, field)
		if !r.Exists() || r.Type == gjson.Null {
			continue
		}
		if id := r.String(); id != "" {
			return id, true
		}
	}
	return "", false
}
