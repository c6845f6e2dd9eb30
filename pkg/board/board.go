// Package board partitions a goal's tasks into the three status columns
// shown by the dashboard: Pending, In Progress and Completed.
package board

import (
	"fmt"
	"strings"

	"ocs/pkg/protocol"
)

// Bucket identifies one board column.
type Bucket int

// Board columns, in display order.
const (
	Pending Bucket = iota
	InProgress
	Completed
)

// Buckets lists every column in display order.
var Buckets = []Bucket{Pending, InProgress, Completed} //nolint:gochecknoglobals // fixed column order

// Title returns the column header.
func (b Bucket) Title() string {
	switch b {
	case Pending:
		return "TODO / PENDING"
	case InProgress:
		return "IN PROGRESS"
	case Completed:
		return "COMPLETED"
	default:
		return fmt.Sprintf("Bucket(%d)", int(b))
	}
}

// Key returns a stable lower-case identifier used in JSON output.
func (b Bucket) Key() string {
	switch b {
	case Pending:
		return "pending"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	default:
		return ""
	}
}

// Aliases returns the exact status strings accepted by a column.
// Matching against these is case-sensitive.
func Aliases(b Bucket) []string {
	switch b {
	case Pending:
		return []string{"PENDING", "Pending"}
	case InProgress:
		return []string{"IN_PROGRESS", "Active", "Working"}
	case Completed:
		return []string{"COMPLETED", "Completed", "SUCCESS"}
	default:
		return nil
	}
}

// Matcher maps a raw task status to a column. ok is false when the
// status belongs to no column.
type Matcher interface {
	Match(status string) (bucket Bucket, ok bool)
	Name() string
}

// Matcher names accepted by MatcherFor.
const (
	MatchStrict    = "strict"
	MatchCanonical = "canonical"
)

// MatcherFor returns the matcher registered under name. An empty name
// selects the strict matcher.
func MatcherFor(name string) (Matcher, error) {
	switch name {
	case "", MatchStrict:
		return Strict, nil
	case MatchCanonical:
		return Canonical, nil
	default:
		return nil, fmt.Errorf("unknown status matcher %q (want %s or %s)", name, MatchStrict, MatchCanonical)
	}
}

// Strict matches a status only if it equals one of a column's aliases.
var Strict Matcher = strictMatcher{} //nolint:gochecknoglobals // stateless

// Canonical upper-cases the status and folds '-' and ' ' to '_' before
// matching against the upper-cased alias set, so "in progress",
// "In-Progress" and "IN_PROGRESS" land in the same column.
var Canonical Matcher = canonicalMatcher{} //nolint:gochecknoglobals // stateless

type strictMatcher struct{}

func (strictMatcher) Name() string { return MatchStrict }

func (strictMatcher) Match(status string) (Bucket, bool) {
	for _, b := range Buckets {
		for _, alias := range Aliases(b) {
			if status == alias {
				return b, true
			}
		}
	}
	return 0, false
}

type canonicalMatcher struct{}

func (canonicalMatcher) Name() string { return MatchCanonical }

func (canonicalMatcher) Match(status string) (Bucket, bool) {
	key := canonicalStatus(status)
	if key == "" {
		return 0, false
	}
	for _, b := range Buckets {
		for _, alias := range Aliases(b) {
			if key == canonicalStatus(alias) {
				return b, true
			}
		}
	}
	return 0, false
}

var statusFolder = strings.NewReplacer("-", "_", " ", "_") //nolint:gochecknoglobals // immutable

func canonicalStatus(s string) string {
	return statusFolder.Replace(strings.ToUpper(strings.TrimSpace(s)))
}

// Columns is a partitioned task list. Unmatched holds tasks whose status
// fits no column; the board does not display them.
type Columns struct {
	Pending    []protocol.Task
	InProgress []protocol.Task
	Completed  []protocol.Task
	Unmatched  []protocol.Task
}

// Tasks returns the tasks in column b.
func (c Columns) Tasks(b Bucket) []protocol.Task {
	switch b {
	case Pending:
		return c.Pending
	case InProgress:
		return c.InProgress
	case Completed:
		return c.Completed
	default:
		return nil
	}
}

// Total returns the number of tasks shown on the board.
func (c Columns) Total() int {
	return len(c.Pending) + len(c.InProgress) + len(c.Completed)
}

// Partition groups tasks by column using m. Order within each column is
// the order of tasks; nothing is re-sorted. A nil matcher means Strict.
func Partition(tasks []protocol.Task, m Matcher) Columns {
	if m == nil {
		m = Strict
	}
	var cols Columns
	for _, t := range tasks {
		b, ok := m.Match(t.Status)
		if !ok {
			cols.Unmatched = append(cols.Unmatched, t)
			continue
		}
		switch b {
		case Pending:
			cols.Pending = append(cols.Pending, t)
		case InProgress:
			cols.InProgress = append(cols.InProgress, t)
		case Completed:
			cols.Completed = append(cols.Completed, t)
		}
	}
	return cols
}
