package feed

import "ocs/pkg/protocol"

// History is the bounded, most-recent-first log buffer. It is a value
// type: Push returns a new History and never mutates entries another copy
// can see, so it can live inside a Bubble Tea model.
type History struct {
	entries []protocol.LogEntry
	limit   int
}

// NewHistory returns an empty history holding at most limit entries.
// limit <= 0 selects protocol.HistoryLimit.
func NewHistory(limit int) History {
	return History{limit: limit}
}

func (h History) capacity() int {
	if h.limit <= 0 {
		return protocol.HistoryLimit
	}
	return h.limit
}

// Push puts e at the front and drops the oldest entries beyond capacity.
func (h History) Push(e protocol.LogEntry) History {
	keep := min(len(h.entries), h.capacity()-1)
	next := make([]protocol.LogEntry, 0, keep+1)
	next = append(next, e)
	next = append(next, h.entries[:keep]...)
	h.entries = next
	return h
}

// Entries returns the buffered entries, newest first. The slice must not
// be modified.
func (h History) Entries() []protocol.LogEntry {
	return h.entries
}

// Len returns the number of buffered entries.
func (h History) Len() int {
	return len(h.entries)
}

// Reset returns an empty history with the same capacity.
func (h History) Reset() History {
	return History{limit: h.limit}
}
