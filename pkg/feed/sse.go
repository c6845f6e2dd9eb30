package feed

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// SSEEvent is a single Server-Sent Event parsed from an SSE stream.
type SSEEvent struct {
	// Type is the event type from the "event:" field. Empty string
	// if no event type was specified (the default "message" type).
	Type string

	// Data is the event payload, assembled from one or more "data:"
	// lines joined with newlines.
	Data string

	// ID is the last event id seen on the stream when this event was
	// dispatched.
	ID string
}

// SSEScanner reads Server-Sent Events from an [io.Reader].
//
// Events are delimited by blank lines. "data:" lines carry the payload,
// "event:" sets the type, "id:" sets the last event id and "retry:" sets
// the reconnection delay. Comment lines (starting with ":") and unknown
// fields are ignored.
//
//	scanner := NewSSEScanner(reader)
//	for scanner.Next() {
//	    event := scanner.Event()
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type SSEScanner struct {
	reader  *bufio.Reader
	current SSEEvent
	lastID  string
	retry   time.Duration
	err     error
}

// NewSSEScanner creates a scanner that reads SSE events from reader.
func NewSSEScanner(reader io.Reader) *SSEScanner {
	return &SSEScanner{
		reader: bufio.NewReaderSize(reader, 64*1024),
	}
}

// Next advances to the next event. Returns false when the stream ends
// (EOF) or an error occurs; call [SSEScanner.Err] to tell them apart.
func (scanner *SSEScanner) Next() bool {
	scanner.current = SSEEvent{}
	if scanner.err != nil {
		return false
	}

	var dataLines []string
	var eventType string
	hasData := false

	emit := func() {
		scanner.current = SSEEvent{
			Type: eventType,
			Data: strings.Join(dataLines, "\n"),
			ID:   scanner.lastID,
		}
	}

	for {
		line, err := scanner.reader.ReadString('\n')

		// Partial last line (no trailing newline before EOF).
		if err != nil && line == "" {
			if err == io.EOF {
				scanner.err = io.EOF
				if hasData {
					emit()
					return true
				}
				return false
			}
			scanner.err = err
			return false
		}

		line = strings.TrimRight(line, "\r\n")

		// Blank line = event boundary.
		if line == "" {
			if hasData {
				emit()
				return true
			}
			eventType = ""
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, hasColon := strings.Cut(line, ":")
		if !hasColon {
			field = line
			value = ""
		} else {
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "data":
			dataLines = append(dataLines, value)
			hasData = true
		case "event":
			eventType = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				scanner.lastID = value
			}
		case "retry":
			if ms, convErr := strconv.Atoi(value); convErr == nil && ms >= 0 {
				scanner.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
}

// Event returns the most recently parsed event. Only valid after
// [SSEScanner.Next] returns true.
func (scanner *SSEScanner) Event() SSEEvent {
	return scanner.current
}

// LastEventID returns the most recent "id:" value seen on the stream.
func (scanner *SSEScanner) LastEventID() string {
	return scanner.lastID
}

// Retry returns the reconnection delay requested by the server, or zero
// if none was sent.
func (scanner *SSEScanner) Retry() time.Duration {
	return scanner.retry
}

// Err returns the first error encountered during scanning. Returns nil
// if scanning ended due to a clean EOF.
func (scanner *SSEScanner) Err() error {
	if scanner.err == io.EOF {
		return nil
	}
	return scanner.err
}
