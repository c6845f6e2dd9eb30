package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"ocs/pkg/protocol"
)

// ErrMalformedFrame is returned by Decode for frames that do not carry a
// log entry.
var ErrMalformedFrame = errors.New("malformed log frame")

// maxUnwrap bounds how many envelope layers Decode peels off.
const maxUnwrap = 3

// Decode normalises one feed frame into a LogEntry. Both transports go
// through it. Accepted shapes:
//
//	{"topic": ..., "payload": ..., "timestamp": ..., "source": ...}
//	{"event": "message", "data": {<entry>}}
//	"<entry encoded as a JSON string>"
//
// and any nesting of the last two.
func Decode(frame []byte) (protocol.LogEntry, error) {
	return decode(frame, 0)
}

func decode(frame []byte, depth int) (protocol.LogEntry, error) {
	if depth > maxUnwrap {
		return protocol.LogEntry{}, fmt.Errorf("%w: too deeply wrapped", ErrMalformedFrame)
	}
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 {
		return protocol.LogEntry{}, fmt.Errorf("%w: empty", ErrMalformedFrame)
	}

	if frame[0] == '"' {
		var inner string
		if err := json.Unmarshal(frame, &inner); err != nil {
			return protocol.LogEntry{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
		}
		return decode([]byte(inner), depth+1)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		return protocol.LogEntry{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	if _, ok := fields["topic"]; ok {
		var entry protocol.LogEntry
		if err := json.Unmarshal(frame, &entry); err != nil {
			return protocol.LogEntry{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
		}
		return entry, nil
	}

	if data, ok := fields["data"]; ok {
		return decode(data, depth+1)
	}

	return protocol.LogEntry{}, fmt.Errorf("%w: no topic", ErrMalformedFrame)
}
