package protocol

import (
	"fmt"
	"strings"
)

// Mode selects the live feed transport.
type Mode string

// Feed modes.
const (
	ModeSocket      Mode = "ws"
	ModeEventStream Mode = "sse"
)

// ParseMode accepts "ws"/"socket"/"websocket" and "sse"/"event-stream".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ws", "socket", "websocket":
		return ModeSocket, nil
	case "sse", "event-stream", "eventstream":
		return ModeEventStream, nil
	default:
		return "", fmt.Errorf("unknown feed mode %q (want ws or sse)", s)
	}
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeSocket {
		return ModeEventStream
	}
	return ModeSocket
}

// ConnectionStatus is the live feed connection state.
type ConnectionStatus int

// Connection states.
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "disconnected"
	}
}

// Label renders the status together with its transport, e.g. "connected (ws)".
// A disconnected feed carries no mode suffix.
func (s ConnectionStatus) Label(m Mode) string {
	switch s {
	case StatusDisconnected:
		return s.String()
	case StatusConnecting:
		return fmt.Sprintf("connecting (%s)...", m)
	default:
		return fmt.Sprintf("%s (%s)", s, m)
	}
}
