// Package feed consumes the backend's live log feed. A Transport (WebSocket
// or Server-Sent Events) delivers raw frames and connection status to a
// Sink; a Subscription wraps one transport, normalises frames into
// protocol.LogEntry values and hands them to the UI as Updates.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ocs/pkg/protocol"
)

// ErrUnsupportedMode is returned by NewTransport for an unknown mode.
var ErrUnsupportedMode = errors.New("unsupported feed mode")

// DefaultReconnectDelay is how long the event-stream transport waits
// before reconnecting when the server did not send a retry field.
const DefaultReconnectDelay = 3 * time.Second

// Sink receives everything a transport observes. Implementations must be
// safe to call from the transport's goroutine.
type Sink interface {
	// Status reports a connection state change. err is the cause for
	// StatusError and StatusDisconnected, nil otherwise.
	Status(status protocol.ConnectionStatus, err error)

	// Frame delivers one undecoded message body.
	Frame(data []byte)
}

// Transport is one live feed connection strategy. Run blocks until ctx is
// cancelled or the connection ends for good. A cancelled ctx is not an
// error.
type Transport interface {
	Mode() protocol.Mode
	Run(ctx context.Context, sink Sink) error
}

// Endpoints holds the feed URLs for both transports.
type Endpoints struct {
	SocketURL string
	StreamURL string
}

// Options tune transport construction. Zero values select defaults.
type Options struct {
	HTTPClient     *http.Client
	ReconnectDelay time.Duration
	Logger         *slog.Logger
}

// NewTransport returns the transport for mode.
func NewTransport(mode protocol.Mode, endpoints Endpoints, opts Options) (Transport, error) {
	switch mode {
	case protocol.ModeSocket:
		return NewSocket(endpoints.SocketURL, opts.Logger), nil
	case protocol.ModeEventStream:
		es := NewEventStream(endpoints.StreamURL, opts.HTTPClient, opts.Logger)
		if opts.ReconnectDelay > 0 {
			es.retry = opts.ReconnectDelay
		}
		return es, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
