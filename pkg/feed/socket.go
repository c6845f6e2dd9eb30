package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"ocs/pkg/protocol"
)

// closeGrace bounds how long teardown waits to send the close frame.
const closeGrace = time.Second

// Socket is the WebSocket transport. It does not reconnect: once the
// socket closes the feed stays disconnected until the mode is switched or
// the dashboard restarts.
type Socket struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger
}

// NewSocket creates a WebSocket transport for url (ws:// or wss://).
func NewSocket(url string, logger *slog.Logger) *Socket {
	return &Socket{
		url:    url,
		dialer: websocket.DefaultDialer,
		logger: loggerOrDefault(logger),
	}
}

// Mode implements Transport.
func (s *Socket) Mode() protocol.Mode { return protocol.ModeSocket }

// Run implements Transport.
func (s *Socket) Run(ctx context.Context, sink Sink) error {
	sink.Status(protocol.StatusConnecting, nil)

	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		sink.Status(protocol.StatusDisconnected, err)
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close()

	sink.Status(protocol.StatusConnected, nil)

	// Closing the connection is the only way to unblock ReadMessage.
	stop := context.AfterFunc(ctx, func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		_ = conn.Close()
	})
	defer stop()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			sink.Status(protocol.StatusDisconnected, err)
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("socket closed by server", "url", s.url)
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("socket closed: %w", err)
			}
			return fmt.Errorf("read %s: %w", s.url, err)
		}
		if kind != websocket.TextMessage {
			s.logger.Debug("ignoring non-text frame", "type", kind, "bytes", len(data))
			continue
		}
		sink.Frame(data)
	}
}
