package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"ocs/pkg/protocol"
)

// ErrNotEventStream is returned when the stream endpoint answers with a
// non-200 status or a content type other than text/event-stream. The
// transport gives up instead of reconnecting, as a browser EventSource
// does.
var ErrNotEventStream = errors.New("endpoint is not an event stream")

// errStreamEnded marks a server-side end of stream; the transport
// reconnects after it.
var errStreamEnded = errors.New("event stream ended")

// EventStream is the Server-Sent Events transport. It reconnects by
// itself after network errors and server-side closes, resending the last
// event id, and reports StatusError for each failure.
type EventStream struct {
	url    string
	client *http.Client
	retry  time.Duration
	logger *slog.Logger
}

// NewEventStream creates an event-stream transport for url. A nil client
// uses a client without timeout, since the response body stays open for
// the lifetime of the stream.
func NewEventStream(url string, client *http.Client, logger *slog.Logger) *EventStream {
	if client == nil {
		client = &http.Client{}
	}
	return &EventStream{
		url:    url,
		client: client,
		retry:  DefaultReconnectDelay,
		logger: loggerOrDefault(logger),
	}
}

// Mode implements Transport.
func (es *EventStream) Mode() protocol.Mode { return protocol.ModeEventStream }

// Run implements Transport.
func (es *EventStream) Run(ctx context.Context, sink Sink) error {
	state := streamState{retry: es.retry}

	sink.Status(protocol.StatusConnecting, nil)
	for {
		err := es.stream(ctx, sink, &state)
		if ctx.Err() != nil {
			return nil
		}

		sink.Status(protocol.StatusError, err)
		if errors.Is(err, ErrNotEventStream) {
			es.logger.Warn("event stream rejected", "url", es.url, "error", err)
			return err
		}

		es.logger.Info("event stream interrupted, reconnecting",
			"url", es.url, "error", err, "retry", state.retry)

		timer := time.NewTimer(state.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// streamState survives reconnects.
type streamState struct {
	lastID string
	retry  time.Duration
}

// stream runs one HTTP connection. It always returns a non-nil error
// unless ctx was cancelled.
func (es *EventStream) stream(ctx context.Context, sink Sink, state *streamState) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, es.url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrNotEventStream, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if state.lastID != "" {
		req.Header.Set("Last-Event-ID", state.lastID)
	}

	resp, err := es.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect %s: %w", es.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrNotEventStream, resp.StatusCode)
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/event-stream" {
		return fmt.Errorf("%w: content type %q", ErrNotEventStream, resp.Header.Get("Content-Type"))
	}

	sink.Status(protocol.StatusConnected, nil)

	scanner := NewSSEScanner(resp.Body)
	for scanner.Next() {
		event := scanner.Event()
		state.lastID = event.ID
		if r := scanner.Retry(); r > 0 {
			state.retry = r
		}
		// Only default-typed events reach onmessage-style consumers.
		if event.Type != "" && event.Type != "message" {
			continue
		}
		sink.Frame([]byte(event.Data))
	}
	if r := scanner.Retry(); r > 0 {
		state.retry = r
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", es.url, err)
	}
	return errStreamEnded
}
