package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocs/pkg/protocol"
)

func writeEvents(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, body)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func TestEventStream_DeliversMessageEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		writeEvents(w, "event: message\ndata: {\"topic\":\"a\"}\n\n"+
			"event: ping\ndata: {}\n\n"+
			"data: {\"topic\":\"b\"}\n\n")
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := newRecordingSink()
	result := make(chan error, 1)
	go func() { result <- NewEventStream(srv.URL, nil, nil).Run(ctx, sink) }()

	require.True(t, sink.waitFor(func(_ []protocol.ConnectionStatus, f []string) bool { return len(f) == 2 }))
	cancel()
	require.NoError(t, <-result)

	statuses, frames := sink.snapshot()
	assert.Equal(t, []string{`{"topic":"a"}`, `{"topic":"b"}`}, frames)
	assert.Equal(t, []protocol.ConnectionStatus{protocol.StatusConnecting, protocol.StatusConnected}, statuses)
}

func TestEventStream_RejectsNonEventStream(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", http.StatusServiceUnavailable)
			},
		},
		{
			name: "wrong content type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"topic":"a"}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			sink := newRecordingSink()
			err := NewEventStream(srv.URL, nil, nil).Run(context.Background(), sink)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotEventStream), "got %v", err)

			statuses, frames := sink.snapshot()
			assert.Equal(t, []protocol.ConnectionStatus{protocol.StatusConnecting, protocol.StatusError}, statuses)
			assert.Empty(t, frames)
		})
	}
}

func TestEventStream_ReconnectsWithLastEventID(t *testing.T) {
	var mu sync.Mutex
	var lastIDs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		lastIDs = append(lastIDs, r.Header.Get("Last-Event-ID"))
		attempt := len(lastIDs)
		mu.Unlock()

		if attempt == 1 {
			// Short retry, one event, then end the stream.
			writeEvents(w, "retry: 10\nid: 7\ndata: {\"topic\":\"first\"}\n\n")
			return
		}
		writeEvents(w, "data: {\"topic\":\"second\"}\n\n")
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := newRecordingSink()
	es := NewEventStream(srv.URL, nil, nil)
	es.retry = time.Hour // the server's retry field must override this
	result := make(chan error, 1)
	go func() { result <- es.Run(ctx, sink) }()

	require.True(t, sink.waitFor(func(_ []protocol.ConnectionStatus, f []string) bool { return len(f) == 2 }))
	cancel()
	require.NoError(t, <-result)

	statuses, frames := sink.snapshot()
	assert.Equal(t, []string{`{"topic":"first"}`, `{"topic":"second"}`}, frames)
	assert.Equal(t, []protocol.ConnectionStatus{
		protocol.StatusConnecting,
		protocol.StatusConnected,
		protocol.StatusError,
		protocol.StatusConnected,
	}, statuses)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", "7"}, lastIDs)
}

func TestNewTransport(t *testing.T) {
	endpoints := Endpoints{SocketURL: "ws://h/ws", StreamURL: "http://h/sse"}

	tr, err := NewTransport(protocol.ModeSocket, endpoints, Options{})
	require.NoError(t, err)
	assert.Equal(t, protocol.ModeSocket, tr.Mode())

	tr, err = NewTransport(protocol.ModeEventStream, endpoints, Options{ReconnectDelay: time.Second})
	require.NoError(t, err)
	require.Equal(t, protocol.ModeEventStream, tr.Mode())
	assert.Equal(t, time.Second, tr.(*EventStream).retry)

	_, err = NewTransport("carrier-pigeon", endpoints, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}
