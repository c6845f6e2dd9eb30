package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ocs/pkg/protocol"
)

// sseBackend serves a fixed event stream and then holds the connection.
func sseBackend(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != protocol.StreamFeedPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, body)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

// runUntil runs the CLI until stdout contains want, then cancels it.
func runUntil(t *testing.T, want string, args ...string) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := newRootCmd()
	out := &syncBuffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	deadline := time.After(3 * time.Second)
	for !strings.Contains(out.String(), want) {
		select {
		case err := <-done:
			t.Fatalf("command exited early: %v\noutput:\n%s", err, out.String())
		case <-deadline:
			t.Fatalf("timed out waiting for %q, got:\n%s", want, out.String())
		case <-time.After(20 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("command returned %v after cancel", err)
	}
	return out.String()
}

func TestLogsCmd_PrintsEntriesAndGoal(t *testing.T) {
	isolateEnv(t)
	srv := sseBackend(t,
		"event: message\ndata: {\"topic\":\"agent.step\",\"payload\":{\"n\":1},\"timestamp\":\"\",\"source\":\"w1\"}\n\n"+
			"data: {\"event\":\"message\",\"data\":{\"topic\":\"workflow.goal_started\",\"payload\":{\"goal_id\":\"g-7\"}}}\n\n")

	out := runUntil(t, "ACTIVE GOAL g-7", "--base-url", srv.URL, "logs", "--mode", "sse")

	if !strings.Contains(out, `[w1] agent.step {"n":1}`) {
		t.Errorf("entry line missing, got:\n%s", out)
	}
	if !strings.Contains(out, "workflow.goal_started") {
		t.Errorf("goal_started entry missing, got:\n%s", out)
	}
}

func TestLogsCmd_TopicFilterAndJSON(t *testing.T) {
	isolateEnv(t)
	srv := sseBackend(t,
		"data: {\"topic\":\"agent.step\",\"payload\":{}}\n\n"+
			"data: {\"topic\":\"workflow.phase\",\"payload\":{\"p\":2}}\n\n")

	out := runUntil(t, `"workflow.phase"`, "--base-url", srv.URL, "logs", "--mode", "sse", "--topic", "workflow.", "--json")

	if strings.Contains(out, "agent.step") {
		t.Errorf("topic filter let agent.step through:\n%s", out)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("--json output is not JSON lines:\n%s", out)
	}
}

func TestLogsCmd_BadMode(t *testing.T) {
	isolateEnv(t)
	if _, err := runRoot(t, context.Background(), "logs", "--mode", "pigeon"); err == nil {
		t.Error("logs with unknown mode should fail")
	}
}

func TestFormatEntry(t *testing.T) {
	e := protocol.LogEntry{Topic: "t", Payload: []byte("{\n  \"a\": 1\n}"), Timestamp: "raw-ts"}
	if got, want := formatEntry(e), `raw-ts t {"a":1}`; got != want {
		t.Errorf("formatEntry() = %q, want %q", got, want)
	}
}
