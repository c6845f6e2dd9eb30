package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"ocs/pkg/config"
	"ocs/pkg/protocol"
)

// isolateEnv points HOME at a temp dir and clears the OCS_* variables.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{config.EnvConfig, config.EnvBaseURL, config.EnvMode, config.EnvGoal} {
		t.Setenv(k, "")
	}
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// runRoot executes the CLI with args and returns stdout.
func runRoot(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

// fakeBackend serves the workflow endpoints the CLI uses.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	alice := "alice"
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/workflow/goals/{id}/tasks", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "g-1" {
			http.Error(w, `{"detail":"Goal not found"}`, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode([]protocol.Task{
			{ID: "1", Title: "Plan", Type: "planning", Status: "PENDING"},
			{ID: "2", Title: "Build", Type: "code", Status: "Active", AssignedTo: &alice},
			{ID: "3", Title: "Odd", Type: "code", Status: "DONE"},
		})
	})
	mux.HandleFunc("POST /api/v1/workflow/goals", func(w http.ResponseWriter, r *http.Request) {
		var req protocol.CreateGoalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(protocol.CreateGoalResponse{ID: "g-new", Status: "N1_INITIALIZATION"})
	})
	mux.HandleFunc("POST /api/v1/workflow/goals/{id}/advance", func(w http.ResponseWriter, r *http.Request) {
		var req protocol.AdvanceGoalRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(protocol.AdvanceGoalResponse{GoalID: r.PathValue("id"), NewState: req.TargetState, Accepted: true})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRootCmd_Version(t *testing.T) {
	isolateEnv(t)
	out, err := runRoot(t, context.Background(), "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.HasPrefix(out, "ocs ") {
		t.Errorf("version output = %q, want prefix %q", out, "ocs ")
	}
}

func TestRootCmd_BadBaseURL(t *testing.T) {
	isolateEnv(t)
	if _, err := runRoot(t, context.Background(), "--base-url", "not a url", "config"); err == nil {
		t.Error("expected validation error for bad --base-url")
	}
}

func TestConfigCmd_PrintsEffectiveConfig(t *testing.T) {
	isolateEnv(t)
	t.Setenv(config.EnvMode, "sse")

	out, err := runRoot(t, context.Background(), "--base-url", "http://backend.test:8000", "config")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	for _, want := range []string{"base_url", "http://backend.test:8000", "sse", "poll_interval"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q, got:\n%s", want, out)
		}
	}
}

func TestDashArgs(t *testing.T) {
	a := &app{configPath: "/tmp/c.toml", baseURL: "http://x"}
	got := strings.Join(dashArgs(a, "g-1", "sse", true), " ")
	want := "--config /tmp/c.toml --base-url http://x --goal g-1 --mode sse --robot"
	if got != want {
		t.Errorf("dashArgs() = %q, want %q", got, want)
	}
	if args := dashArgs(&app{}, "", "", false); len(args) != 0 {
		t.Errorf("dashArgs() with no flags = %v, want none", args)
	}
}
