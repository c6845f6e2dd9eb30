package main

import (
	"strings"
	"testing"
	"time"

	"ocs/pkg/protocol"
)

func TestRenderLogs_Empty(t *testing.T) {
	out := renderLogs(nil, 60, NewStyles(DefaultTheme()))
	if !strings.Contains(out, emptyLogsText) {
		t.Errorf("renderLogs(nil) = %q, want %q", out, emptyLogsText)
	}
}

func TestRenderLogs_EntryFields(t *testing.T) {
	entries := []protocol.LogEntry{{
		Topic:     "agent.step",
		Payload:   []byte(`{"step":3,"note":"ok"}`),
		Timestamp: "2026-01-02T03:04:05Z",
		Source:    "worker-1",
	}}
	out := renderLogs(entries, 80, NewStyles(DefaultTheme()))

	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Local().Format("15:04:05")
	for _, want := range []string{clock, "[worker-1]", "agent.step", `"step": 3`, `"note": "ok"`} {
		if !strings.Contains(out, want) {
			t.Errorf("renderLogs() missing %q, got:\n%s", want, out)
		}
	}
}

func TestEntryClock(t *testing.T) {
	tests := []struct {
		name string
		ts   string
		want string
	}{
		{"empty", "", "--:--:--"},
		{"unparseable kept raw", "yesterday", "yesterday"},
		{"naive timestamp", "2026-01-02T03:04:05.123456", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Local().Format("15:04:05")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryClock(protocol.LogEntry{Timestamp: tt.ts}); got != tt.want {
				t.Errorf("entryClock(%q) = %q, want %q", tt.ts, got, tt.want)
			}
		})
	}
}

func TestIndentPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"empty", "", ""},
		{"null", "null", ""},
		{"object", `{"a":1}`, "{\n  \"a\": 1\n}"},
		{"invalid kept raw", `{"a":`, `{"a":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := indentPayload([]byte(tt.payload)); got != tt.want {
				t.Errorf("indentPayload(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}
