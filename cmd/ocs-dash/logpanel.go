package main

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"ocs/pkg/protocol"
)

// emptyLogsText is shown in the log panel before any entry arrives.
const emptyLogsText = "No logs received yet..."

// renderLogs renders entries (most recent first) for the log viewport.
// Lines are truncated to width.
func renderLogs(entries []protocol.LogEntry, width int, styles Styles) string {
	if len(entries) == 0 {
		return styles.Placeholder.Render(emptyLogsText)
	}
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, renderLogEntry(e, width, styles))
	}
	return strings.Join(blocks, "\n\n")
}

func renderLogEntry(e protocol.LogEntry, width int, styles Styles) string {
	header := styles.LogTime.Render(entryClock(e))
	if e.Source != "" {
		header += " " + styles.LogSource.Render("["+e.Source+"]")
	}

	lines := []string{
		truncate(header, width),
		truncate(styles.LogTopic.Render(e.Topic), width),
	}
	for _, l := range strings.Split(indentPayload(e.Payload), "\n") {
		if l == "" {
			continue
		}
		lines = append(lines, truncate(styles.LogPayload.Render("  "+l), width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// entryClock formats the entry time as local HH:MM:SS, falling back to
// the raw timestamp when it cannot be parsed.
func entryClock(e protocol.LogEntry) string {
	if t, ok := e.Time(); ok {
		return t.Local().Format("15:04:05")
	}
	if e.Timestamp == "" {
		return "--:--:--"
	}
	return e.Timestamp
}

// indentPayload pretty-prints a JSON payload with two-space indentation.
func indentPayload(payload json.RawMessage) string {
	if len(payload) == 0 || string(payload) == "null" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return string(payload)
	}
	return buf.String()
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
