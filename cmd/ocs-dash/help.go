package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// ViewType identifies what the dashboard is currently showing.
type ViewType int

// Dashboard views.
const (
	DashboardView ViewType = iota
	GoalInputView
	HelpView
)

// helpBinding represents a key binding with its description.
type helpBinding struct {
	key  string
	desc string
}

func bindingsHelp(bindings []key.Binding) []helpBinding {
	out := make([]helpBinding, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, helpBinding{key: h.Key, desc: h.Desc})
	}
	return out
}

// getGoalInputHelpBindings returns help bindings for the goal prompt.
func getGoalInputHelpBindings() []helpBinding {
	return []helpBinding{
		{"enter", "Poll tasks for the typed goal"},
		{"enter (empty)", "Clear the goal"},
		{"esc", "Cancel"},
	}
}

// renderHelpOverlay renders the help overlay panel.
func (m Model) renderHelpOverlay() string {
	title := m.styles.HelpTitle.Render("Help - Dashboard")

	var content strings.Builder
	keyStyle := m.styles.HelpKey.Width(20)
	write := func(bindings []helpBinding) {
		for _, binding := range bindings {
			k := keyStyle.Render(binding.key)
			desc := m.styles.HelpDesc.Render(binding.desc)
			content.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, k, desc))
			content.WriteString("\n")
		}
	}
	write(bindingsHelp(m.keys.helpBindings()))
	content.WriteString("\n")
	content.WriteString(m.styles.PanelTitle.Render("Goal prompt"))
	content.WriteString("\n")
	write(getGoalInputHelpBindings())

	footer := m.styles.HelpFooter.Render("Press ? or Esc to close")
	return lipgloss.JoinVertical(lipgloss.Left, title, m.styles.HelpContent.Render(content.String()), footer)
}

// renderFooter renders the one-line key summary.
func (m Model) renderFooter() string {
	parts := make([]string, 0, len(m.keys.footerBindings()))
	for _, b := range m.keys.footerBindings() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.styles.FooterHint.Render(truncate(strings.Join(parts, " • "), m.width))
}
