package main

import (
	"github.com/charmbracelet/lipgloss"

	"ocs/pkg/board"
	"ocs/pkg/protocol"
)

// Theme defines the visual styling for the ocs dashboard.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color

	ColorBorder lipgloss.Color
}

// DefaultTheme returns the default theme for ocs dash.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("12"),  // Blue
		Secondary: lipgloss.Color("14"),  // Cyan
		Success:   lipgloss.Color("10"),  // Green
		Warning:   lipgloss.Color("11"),  // Yellow
		Error:     lipgloss.Color("9"),   // Red
		Muted:     lipgloss.Color("240"), // Gray

		ColorBorder: lipgloss.Color("#3E4347"),
	}
}

// StatusColor returns the color used for a connection status indicator.
func (t Theme) StatusColor(s protocol.ConnectionStatus) lipgloss.Color {
	switch s {
	case protocol.StatusConnected:
		return t.Success
	case protocol.StatusConnecting:
		return t.Warning
	case protocol.StatusError:
		return t.Error
	default:
		return t.Muted
	}
}

// BucketColor returns the header color for a board column.
func (t Theme) BucketColor(b board.Bucket) lipgloss.Color {
	switch b {
	case board.InProgress:
		return t.Warning
	case board.Completed:
		return t.Success
	default:
		return t.Primary
	}
}

// Styles holds the pre-built lipgloss styles derived from a Theme.
type Styles struct {
	Title        lipgloss.Style
	StatusBar    lipgloss.Style
	Panel        lipgloss.Style
	PanelTitle   lipgloss.Style
	Placeholder  lipgloss.Style
	Card         lipgloss.Style
	CardTitle    lipgloss.Style
	TypeTag      lipgloss.Style
	Assignee     lipgloss.Style
	RawStatus    lipgloss.Style
	LogTime      lipgloss.Style
	LogSource    lipgloss.Style
	LogTopic     lipgloss.Style
	LogPayload   lipgloss.Style
	Muted        lipgloss.Style
	Error        lipgloss.Style
	Prompt       lipgloss.Style
	HelpTitle    lipgloss.Style
	HelpKey      lipgloss.Style
	HelpDesc     lipgloss.Style
	HelpContent  lipgloss.Style
	HelpFooter   lipgloss.Style
	FooterHint   lipgloss.Style
	StatusActive lipgloss.Style
}

// NewStyles builds the style set for theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		StatusBar:   lipgloss.NewStyle().Padding(0, 1),
		Panel:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(theme.ColorBorder).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Placeholder: lipgloss.NewStyle().Foreground(theme.Muted).Italic(true),
		Card: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(theme.ColorBorder).
			PaddingLeft(1).
			MarginBottom(1),
		CardTitle:    lipgloss.NewStyle().Bold(true),
		TypeTag:      lipgloss.NewStyle().Foreground(theme.Secondary),
		Assignee:     lipgloss.NewStyle().Foreground(theme.Muted),
		RawStatus:    lipgloss.NewStyle().Foreground(theme.Muted).Italic(true),
		LogTime:      lipgloss.NewStyle().Foreground(theme.Muted),
		LogSource:    lipgloss.NewStyle().Foreground(theme.Secondary),
		LogTopic:     lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		LogPayload:   lipgloss.NewStyle().Foreground(theme.Muted),
		Muted:        lipgloss.NewStyle().Foreground(theme.Muted),
		Error:        lipgloss.NewStyle().Foreground(theme.Error),
		Prompt:       lipgloss.NewStyle().Bold(true).Foreground(theme.Warning),
		HelpTitle:    lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).MarginBottom(1),
		HelpKey:      lipgloss.NewStyle().Foreground(theme.Secondary),
		HelpDesc:     lipgloss.NewStyle(),
		HelpContent:  lipgloss.NewStyle().Padding(0, 1),
		HelpFooter:   lipgloss.NewStyle().Foreground(theme.Muted).MarginTop(1),
		FooterHint:   lipgloss.NewStyle().Foreground(theme.Muted),
		StatusActive: lipgloss.NewStyle().Bold(true),
	}
}
