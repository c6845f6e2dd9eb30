package main

import "github.com/charmbracelet/bubbles/key"

// keyMap is the dashboard's key bindings.
type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	ToggleMode key.Binding
	SocketMode key.Binding
	StreamMode key.Binding
	EnterGoal  key.Binding
	ClearLogs  key.Binding
	Refresh    key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Submit     key.Binding
	Cancel     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		ToggleMode: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "toggle ws/sse")),
		SocketMode: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "websocket")),
		StreamMode: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sse")),
		EnterGoal:  key.NewBinding(key.WithKeys("/", "g"), key.WithHelp("/", "set goal")),
		ClearLogs:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear logs")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh tasks")),
		ScrollUp:   key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "scroll down")),
		PageUp:     key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("pgup", "page up")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown", "f"), key.WithHelp("pgdn", "page down")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// footerBindings are the bindings summarised in the footer line.
func (k keyMap) footerBindings() []key.Binding {
	return []key.Binding{k.ToggleMode, k.EnterGoal, k.ClearLogs, k.Refresh, k.Help, k.Quit}
}

// helpBindings are the bindings listed in the help overlay.
func (k keyMap) helpBindings() []key.Binding {
	return []key.Binding{
		k.ToggleMode, k.SocketMode, k.StreamMode,
		k.EnterGoal, k.Refresh, k.ClearLogs,
		k.ScrollUp, k.ScrollDown, k.PageUp, k.PageDown,
		k.Help, k.Quit,
	}
}
