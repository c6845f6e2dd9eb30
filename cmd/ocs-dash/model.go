package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ocs/pkg/config"
	"ocs/pkg/feed"
	"ocs/pkg/protocol"
	"ocs/pkg/workflow"
)

// Layout defaults used until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 120
	defaultHeight = 40
	// sideBySideWidth is the narrowest terminal that shows the board and
	// the log panel next to each other.
	sideBySideWidth = 100
)

// startMsg opens the feed and starts polling the configured goal.
type startMsg struct{}

// deps are the dashboard's connections to the outside world.
type deps struct {
	// dialer builds feed transports for cfg.
	dialer func(cfg config.Config) Dialer
	// source builds the task source for cfg.
	source func(cfg config.Config) TaskSource
	// reload re-reads the config after the file changed.
	reload func() (config.Config, error)
	// watcher reports config file changes; nil disables hot reload.
	watcher *configWatcher
	// level, when set, follows log_level across reloads.
	level *slog.LevelVar
}

// liveDeps wires the dashboard to the real backend.
func liveDeps(logger *slog.Logger) deps {
	return deps{
		dialer: func(cfg config.Config) Dialer {
			return func(mode protocol.Mode) (feed.Transport, error) {
				return feed.NewTransport(mode, cfg.Endpoints(), cfg.FeedOptions(logger))
			}
		},
		source: func(cfg config.Config) TaskSource {
			return workflow.New(cfg.BaseURL,
				workflow.WithTimeout(cfg.RequestTimeout.Std()),
				workflow.WithLogger(logger))
		},
	}
}

// Model is the Bubble Tea model for ocs-dash: a LogStream and a TaskBoard
// composed side by side, with the stream's goal id feeding the board.
type Model struct {
	cfg    config.Config
	deps   deps
	logger *slog.Logger

	keys   keyMap
	theme  Theme
	styles Styles

	activeView   ViewType
	previousView ViewType

	stream  LogStream
	tasks   TaskBoard
	goalSeq int // last LogStream.GoalSeq applied to the board

	logView   viewport.Model
	goalInput textinput.Model

	width  int
	height int
}

// newModel builds the dashboard. Nothing touches the network until the
// startMsg produced by Init is handled.
func newModel(cfg config.Config, d deps, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	theme := DefaultTheme()

	var dial Dialer
	if d.dialer != nil {
		dial = d.dialer(cfg)
	}
	var source TaskSource
	if d.source != nil {
		source = d.source(cfg)
	}

	ti := textinput.New()
	ti.Prompt = "goal> "
	ti.Placeholder = "goal id (empty clears)"
	ti.CharLimit = 128

	m := Model{
		cfg:       cfg,
		deps:      d,
		logger:    logger,
		keys:      defaultKeyMap(),
		theme:     theme,
		styles:    NewStyles(theme),
		stream:    NewLogStream(cfg.Mode, dial, logger.With("component", "logstream")),
		tasks:     NewTaskBoard(source, cfg.Matcher(), cfg.PollInterval.Std(), logger.With("component", "taskboard")),
		logView:   viewport.New(0, 0),
		goalInput: ti,
	}
	m = m.resize(defaultWidth, defaultHeight)
	return m
}

// Init starts the feed, the poll loop and the config watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return startMsg{} },
		m.deps.watcher.Next(),
	)
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		var streamCmd, taskCmd tea.Cmd
		m.stream, streamCmd = m.stream.Start()
		m.tasks, taskCmd = m.tasks.SetGoal(m.cfg.Goal)
		return m.refreshLogs(), tea.Batch(streamCmd, taskCmd)

	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case feedMsg, feedClosedMsg:
		var cmd tea.Cmd
		m.stream, cmd = m.stream.Update(msg)
		var goalCmd tea.Cmd
		m, goalCmd = m.refreshLogs().followStreamGoal()
		return m, tea.Batch(cmd, goalCmd)

	case pollTickMsg, tasksMsg:
		var cmd tea.Cmd
		m.tasks, cmd = m.tasks.Update(msg)
		return m, cmd

	case configFileChangedMsg:
		return m, tea.Batch(m.reloadCmd(), m.deps.watcher.Next())

	case configReloadedMsg:
		if msg.err != nil {
			m.logger.Warn("config reload failed, keeping previous config", "error", msg.err)
			return m, nil
		}
		return m.applyConfig(msg.cfg)
	}

	if m.activeView == GoalInputView {
		var cmd tea.Cmd
		m.goalInput, cmd = m.goalInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.activeView {
	case GoalInputView:
		return m.handleGoalInputKeys(msg)
	case HelpView:
		switch {
		case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Cancel):
			m.activeView = m.previousView
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.previousView = m.activeView
		m.activeView = HelpView
	case key.Matches(msg, m.keys.ToggleMode):
		m.stream, cmd = m.stream.SetMode(m.stream.Mode().Toggle())
	case key.Matches(msg, m.keys.SocketMode):
		m.stream, cmd = m.stream.SetMode(protocol.ModeSocket)
	case key.Matches(msg, m.keys.StreamMode):
		m.stream, cmd = m.stream.SetMode(protocol.ModeEventStream)
	case key.Matches(msg, m.keys.EnterGoal):
		m.previousView = m.activeView
		m.activeView = GoalInputView
		m.goalInput.SetValue(m.tasks.Goal())
		m.goalInput.CursorEnd()
		cmd = m.goalInput.Focus()
	case key.Matches(msg, m.keys.ClearLogs):
		m.stream = m.stream.Clear()
		m = m.refreshLogs()
	case key.Matches(msg, m.keys.Refresh):
		m.tasks, cmd = m.tasks.Refresh()
	case key.Matches(msg, m.keys.ScrollUp, m.keys.ScrollDown, m.keys.PageUp, m.keys.PageDown):
		m.logView, cmd = m.logView.Update(msg)
	}
	return m, cmd
}

func (m Model) handleGoalInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.goalInput.Blur()
		m.activeView = DashboardView
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		goal := strings.TrimSpace(m.goalInput.Value())
		m.goalInput.Blur()
		m.goalInput.SetValue("")
		m.activeView = DashboardView
		m.logger.Info("goal set manually", "goal", goal)
		var cmd tea.Cmd
		m.tasks, cmd = m.tasks.SetGoal(goal)
		return m, cmd
	}
	var cmd tea.Cmd
	m.goalInput, cmd = m.goalInput.Update(msg)
	return m, cmd
}

// followStreamGoal hands a newly announced goal to the board. A repeated
// announcement of the current goal re-fetches it.
func (m Model) followStreamGoal() (Model, tea.Cmd) {
	if m.stream.GoalSeq() == m.goalSeq {
		return m, nil
	}
	m.goalSeq = m.stream.GoalSeq()
	var cmd tea.Cmd
	if goal := m.stream.ActiveGoal(); goal == m.tasks.Goal() {
		m.tasks, cmd = m.tasks.Refresh()
	} else {
		m.tasks, cmd = m.tasks.SetGoal(goal)
	}
	return m, cmd
}

func (m Model) reloadCmd() tea.Cmd {
	reload := m.deps.reload
	if reload == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, err := reload()
		return configReloadedMsg{cfg: cfg, err: err}
	}
}

// applyConfig switches to next, reconnecting only what changed.
func (m Model) applyConfig(next config.Config) (Model, tea.Cmd) {
	prev := m.cfg
	m.cfg = next
	m.logger.Info("config reloaded", "path", next.Path)

	if m.deps.level != nil {
		m.deps.level.Set(next.Level())
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch {
	case next.BaseURL != prev.BaseURL || next.ReconnectDelay != prev.ReconnectDelay:
		if m.deps.dialer != nil {
			m.stream = m.stream.SetDialer(m.deps.dialer(next))
		}
		m.stream = m.stream.Stop()
		m.stream, cmd = m.stream.SetMode(next.Mode)
		cmds = append(cmds, cmd)
	case next.Mode != prev.Mode:
		m.stream, cmd = m.stream.SetMode(next.Mode)
		cmds = append(cmds, cmd)
	}

	if (next.BaseURL != prev.BaseURL || next.RequestTimeout != prev.RequestTimeout) && m.deps.source != nil {
		m.tasks, cmd = m.tasks.SetSource(m.deps.source(next))
		cmds = append(cmds, cmd)
	}
	if next.PollInterval != prev.PollInterval {
		m.tasks = m.tasks.SetInterval(next.PollInterval.Std())
	}
	if next.StatusMatching != prev.StatusMatching {
		m.tasks = m.tasks.SetMatcher(next.Matcher())
	}
	if next.Goal != prev.Goal && next.Goal != "" {
		m.tasks, cmd = m.tasks.SetGoal(next.Goal)
		cmds = append(cmds, cmd)
	}
	return m.refreshLogs(), tea.Batch(cmds...)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	return m.shutdown(), tea.Quit
}

// shutdown closes the feed, stops polling and the config watcher. Safe
// to call more than once.
func (m Model) shutdown() Model {
	m.stream = m.stream.Stop()
	m.tasks = m.tasks.Stop()
	m.deps.watcher.Close()
	return m
}

// sideBySide reports whether the board and logs share a row.
func (m Model) sideBySide() bool {
	return m.width >= sideBySideWidth
}

// panelWidths returns the outer widths of the board and log panels.
func (m Model) panelWidths() (boardWidth, logWidth int) {
	if !m.sideBySide() {
		return m.width, m.width
	}
	boardWidth = m.width * 3 / 5
	return boardWidth, m.width - boardWidth
}

// resize recomputes panel sizes for a width x height terminal.
func (m Model) resize(width, height int) Model {
	m.width, m.height = width, height
	_, logWidth := m.panelWidths()

	// Status bar, footer, panel borders and titles.
	bodyHeight := max(height-2, 4)
	logHeight := bodyHeight - 3
	if !m.sideBySide() {
		logHeight = bodyHeight/2 - 3
	}

	m.logView.Width = max(logWidth-4, 10)
	m.logView.Height = max(logHeight, 3)
	m.goalInput.Width = max(width-len(m.goalInput.Prompt)-2, 10)
	return m.refreshLogs()
}

// refreshLogs re-renders the log panel content.
func (m Model) refreshLogs() Model {
	m.logView.SetContent(renderLogs(m.stream.Entries(), m.logView.Width, m.styles))
	return m
}

// View renders the dashboard.
func (m Model) View() string {
	if m.activeView == HelpView {
		return m.renderHelpOverlay()
	}

	bottom := m.renderFooter()
	if m.activeView == GoalInputView {
		bottom = m.styles.Prompt.Render(m.goalInput.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderStatusBar(), m.renderBody(), bottom)
}

// renderStatusBar renders the connection state, active goal and last sync.
func (m Model) renderStatusBar() string {
	status := m.stream.Status()
	dot := lipgloss.NewStyle().Foreground(m.theme.StatusColor(status)).Render("●")
	parts := []string{
		m.styles.Title.Render("OCS Orchestrator"),
		fmt.Sprintf("Feed: %s %s", dot, status.Label(m.stream.Mode())),
	}

	goal := m.tasks.Goal()
	if goal == "" {
		parts = append(parts, "Goal: "+m.styles.Muted.Render("none"))
	} else {
		parts = append(parts, "Goal: "+m.styles.StatusActive.Render(goal))
		parts = append(parts, fmt.Sprintf("Tasks: %d", m.tasks.Columns().Total()))
	}
	if sync := m.tasks.LastSync(); !sync.IsZero() {
		parts = append(parts, m.styles.Muted.Render("synced "+sync.Format("15:04:05")))
	}
	if err := m.stream.LastErr(); err != nil && status == protocol.StatusError {
		parts = append(parts, m.styles.Error.Render(err.Error()))
	}

	return m.styles.StatusBar.Render(truncate(strings.Join(parts, "  "), m.width))
}

func (m Model) renderBody() string {
	boardWidth, logWidth := m.panelWidths()
	taskPanel := m.renderTaskPanel(boardWidth)
	logPanel := m.renderLogPanel(logWidth)
	if m.sideBySide() {
		return lipgloss.JoinHorizontal(lipgloss.Top, taskPanel, logPanel)
	}
	return lipgloss.JoinVertical(lipgloss.Left, taskPanel, logPanel)
}

func (m Model) renderTaskPanel(width int) string {
	inner := max(width-4, minColumnWidth)
	title := m.styles.PanelTitle.Render("Task Board")

	var content string
	switch {
	case m.tasks.Goal() == "":
		content = renderPlaceholder(m.styles)
	case !m.tasks.Loaded() && m.tasks.LastErr() == nil:
		content = m.styles.Muted.Render("Loading tasks...")
	default:
		content = NewBoardModel(m.tasks.Columns(), inner).Render(m.theme, m.styles)
	}
	if err := m.tasks.LastErr(); err != nil {
		content += "\n" + m.styles.Error.Render(truncate("fetch failed: "+err.Error(), inner))
	}

	return m.styles.Panel.Width(inner + 2).Render(title + "\n" + content)
}

func (m Model) renderLogPanel(width int) string {
	title := m.styles.PanelTitle.Render(fmt.Sprintf("System Logs (%d)", len(m.stream.Entries())))
	return m.styles.Panel.Width(max(width-2, 12)).Render(title + "\n" + m.logView.View())
}
