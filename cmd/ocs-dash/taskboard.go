package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ocs/pkg/board"
	"ocs/pkg/protocol"
)

// TaskSource fetches the tasks of one goal.
type TaskSource interface {
	GoalTasks(ctx context.Context, goalID string) ([]protocol.Task, error)
}

// pollTickMsg fires when a poll interval elapses. Ticks whose generation
// is not the board's current one are dropped and do not reschedule.
type pollTickMsg struct {
	gen int
}

// tasksMsg carries the result of one fetch.
type tasksMsg struct {
	gen   int
	seq   int
	goal  string
	tasks []protocol.Task
	err   error
}

// TaskBoard polls the tasks of the active goal and keeps the last good
// list. A zero TaskBoard with no goal never touches the network.
type TaskBoard struct {
	goal     string
	source   TaskSource
	matcher  board.Matcher
	interval time.Duration
	logger   *slog.Logger

	// gen identifies the current polling cycle; every goal or source
	// change starts a new one.
	gen int
	// seq numbers fetches; applied is the newest one whose result is shown.
	seq     int
	applied int

	ctx    context.Context //nolint:containedctx // scoped to the current generation
	cancel context.CancelFunc

	tasks    []protocol.Task
	columns  board.Columns
	loaded   bool
	lastErr  error
	lastSync time.Time
}

// NewTaskBoard returns an idle board.
func NewTaskBoard(source TaskSource, matcher board.Matcher, interval time.Duration, logger *slog.Logger) TaskBoard {
	if matcher == nil {
		matcher = board.Strict
	}
	if logger == nil {
		logger = slog.Default()
	}
	return TaskBoard{
		source:   source,
		matcher:  matcher,
		interval: interval,
		logger:   logger,
	}
}

// Goal returns the goal being polled, or "" when idle.
func (tb TaskBoard) Goal() string { return tb.goal }

// Columns returns the current partition of the last good task list.
func (tb TaskBoard) Columns() board.Columns { return tb.columns }

// Loaded reports whether at least one fetch for the current goal succeeded.
func (tb TaskBoard) Loaded() bool { return tb.loaded }

// LastErr returns the most recent fetch error, cleared by the next success.
func (tb TaskBoard) LastErr() error { return tb.lastErr }

// LastSync returns when the current list was fetched.
func (tb TaskBoard) LastSync() time.Time { return tb.lastSync }

// SetGoal switches polling to goal. The previous cycle is invalidated
// before the new one starts and its in-flight request is cancelled.
func (tb TaskBoard) SetGoal(goal string) (TaskBoard, tea.Cmd) {
	if goal == tb.goal {
		return tb, nil
	}
	tb = tb.Stop()
	tb.goal = goal
	tb.tasks = nil
	tb.columns = board.Columns{}
	tb.loaded = false
	tb.lastErr = nil
	tb.lastSync = time.Time{}
	if goal == "" {
		return tb, nil
	}
	return tb.start()
}

// SetSource replaces the task source and restarts polling the current goal.
func (tb TaskBoard) SetSource(source TaskSource) (TaskBoard, tea.Cmd) {
	tb.source = source
	if tb.goal == "" {
		return tb, nil
	}
	tb = tb.Stop()
	return tb.start()
}

// SetInterval changes the poll interval. It takes effect from the next tick.
func (tb TaskBoard) SetInterval(d time.Duration) TaskBoard {
	tb.interval = d
	return tb
}

// SetMatcher re-partitions the current list with m.
func (tb TaskBoard) SetMatcher(m board.Matcher) TaskBoard {
	if m == nil {
		m = board.Strict
	}
	tb.matcher = m
	tb.columns = board.Partition(tb.tasks, m)
	return tb
}

// Refresh fetches immediately without touching the tick chain.
func (tb TaskBoard) Refresh() (TaskBoard, tea.Cmd) {
	if tb.goal == "" || tb.ctx == nil {
		return tb, nil
	}
	return tb.fetch()
}

// Stop ends the current polling cycle.
func (tb TaskBoard) Stop() TaskBoard {
	tb.gen++
	if tb.cancel != nil {
		tb.cancel()
	}
	tb.ctx, tb.cancel = nil, nil
	return tb
}

func (tb TaskBoard) start() (TaskBoard, tea.Cmd) {
	tb.ctx, tb.cancel = context.WithCancel(context.Background())
	tb.logger.Debug("polling tasks", "goal", tb.goal, "generation", tb.gen, "interval", tb.interval)
	tb, fetch := tb.fetch()
	return tb, tea.Batch(fetch, tb.tick())
}

func (tb TaskBoard) fetch() (TaskBoard, tea.Cmd) {
	tb.seq++
	gen, seq, goal, ctx, source := tb.gen, tb.seq, tb.goal, tb.ctx, tb.source
	return tb, func() tea.Msg {
		if source == nil {
			return tasksMsg{gen: gen, seq: seq, goal: goal, err: errNoSource}
		}
		tasks, err := source.GoalTasks(ctx, goal)
		return tasksMsg{gen: gen, seq: seq, goal: goal, tasks: tasks, err: err}
	}
}

func (tb TaskBoard) tick() tea.Cmd {
	gen := tb.gen
	return tea.Tick(tb.interval, func(time.Time) tea.Msg {
		return pollTickMsg{gen: gen}
	})
}

var errNoSource = errors.New("no task source configured")

// Update handles poll ticks and fetch results.
func (tb TaskBoard) Update(msg tea.Msg) (TaskBoard, tea.Cmd) {
	switch msg := msg.(type) {
	case pollTickMsg:
		if msg.gen != tb.gen || tb.goal == "" {
			return tb, nil
		}
		tb, fetch := tb.fetch()
		return tb, tea.Batch(fetch, tb.tick())

	case tasksMsg:
		return tb.apply(msg), nil
	}
	return tb, nil
}

func (tb TaskBoard) apply(msg tasksMsg) TaskBoard {
	if msg.gen != tb.gen || msg.goal != tb.goal {
		tb.logger.Debug("discarding stale task response", "goal", msg.goal, "generation", msg.gen)
		return tb
	}
	if msg.seq <= tb.applied {
		tb.logger.Debug("discarding out-of-order task response", "goal", msg.goal, "seq", msg.seq, "applied", tb.applied)
		return tb
	}
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return tb
		}
		tb.logger.Warn("fetching tasks failed", "goal", msg.goal, "error", msg.err)
		tb.lastErr = msg.err
		return tb
	}
	tb.applied = msg.seq
	tb.tasks = msg.tasks
	tb.columns = board.Partition(msg.tasks, tb.matcher)
	tb.loaded = true
	tb.lastErr = nil
	tb.lastSync = time.Now()
	return tb
}
