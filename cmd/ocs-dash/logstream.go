package main

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"ocs/pkg/feed"
	"ocs/pkg/protocol"
)

// Dialer builds the transport for a feed mode.
type Dialer func(mode protocol.Mode) (feed.Transport, error)

var errNoDialer = errors.New("no feed dialer configured")

// feedMsg carries one update from a subscription.
type feedMsg struct {
	update feed.Update
}

// feedClosedMsg is sent when a subscription's update channel closes.
type feedClosedMsg struct {
	subscription string
}

// waitForUpdate pulls the next update from sub.
func waitForUpdate(sub *feed.Subscription) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-sub.Updates()
		if !ok {
			return feedClosedMsg{subscription: sub.ID()}
		}
		return feedMsg{update: u}
	}
}

// LogStream owns at most one live feed subscription and the recent
// history it produced.
type LogStream struct {
	mode    protocol.Mode
	status  protocol.ConnectionStatus
	lastErr error
	history feed.History
	goal    string
	goalSeq int
	sub     *feed.Subscription
	dial    Dialer
	logger  *slog.Logger
}

// NewLogStream returns a disconnected stream for mode.
func NewLogStream(mode protocol.Mode, dial Dialer, logger *slog.Logger) LogStream {
	if logger == nil {
		logger = slog.Default()
	}
	return LogStream{
		mode:    mode,
		status:  protocol.StatusDisconnected,
		history: feed.NewHistory(protocol.HistoryLimit),
		dial:    dial,
		logger:  logger,
	}
}

// Mode returns the selected transport mode.
func (ls LogStream) Mode() protocol.Mode { return ls.mode }

// Status returns the connection status of the current subscription.
func (ls LogStream) Status() protocol.ConnectionStatus { return ls.status }

// LastErr returns the error behind the current status, if any.
func (ls LogStream) LastErr() error { return ls.lastErr }

// Entries returns the history, most recent first.
func (ls LogStream) Entries() []protocol.LogEntry { return ls.history.Entries() }

// ActiveGoal returns the goal id of the latest goal_started event, or ""
// if it carried none.
func (ls LogStream) ActiveGoal() string { return ls.goal }

// GoalSeq counts goal_started events. It changes even when the same goal
// is announced twice.
func (ls LogStream) GoalSeq() int { return ls.goalSeq }

// Subscription returns the open subscription, or nil.
func (ls LogStream) Subscription() *feed.Subscription { return ls.sub }

// SetDialer replaces the transport factory. The open subscription, if
// any, is left alone; call Start to reconnect with the new dialer.
func (ls LogStream) SetDialer(dial Dialer) LogStream {
	ls.dial = dial
	return ls
}

// Start opens a subscription for the current mode, closing any previous one.
func (ls LogStream) Start() (LogStream, tea.Cmd) {
	ls = ls.Stop()
	if ls.dial == nil {
		ls.status = protocol.StatusError
		ls.lastErr = errNoDialer
		return ls, nil
	}
	t, err := ls.dial(ls.mode)
	if err != nil {
		ls.logger.Error("building feed transport failed", "mode", string(ls.mode), "error", err)
		ls.status = protocol.StatusError
		ls.lastErr = err
		return ls, nil
	}
	ls.sub = feed.Subscribe(context.Background(), t, ls.logger)
	ls.status = protocol.StatusConnecting
	ls.lastErr = nil
	ls.logger.Info("feed subscribed", "mode", string(ls.mode), "subscription", ls.sub.ID())
	return ls, waitForUpdate(ls.sub)
}

// SetMode switches transports. The old connection is closed before the
// new one is opened.
func (ls LogStream) SetMode(mode protocol.Mode) (LogStream, tea.Cmd) {
	if mode == ls.mode && ls.sub != nil {
		return ls, nil
	}
	ls.mode = mode
	return ls.Start()
}

// Stop closes the open subscription, if any, and waits for it to finish.
func (ls LogStream) Stop() LogStream {
	if ls.sub == nil {
		return ls
	}
	ls.sub.Close()
	ls.logger.Info("feed closed", "mode", string(ls.sub.Mode()), "subscription", ls.sub.ID())
	ls.sub = nil
	ls.status = protocol.StatusDisconnected
	ls.lastErr = nil
	return ls
}

// Clear empties the history.
func (ls LogStream) Clear() LogStream {
	ls.history = ls.history.Reset()
	return ls
}

// Update applies feed messages. Messages from a subscription other than
// the current one are dropped and not re-armed.
func (ls LogStream) Update(msg tea.Msg) (LogStream, tea.Cmd) {
	switch msg := msg.(type) {
	case feedMsg:
		if ls.sub == nil || msg.update.Subscription != ls.sub.ID() {
			return ls, nil
		}
		ls = ls.apply(msg.update)
		return ls, waitForUpdate(ls.sub)

	case feedClosedMsg:
		if ls.sub == nil || msg.subscription != ls.sub.ID() {
			return ls, nil
		}
		// The transport gave up on its own. A socket always ends
		// disconnected; only the event stream reports an error state.
		ls.sub.Close()
		if err := ls.sub.Err(); err != nil {
			ls.lastErr = err
			if ls.sub.Mode() == protocol.ModeEventStream {
				ls.status = protocol.StatusError
			} else {
				ls.status = protocol.StatusDisconnected
			}
		}
		ls.sub = nil
	}
	return ls, nil
}

func (ls LogStream) apply(u feed.Update) LogStream {
	switch u.Kind {
	case feed.UpdateStatus:
		ls.status = u.Status
		ls.lastErr = u.Err
	case feed.UpdateEntry:
		ls.history = ls.history.Push(u.Entry)
		if u.Entry.Topic != protocol.TopicGoalStarted {
			break
		}
		// An announcement without an id clears the active goal.
		id, _ := feed.GoalID(u.Entry)
		ls.logger.Info("goal started", "goal", id)
		ls.goal = id
		ls.goalSeq++
	}
	return ls
}
