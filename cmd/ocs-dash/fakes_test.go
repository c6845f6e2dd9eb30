package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ocs/pkg/config"
	"ocs/pkg/feed"
	"ocs/pkg/protocol"
)

var errTest = errors.New("test error")

// fakeSource is an in-memory TaskSource that records every call.
type fakeSource struct {
	mu    sync.Mutex
	calls []string
	tasks map[string][]protocol.Task
	err   error
}

func (f *fakeSource) GoalTasks(_ context.Context, goal string) ([]protocol.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, goal)
	if f.err != nil {
		return nil, f.err
	}
	return f.tasks[goal], nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// blockingSource blocks every fetch until its context is cancelled.
type blockingSource struct{}

func (blockingSource) GoalTasks(ctx context.Context, _ string) ([]protocol.Task, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// fakeTransport reports connected, emits its frames and then holds the
// connection open until cancelled.
type fakeTransport struct {
	mode    protocol.Mode
	frames  [][]byte
	open    *atomic.Int32
	maxOpen *atomic.Int32
	opened  *atomic.Int32
}

func (f *fakeTransport) Mode() protocol.Mode { return f.mode }

func (f *fakeTransport) Run(ctx context.Context, sink feed.Sink) error {
	n := f.open.Add(1)
	f.opened.Add(1)
	for {
		cur := f.maxOpen.Load()
		if n <= cur || f.maxOpen.CompareAndSwap(cur, n) {
			break
		}
	}
	defer f.open.Add(-1)

	sink.Status(protocol.StatusConnected, nil)
	for _, fr := range f.frames {
		sink.Frame(fr)
	}
	<-ctx.Done()
	return nil
}

// transportFarm hands out fakeTransports and tracks how many are open.
type transportFarm struct {
	frames  [][]byte
	open    atomic.Int32
	maxOpen atomic.Int32
	opened  atomic.Int32
}

func (tf *transportFarm) dial(mode protocol.Mode) (feed.Transport, error) {
	return &fakeTransport{
		mode:    mode,
		frames:  tf.frames,
		open:    &tf.open,
		maxOpen: &tf.maxOpen,
		opened:  &tf.opened,
	}, nil
}

// testDeps wires a model to a transport farm and a fake source.
func testDeps(farm *transportFarm, src TaskSource) deps {
	return deps{
		dialer: func(config.Config) Dialer { return farm.dial },
		source: func(config.Config) TaskSource { return src },
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PollInterval = config.Duration(time.Millisecond)
	return cfg
}

// entryFrame builds a bare LogEntry frame.
func entryFrame(topic string, payload any) []byte {
	p, _ := json.Marshal(payload)
	data, _ := json.Marshal(map[string]any{
		"topic":     topic,
		"payload":   json.RawMessage(p),
		"timestamp": "2026-01-02T03:04:05Z",
		"source":    "orchestrator",
	})
	return data
}

// numberedFrames builds n frames with topics t0..t(n-1).
func numberedFrames(n int) [][]byte {
	frames := make([][]byte, 0, n)
	for i := range n {
		frames = append(frames, entryFrame(fmt.Sprintf("t%d", i), map[string]int{"i": i}))
	}
	return frames
}

// runCmd executes cmd and returns the messages it produces, flattening
// batches. Commands that do not finish within a short timeout are
// abandoned.
func runCmd(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(500 * time.Millisecond):
		return nil
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(t, c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// msgsOf filters msgs to those of type T.
func msgsOf[T any](msgs []tea.Msg) []T {
	var out []T
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
