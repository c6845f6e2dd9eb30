package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"ocs/pkg/protocol"
)

// updateBuffer is the capacity of a subscription's update channel.
const updateBuffer = 64

// UpdateKind says which fields of an Update are set.
type UpdateKind int

// Update kinds.
const (
	UpdateStatus UpdateKind = iota
	UpdateEntry
)

// Update is one event from a subscription.
type Update struct {
	Subscription string // id of the subscription that produced it
	Mode         protocol.Mode
	Kind         UpdateKind

	// Set for UpdateStatus.
	Status protocol.ConnectionStatus
	Err    error

	// Set for UpdateEntry.
	Entry protocol.LogEntry
}

// Subscription owns one running transport. Updates arrive on Updates in
// the order the transport produced them; the channel is closed once the
// transport has stopped.
type Subscription struct {
	id      string
	mode    protocol.Mode
	updates chan Update
	cancel  context.CancelFunc
	done    chan struct{}
	logger  *slog.Logger

	closeOnce sync.Once
	err       error // transport result; read only after done
	dropped   atomic.Int64
}

// Subscribe starts t on its own goroutine and returns immediately.
func Subscribe(ctx context.Context, t Transport, logger *slog.Logger) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	s := &Subscription{
		id:      id,
		mode:    t.Mode(),
		updates: make(chan Update, updateBuffer),
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  loggerOrDefault(logger).With("subscription", id, "mode", string(t.Mode())),
	}
	go s.run(ctx, t)
	return s
}

func (s *Subscription) run(ctx context.Context, t Transport) {
	defer close(s.done)
	defer close(s.updates)

	s.logger.Debug("feed starting")
	s.err = t.Run(ctx, &subscriptionSink{s: s, ctx: ctx})
	if s.err != nil {
		s.logger.Warn("feed stopped", "error", s.err)
	} else {
		s.logger.Debug("feed stopped")
	}
}

// ID returns the subscription's unique id.
func (s *Subscription) ID() string { return s.id }

// Mode returns the transport mode.
func (s *Subscription) Mode() protocol.Mode { return s.mode }

// Updates returns the update channel.
func (s *Subscription) Updates() <-chan Update { return s.updates }

// Done is closed once the transport goroutine has exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err returns the transport's final error. Only meaningful after Done.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Dropped returns how many frames failed to decode.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// Close stops the transport and waits for it to exit. Buffered updates
// are discarded. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		for range s.updates {
		}
		s.logger.Debug("feed closed")
	})
}

// subscriptionSink adapts a Subscription to Sink. Sends give up once
// ctx is cancelled so a closed subscription never blocks its transport.
type subscriptionSink struct {
	s   *Subscription
	ctx context.Context
}

func (k *subscriptionSink) Status(status protocol.ConnectionStatus, err error) {
	k.send(Update{Kind: UpdateStatus, Status: status, Err: err})
}

func (k *subscriptionSink) Frame(data []byte) {
	entry, err := Decode(data)
	if err != nil {
		k.s.dropped.Add(1)
		k.s.logger.Debug("dropping frame", "error", err, "bytes", len(data))
		return
	}
	k.send(Update{Kind: UpdateEntry, Entry: entry})
}

func (k *subscriptionSink) send(u Update) {
	if k.ctx.Err() != nil {
		return
	}
	u.Subscription = k.s.id
	u.Mode = k.s.mode
	select {
	case k.s.updates <- u:
	case <-k.ctx.Done():
	}
}
