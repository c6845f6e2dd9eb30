package feed

import (
	"sync"
	"time"

	"ocs/pkg/protocol"
)

// recordingSink captures everything a transport reports.
type recordingSink struct {
	mu       sync.Mutex
	statuses []protocol.ConnectionStatus
	errs     []error
	frames   []string
	changed  chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{changed: make(chan struct{}, 128)}
}

func (r *recordingSink) Status(status protocol.ConnectionStatus, err error) {
	r.mu.Lock()
	r.statuses = append(r.statuses, status)
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.notify()
}

func (r *recordingSink) Frame(data []byte) {
	r.mu.Lock()
	r.frames = append(r.frames, string(data))
	r.mu.Unlock()
	r.notify()
}

func (r *recordingSink) notify() {
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

func (r *recordingSink) snapshot() ([]protocol.ConnectionStatus, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.ConnectionStatus(nil), r.statuses...), append([]string(nil), r.frames...)
}

// waitFor polls cond until it holds or the deadline passes.
func (r *recordingSink) waitFor(cond func(statuses []protocol.ConnectionStatus, frames []string) bool) bool {
	deadline := time.After(3 * time.Second)
	for {
		if cond(r.snapshot()) {
			return true
		}
		select {
		case <-r.changed:
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			return false
		}
	}
}
