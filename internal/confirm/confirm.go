// Package confirm implements the human-approval checkpoint. The
// pipeline thread blocks on a one-shot future while a presentation
// thread supplies the answer; timeout and cancellation both resolve
// deterministically to "denied".
package confirm

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Gate is the synchronous approval interface the orchestrator calls.
type Gate interface {
	// Request blocks until the user answers, the timeout elapses, or
	// the context is cancelled. Only an explicit yes returns true.
	Request(ctx context.Context, message string) bool
}

// Pending is a single outstanding approval request: a future that can
// be resolved exactly once.
type Pending struct {
	Message string

	once  sync.Once
	reply chan bool
}

func newPending(message string) *Pending {
	return &Pending{Message: message, reply: make(chan bool, 1)}
}

// Resolve supplies the answer. Later calls are ignored, so a late UI
// reply after a timeout cannot approve anything.
func (p *Pending) Resolve(approved bool) {
	p.once.Do(func() { p.reply <- approved })
}

// Broker is a Gate whose answers arrive from a separate presentation
// goroutine (console reader, chat gateway). One request is outstanding
// at a time; the pipeline is single-worker so that is all it needs.
type Broker struct {
	timeout time.Duration
	notify  func(*Pending)

	mu      sync.Mutex
	current *Pending
}

// NewBroker builds a gate that hands each request to notify (which must
// not block) and waits up to timeout for a Resolve call.
func NewBroker(timeout time.Duration, notify func(*Pending)) *Broker {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Broker{timeout: timeout, notify: notify}
}

// SetNotify installs the presentation callback after construction, for
// wiring cycles where the gateway needs the broker first.
func (b *Broker) SetNotify(notify func(*Pending)) {
	b.mu.Lock()
	b.notify = notify
	b.mu.Unlock()
}

func (b *Broker) Request(ctx context.Context, message string) bool {
	pending := newPending(message)

	b.mu.Lock()
	b.current = pending
	notify := b.notify
	b.mu.Unlock()

	if notify != nil {
		notify(pending)
	}

	defer func() {
		b.mu.Lock()
		b.current = nil
		b.mu.Unlock()
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case approved := <-pending.reply:
		return approved
	case <-timer.C:
		pending.Resolve(false)
		return false
	case <-ctx.Done():
		pending.Resolve(false)
		return false
	}
}

// Answer resolves the outstanding request, if any. Returns false when
// nothing was pending; the caller treats the input as a command then.
func (b *Broker) Answer(approved bool) bool {
	b.mu.Lock()
	pending := b.current
	b.mu.Unlock()

	if pending == nil {
		return false
	}
	pending.Resolve(approved)
	return true
}

// HasPending reports whether an approval request is waiting.
func (b *Broker) HasPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current != nil
}

// ParseAnswer maps free-form user input to an approval decision.
// Anything that is not an explicit yes is a denial.
func ParseAnswer(text string) bool {
	switch strings.Trim(strings.ToLower(strings.TrimSpace(text)), ".!") {
	case "y", "yes", "approve", "ok", "confirm":
		return true
	}
	return false
}
