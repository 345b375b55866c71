package confirm

import (
	"context"
	"testing"
	"time"
)

func TestBroker_ApproveAndDeny(t *testing.T) {
	notified := make(chan *Pending, 1)
	b := NewBroker(time.Second, func(p *Pending) { notified <- p })

	go func() {
		p := <-notified
		p.Resolve(true)
	}()
	if !b.Request(context.Background(), "delete a file?") {
		t.Error("Resolved true should approve")
	}

	go func() {
		p := <-notified
		p.Resolve(false)
	}()
	if b.Request(context.Background(), "delete a file?") {
		t.Error("Resolved false should deny")
	}
}

func TestBroker_TimeoutDenies(t *testing.T) {
	b := NewBroker(20*time.Millisecond, nil)
	if b.Request(context.Background(), "anyone there?") {
		t.Error("Timeout must deny")
	}
	if b.HasPending() {
		t.Error("No request should remain pending after timeout")
	}
}

func TestBroker_CancelDenies(t *testing.T) {
	b := NewBroker(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() { done <- b.Request(ctx, "still there?") }()

	// Let the request register before cancelling.
	for !b.HasPending() {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if <-done {
		t.Error("Cancellation must deny")
	}
}

func TestBroker_LateAnswerIgnored(t *testing.T) {
	b := NewBroker(20*time.Millisecond, nil)
	_ = b.Request(context.Background(), "?")

	if b.Answer(true) {
		t.Error("Answer with nothing pending should report false")
	}
}

func TestBroker_AnswerResolvesPending(t *testing.T) {
	b := NewBroker(time.Minute, nil)

	done := make(chan bool, 1)
	go func() { done <- b.Request(context.Background(), "?") }()

	for !b.HasPending() {
		time.Sleep(time.Millisecond)
	}
	if !b.Answer(true) {
		t.Error("Answer should find the pending request")
	}
	if !<-done {
		t.Error("Approved answer should approve the request")
	}
}

func TestParseAnswer(t *testing.T) {
	yes := []string{"yes", "Yes", "  y ", "OK", "approve", "confirm", "yes."}
	for _, s := range yes {
		if !ParseAnswer(s) {
			t.Errorf("%q should be an approval", s)
		}
	}
	no := []string{"no", "nope", "", "cancel", "yes please", "why"}
	for _, s := range no {
		if ParseAnswer(s) {
			t.Errorf("%q should be a denial", s)
		}
	}
}
