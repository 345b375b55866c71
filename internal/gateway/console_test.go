package gateway

import (
	"strings"
	"testing"
	"time"

	"github.com/arjunsk/max/internal/confirm"
)

func TestConsoleGateway_EmitsCommands(t *testing.T) {
	cg := NewConsoleGateway(nil)
	cg.in = strings.NewReader("open notepad\n\n  set volume to 50  \n")

	go cg.Start()

	if got := <-cg.Commands(); got != "open notepad" {
		t.Errorf("Expected first command, got %q", got)
	}
	// Blank lines are dropped, whitespace trimmed.
	if got := <-cg.Commands(); got != "set volume to 50" {
		t.Errorf("Expected trimmed second command, got %q", got)
	}
}

func TestConsoleGateway_ClosesCommandsOnEOF(t *testing.T) {
	cg := NewConsoleGateway(nil)
	cg.in = strings.NewReader("open notepad\n")

	go cg.Start()

	if got := <-cg.Commands(); got != "open notepad" {
		t.Fatalf("Expected the command before EOF, got %q", got)
	}

	// After EOF the channel must close so consumers can drain and exit.
	select {
	case _, ok := <-cg.Commands():
		if ok {
			t.Error("Expected a closed channel after EOF, got another command")
		}
	case <-time.After(time.Second):
		t.Fatal("Commands channel never closed after EOF")
	}
}

func TestConsoleGateway_AnswersPendingConfirmation(t *testing.T) {
	broker := confirm.NewBroker(time.Second, nil)
	cg := NewConsoleGateway(broker)

	lines := make(chan string)
	cg.in = &chanReader{lines: lines}
	go cg.Start()

	done := make(chan bool, 1)
	go func() { done <- broker.Request(t.Context(), "delete it?") }()

	for !broker.HasPending() {
		time.Sleep(time.Millisecond)
	}
	lines <- "yes\n"

	if !<-done {
		t.Error("A 'yes' line should approve the pending confirmation")
	}

	// The answer line must not surface as a command; the next line does.
	lines <- "open notepad\n"
	select {
	case got := <-cg.Commands():
		if got != "open notepad" {
			t.Errorf("Expected the follow-up command, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Follow-up command never arrived")
	}
}

// chanReader feeds lines one at a time so the test controls pacing.
type chanReader struct {
	lines   <-chan string
	pending []byte
}

func (r *chanReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		r.pending = []byte(<-r.lines)
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
