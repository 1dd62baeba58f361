package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/mailer"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Welcome
	err  error
	done chan struct{}
}

func newRecordingSender(expect int, err error) *recordingSender {
	return &recordingSender{err: err, done: make(chan struct{}, expect)}
}

func (s *recordingSender) SendWelcome(_ context.Context, msg mailer.Welcome) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	s.done <- struct{}{}
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d/%d", i+1, n)
		}
	}
}

func TestMailWorker_DeliversQueuedMessages(t *testing.T) {
	sender := newRecordingSender(2, nil)
	w := NewMailWorker(sender, 8, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	w.NotifyWelcome(mailer.Welcome{To: "a@example.com", Username: "a", Password: "pw1234"})
	w.NotifyWelcome(mailer.Welcome{To: "b@example.com", Username: "b", Password: "pw1234"})

	waitFor(t, sender.done, 2)
	if got := sender.count(); got != 2 {
		t.Fatalf("sent %d, want 2", got)
	}
}

func TestMailWorker_SendFailureDoesNotStopWorker(t *testing.T) {
	sender := newRecordingSender(2, errors.New("smtp down"))
	w := NewMailWorker(sender, 8, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	w.NotifyWelcome(mailer.Welcome{To: "a@example.com"})
	w.NotifyWelcome(mailer.Welcome{To: "b@example.com"})

	waitFor(t, sender.done, 2)
}

func TestMailWorker_NotifyNeverBlocks(t *testing.T) {
	sender := newRecordingSender(0, nil)
	w := NewMailWorker(sender, 1, zerolog.Nop())

	finished := make(chan struct{})
	go func() {
		// No consumer running: the second message must be dropped, not block.
		w.NotifyWelcome(mailer.Welcome{To: "a@example.com"})
		w.NotifyWelcome(mailer.Welcome{To: "b@example.com"})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("NotifyWelcome blocked on a full queue")
	}
}

func TestMailWorker_DrainsOnShutdown(t *testing.T) {
	sender := newRecordingSender(3, nil)
	w := NewMailWorker(sender, 8, zerolog.Nop())

	for _, to := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		w.NotifyWelcome(mailer.Welcome{To: to})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Start(ctx)

	if got := sender.count(); got != 3 {
		t.Fatalf("drained %d, want 3", got)
	}
}
