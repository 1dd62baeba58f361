package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gopkg.in/gomail.v2"
)

// relay is an in-memory SMTP session. When hold is non-nil Send waits on it.
type relay struct {
	mu     sync.Mutex
	hold   chan struct{}
	to     []string
	body   bytes.Buffer
	closed bool
}

func (r *relay) Send(_ string, to []string, msg io.WriterTo) error {
	if r.hold != nil {
		<-r.hold
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = append(r.to, to...)
	_, err := msg.WriteTo(&r.body)
	return err
}

func (r *relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *relay) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func testSender(r *relay, dialErr error) *SMTPSender {
	return &SMTPSender{
		dial: func() (gomail.SendCloser, error) {
			if dialErr != nil {
				return nil, dialErr
			}
			return r, nil
		},
		from:    "noreply@example.com",
		appName: "Unisphere",
	}
}

func TestSMTPSender_Delivers(t *testing.T) {
	r := &relay{}
	err := testSender(r, nil).SendWelcome(context.Background(), Welcome{To: "ada@example.com", Username: "ada", Password: "pw"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(r.to) != 1 || r.to[0] != "ada@example.com" {
		t.Errorf("recipients = %v", r.to)
	}
	if !strings.Contains(r.body.String(), "Subject: Welcome to Unisphere!") {
		t.Errorf("subject header missing from %q", r.body.String())
	}
	if !r.isClosed() {
		t.Error("session not closed")
	}
}

func TestSMTPSender_DialError(t *testing.T) {
	dialErr := errors.New("connection refused")
	err := testSender(&relay{}, dialErr).SendWelcome(context.Background(), Welcome{To: "ada@example.com"})
	if !errors.Is(err, dialErr) {
		t.Fatalf("err = %v, want dial error", err)
	}
}

func TestSMTPSender_HungRelayBoundedByContext(t *testing.T) {
	r := &relay{hold: make(chan struct{})}
	defer close(r.hold)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := testSender(r, nil).SendWelcome(ctx, Welcome{To: "ada@example.com"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("send returned after %v", elapsed)
	}
}
