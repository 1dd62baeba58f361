package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/mailer"
)

const (
	mailSendTimeout  = 30 * time.Second
	mailDrainTimeout = 15 * time.Second
)

// MailWorker delivers welcome emails off the request path. Messages carry a
// plaintext password, so they are queued in process memory only and never
// persisted or logged.
type MailWorker struct {
	sender mailer.Sender
	queue  chan mailer.Welcome
	log    zerolog.Logger
}

// NewMailWorker creates a MailWorker with a bounded queue.
func NewMailWorker(sender mailer.Sender, queueSize int, log zerolog.Logger) *MailWorker {
	return &MailWorker{
		sender: sender,
		queue:  make(chan mailer.Welcome, queueSize),
		log:    log.With().Str("component", "mail_worker").Logger(),
	}
}

// NotifyWelcome enqueues msg without blocking. When the queue is full the
// message is dropped and the drop is logged.
func (w *MailWorker) NotifyWelcome(msg mailer.Welcome) {
	select {
	case w.queue <- msg:
	default:
		w.log.Warn().Str("to", msg.To).Msg("Mail queue full, welcome email dropped")
	}
}

// QueueLen reports how many welcome emails are waiting.
func (w *MailWorker) QueueLen() int {
	return len(w.queue)
}

// Start begins the worker loop. Call in a goroutine.
func (w *MailWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain()
			w.log.Info().Msg("Worker stopped")
			return
		case msg := <-w.queue:
			w.send(ctx, msg)
		}
	}
}

// drain sends whatever is still queued, bounded by mailDrainTimeout.
func (w *MailWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), mailDrainTimeout)
	defer cancel()

	for {
		select {
		case msg := <-w.queue:
			if ctx.Err() != nil {
				w.log.Warn().Str("to", msg.To).Msg("Shutdown deadline reached, welcome email dropped")
				continue
			}
			w.send(ctx, msg)
		default:
			return
		}
	}
}

func (w *MailWorker) send(ctx context.Context, msg mailer.Welcome) {
	sendCtx, cancel := context.WithTimeout(ctx, mailSendTimeout)
	defer cancel()

	if err := w.sender.SendWelcome(sendCtx, msg); err != nil {
		w.log.Error().Err(err).Str("to", msg.To).Msg("Failed to send welcome email")
		return
	}
	w.log.Debug().Str("to", msg.To).Msg("Welcome email sent")
}
