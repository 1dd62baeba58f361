package servicetest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unisphere/exam-backend/internal/mailer"
	"github.com/unisphere/exam-backend/internal/model"
)

// PaperCache is an in-memory paper cache. Setting Err makes every call fail
// the way an unreachable Redis would.
type PaperCache struct {
	mu     sync.Mutex
	papers map[uuid.UUID]model.ExamPaper
	Err    error
	Hits   int
	Sets   int
}

func NewPaperCache() *PaperCache {
	return &PaperCache{papers: make(map[uuid.UUID]model.ExamPaper)}
}

func (c *PaperCache) Get(_ context.Context, examID uuid.UUID) (*model.ExamPaper, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, false, c.Err
	}
	p, ok := c.papers[examID]
	if !ok {
		return nil, false, nil
	}
	c.Hits++
	return &p, true, nil
}

func (c *PaperCache) Set(_ context.Context, paper *model.ExamPaper) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.papers[paper.ID] = *paper
	c.Sets++
	return nil
}

func (c *PaperCache) Invalidate(_ context.Context, examID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	delete(c.papers, examID)
	return nil
}

// Has reports whether a paper is cached for examID.
func (c *PaperCache) Has(examID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.papers[examID]
	return ok
}

// Blocklist is an in-memory token blocklist. A non-nil Err makes lookups fail.
type Blocklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	Err     error
}

func NewBlocklist() *Blocklist {
	return &Blocklist{revoked: make(map[string]time.Duration)}
}

func (b *Blocklist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[tokenID] = ttl
	return nil
}

func (b *Blocklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return false, b.Err
	}
	_, ok := b.revoked[tokenID]
	return ok, nil
}

// TTL returns the ttl a token was revoked with.
func (b *Blocklist) TTL(tokenID string) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ttl, ok := b.revoked[tokenID]
	return ttl, ok
}

// Publisher records published monitor events.
type Publisher struct {
	mu     sync.Mutex
	events []model.MonitorEvent
	Err    error
}

func (p *Publisher) Publish(_ context.Context, event model.MonitorEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (p *Publisher) Events() []model.MonitorEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.MonitorEvent(nil), p.events...)
}

// Notifier records welcome emails instead of sending them.
type Notifier struct {
	mu   sync.Mutex
	msgs []mailer.Welcome
}

func (n *Notifier) NotifyWelcome(msg mailer.Welcome) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

// Messages returns a copy of the recorded emails.
func (n *Notifier) Messages() []mailer.Welcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]mailer.Welcome(nil), n.msgs...)
}
