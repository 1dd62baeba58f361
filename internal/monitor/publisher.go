package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/unisphere/exam-backend/internal/config"
	"github.com/unisphere/exam-backend/internal/model"
)

// Hub publishes session events to Redis Pub/Sub and lets monitors subscribe per exam.
// Going through Redis keeps live monitors working when several API processes run.
type Hub struct {
	rdb *redis.Client
}

// NewHub creates a new Hub.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{rdb: rdb}
}

// Publish sends event on the exam's monitor channel.
func (h *Hub) Publish(ctx context.Context, event model.MonitorEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return h.rdb.Publish(ctx, config.CacheKey.ExamMonitorChannel(event.ExamID.String()), data).Err()
}

// Subscription is a live feed of one exam's events.
type Subscription struct {
	pubsub    *redis.PubSub
	events    chan model.MonitorEvent
	done      chan struct{}
	closeOnce sync.Once
}

// Subscribe starts listening on the exam's channel. The returned
// subscription must be closed by the caller.
func (h *Hub) Subscribe(ctx context.Context, examID uuid.UUID) (*Subscription, error) {
	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID.String()))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	sub := newSubscription(pubsub)
	go sub.pump(pubsub.Channel())
	return sub, nil
}

func newSubscription(pubsub *redis.PubSub) *Subscription {
	return &Subscription{
		pubsub: pubsub,
		events: make(chan model.MonitorEvent, 32),
		done:   make(chan struct{}),
	}
}

// pump decodes messages until the feed ends or the subscription is closed.
// A reader that stops draining Events never blocks it past Close.
func (s *Subscription) pump(msgs <-chan *redis.Message) {
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev model.MonitorEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// Events yields decoded events until the subscription is closed.
func (s *Subscription) Events() <-chan model.MonitorEvent {
	return s.events
}

// Close stops the subscription.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	if s.pubsub == nil {
		return nil
	}
	return s.pubsub.Close()
}
