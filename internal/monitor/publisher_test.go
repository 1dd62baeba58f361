package monitor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/unisphere/exam-backend/internal/model"
)

func message(t *testing.T, ev model.MonitorEvent) *redis.Message {
	t.Helper()
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &redis.Message{Payload: string(data)}
}

func TestSubscription_DecodesEvents(t *testing.T) {
	examID := uuid.New()
	msgs := make(chan *redis.Message, 2)
	msgs <- &redis.Message{Payload: "not json"}
	msgs <- message(t, model.MonitorEvent{Type: model.MonitorSessionStarted, ExamID: examID})
	close(msgs)

	sub := newSubscription(nil)
	go sub.pump(msgs)

	var got []model.MonitorEvent
	for ev := range sub.Events() {
		got = append(got, ev)
	}
	if len(got) != 1 || got[0].ExamID != examID || got[0].Type != model.MonitorSessionStarted {
		t.Fatalf("got %+v", got)
	}
}

func TestSubscription_CloseReleasesBlockedPump(t *testing.T) {
	msgs := make(chan *redis.Message)
	sub := newSubscription(nil)
	finished := make(chan struct{})
	go func() {
		sub.pump(msgs)
		close(finished)
	}()

	// Nobody reads Events, so the buffer fills and pump blocks on send.
	ev := model.MonitorEvent{Type: model.MonitorSessionStarted, ExamID: uuid.New()}
	for i := 0; i < cap(sub.events)+1; i++ {
		select {
		case msgs <- message(t, ev):
		case <-time.After(2 * time.Second):
			t.Fatalf("pump stopped accepting messages at %d", i)
		}
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("pump still blocked after Close")
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
