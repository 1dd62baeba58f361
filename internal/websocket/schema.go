package websocket

import "github.com/unisphere/exam-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is the only message shape monitors send.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventSnapshot Event = "snapshot"
	EventSession  Event = "session"
	EventPong     Event = "pong"
)

// SnapshotResponse is sent on connect and on refresh: the current state of every session.
type SnapshotResponse struct {
	Event          Event                 `json:"event"`
	ExamID         string                `json:"exam_id"`
	TotalJoined    int                   `json:"total_joined"`
	TotalActive    int                   `json:"total_active"`
	TotalCompleted int                   `json:"total_completed"`
	Sessions       []model.SessionResult `json:"sessions"`
}

// SessionEventResponse relays one state change.
type SessionEventResponse struct {
	Event Event              `json:"event"`
	Data  model.MonitorEvent `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
