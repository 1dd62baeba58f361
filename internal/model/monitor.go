package model

import (
	"time"

	"github.com/google/uuid"
)

// MonitorEventType names a change an admin can watch live.
type MonitorEventType string

const (
	MonitorSessionStarted   MonitorEventType = "session_started"
	MonitorSessionSubmitted MonitorEventType = "session_submitted"
	MonitorExamDeleted      MonitorEventType = "exam_deleted"
)

// MonitorEvent is published whenever a session of an exam changes state.
type MonitorEvent struct {
	Type      MonitorEventType `json:"type"`
	ExamID    uuid.UUID        `json:"exam_id"`
	UserID    *uuid.UUID       `json:"user_id,omitempty"`
	SessionID *uuid.UUID       `json:"session_id,omitempty"`
	At        time.Time        `json:"at"`
}
