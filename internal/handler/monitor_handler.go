package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/monitor"
	"github.com/unisphere/exam-backend/internal/service"
	ws "github.com/unisphere/exam-backend/internal/websocket"
)

const (
	keepAliveInterval = 30 * time.Second
	snapshotTimeout   = 5 * time.Second
)

// MonitorHandler streams live session changes of one exam to admins.
type MonitorHandler struct {
	hub            *monitor.Hub
	examService    *service.ExamService
	sessionService *service.ExamSessionService
	upgrader       websocket.Upgrader
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	hub *monitor.Hub,
	examService *service.ExamService,
	sessionService *service.ExamSessionService,
	allowedOrigins []string,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		hub:            hub,
		examService:    examService,
		sessionService: sessionService,
		upgrader:       ws.NewUpgrader(allowedOrigins),
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorExam godoc
// WS /ws/admin/exams/:id/monitor?token=...
// Sends a snapshot of every session, then one message per session change.
func (h *MonitorHandler) MonitorExam(c *gin.Context) {
	examID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.examService.GetByID(c.Request.Context(), examID); err != nil {
		failExam(c, h.log, err, "Monitor exam lookup failed")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("exam_id", examID.String()).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscribe first so nothing published between snapshot and feed is lost.
	sub, err := h.hub.Subscribe(ctx, examID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Monitor subscribe failed")
		_ = ws.WriteError(conn, "monitor unavailable")
		return
	}
	defer sub.Close()

	if err := h.sendSnapshot(ctx, conn, examID); err != nil {
		wsLog.Warn().Err(err).Msg("Initial snapshot failed")
		return
	}
	wsLog.Info().Msg("Monitor connected")

	actions := make(chan ws.Action)
	go h.readActions(ctx, conn, wsLog, actions)

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case action, ok := <-actions:
			if !ok {
				wsLog.Debug().Msg("Monitor disconnected")
				return
			}
			switch action {
			case ws.ActionPing:
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionRefresh:
				err = h.sendSnapshot(ctx, conn, examID)
			default:
				err = ws.WriteError(conn, "unknown action: "+string(action))
			}
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			err = ws.WriteTyped(conn, ws.SessionEventResponse{Event: ws.EventSession, Data: ev})
			if err == nil && ev.Type == model.MonitorExamDeleted {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "exam deleted"),
					time.Now().Add(time.Second))
				return
			}
		case <-ticker.C:
			err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
		}
		if err != nil {
			wsLog.Debug().Err(err).Msg("Monitor write failed")
			return
		}
	}
}

// readActions forwards client actions until the connection fails. It is the
// only reader of conn and closes actions on exit.
func (h *MonitorHandler) readActions(ctx context.Context, conn *websocket.Conn, log zerolog.Logger, actions chan<- ws.Action) {
	defer close(actions)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	})
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		select {
		case actions <- msg.Action:
		case <-ctx.Done():
			return
		}
	}
}

func (h *MonitorHandler) sendSnapshot(ctx context.Context, conn *websocket.Conn, examID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	results, err := h.sessionService.ExamResults(ctx, examID)
	if err != nil {
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Snapshot query failed")
		return ws.WriteError(conn, "snapshot failed")
	}

	snap := ws.SnapshotResponse{
		Event:       ws.EventSnapshot,
		ExamID:      examID.String(),
		TotalJoined: len(results.Sessions),
		Sessions:    results.Sessions,
	}
	for _, s := range results.Sessions {
		if s.Completed {
			snap.TotalCompleted++
		} else {
			snap.TotalActive++
		}
	}
	return ws.WriteTyped(conn, snap)
}
