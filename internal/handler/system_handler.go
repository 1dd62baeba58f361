package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/database"
	"github.com/unisphere/exam-backend/internal/response"
)

const healthTimeout = 3 * time.Second

// QueueLener reports the depth of an in-process queue.
type QueueLener interface {
	QueueLen() int
}

// SystemHandler serves liveness and runtime statistics.
type SystemHandler struct {
	deps      map[string]database.Pinger
	mailQueue QueueLener
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. deps are pinged by Health.
func NewSystemHandler(deps map[string]database.Pinger, mailQueue QueueLener, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		deps:      deps,
		mailQueue: mailQueue,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
// Reports 200 when Postgres and Redis answer, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := database.Check(ctx, h.deps); err != nil {
		h.log.Warn().Err(err).Msg("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type systemStats struct {
	Uptime      string `json:"uptime"`
	Goroutines  int    `json:"goroutines"`
	HeapAlloc   uint64 `json:"heap_alloc"`
	HeapSys     uint64 `json:"heap_sys"`
	NumGC       uint32 `json:"num_gc"`
	GoVersion   string `json:"go_version"`
	NumCPU      int    `json:"num_cpu"`
	QueueEmails int    `json:"queue_emails"`
}

// Stats godoc
// GET /api/admin/system
// Returns Go runtime statistics and the welcome email backlog.
func (h *SystemHandler) Stats(c *gin.Context) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := systemStats{
		Uptime:     formatDuration(time.Since(h.startTime)),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.Sys,
		NumGC:      ms.NumGC,
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
	}
	if h.mailQueue != nil {
		stats.QueueEmails = h.mailQueue.QueueLen()
	}
	response.Success(c, http.StatusOK, stats)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
