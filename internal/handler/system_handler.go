package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/config"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/response"
)

const (
	metricsInterval = 7 * time.Second
	pingTimeout     = 2 * time.Second
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler reports service health and streams runtime metrics via SSE.
type SystemHandler struct {
	db        Pinger
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. Either dependency may be nil.
func NewSystemHandler(db Pinger, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type dependencyStatus struct {
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	QueueAudit int64 `json:"queue_audit"`
}

// Health godoc
// GET /health
// Returns 200 when every configured dependency answers a ping, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	deps := h.ping(c.Request.Context())
	body := gin.H{
		"status":       "ok",
		"uptime":       formatDuration(time.Since(h.startTime)),
		"dependencies": deps,
	}
	if deps.Postgres == "down" || deps.Redis == "down" {
		body["status"] = "degraded"
		response.Success(c, http.StatusServiceUnavailable, body)
		return
	}
	response.Success(c, http.StatusOK, body)
}

// SystemMetricsSSE godoc
// GET /api/v1/admin/system/metrics
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("Operator connected to system metrics SSE")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	h.writeMetrics(c)

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Operator disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	data, err := json.Marshal(h.collect(c.Request.Context()))
	if err != nil {
		return
	}
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m := systemMetrics{
		Timestamp:  time.Now().Unix(),
		Uptime:     formatDuration(time.Since(h.startTime)),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.Sys,
		NumGC:      ms.NumGC,
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
	}

	if h.rdb != nil {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		m.QueueAudit, _ = h.rdb.LLen(ctx, config.WorkerKey.PersistAttendanceAuditQueue).Result()
	}
	return m
}

func (h *SystemHandler) ping(ctx context.Context) dependencyStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	deps := dependencyStatus{Postgres: "disabled", Redis: "disabled"}
	if h.db != nil {
		deps.Postgres = "up"
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Postgres ping failed")
			deps.Postgres = "down"
		}
	}
	if h.rdb != nil {
		deps.Redis = "up"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			h.log.Warn().Err(err).Msg("Redis ping failed")
			deps.Redis = "down"
		}
	}
	return deps
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
