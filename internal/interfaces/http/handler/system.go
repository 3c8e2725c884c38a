package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hospital-erp/backend/internal/infrastructure/logger"
	"github.com/hospital-erp/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler serves liveness and build information
type SystemHandler struct {
	BaseHandler
	db        Pinger
	version   string
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. A nil db reports the
// database as not configured.
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	if version == "" {
		version = "dev"
	}
	return &SystemHandler{
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	Database  string `json:"database" example:"ok"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
	Time      string `json:"time" example:"2026-01-23T12:00:00Z"`
}

// Health godoc
// @Summary      Health check
// @Description  Reports service liveness and database reachability
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Database:  "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Time:      time.Now().Format(time.RFC3339),
	}

	status := http.StatusOK
	if h.db == nil {
		resp.Database = "not configured"
	} else if err := h.db.Ping(); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "error"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
