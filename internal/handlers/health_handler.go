package handlers

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"pazargate/internal/database"
	"pazargate/internal/dto"
	"pazargate/pkg/response"
)

// Version is stamped at build time via -ldflags
var Version = "dev"

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db        *database.Connection
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.Connection) *HealthHandler {
	return &HealthHandler{db: db, startedAt: time.Now()}
}

// Health reports process liveness
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	hostname, _ := os.Hostname()
	response.Success(c, &dto.HealthResponse{
		Status:   "ok",
		Version:  Version,
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
		Checked:  time.Now().UTC(),
		Hostname: hostname,
	})
}

// Ready reports readiness to take traffic, including the database
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := map[string]string{"database": "ok"}

	if err := h.db.HealthCheck(); err != nil {
		checks["database"] = err.Error()
		response.ServiceUnavailable(c, "Database unavailable")
		return
	}

	response.Success(c, &dto.HealthResponse{
		Status:  "ready",
		Checks:  checks,
		Checked: time.Now().UTC(),
	})
}
