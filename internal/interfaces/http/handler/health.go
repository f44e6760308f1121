package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gpms/backend/internal/interfaces/http/dto"
)

// Pinger is anything the readiness check must reach, such as the database.
type Pinger interface {
	Ping() error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func() error

// Ping calls f
func (f PingerFunc) Ping() error { return f() }

// HealthResponse is returned by the liveness check
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	BaseHandler
	service   string
	startTime time.Time
	checks    map[string]Pinger
}

// NewHealthHandler creates a HealthHandler. Each named check must pass for
// the service to be ready.
func NewHealthHandler(service string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		service:   service,
		startTime: time.Now(),
		checks:    checks,
	}
}

// RegisterRoutes mounts /health and /health/ready
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Live)
	rg.GET("/health/ready", h.Ready)
}

// Live handles GET /health
func (h *HealthHandler) Live(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:    "ok",
		Service:   h.service,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		errCh := make(chan error, 1)
		go func() { errCh <- check.Ping() }()

		select {
		case err := <-errCh:
			if err != nil {
				results[name] = err.Error()
				ready = false
				continue
			}
			results[name] = "ok"
		case <-ctx.Done():
			results[name] = "timeout"
			ready = false
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    gin.H{"status": "unavailable", "checks": results},
			Error: &dto.ErrorInfo{
				Code:      "ERR_NOT_READY",
				Message:   "One or more dependencies are unavailable",
				Timestamp: time.Now().UTC(),
			},
		})
		return
	}
	h.Success(c, gin.H{"status": "ready", "checks": results})
}
