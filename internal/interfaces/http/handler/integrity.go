package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/gpms/backend/internal/application/integrity"
)

// IntegrityService checks and repairs drift between catalog and registry.
type IntegrityService interface {
	ValidateProductIntegrity(ctx context.Context) (*integrity.Report, error)
	FixProductIntegrityIssues(ctx context.Context) (*integrity.FixResult, error)
	RequestSync(ctx context.Context, reason string) error
}

// SyncRequest carries an optional reason for a full resync
type SyncRequest struct {
	Reason string `json:"reason" binding:"max=200"`
}

// IntegrityHandler serves integrity checks
type IntegrityHandler struct {
	BaseHandler
	service IntegrityService
}

// NewIntegrityHandler creates a new IntegrityHandler
func NewIntegrityHandler(service IntegrityService) *IntegrityHandler {
	return &IntegrityHandler{service: service}
}

// RegisterRoutes mounts the integrity endpoints under /integrity
func (h *IntegrityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/integrity")
	g.GET("/report", h.Validate)
	g.POST("/fix", h.Fix)
	g.POST("/sync", h.RequestSync)
}

// Validate handles GET /integrity/report
func (h *IntegrityHandler) Validate(c *gin.Context) {
	report, err := h.service.ValidateProductIntegrity(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Fix handles POST /integrity/fix
func (h *IntegrityHandler) Fix(c *gin.Context) {
	result, err := h.service.FixProductIntegrityIssues(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RequestSync handles POST /integrity/sync. The body is optional.
func (h *IntegrityHandler) RequestSync(c *gin.Context) {
	var req SyncRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	if err := h.service.RequestSync(c.Request.Context(), req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, gin.H{"requested": true})
}
