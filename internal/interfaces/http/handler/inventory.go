package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gpms/backend/internal/domain/inventory"
)

// ProductViewService returns the cached inventory view of a product.
type ProductViewService interface {
	GetProductView(ctx context.Context, productID uuid.UUID) (*inventory.ProductView, error)
}

// InventoryHandler serves inventory views
type InventoryHandler struct {
	BaseHandler
	views ProductViewService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(views ProductViewService) *InventoryHandler {
	return &InventoryHandler{views: views}
}

// RegisterRoutes mounts GET /inventory/products/:id
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/inventory/products/:id", h.GetProductView)
}

// GetProductView handles GET /inventory/products/:id
func (h *InventoryHandler) GetProductView(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.views.GetProductView(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}
