package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/gpms/backend/internal/application/supplier"
)

// ReceivingService books supplier shipments.
type ReceivingService interface {
	ReceiveShipment(ctx context.Context, req supplier.ReceiveShipmentRequest) (*supplier.ReceiveShipmentResult, error)
}

// ReceivingHandler serves supplier receiving
type ReceivingHandler struct {
	BaseHandler
	service ReceivingService
}

// NewReceivingHandler creates a new ReceivingHandler
func NewReceivingHandler(service ReceivingService) *ReceivingHandler {
	return &ReceivingHandler{service: service}
}

// RegisterRoutes mounts POST /shipments
func (h *ReceivingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/shipments", h.Receive)
}

// Receive handles POST /shipments. Units whose barcode could not be issued
// are listed in pendingBarcodes; the shipment itself still succeeds.
func (h *ReceivingHandler) Receive(c *gin.Context) {
	var req supplier.ReceiveShipmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.ReceiveShipment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
