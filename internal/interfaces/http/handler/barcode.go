package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gpms/backend/internal/domain/barcode"
	"github.com/gpms/backend/internal/interfaces/http/dto"
)

// BarcodeService is the registry surface the handler needs.
type BarcodeService interface {
	GenerateUniqueBarcode(ctx context.Context, entityType barcode.EntityType, entityID uuid.UUID, barcodeType barcode.BarcodeType) (string, error)
	RegisterBarcode(ctx context.Context, code string, barcodeType barcode.BarcodeType, entityType barcode.EntityType, entityID uuid.UUID, metadata map[string]any) (*barcode.BarcodeRecord, error)
	GetBarcodeByEntity(ctx context.Context, entityType barcode.EntityType, entityID uuid.UUID) (*barcode.BarcodeRecord, error)
	ValidateBarcodeUniqueness(ctx context.Context, code string) (bool, error)
	GetBarcodeHistory(ctx context.Context, entityID uuid.UUID) ([]barcode.BarcodeRecord, error)
	GenerateBulkUnitBarcodes(ctx context.Context, unitIDs []uuid.UUID) map[uuid.UUID]string
	ValidateBarcode(code string) barcode.ValidationResult
	ParseBarcode(code string) barcode.Info
	CurrentConfig(ctx context.Context) *barcode.Config
}

// GenerateBarcodeRequest asks the registry to mint a barcode for an entity.
type GenerateBarcodeRequest struct {
	EntityType  barcode.EntityType  `json:"entityType" binding:"required,oneof=product productUnit"`
	EntityID    uuid.UUID           `json:"entityId" binding:"required"`
	BarcodeType barcode.BarcodeType `json:"barcodeType" binding:"omitempty,oneof=unit product"`
}

// RegisterBarcodeRequest records an externally supplied barcode.
type RegisterBarcodeRequest struct {
	Barcode     string              `json:"barcode" binding:"required,max=25"`
	BarcodeType barcode.BarcodeType `json:"barcodeType" binding:"required,oneof=unit product"`
	EntityType  barcode.EntityType  `json:"entityType" binding:"required,oneof=product productUnit"`
	EntityID    uuid.UUID           `json:"entityId" binding:"required"`
	Metadata    map[string]any      `json:"metadata"`
}

// BulkBarcodeRequest asks for one unit barcode per id.
type BulkBarcodeRequest struct {
	UnitIDs []uuid.UUID `json:"unitIds" binding:"required,min=1,max=500"`
}

// BulkBarcodeResponse lists issued barcodes and the units that got none.
type BulkBarcodeResponse struct {
	Barcodes map[uuid.UUID]string `json:"barcodes"`
	Failed   []uuid.UUID          `json:"failed"`
}

// BarcodeRecordResponse is a registry record in API responses
type BarcodeRecordResponse struct {
	ID          uuid.UUID           `json:"id"`
	Barcode     string              `json:"barcode"`
	BarcodeType barcode.BarcodeType `json:"barcodeType"`
	EntityType  barcode.EntityType  `json:"entityType"`
	EntityID    uuid.UUID           `json:"entityId"`
	Format      string              `json:"format"`
	Metadata    map[string]any      `json:"metadata,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

func toBarcodeRecordResponse(r *barcode.BarcodeRecord) BarcodeRecordResponse {
	return BarcodeRecordResponse{
		ID:          r.ID,
		Barcode:     r.Barcode,
		BarcodeType: r.BarcodeType,
		EntityType:  r.EntityType,
		EntityID:    r.EntityID,
		Format:      r.Format,
		Metadata:    r.Metadata,
		CreatedAt:   r.CreatedAt,
	}
}

// BarcodeHandler serves the barcode registry
type BarcodeHandler struct {
	BaseHandler
	service BarcodeService
}

// NewBarcodeHandler creates a new BarcodeHandler
func NewBarcodeHandler(service BarcodeService) *BarcodeHandler {
	return &BarcodeHandler{service: service}
}

// RegisterRoutes mounts the registry endpoints under /barcodes
func (h *BarcodeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/barcodes")
	g.POST("", h.Register)
	g.POST("/generate", h.Generate)
	g.POST("/bulk", h.GenerateBulk)
	g.GET("/config", h.GetConfig)
	g.GET("/validate", h.Validate)
	g.GET("/parse", h.Parse)
	g.GET("/unique", h.CheckUniqueness)
	g.GET("/history/:entityId", h.GetHistory)

	rg.GET("/entities/:entityType/:entityId/barcode", h.GetByEntity)
}

// Generate handles POST /barcodes/generate
func (h *BarcodeHandler) Generate(c *gin.Context) {
	var req GenerateBarcodeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	code, err := h.service.GenerateUniqueBarcode(c.Request.Context(), req.EntityType, req.EntityID, req.BarcodeType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{"barcode": code})
}

// Register handles POST /barcodes
func (h *BarcodeHandler) Register(c *gin.Context) {
	var req RegisterBarcodeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.service.RegisterBarcode(c.Request.Context(), req.Barcode, req.BarcodeType, req.EntityType, req.EntityID, req.Metadata)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toBarcodeRecordResponse(record))
}

// GenerateBulk handles POST /barcodes/bulk
func (h *BarcodeHandler) GenerateBulk(c *gin.Context) {
	var req BulkBarcodeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	issued := h.service.GenerateBulkUnitBarcodes(c.Request.Context(), req.UnitIDs)
	resp := BulkBarcodeResponse{Barcodes: issued, Failed: []uuid.UUID{}}
	for _, id := range req.UnitIDs {
		if _, ok := issued[id]; !ok {
			resp.Failed = append(resp.Failed, id)
		}
	}
	h.Success(c, resp)
}

// GetByEntity handles GET /entities/:entityType/:entityId/barcode
func (h *BarcodeHandler) GetByEntity(c *gin.Context) {
	entityType := barcode.EntityType(c.Param("entityType"))
	if !entityType.IsValid() {
		h.BadRequest(c, "Unknown entity type: "+string(entityType))
		return
	}
	entityID, ok := h.uuidParam(c, "entityId")
	if !ok {
		return
	}

	record, err := h.service.GetBarcodeByEntity(c.Request.Context(), entityType, entityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if record == nil {
		h.NotFound(c, "Entity has no barcode")
		return
	}
	h.Success(c, toBarcodeRecordResponse(record))
}

// GetHistory handles GET /barcodes/history/:entityId
func (h *BarcodeHandler) GetHistory(c *gin.Context) {
	entityID, ok := h.uuidParam(c, "entityId")
	if !ok {
		return
	}

	records, err := h.service.GetBarcodeHistory(c.Request.Context(), entityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]BarcodeRecordResponse, len(records))
	for i := range records {
		out[i] = toBarcodeRecordResponse(&records[i])
	}
	h.Success(c, out)
}

// CheckUniqueness handles GET /barcodes/unique?code=
func (h *BarcodeHandler) CheckUniqueness(c *gin.Context) {
	code, ok := h.codeQuery(c)
	if !ok {
		return
	}

	unique, err := h.service.ValidateBarcodeUniqueness(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"barcode": code, "unique": unique})
}

// Validate handles GET /barcodes/validate?code=. An invalid barcode is a
// successful answer, not an error.
func (h *BarcodeHandler) Validate(c *gin.Context) {
	h.Success(c, h.service.ValidateBarcode(c.Query("code")))
}

// Parse handles GET /barcodes/parse?code=
func (h *BarcodeHandler) Parse(c *gin.Context) {
	h.Success(c, h.service.ParseBarcode(c.Query("code")))
}

// BarcodeConfigResponse is the generator configuration in effect
type BarcodeConfigResponse struct {
	Prefix   string                        `json:"prefix"`
	Format   string                        `json:"format"`
	Counters map[barcode.BarcodeType]int64 `json:"counters"`
}

// GetConfig handles GET /barcodes/config
func (h *BarcodeHandler) GetConfig(c *gin.Context) {
	cfg := h.service.CurrentConfig(c.Request.Context())
	h.Success(c, BarcodeConfigResponse{
		Prefix:   cfg.Prefix,
		Format:   cfg.Format,
		Counters: cfg.Counters,
	})
}

func (h *BarcodeHandler) codeQuery(c *gin.Context) (string, bool) {
	code := c.Query("code")
	if code == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Query parameter code is required")
		return "", false
	}
	return code, true
}
