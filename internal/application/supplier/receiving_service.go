// Package supplier turns supplier deliveries into stock: serialized units
// with barcodes, and the product counters that track them.
package supplier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/domain/catalog"
	"github.com/gpms/backend/internal/domain/coordination"
	"github.com/gpms/backend/internal/domain/shared"
	"github.com/gpms/backend/internal/infrastructure/logger"
	"github.com/gpms/backend/internal/infrastructure/telemetry"
)

// ErrDuplicateSerial means a serial is repeated in the shipment or already on a unit.
var ErrDuplicateSerial = shared.NewDomainError("DUPLICATE_SERIAL", "Serial number already exists")

// ProductStock finds products and books received units against their stock.
type ProductStock interface {
	FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	catalog.StockReceiver
}

// UnitBarcodeGenerator mints unit barcodes in bulk, omitting failures.
type UnitBarcodeGenerator interface {
	GenerateBulkUnitBarcodesWithMetadata(ctx context.Context, unitIDs []uuid.UUID, metadata map[uuid.UUID]map[string]any) map[uuid.UUID]string
}

// ShipmentItem is one physical unit in a delivery.
type ShipmentItem struct {
	SerialNumber string `json:"serialNumber" binding:"required,max=100"`
	Color        string `json:"color" binding:"max=50"`
	Storage      string `json:"storage" binding:"max=50"`
}

// ReceiveShipmentRequest is a delivery of units for one product.
type ReceiveShipmentRequest struct {
	ProductID uuid.UUID      `json:"productId" binding:"required"`
	Reference string         `json:"reference" binding:"max=100"`
	Items     []ShipmentItem `json:"items" binding:"required,min=1,dive"`
}

// ReceivedUnit is a stored unit and the barcode it got, if any.
type ReceivedUnit struct {
	ID           uuid.UUID `json:"id"`
	SerialNumber string    `json:"serialNumber"`
	Barcode      string    `json:"barcode,omitempty"`
}

// ReceiveShipmentResult reports what was stored. PendingBarcodes lists units
// whose barcode could not be issued; they can be retried with EnsureBarcode.
type ReceiveShipmentResult struct {
	ProductID       uuid.UUID      `json:"productId"`
	Units           []ReceivedUnit `json:"units"`
	PendingBarcodes []uuid.UUID    `json:"pendingBarcodes"`
	StockQuantity   int            `json:"stockQuantity"`
}

// ReceivingService books supplier shipments into stock.
type ReceivingService struct {
	products  ProductStock
	units     catalog.ProductUnitRepository
	barcodes  UnitBarcodeGenerator
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewReceivingService creates a new ReceivingService.
func NewReceivingService(
	products ProductStock,
	units catalog.ProductUnitRepository,
	barcodes UnitBarcodeGenerator,
	publisher shared.EventPublisher,
	log *zap.Logger,
) *ReceivingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReceivingService{
		products:  products,
		units:     units,
		barcodes:  barcodes,
		publisher: publisher,
		logger:    log,
	}
}

// ReceiveShipment stores the units together with the stock increase, then
// issues their barcodes. Barcode failures do not fail the shipment.
func (s *ReceivingService) ReceiveShipment(ctx context.Context, req ReceiveShipmentRequest) (*ReceiveShipmentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier", "receive_shipment",
		telemetry.SpanAttrProductID, req.ProductID,
		telemetry.SpanAttrCount, len(req.Items),
	)
	defer span.End()

	log := logger.For(ctx, s.logger)

	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Shipment has no items")
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Product not found")
		}
		return nil, err
	}

	serials, err := s.checkSerials(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	units := make([]*catalog.ProductUnit, 0, len(req.Items))
	for i, item := range req.Items {
		unit, err := catalog.NewProductUnit(product.ID, serials[i], item.Color, item.Storage)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}

	stock, err := s.products.ReceiveUnits(ctx, product.ID, units)
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Product not found")
		}
		return nil, fmt.Errorf("store received units: %w", err)
	}

	created := make([]shared.DomainEvent, 0, len(units))
	ids := make([]uuid.UUID, 0, len(units))
	meta := make(map[uuid.UUID]map[string]any, len(units))
	for _, u := range units {
		created = append(created, coordination.NewUnitEvent(
			coordination.EventTypeUnitCreated, coordination.SourceSupplier, u.ID, product.ID,
			map[string]any{coordination.MetaSerialNumber: u.SerialNumber},
		))
		ids = append(ids, u.ID)
		meta[u.ID] = u.BarcodeMetadata()
	}
	s.publish(ctx, created...)

	issued := s.barcodes.GenerateBulkUnitBarcodesWithMetadata(ctx, ids, meta)

	result := &ReceiveShipmentResult{
		ProductID:       product.ID,
		Units:           make([]ReceivedUnit, 0, len(units)),
		PendingBarcodes: make([]uuid.UUID, 0),
		StockQuantity:   stock,
	}
	withBarcode := make([]*catalog.ProductUnit, 0, len(issued))
	for _, u := range units {
		code, ok := issued[u.ID]
		if ok {
			u.AssignBarcode(code)
			withBarcode = append(withBarcode, u)
		} else {
			result.PendingBarcodes = append(result.PendingBarcodes, u.ID)
		}
		result.Units = append(result.Units, ReceivedUnit{ID: u.ID, SerialNumber: u.SerialNumber, Barcode: u.Barcode})
	}
	if len(withBarcode) > 0 {
		if err := s.units.SaveBatch(ctx, withBarcode); err != nil {
			// the registry already holds the barcodes; integrity repair can restore the column
			log.Error("Failed to store unit barcodes", zap.Error(err))
		}
	}

	s.publish(ctx,
		coordination.NewEvent(coordination.EventTypeStockUpdated, coordination.SourceSupplier, product.ID, map[string]any{
			coordination.MetaDelta:    len(units),
			coordination.MetaQuantity: stock,
		}),
		coordination.NewEvent(coordination.EventTypeProductUpdated, coordination.SourceSupplier, product.ID, nil),
	)

	if len(result.PendingBarcodes) > 0 {
		log.Warn("Shipment received with pending barcodes",
			zap.String("product_id", product.ID.String()),
			zap.Int("pending", len(result.PendingBarcodes)),
		)
	}
	log.Info("Shipment received",
		zap.String("product_id", product.ID.String()),
		zap.String("reference", req.Reference),
		zap.Int("units", len(units)),
		zap.Int("stock_quantity", stock),
	)
	return result, nil
}

// checkSerials trims the serials and rejects repeats within the shipment or
// against stored units.
func (s *ReceivingService) checkSerials(ctx context.Context, items []ShipmentItem) ([]string, error) {
	serials := make([]string, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		serial := strings.TrimSpace(item.SerialNumber)
		if serial == "" {
			return nil, shared.NewDomainError("INVALID_SERIAL", fmt.Sprintf("Item %d has no serial number", i+1))
		}
		if seen[serial] {
			return nil, shared.NewDomainError(ErrDuplicateSerial.Code, "Serial number repeated in shipment: "+serial)
		}
		seen[serial] = true
		serials[i] = serial
	}

	existing, err := s.units.FindExistingSerials(ctx, serials)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, shared.NewDomainError(ErrDuplicateSerial.Code, "Serial numbers already exist: "+strings.Join(existing, ", "))
	}
	return serials, nil
}

func (s *ReceivingService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to publish supplier events", zap.Error(err))
	}
}
