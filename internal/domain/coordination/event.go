// Package coordination defines the events feature areas exchange over the
// in-process bus to keep their caches and derived state in step.
package coordination

import (
	"github.com/google/uuid"

	"github.com/gpms/backend/internal/domain/shared"
)

// Event types
const (
	EventTypeProductCreated   = "product_created"
	EventTypeProductUpdated   = "product_updated"
	EventTypeProductDeleted   = "product_deleted"
	EventTypeUnitCreated      = "unit_created"
	EventTypeUnitUpdated      = "unit_updated"
	EventTypeUnitDeleted      = "unit_deleted"
	EventTypeStockUpdated     = "stock_updated"
	EventTypeBarcodeGenerated = "barcode_generated"
	EventTypeSyncRequested    = "sync_requested"
)

// Source names the feature area that emitted an event.
type Source string

const (
	SourceSupplier  Source = "supplier"
	SourceInventory Source = "inventory"
	SourceRegistry  Source = "registry"
	SourceIntegrity Source = "integrity"
	SourceSales     Source = "sales"
	SourceRepairs   Source = "repairs"
)

// Metadata keys
const (
	MetaProductID    = "productId"
	MetaSerialNumber = "serialNumber"
	MetaBarcode      = "barcode"
	MetaQuantity     = "quantity"
	MetaDelta        = "delta"
	MetaReason       = "reason"
)

// Event is a notification that an entity was mutated. It is delivered
// synchronously and never persisted.
type Event struct {
	shared.BaseDomainEvent
	Source   Source         `json:"source"`
	EntityID uuid.UUID      `json:"entityId"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewEvent creates an event stamped with a fresh ID and the current time.
func NewEvent(eventType string, source Source, entityID uuid.UUID, metadata map[string]any) *Event {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Event{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, entityID),
		Source:          source,
		EntityID:        entityID,
		Metadata:        metadata,
	}
}

// NewUnitEvent creates a unit event carrying the owning product.
func NewUnitEvent(eventType string, source Source, unitID, productID uuid.UUID, metadata map[string]any) *Event {
	e := NewEvent(eventType, source, unitID, metadata)
	e.Metadata[MetaProductID] = productID.String()
	return e
}

// NewSyncRequestedEvent asks every listener to discard derived state.
func NewSyncRequestedEvent(source Source, reason string) *Event {
	return NewEvent(EventTypeSyncRequested, source, uuid.Nil, map[string]any{MetaReason: reason})
}

// ProductID returns metadata.productId when present and parseable.
func (e *Event) ProductID() (uuid.UUID, bool) {
	switch v := e.Metadata[MetaProductID].(type) {
	case uuid.UUID:
		return v, v != uuid.Nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	default:
		return uuid.Nil, false
	}
}

// IsProductEvent reports whether the event's subject is a product.
func (e *Event) IsProductEvent() bool {
	switch e.Type {
	case EventTypeProductCreated, EventTypeProductUpdated, EventTypeProductDeleted, EventTypeStockUpdated:
		return true
	}
	return false
}

// IsUnitEvent reports whether the event's subject is a product unit.
func (e *Event) IsUnitEvent() bool {
	switch e.Type {
	case EventTypeUnitCreated, EventTypeUnitUpdated, EventTypeUnitDeleted:
		return true
	}
	return false
}
