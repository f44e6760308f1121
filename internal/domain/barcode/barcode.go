// Package barcode holds the barcode registry domain: record shape, counter
// configuration, and the stateless CODE128 composition and validation rules.
package barcode

import (
	"time"

	"github.com/google/uuid"

	"github.com/gpms/backend/internal/domain/shared"
)

// FormatCode128 is the only symbology the registry issues.
const FormatCode128 = "CODE128"

// BarcodeType selects the counter namespace a barcode is allocated from.
type BarcodeType string

const (
	BarcodeTypeUnit    BarcodeType = "unit"
	BarcodeTypeProduct BarcodeType = "product"
	// BarcodeTypeUnknown is only produced by ParseBarcodeInfo.
	BarcodeTypeUnknown BarcodeType = "unknown"
)

// IsValid reports whether t is an allocatable type.
func (t BarcodeType) IsValid() bool {
	return t == BarcodeTypeUnit || t == BarcodeTypeProduct
}

// Code returns the single-letter marker embedded in a composed barcode.
func (t BarcodeType) Code() string {
	switch t {
	case BarcodeTypeUnit:
		return "U"
	case BarcodeTypeProduct:
		return "P"
	default:
		return ""
	}
}

func barcodeTypeFromCode(code string) BarcodeType {
	switch code {
	case "U":
		return BarcodeTypeUnit
	case "P":
		return BarcodeTypeProduct
	default:
		return BarcodeTypeUnknown
	}
}

// EntityType identifies what kind of entity a barcode is attached to.
type EntityType string

const (
	EntityTypeProduct     EntityType = "product"
	EntityTypeProductUnit EntityType = "productUnit"
)

// IsValid reports whether e is a known entity type.
func (e EntityType) IsValid() bool {
	return e == EntityTypeProduct || e == EntityTypeProductUnit
}

// DefaultBarcodeType is the counter namespace used for entities of this type.
func (e EntityType) DefaultBarcodeType() BarcodeType {
	if e == EntityTypeProduct {
		return BarcodeTypeProduct
	}
	return BarcodeTypeUnit
}

// BarcodeRecord is the authoritative link between a barcode string and the
// entity it identifies. The registry never owns the entity.
type BarcodeRecord struct {
	shared.BaseEntity
	Barcode     string
	BarcodeType BarcodeType
	EntityType  EntityType
	EntityID    uuid.UUID
	Format      string
	Metadata    map[string]any
}

// NewBarcodeRecord validates and builds a record for registration.
func NewBarcodeRecord(code string, barcodeType BarcodeType, entityType EntityType, entityID uuid.UUID, metadata map[string]any) (*BarcodeRecord, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "barcode cannot be empty")
	}
	if !barcodeType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown barcode type: "+string(barcodeType))
	}
	if !entityType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown entity type: "+string(entityType))
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "entity id cannot be empty")
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &BarcodeRecord{
		BaseEntity:  shared.NewBaseEntity(),
		Barcode:     code,
		BarcodeType: barcodeType,
		EntityType:  entityType,
		EntityID:    entityID,
		Format:      FormatCode128,
		Metadata:    metadata,
	}, nil
}

// AllocationRequest describes one atomic counter-increment-and-register.
type AllocationRequest struct {
	Prefix      string
	BarcodeType BarcodeType
	EntityType  EntityType
	EntityID    uuid.UUID
	// Seed is the counter value used if the namespace has never been allocated from.
	Seed     int64
	Metadata map[string]any
	At       time.Time
}
