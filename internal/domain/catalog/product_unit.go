package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/gpms/backend/internal/domain/shared"
)

// UnitStatus is the lifecycle state of a serialized unit.
type UnitStatus string

const (
	UnitStatusInStock  UnitStatus = "in_stock"
	UnitStatusSold     UnitStatus = "sold"
	UnitStatusInRepair UnitStatus = "in_repair"
	UnitStatusReturned UnitStatus = "returned"
)

// IsValid reports whether s is a known status.
func (s UnitStatus) IsValid() bool {
	switch s {
	case UnitStatusInStock, UnitStatusSold, UnitStatusInRepair, UnitStatusReturned:
		return true
	}
	return false
}

// ProductUnit is one physical, serialized item of a product.
type ProductUnit struct {
	shared.BaseEntity
	ProductID    uuid.UUID
	SerialNumber string
	Color        string
	Storage      string
	Barcode      string
	Status       UnitStatus
}

// NewProductUnit creates an in-stock unit.
func NewProductUnit(productID uuid.UUID, serialNumber, color, storage string) (*ProductUnit, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	serialNumber = strings.TrimSpace(serialNumber)
	if serialNumber == "" {
		return nil, shared.NewDomainError("INVALID_SERIAL", "Serial number cannot be empty")
	}
	if len(serialNumber) > 100 {
		return nil, shared.NewDomainError("INVALID_SERIAL", "Serial number cannot exceed 100 characters")
	}

	return &ProductUnit{
		BaseEntity:   shared.NewBaseEntity(),
		ProductID:    productID,
		SerialNumber: serialNumber,
		Color:        strings.TrimSpace(color),
		Storage:      strings.TrimSpace(storage),
		Status:       UnitStatusInStock,
	}, nil
}

// AssignBarcode records the barcode issued by the registry.
func (u *ProductUnit) AssignBarcode(code string) {
	u.Barcode = code
	u.Touch()
}

// SetStatus moves the unit to another lifecycle state.
func (u *ProductUnit) SetStatus(status UnitStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown unit status: "+string(status))
	}
	u.Status = status
	u.Touch()
	return nil
}

func (u *ProductUnit) IsInStock() bool {
	return u.Status == UnitStatusInStock
}

// BarcodeMetadata is what the registry stores alongside the unit's barcode.
func (u *ProductUnit) BarcodeMetadata() map[string]any {
	meta := map[string]any{
		"productId":    u.ProductID.String(),
		"serialNumber": u.SerialNumber,
	}
	if u.Color != "" {
		meta["color"] = u.Color
	}
	if u.Storage != "" {
		meta["storage"] = u.Storage
	}
	return meta
}
