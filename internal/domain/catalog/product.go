// Package catalog contains the sellable products and the individually
// serialized units received against them.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gpms/backend/internal/domain/shared"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a catalog item. Barcode mirrors the registry record for the
// product and may be empty until one is issued.
type Product struct {
	shared.BaseEntity
	Code          string
	Name          string
	Category      string
	Price         decimal.Decimal
	Barcode       string
	HasSerial     bool
	StockQuantity int
	Status        ProductStatus
}

// NewProduct creates an active product with no stock.
func NewProduct(code, name, category string, price decimal.Decimal) (*Product, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Category:   strings.TrimSpace(category),
		Price:      price,
		Status:     ProductStatusActive,
	}, nil
}

// AssignBarcode records the barcode issued by the registry.
func (p *Product) AssignBarcode(code string) {
	p.Barcode = code
	p.Touch()
}

// SetHasSerial marks whether the product is tracked by individual units.
func (p *Product) SetHasSerial(v bool) {
	p.HasSerial = v
	p.Touch()
}

// SetStockQuantity overwrites the stock count.
func (p *Product) SetStockQuantity(qty int) error {
	if qty < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Stock quantity cannot be negative")
	}
	p.StockQuantity = qty
	p.Touch()
	return nil
}

func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
