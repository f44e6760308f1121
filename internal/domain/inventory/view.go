// Package inventory holds the read model the inventory screens render: a
// product with its units and barcodes, assembled once and cached.
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UnitView is a unit as shown in the inventory listing.
type UnitView struct {
	ID           uuid.UUID `json:"id"`
	SerialNumber string    `json:"serialNumber"`
	Color        string    `json:"color,omitempty"`
	Storage      string    `json:"storage,omitempty"`
	Barcode      string    `json:"barcode,omitempty"`
	Status       string    `json:"status"`
}

// ProductView is the cached projection of a product.
type ProductView struct {
	ProductID     uuid.UUID  `json:"productId"`
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	Category      string     `json:"category,omitempty"`
	Price         string     `json:"price"`
	Barcode       string     `json:"barcode,omitempty"`
	HasSerial     bool       `json:"hasSerial"`
	StockQuantity int        `json:"stockQuantity"`
	InStockUnits  int        `json:"inStockUnits"`
	Units         []UnitView `json:"units"`
	BuiltAt       time.Time  `json:"builtAt"`
}

// ViewCache stores product views until a coordination event invalidates them.
type ViewCache interface {
	// Get returns the cached view and whether it was found.
	Get(ctx context.Context, productID uuid.UUID) (*ProductView, bool, error)
	Set(ctx context.Context, view *ProductView) error
	Invalidate(ctx context.Context, productIDs ...uuid.UUID) error
	InvalidateAll(ctx context.Context) error
}
