package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gpms/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Code     string          `json:"code" binding:"required,min=1,max=50"`
	Name     string          `json:"name" binding:"required,min=1,max=200"`
	Category string          `json:"category" binding:"max=100"`
	Price    decimal.Decimal `json:"price"`
	// Barcode registers a manufacturer barcode instead of issuing one.
	Barcode string `json:"barcode" binding:"max=25"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	Barcode       string          `json:"barcode"`
	HasSerial     bool            `json:"hasSerial"`
	StockQuantity int             `json:"stockQuantity"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Category:      p.Category,
		Price:         p.Price,
		Barcode:       p.Barcode,
		HasSerial:     p.HasSerial,
		StockQuantity: p.StockQuantity,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of domain Products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}
