package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/gpms/backend/internal/domain/shared"
)

// ProductRepository defines product persistence operations
type ProductRepository interface {
	// FindByID returns shared.ErrNotFound when the product does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	List(ctx context.Context, filter shared.Filter) ([]Product, int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error
}

// StockReceiver books received units against a product's stock.
type StockReceiver interface {
	// ReceiveUnits raises the product's stock by len(units), marks it
	// serialized and inserts the units, all in one transaction. It returns
	// the stock quantity after the increment, or shared.ErrNotFound when the
	// product does not exist.
	ReceiveUnits(ctx context.Context, productID uuid.UUID, units []*ProductUnit) (int, error)
}

// ProductUnitRepository defines product unit persistence operations
type ProductUnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductUnit, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ProductUnit, error)
	FindByProductID(ctx context.Context, productID uuid.UUID) ([]ProductUnit, error)
	FindAll(ctx context.Context) ([]ProductUnit, error)
	// FindExistingSerials returns which of the given serials are already on a unit
	FindExistingSerials(ctx context.Context, serials []string) ([]string, error)
	Save(ctx context.Context, unit *ProductUnit) error
	SaveBatch(ctx context.Context, units []*ProductUnit) error
}
