package barcode

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists barcode records.
type Repository interface {
	// Create inserts a record. A barcode that already exists yields ErrDuplicateBarcode.
	Create(ctx context.Context, record *BarcodeRecord) error
	FindByBarcode(ctx context.Context, code string) (*BarcodeRecord, error)
	// FindByEntity returns the most recent record for the entity or shared.ErrNotFound.
	FindByEntity(ctx context.Context, entityType EntityType, entityID uuid.UUID) (*BarcodeRecord, error)
	// FindHistoryByEntityID returns every record for the entity, newest first.
	FindHistoryByEntityID(ctx context.Context, entityID uuid.UUID) ([]BarcodeRecord, error)
	ExistsByBarcode(ctx context.Context, code string) (bool, error)
	// FindRegisteredEntityIDs returns the subset of ids that have at least one record.
	FindRegisteredEntityIDs(ctx context.Context, entityType EntityType, ids []uuid.UUID) (map[uuid.UUID]bool, error)
	// DeleteForEntity removes code only while it belongs to entityID and
	// reports whether a row was removed.
	DeleteForEntity(ctx context.Context, code string, entityID uuid.UUID) (bool, error)
}

// Allocator performs the counter increment and the registration as one
// backend transaction. Implementations must never read, increment and write
// the counter from separate statements outside that transaction.
type Allocator interface {
	Allocate(ctx context.Context, req AllocationRequest) (*BarcodeRecord, error)
}

// ConfigRepository reads and seeds the stored generator configuration.
type ConfigRepository interface {
	// Load returns the stored configuration. Failures wrap ErrConfigUnavailable.
	Load(ctx context.Context) (*Config, error)
	// Initialize stores cfg only where nothing is stored yet.
	Initialize(ctx context.Context, cfg *Config) error
}
