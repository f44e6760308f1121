package integrity

import (
	"time"

	"github.com/google/uuid"

	"github.com/gpms/backend/internal/domain/barcode"
)

// MissingBarcode is a product or unit with no registry record.
type MissingBarcode struct {
	EntityType barcode.EntityType `json:"entityType"`
	EntityID   uuid.UUID          `json:"entityId"`
}

// OrphanedUnit is a unit whose product no longer resolves.
type OrphanedUnit struct {
	UnitID    uuid.UUID `json:"unitId"`
	ProductID uuid.UUID `json:"productId"`
}

// DuplicateSerial is a serial number carried by more than one unit.
type DuplicateSerial struct {
	SerialNumber string      `json:"serialNumber"`
	UnitIDs      []uuid.UUID `json:"unitIds"`
}

// InconsistentFlag is a product whose HasSerial flag disagrees with its units.
type InconsistentFlag struct {
	ProductID uuid.UUID `json:"productId"`
	HasSerial bool      `json:"hasSerial"`
	UnitCount int       `json:"unitCount"`
}

// Report is the result of an integrity validation. Findings are data, not errors.
type Report struct {
	IsHealthy         bool               `json:"isHealthy"`
	MissingBarcodes   []MissingBarcode   `json:"missingBarcodes"`
	OrphanedUnits     []OrphanedUnit     `json:"orphanedUnits"`
	DuplicateSerials  []DuplicateSerial  `json:"duplicateSerials"`
	InconsistentFlags []InconsistentFlag `json:"inconsistentFlags"`
	// LastSyncTime is when this service last requested a full sync, nil if never.
	LastSyncTime *time.Time `json:"lastSyncTime"`
	CheckedAt    time.Time  `json:"checkedAt"`
}

// FixResult counts what FixProductIntegrityIssues repaired.
type FixResult struct {
	FixedBarcodes int `json:"fixedBarcodes"`
	FixedFlags    int `json:"fixedFlags"`
	FixedUnits    int `json:"fixedUnits"`
}
