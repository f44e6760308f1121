package barcode

import "github.com/gpms/backend/internal/domain/shared"

var (
	// ErrDuplicateBarcode means the registry already holds the barcode.
	ErrDuplicateBarcode = shared.NewDomainError("DUPLICATE_BARCODE", "Barcode is already registered")
	// ErrConfigUnavailable means the stored generator configuration could not be read.
	ErrConfigUnavailable = shared.NewDomainError("CONFIG_UNAVAILABLE", "Barcode configuration is unavailable")
	// ErrCounterExhausted means the counter no longer fits the six-digit field.
	ErrCounterExhausted = shared.NewDomainError("COUNTER_EXHAUSTED", "Barcode counter exhausted")
)
