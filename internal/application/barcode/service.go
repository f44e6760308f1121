// Package barcode is the application service for minting, registering and
// looking up barcodes.
package barcode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/domain/barcode"
	"github.com/gpms/backend/internal/domain/coordination"
	"github.com/gpms/backend/internal/domain/shared"
	"github.com/gpms/backend/internal/infrastructure/logger"
	"github.com/gpms/backend/internal/infrastructure/telemetry"
)

// Service owns barcode generation and the registry.
type Service struct {
	repo       barcode.Repository
	configRepo barcode.ConfigRepository
	allocator  barcode.Allocator
	publisher  shared.EventPublisher
	metrics    *telemetry.POSMetrics
	logger     *zap.Logger
	now        func() time.Time
	timeout    time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records allocation counters on m.
func WithMetrics(m *telemetry.POSMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the clock used to stamp allocations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAllocationTimeout bounds each counter increment and registration.
// Zero leaves the caller's deadline in charge.
func WithAllocationTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a new barcode Service.
func NewService(
	repo barcode.Repository,
	configRepo barcode.ConfigRepository,
	allocator barcode.Allocator,
	publisher shared.EventPublisher,
	log *zap.Logger,
	opts ...Option,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		repo:       repo,
		configRepo: configRepo,
		allocator:  allocator,
		publisher:  publisher,
		logger:     log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentConfig returns the stored configuration, or the defaults when it
// cannot be read.
func (s *Service) CurrentConfig(ctx context.Context) *barcode.Config {
	cfg, err := s.configRepo.Load(ctx)
	if err != nil || cfg == nil {
		logger.For(ctx, s.logger).Warn("Barcode configuration unavailable, using defaults",
			zap.Error(err),
		)
		return barcode.DefaultConfig()
	}
	return cfg
}

// GenerateUniqueBarcode allocates the next barcode for the entity and
// registers it in the same transaction. A zero barcodeType means unit.
func (s *Service) GenerateUniqueBarcode(ctx context.Context, entityType barcode.EntityType, entityID uuid.UUID, barcodeType barcode.BarcodeType) (string, error) {
	return s.generate(ctx, entityType, entityID, barcodeType, nil)
}

func (s *Service) generate(ctx context.Context, entityType barcode.EntityType, entityID uuid.UUID, barcodeType barcode.BarcodeType, metadata map[string]any) (string, error) {
	if barcodeType == "" {
		barcodeType = barcode.BarcodeTypeUnit
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "barcode", "generate",
		telemetry.SpanAttrEntityType, string(entityType),
		telemetry.SpanAttrEntityID, entityID,
		telemetry.SpanAttrBarcodeType, string(barcodeType),
	)
	defer span.End()

	if !barcodeType.IsValid() {
		return "", shared.NewDomainError("INVALID_INPUT", "unknown barcode type: "+string(barcodeType))
	}
	if !entityType.IsValid() {
		return "", shared.NewDomainError("INVALID_INPUT", "unknown entity type: "+string(entityType))
	}
	if entityID == uuid.Nil {
		return "", shared.NewDomainError("INVALID_INPUT", "entity id cannot be empty")
	}

	cfg := s.CurrentConfig(ctx)

	allocCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		allocCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	record, err := s.allocator.Allocate(allocCtx, barcode.AllocationRequest{
		Prefix:      cfg.Prefix,
		BarcodeType: barcodeType,
		EntityType:  entityType,
		EntityID:    entityID,
		Seed:        cfg.Counter(barcodeType),
		Metadata:    metadata,
		At:          start,
	})
	elapsed := s.now().Sub(start)
	if err != nil {
		result := telemetry.ResultError
		if errors.Is(err, barcode.ErrDuplicateBarcode) {
			result = telemetry.ResultDuplicate
		}
		s.metrics.RecordAllocation(ctx, string(barcodeType), result, elapsed)
		telemetry.RecordError(span, err)
		return "", fmt.Errorf("generate %s barcode for %s %s: %w", barcodeType, entityType, entityID, err)
	}
	s.metrics.RecordAllocation(ctx, string(barcodeType), telemetry.ResultSuccess, elapsed)
	telemetry.SetAttributes(span, telemetry.SpanAttrBarcode, record.Barcode)

	s.publishGenerated(ctx, record)

	logger.For(ctx, s.logger).Debug("Barcode generated",
		zap.String("barcode", record.Barcode),
		zap.String("entity_type", string(entityType)),
		zap.String("entity_id", entityID.String()),
	)
	return record.Barcode, nil
}

// RegisterBarcode records an externally supplied barcode for an entity.
func (s *Service) RegisterBarcode(
	ctx context.Context,
	code string,
	barcodeType barcode.BarcodeType,
	entityType barcode.EntityType,
	entityID uuid.UUID,
	metadata map[string]any,
) (*barcode.BarcodeRecord, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "barcode", "register",
		telemetry.SpanAttrBarcode, code,
		telemetry.SpanAttrEntityID, entityID,
	)
	defer span.End()

	record, err := barcode.NewBarcodeRecord(code, barcodeType, entityType, entityID, metadata)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return record, nil
}

// ReleaseBarcode withdraws a registration whose entity was never stored,
// so the same code can be registered again. Codes owned by another entity
// are left alone.
func (s *Service) ReleaseBarcode(ctx context.Context, code string, entityID uuid.UUID) error {
	removed, err := s.repo.DeleteForEntity(ctx, code, entityID)
	if err != nil {
		return fmt.Errorf("release barcode %s: %w", code, err)
	}
	if removed {
		logger.For(ctx, s.logger).Info("Barcode released",
			zap.String("barcode", code),
			zap.String("entity_id", entityID.String()),
		)
	}
	return nil
}

// GetBarcodeByEntity returns the entity's barcode record, or nil if it has none.
func (s *Service) GetBarcodeByEntity(ctx context.Context, entityType barcode.EntityType, entityID uuid.UUID) (*barcode.BarcodeRecord, error) {
	record, err := s.repo.FindByEntity(ctx, entityType, entityID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// ValidateBarcodeUniqueness reports whether code is not yet registered.
func (s *Service) ValidateBarcodeUniqueness(ctx context.Context, code string) (bool, error) {
	exists, err := s.repo.ExistsByBarcode(ctx, code)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// GetBarcodeHistory returns every barcode the entity has had, newest first.
func (s *Service) GetBarcodeHistory(ctx context.Context, entityID uuid.UUID) ([]barcode.BarcodeRecord, error) {
	return s.repo.FindHistoryByEntityID(ctx, entityID)
}

// GenerateBulkUnitBarcodes mints a unit barcode for each id. Failures are
// logged and left out of the result.
func (s *Service) GenerateBulkUnitBarcodes(ctx context.Context, unitIDs []uuid.UUID) map[uuid.UUID]string {
	return s.GenerateBulkUnitBarcodesWithMetadata(ctx, unitIDs, nil)
}

// GenerateBulkUnitBarcodesWithMetadata is GenerateBulkUnitBarcodes with
// per-unit registry metadata.
func (s *Service) GenerateBulkUnitBarcodesWithMetadata(ctx context.Context, unitIDs []uuid.UUID, metadata map[uuid.UUID]map[string]any) map[uuid.UUID]string {
	ctx, span := telemetry.StartServiceSpan(ctx, "barcode", "generate_bulk",
		telemetry.SpanAttrCount, len(unitIDs),
	)
	defer span.End()

	log := logger.For(ctx, s.logger)
	result := make(map[uuid.UUID]string, len(unitIDs))
	for _, id := range unitIDs {
		code, err := s.generate(ctx, barcode.EntityTypeProductUnit, id, barcode.BarcodeTypeUnit, metadata[id])
		if err != nil {
			log.Error("Failed to generate unit barcode",
				zap.String("unit_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		result[id] = code
	}

	if failed := len(unitIDs) - len(result); failed > 0 {
		log.Warn("Bulk barcode generation incomplete",
			zap.Int("requested", len(unitIDs)),
			zap.Int("failed", failed),
		)
	}
	return result
}

// EnsureBarcode returns the entity's current barcode, generating one if it
// has none. It is the recovery path after an allocation with unknown outcome.
func (s *Service) EnsureBarcode(ctx context.Context, entityType barcode.EntityType, entityID uuid.UUID, barcodeType barcode.BarcodeType) (string, error) {
	existing, err := s.GetBarcodeByEntity(ctx, entityType, entityID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.Barcode, nil
	}
	if barcodeType == "" {
		barcodeType = entityType.DefaultBarcodeType()
	}
	return s.GenerateUniqueBarcode(ctx, entityType, entityID, barcodeType)
}

// ValidateBarcode checks code against the CODE128 layout.
func (s *Service) ValidateBarcode(code string) barcode.ValidationResult {
	return barcode.ValidateCode128(code)
}

// ParseBarcode decomposes code into prefix, type and counter.
func (s *Service) ParseBarcode(code string) barcode.Info {
	return barcode.ParseBarcodeInfo(code)
}

func (s *Service) publishGenerated(ctx context.Context, record *barcode.BarcodeRecord) {
	if s.publisher == nil {
		return
	}
	meta := make(map[string]any, len(record.Metadata)+1)
	for k, v := range record.Metadata {
		meta[k] = v
	}
	meta[coordination.MetaBarcode] = record.Barcode
	if record.EntityType == barcode.EntityTypeProduct {
		meta[coordination.MetaProductID] = record.EntityID.String()
	}

	event := coordination.NewEvent(coordination.EventTypeBarcodeGenerated, coordination.SourceRegistry, record.EntityID, meta)
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to publish barcode event",
			zap.String("barcode", record.Barcode),
			zap.Error(err),
		)
	}
}
