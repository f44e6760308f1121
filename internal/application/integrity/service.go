// Package integrity detects and repairs drift between the barcode registry,
// the unit records and the product catalog.
package integrity

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/domain/barcode"
	"github.com/gpms/backend/internal/domain/catalog"
	"github.com/gpms/backend/internal/domain/coordination"
	"github.com/gpms/backend/internal/domain/shared"
	"github.com/gpms/backend/internal/infrastructure/logger"
	"github.com/gpms/backend/internal/infrastructure/telemetry"
)

// BarcodeLookup answers which entities hold a registry record.
type BarcodeLookup interface {
	FindRegisteredEntityIDs(ctx context.Context, entityType barcode.EntityType, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

// BarcodeEnsurer returns an entity's barcode, issuing one if it has none.
type BarcodeEnsurer interface {
	EnsureBarcode(ctx context.Context, entityType barcode.EntityType, entityID uuid.UUID, barcodeType barcode.BarcodeType) (string, error)
}

// Service validates and reconciles catalog, unit and registry state.
type Service struct {
	products  catalog.ProductRepository
	units     catalog.ProductUnitRepository
	lookup    BarcodeLookup
	ensurer   BarcodeEnsurer
	publisher shared.EventPublisher
	metrics   *telemetry.POSMetrics
	logger    *zap.Logger

	mu       sync.RWMutex
	lastSync *time.Time
}

// NewService creates a new integrity Service. metrics may be nil.
func NewService(
	products catalog.ProductRepository,
	units catalog.ProductUnitRepository,
	lookup BarcodeLookup,
	ensurer BarcodeEnsurer,
	publisher shared.EventPublisher,
	metrics *telemetry.POSMetrics,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		products:  products,
		units:     units,
		lookup:    lookup,
		ensurer:   ensurer,
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
	}
}

// snapshot is the state one validation pass works from.
type snapshot struct {
	products      []catalog.Product
	units         []catalog.ProductUnit
	productByID   map[uuid.UUID]*catalog.Product
	unitsByProdID map[uuid.UUID][]*catalog.ProductUnit
}

func (s *Service) load(ctx context.Context) (*snapshot, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	units, err := s.units.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}

	snap := &snapshot{
		products:      products,
		units:         units,
		productByID:   make(map[uuid.UUID]*catalog.Product, len(products)),
		unitsByProdID: make(map[uuid.UUID][]*catalog.ProductUnit),
	}
	for i := range snap.products {
		snap.productByID[snap.products[i].ID] = &snap.products[i]
	}
	for i := range snap.units {
		u := &snap.units[i]
		snap.unitsByProdID[u.ProductID] = append(snap.unitsByProdID[u.ProductID], u)
	}
	return snap, nil
}

// ValidateProductIntegrity reports drift without changing anything.
func (s *Service) ValidateProductIntegrity(ctx context.Context) (*Report, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "integrity", "validate")
	defer span.End()

	snap, err := s.load(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	missing, err := s.findMissingBarcodes(ctx, snap)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := &Report{
		MissingBarcodes:   missing,
		OrphanedUnits:     findOrphanedUnits(snap),
		DuplicateSerials:  findDuplicateSerials(snap),
		InconsistentFlags: findInconsistentFlags(snap),
		LastSyncTime:      s.LastSyncTime(),
		CheckedAt:         time.Now(),
	}
	report.IsHealthy = len(report.MissingBarcodes) == 0 &&
		len(report.OrphanedUnits) == 0 &&
		len(report.DuplicateSerials) == 0 &&
		len(report.InconsistentFlags) == 0

	s.metrics.RecordIntegrityIssues(ctx, "missing_barcodes", len(report.MissingBarcodes))
	s.metrics.RecordIntegrityIssues(ctx, "orphaned_units", len(report.OrphanedUnits))
	s.metrics.RecordIntegrityIssues(ctx, "duplicate_serials", len(report.DuplicateSerials))
	s.metrics.RecordIntegrityIssues(ctx, "inconsistent_flags", len(report.InconsistentFlags))
	telemetry.SetAttributes(span, "healthy", report.IsHealthy)

	if !report.IsHealthy {
		logger.For(ctx, s.logger).Warn("Integrity drift detected",
			zap.Int("missing_barcodes", len(report.MissingBarcodes)),
			zap.Int("orphaned_units", len(report.OrphanedUnits)),
			zap.Int("duplicate_serials", len(report.DuplicateSerials)),
			zap.Int("inconsistent_flags", len(report.InconsistentFlags)),
		)
	}
	return report, nil
}

// Orphaned units are reported as orphans only, not as missing barcodes.
func (s *Service) findMissingBarcodes(ctx context.Context, snap *snapshot) ([]MissingBarcode, error) {
	productIDs := make([]uuid.UUID, 0, len(snap.products))
	for _, p := range snap.products {
		productIDs = append(productIDs, p.ID)
	}
	unitIDs := make([]uuid.UUID, 0, len(snap.units))
	for _, u := range snap.units {
		if _, ok := snap.productByID[u.ProductID]; ok {
			unitIDs = append(unitIDs, u.ID)
		}
	}

	missing := make([]MissingBarcode, 0)
	for _, group := range []struct {
		entityType barcode.EntityType
		ids        []uuid.UUID
	}{
		{barcode.EntityTypeProduct, productIDs},
		{barcode.EntityTypeProductUnit, unitIDs},
	} {
		if len(group.ids) == 0 {
			continue
		}
		registered, err := s.lookup.FindRegisteredEntityIDs(ctx, group.entityType, group.ids)
		if err != nil {
			return nil, fmt.Errorf("lookup %s barcodes: %w", group.entityType, err)
		}
		for _, id := range group.ids {
			if !registered[id] {
				missing = append(missing, MissingBarcode{EntityType: group.entityType, EntityID: id})
			}
		}
	}
	return missing, nil
}

func findOrphanedUnits(snap *snapshot) []OrphanedUnit {
	orphans := make([]OrphanedUnit, 0)
	for _, u := range snap.units {
		if _, ok := snap.productByID[u.ProductID]; !ok {
			orphans = append(orphans, OrphanedUnit{UnitID: u.ID, ProductID: u.ProductID})
		}
	}
	return orphans
}

func findDuplicateSerials(snap *snapshot) []DuplicateSerial {
	bySerial := make(map[string][]uuid.UUID)
	for _, u := range snap.units {
		bySerial[u.SerialNumber] = append(bySerial[u.SerialNumber], u.ID)
	}

	dups := make([]DuplicateSerial, 0)
	for serial, ids := range bySerial {
		if len(ids) > 1 {
			dups = append(dups, DuplicateSerial{SerialNumber: serial, UnitIDs: ids})
		}
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i].SerialNumber < dups[j].SerialNumber })
	return dups
}

func findInconsistentFlags(snap *snapshot) []InconsistentFlag {
	flags := make([]InconsistentFlag, 0)
	for _, p := range snap.products {
		count := len(snap.unitsByProdID[p.ID])
		if p.HasSerial != (count > 0) {
			flags = append(flags, InconsistentFlag{ProductID: p.ID, HasSerial: p.HasSerial, UnitCount: count})
		}
	}
	return flags
}

// FixProductIntegrityIssues repairs what it can. Each fix is independent;
// a failed fix is logged and the rest still run.
func (s *Service) FixProductIntegrityIssues(ctx context.Context) (*FixResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "integrity", "fix")
	defer span.End()

	log := logger.For(ctx, s.logger)

	snap, err := s.load(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	missing, err := s.findMissingBarcodes(ctx, snap)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &FixResult{}
	touchedProducts := make(map[uuid.UUID]bool)
	touchedUnits := make(map[uuid.UUID]*catalog.ProductUnit)

	unitByID := make(map[uuid.UUID]*catalog.ProductUnit, len(snap.units))
	for i := range snap.units {
		unitByID[snap.units[i].ID] = &snap.units[i]
	}

	for _, m := range missing {
		code, err := s.ensurer.EnsureBarcode(ctx, m.EntityType, m.EntityID, m.EntityType.DefaultBarcodeType())
		if err != nil {
			log.Error("Failed to issue missing barcode",
				zap.String("entity_type", string(m.EntityType)),
				zap.String("entity_id", m.EntityID.String()),
				zap.Error(err),
			)
			continue
		}
		result.FixedBarcodes++

		switch m.EntityType {
		case barcode.EntityTypeProduct:
			if p := snap.productByID[m.EntityID]; p != nil && p.Barcode != code {
				p.AssignBarcode(code)
				if err := s.products.Save(ctx, p); err != nil {
					log.Error("Failed to store product barcode", zap.String("product_id", p.ID.String()), zap.Error(err))
					continue
				}
				touchedProducts[p.ID] = true
			}
		case barcode.EntityTypeProductUnit:
			if u := unitByID[m.EntityID]; u != nil && u.Barcode != code {
				u.AssignBarcode(code)
				if err := s.units.Save(ctx, u); err != nil {
					log.Error("Failed to store unit barcode", zap.String("unit_id", u.ID.String()), zap.Error(err))
					continue
				}
				touchedUnits[u.ID] = u
			}
		}
	}

	for _, f := range findInconsistentFlags(snap) {
		p := snap.productByID[f.ProductID]
		p.SetHasSerial(f.UnitCount > 0)
		if err := s.products.Save(ctx, p); err != nil {
			log.Error("Failed to correct serial flag", zap.String("product_id", p.ID.String()), zap.Error(err))
			continue
		}
		result.FixedFlags++
		touchedProducts[p.ID] = true
	}

	for i := range snap.products {
		p := &snap.products[i]
		if !p.HasSerial {
			continue
		}
		inStock := 0
		for _, u := range snap.unitsByProdID[p.ID] {
			if u.IsInStock() {
				inStock++
			}
		}
		if p.StockQuantity == inStock {
			continue
		}
		_ = p.SetStockQuantity(inStock)
		if err := s.products.Save(ctx, p); err != nil {
			log.Error("Failed to reconcile unit count", zap.String("product_id", p.ID.String()), zap.Error(err))
			continue
		}
		result.FixedUnits++
		touchedProducts[p.ID] = true
	}

	s.publishTouched(ctx, touchedProducts, touchedUnits)

	log.Info("Integrity fix completed",
		zap.Int("fixed_barcodes", result.FixedBarcodes),
		zap.Int("fixed_flags", result.FixedFlags),
		zap.Int("fixed_units", result.FixedUnits),
	)
	return result, nil
}

func (s *Service) publishTouched(ctx context.Context, products map[uuid.UUID]bool, units map[uuid.UUID]*catalog.ProductUnit) {
	if s.publisher == nil || len(products)+len(units) == 0 {
		return
	}
	events := make([]shared.DomainEvent, 0, len(products)+len(units))
	for id := range products {
		events = append(events, coordination.NewEvent(coordination.EventTypeProductUpdated, coordination.SourceIntegrity, id, nil))
	}
	for id, u := range units {
		events = append(events, coordination.NewUnitEvent(coordination.EventTypeUnitUpdated, coordination.SourceIntegrity, id, u.ProductID, nil))
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to publish integrity events", zap.Error(err))
	}
}

// RequestSync tells every consumer to drop derived state and refetch.
func (s *Service) RequestSync(ctx context.Context, reason string) error {
	if reason == "" {
		reason = "manual"
	}
	now := time.Now()
	s.mu.Lock()
	s.lastSync = &now
	s.mu.Unlock()

	if s.publisher == nil {
		return nil
	}
	return s.publisher.Publish(ctx, coordination.NewSyncRequestedEvent(coordination.SourceIntegrity, reason))
}

// LastSyncTime returns when RequestSync last ran, or nil.
func (s *Service) LastSyncTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSync == nil {
		return nil
	}
	t := *s.lastSync
	return &t
}
