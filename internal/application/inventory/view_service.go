// Package inventory serves the cached product views the inventory screens
// render and keeps them fresh from coordination events.
package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/domain/catalog"
	"github.com/gpms/backend/internal/domain/inventory"
	"github.com/gpms/backend/internal/infrastructure/logger"
	"github.com/gpms/backend/internal/infrastructure/telemetry"
)

// ViewService assembles product views and caches them until invalidated.
type ViewService struct {
	products catalog.ProductRepository
	units    catalog.ProductUnitRepository
	cache    inventory.ViewCache
	metrics  *telemetry.POSMetrics
	logger   *zap.Logger

	// writeMu orders cache writes against invalidations. A build only
	// caches its view when no invalidation for the product ran meanwhile.
	writeMu     sync.Mutex
	epoch       uint64
	generations map[uuid.UUID]uint64
}

// NewViewService creates a new ViewService. metrics may be nil.
func NewViewService(
	products catalog.ProductRepository,
	units catalog.ProductUnitRepository,
	cache inventory.ViewCache,
	metrics *telemetry.POSMetrics,
	log *zap.Logger,
) *ViewService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ViewService{
		products:    products,
		units:       units,
		cache:       cache,
		metrics:     metrics,
		logger:      log,
		generations: make(map[uuid.UUID]uint64),
	}
}

// GetProductView returns the cached view, building and caching it on a miss.
// Cache errors degrade to a rebuild and are never returned.
func (s *ViewService) GetProductView(ctx context.Context, productID uuid.UUID) (*inventory.ProductView, error) {
	log := logger.For(ctx, s.logger)

	view, ok, err := s.cache.Get(ctx, productID)
	if err != nil {
		log.Warn("Product view cache read failed", zap.String("product_id", productID.String()), zap.Error(err))
	}
	s.metrics.RecordViewCacheLookup(ctx, ok)
	if ok {
		return view, nil
	}

	epoch, gen := s.generation(productID)
	view, err = s.build(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, view, epoch, gen)
	return view, nil
}

// Invalidate drops the cached views of productIDs. A view being built for
// one of them is still returned to its caller but is not cached.
func (s *ViewService) Invalidate(ctx context.Context, productIDs ...uuid.UUID) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, id := range productIDs {
		s.generations[id]++
	}
	return s.cache.Invalidate(ctx, productIDs...)
}

// InvalidateAll drops every cached view.
func (s *ViewService) InvalidateAll(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.epoch++
	s.generations = make(map[uuid.UUID]uint64)
	return s.cache.InvalidateAll(ctx)
}

func (s *ViewService) generation(productID uuid.UUID) (uint64, uint64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.epoch, s.generations[productID]
}

func (s *ViewService) store(ctx context.Context, view *inventory.ProductView, epoch, gen uint64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	log := logger.For(ctx, s.logger)
	if s.epoch != epoch || s.generations[view.ProductID] != gen {
		log.Debug("Product changed while its view was built, not caching",
			zap.String("product_id", view.ProductID.String()),
		)
		return
	}
	if err := s.cache.Set(ctx, view); err != nil {
		log.Warn("Product view cache write failed", zap.String("product_id", view.ProductID.String()), zap.Error(err))
	}
}

func (s *ViewService) build(ctx context.Context, productID uuid.UUID) (*inventory.ProductView, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	units, err := s.units.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	view := &inventory.ProductView{
		ProductID:     product.ID,
		Code:          product.Code,
		Name:          product.Name,
		Category:      product.Category,
		Price:         product.Price.StringFixed(2),
		Barcode:       product.Barcode,
		HasSerial:     product.HasSerial,
		StockQuantity: product.StockQuantity,
		Units:         make([]inventory.UnitView, 0, len(units)),
		BuiltAt:       time.Now(),
	}
	for _, u := range units {
		if u.IsInStock() {
			view.InStockUnits++
		}
		view.Units = append(view.Units, inventory.UnitView{
			ID:           u.ID,
			SerialNumber: u.SerialNumber,
			Color:        u.Color,
			Storage:      u.Storage,
			Barcode:      u.Barcode,
			Status:       string(u.Status),
		})
	}
	return view, nil
}

var _ ViewInvalidator = (*ViewService)(nil)
