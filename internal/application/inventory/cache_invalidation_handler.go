package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/domain/coordination"
	"github.com/gpms/backend/internal/domain/shared"
)

// ViewInvalidator drops cached product views. ViewService implements it so
// invalidations also stop in-flight builds from caching stale views.
type ViewInvalidator interface {
	Invalidate(ctx context.Context, productIDs ...uuid.UUID) error
	InvalidateAll(ctx context.Context) error
}

// CacheInvalidationHandler drops cached product views when coordination
// events report that the product or one of its units changed.
type CacheInvalidationHandler struct {
	cache   ViewInvalidator
	ignored map[coordination.Source]bool
	logger  *zap.Logger
}

// NewCacheInvalidationHandler creates a handler over cache.
func NewCacheInvalidationHandler(cache ViewInvalidator, logger *zap.Logger) *CacheInvalidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheInvalidationHandler{
		cache:   cache,
		ignored: map[coordination.Source]bool{},
		logger:  logger,
	}
}

// IgnoreSources makes the handler skip events emitted by the given areas.
func (h *CacheInvalidationHandler) IgnoreSources(sources ...coordination.Source) *CacheInvalidationHandler {
	for _, s := range sources {
		h.ignored[s] = true
	}
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *CacheInvalidationHandler) EventTypes() []string {
	return []string{
		coordination.EventTypeProductCreated,
		coordination.EventTypeProductUpdated,
		coordination.EventTypeProductDeleted,
		coordination.EventTypeUnitCreated,
		coordination.EventTypeUnitUpdated,
		coordination.EventTypeUnitDeleted,
		coordination.EventTypeStockUpdated,
		coordination.EventTypeBarcodeGenerated,
		coordination.EventTypeSyncRequested,
	}
}

// Handle invalidates the views the event touches.
func (h *CacheInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*coordination.Event)
	if !ok {
		return fmt.Errorf("unexpected event type: expected *coordination.Event, got %T", event)
	}
	if h.ignored[e.Source] {
		return nil
	}

	if e.Type == coordination.EventTypeSyncRequested {
		h.logger.Info("Full sync requested, dropping all product views",
			zap.String("source", string(e.Source)),
			zap.Any("reason", e.Metadata[coordination.MetaReason]),
		)
		return h.cache.InvalidateAll(ctx)
	}

	productID, ok := h.affectedProduct(e)
	if !ok {
		h.logger.Debug("Event carries no product reference",
			zap.String("event_type", e.Type),
			zap.String("entity_id", e.EntityID.String()),
		)
		return nil
	}
	return h.cache.Invalidate(ctx, productID)
}

func (h *CacheInvalidationHandler) affectedProduct(e *coordination.Event) (uuid.UUID, bool) {
	switch {
	case e.IsProductEvent():
		return e.EntityID, e.EntityID != uuid.Nil
	case e.IsUnitEvent():
		return e.ProductID()
	case e.Type == coordination.EventTypeBarcodeGenerated:
		if id, ok := e.ProductID(); ok {
			return id, true
		}
		return e.EntityID, e.EntityID != uuid.Nil
	}
	return uuid.Nil, false
}

var _ shared.EventHandler = (*CacheInvalidationHandler)(nil)
