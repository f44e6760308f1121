package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gpms/backend/internal/domain/shared"
)

// InMemoryEventBus delivers events synchronously to every interested
// handler in registration order. A handler that fails or panics is logged
// and skipped; it never affects the publisher or the remaining handlers.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish delivers each event to the handlers registered at the moment the
// event is dispatched. It always returns nil.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		if event == nil {
			continue
		}
		handlers := b.registry.GetHandlers(event.EventType())

		for _, handler := range handlers {
			if err := b.dispatchToHandler(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler. Without explicit event types the handler's
// own EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) shared.Unsubscribe {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	id := b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Uint64("subscription_id", id),
		zap.Strings("event_types", eventTypes),
	)
	return b.unsubscribeFunc(id)
}

// AddListener registers fn for every event type.
func (b *InMemoryEventBus) AddListener(fn shared.ListenerFunc) shared.Unsubscribe {
	id := b.registry.Register(listenerHandler(fn))
	b.logger.Debug("listener added", zap.Uint64("subscription_id", id))
	return b.unsubscribeFunc(id)
}

func (b *InMemoryEventBus) unsubscribeFunc(id uint64) shared.Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() {
			if b.registry.Unregister(id) {
				b.logger.Debug("handler unsubscribed", zap.Uint64("subscription_id", id))
			}
		})
	}
}

// dispatchToHandler safely dispatches an event to a handler
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, event)
}

// listenerHandler adapts a ListenerFunc to EventHandler.
type listenerHandler shared.ListenerFunc

func (l listenerHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	return l(ctx, event)
}

func (l listenerHandler) EventTypes() []string {
	return nil
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
