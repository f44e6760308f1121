package shared

import "context"

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in.
	// An empty slice means the handler receives all events.
	EventTypes() []string
}

// ListenerFunc is a plain callback that receives every published event.
type ListenerFunc func(ctx context.Context, event DomainEvent) error

// Unsubscribe removes a previously registered handler or listener.
// Calling it more than once is a no-op.
type Unsubscribe func()

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers interest in domain events
type EventSubscriber interface {
	// Subscribe registers a handler for specific event types.
	// If no event types are provided, the handler's own EventTypes are used,
	// and if those are empty too it receives all events.
	Subscribe(handler EventHandler, eventTypes ...string) Unsubscribe
	// AddListener registers a callback for all events.
	AddListener(fn ListenerFunc) Unsubscribe
}

// EventBus combines publisher and subscriber capabilities
type EventBus interface {
	EventPublisher
	EventSubscriber
}
