package event

import (
	"sync"

	"github.com/gpms/backend/internal/domain/shared"
)

type subscription struct {
	id      uint64
	handler shared.EventHandler
	types   map[string]struct{} // empty means every event type
}

func (s *subscription) matches(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// HandlerRegistry keeps subscriptions in registration order. Typed and
// wildcard handlers share one list so delivery order is exactly the order
// in which they were registered.
type HandlerRegistry struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []*subscription
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		subs: make([]*subscription, 0),
	}
}

// Register adds a handler for the given event types and returns its
// subscription id. No event types means all events.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) uint64 {
	types := make(map[string]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.subs = append(r.subs, &subscription{id: r.nextID, handler: handler, types: types})
	return r.nextID
}

// Unregister removes one subscription. It reports whether anything was removed.
func (r *HandlerRegistry) Unregister(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.subs {
		if s.id == id {
			// copy so snapshots handed out by GetHandlers stay intact
			next := make([]*subscription, 0, len(r.subs)-1)
			next = append(next, r.subs[:i]...)
			next = append(next, r.subs[i+1:]...)
			r.subs = next
			return true
		}
	}
	return false
}

// GetHandlers returns a snapshot of the handlers interested in eventType,
// in registration order.
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]shared.EventHandler, 0, len(r.subs))
	for _, s := range r.subs {
		if s.matches(eventType) {
			result = append(result, s.handler)
		}
	}
	return result
}

// Len returns the number of active subscriptions
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
