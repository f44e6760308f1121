package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register_SpecificTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()

	registry.Register(handler, "a", "b")

	assert.Len(t, registry.GetHandlers("a"), 1)
	assert.Len(t, registry.GetHandlers("b"), 1)
	assert.Empty(t, registry.GetHandlers("c"))
}

func TestHandlerRegistry_Register_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	registry.Register(newTestHandler())

	assert.Len(t, registry.GetHandlers("anything"), 1)
}

func TestHandlerRegistry_KeepsRegistrationOrder(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcard := newTestHandler()
	typed := newTestHandler()

	registry.Register(wildcard)
	registry.Register(typed, "a")

	handlers := registry.GetHandlers("a")
	assert.Len(t, handlers, 2)
	assert.Same(t, wildcard, handlers[0])
	assert.Same(t, typed, handlers[1])
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()

	id := registry.Register(handler, "a")
	registry.Register(handler, "a")

	assert.True(t, registry.Unregister(id))
	assert.False(t, registry.Unregister(id))
	// the second registration of the same handler is independent
	assert.Len(t, registry.GetHandlers("a"), 1)
	assert.Equal(t, 1, registry.Len())
}

func TestHandlerRegistry_SnapshotSurvivesUnregister(t *testing.T) {
	registry := NewHandlerRegistry()
	id := registry.Register(newTestHandler())
	registry.Register(newTestHandler())

	snapshot := registry.GetHandlers("x")
	registry.Unregister(id)

	assert.Len(t, snapshot, 2)
	assert.Len(t, registry.GetHandlers("x"), 1)
}
