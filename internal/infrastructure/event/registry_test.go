package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	registry := NewHandlerRegistry()
	typed := newTestHandler("BillIssued", "PaymentApplied")
	wildcard := newTestHandler()

	registry.Register(typed, "BillIssued", "PaymentApplied")
	registry.Register(typed, "BillIssued")
	registry.Register(wildcard)

	handlers := registry.GetHandlers("BillIssued")
	assert.Len(t, handlers, 2, "duplicate registration is ignored")
	assert.Same(t, typed, handlers[0])
	assert.Same(t, wildcard, handlers[1])

	assert.Len(t, registry.GetHandlers("PaymentFailed"), 1)

	registry.Unregister(typed)
	assert.Len(t, registry.GetHandlers("BillIssued"), 1)
	assert.Len(t, registry.GetHandlers("PaymentApplied"), 1)

	registry.Unregister(wildcard)
	assert.Empty(t, registry.GetHandlers("BillIssued"))
}
