package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_Transitions(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusConfirmed},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusConfirmed, OrderStatusProcessing},
		{OrderStatusConfirmed, OrderStatusCancelled},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusProcessing, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusDelivered},
		{OrderStatusDelivered, OrderStatusRefunded},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusPending, OrderStatusRefunded},
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusConfirmed},
		{OrderStatusRefunded, OrderStatusDelivered},
	}
	for _, tc := range denied {
		assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestOrderStatus_TerminalStatesHaveNoSuccessors(t *testing.T) {
	for _, terminal := range []OrderStatus{OrderStatusCancelled, OrderStatusRefunded} {
		for s := range orderTransitions {
			assert.False(t, terminal.CanTransitionTo(s), "%s should be terminal", terminal)
		}
	}
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.True(t, OrderStatusRefunded.Valid())
	assert.False(t, OrderStatus("shipped_back").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestNewOrderNumber(t *testing.T) {
	n := NewOrderNumber()
	assert.True(t, strings.HasPrefix(n, "ORD-"))
	assert.Len(t, n, 12)
	assert.Equal(t, strings.ToUpper(n), n)

	// Practically unique.
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		num := NewOrderNumber()
		assert.False(t, seen[num], "duplicate order number %s", num)
		seen[num] = true
	}
}
