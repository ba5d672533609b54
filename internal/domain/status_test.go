package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderPendingPayment, OrderInProgress, true},
		{OrderPendingPayment, OrderCancelled, true},
		{OrderPendingPayment, OrderCompleted, false},
		{OrderInProgress, OrderCompleted, true},
		{OrderInProgress, OrderCancelled, true},
		{OrderInProgress, OrderPendingPayment, false},
		{OrderCompleted, OrderCancelled, false},
		{OrderCompleted, OrderInProgress, false},
		{OrderCancelled, OrderCancelled, false},
		{OrderCancelled, OrderPendingPayment, false},
		{OrderPendingPayment, OrderPendingPayment, false},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.ok, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.False(t, OrderPendingPayment.Terminal())
	assert.False(t, OrderInProgress.Terminal())
	assert.True(t, OrderCompleted.Terminal())
	assert.True(t, OrderCancelled.Terminal())
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderPendingPayment.Valid())
	assert.True(t, OrderCancelled.Valid())
	assert.False(t, OrderStatus("paid").Valid())
	assert.False(t, OrderStatus("").Valid())
}
