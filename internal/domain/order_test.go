package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	order, err := NewOrder("id-1", "260831120001", "keeper@example.com")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPending, order.Status)

	_, err = NewOrder("", "260831120001", "keeper@example.com")
	assert.Error(t, err)
	_, err = NewOrder("id-1", "", "keeper@example.com")
	assert.Error(t, err)
	_, err = NewOrder("id-1", "260831120001", "")
	assert.Error(t, err)
}

func TestOrderTransitions_FromPending(t *testing.T) {
	newPending := func() *Order {
		o, err := NewOrder("id-1", "260831120001", "keeper@example.com")
		require.NoError(t, err)
		return o
	}

	paid := newPending()
	require.NoError(t, paid.MarkAsPaid("payment-1"))
	assert.Equal(t, OrderStatusPaid, paid.Status)
	assert.Equal(t, "payment-1", paid.PaymentReference)

	canceled := newPending()
	require.NoError(t, canceled.MarkAsCanceled())
	assert.Equal(t, OrderStatusCanceled, canceled.Status)

	failed := newPending()
	require.NoError(t, failed.MarkAsFailed())
	assert.Equal(t, OrderStatusFailed, failed.Status)
}

func TestOrderTransitions_TerminalStatesAreFinal(t *testing.T) {
	for _, terminal := range []OrderStatus{OrderStatusPaid, OrderStatusFailed, OrderStatusCanceled} {
		t.Run(string(terminal), func(t *testing.T) {
			order := &Order{ID: "id-1", Status: terminal}
			assert.Error(t, order.MarkAsPaid("payment-2"))
			assert.Error(t, order.MarkAsCanceled())
			assert.Error(t, order.MarkAsFailed())
			assert.Equal(t, terminal, order.Status)
		})
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.True(t, OrderStatusPaid.IsTerminal())
	assert.True(t, OrderStatusFailed.IsTerminal())
	assert.True(t, OrderStatusCanceled.IsTerminal())
}
