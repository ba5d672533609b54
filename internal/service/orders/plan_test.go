package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showbill/boxoffice/internal/domain"
)

func pendingOrder(offeringID int64, qty int) domain.Order {
	return domain.Order{
		OfferingID: offeringID,
		Quantity:   qty,
		Status:     domain.OrderPendingPayment,
	}
}

func TestValidateQuantity(t *testing.T) {
	assert.ErrorIs(t, validateQuantity(0), ErrInvalidQuantity)
	assert.ErrorIs(t, validateQuantity(-2), ErrInvalidQuantity)
	assert.ErrorIs(t, validateQuantity(6), ErrInvalidQuantity)

	for qty := 1; qty <= 5; qty++ {
		assert.NoError(t, validateQuantity(qty))
	}
}

func TestPlanEdit_SameOfferingIncrease(t *testing.T) {
	p, err := planEdit(pendingOrder(7, 2), 7, 5)
	require.NoError(t, err)

	assert.False(t, p.offeringChanged)
	assert.Empty(t, p.releases)
	assert.Equal(t, []stockAdjustment{{7, 3}}, p.reserves)
}

func TestPlanEdit_SameOfferingDecrease(t *testing.T) {
	p, err := planEdit(pendingOrder(7, 5), 7, 2)
	require.NoError(t, err)

	assert.Equal(t, []stockAdjustment{{7, 3}}, p.releases)
	assert.Empty(t, p.reserves)
}

func TestPlanEdit_SameOfferingSameQuantity(t *testing.T) {
	p, err := planEdit(pendingOrder(7, 3), 7, 3)
	require.NoError(t, err)

	assert.Empty(t, p.releases)
	assert.Empty(t, p.reserves)
}

func TestPlanEdit_OfferingChanged(t *testing.T) {
	p, err := planEdit(pendingOrder(7, 2), 9, 4)
	require.NoError(t, err)

	assert.True(t, p.offeringChanged)
	assert.Equal(t, []stockAdjustment{{7, 2}}, p.releases)
	assert.Equal(t, []stockAdjustment{{9, 4}}, p.reserves)
}

func TestPlanEdit_InvalidQuantity(t *testing.T) {
	_, err := planEdit(pendingOrder(7, 2), 7, 6)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = planEdit(pendingOrder(7, 2), 9, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPlanEdit_TerminalOrder(t *testing.T) {
	cancelled := pendingOrder(7, 2)
	cancelled.Status = domain.OrderCancelled

	_, err := planEdit(cancelled, 7, 3)

	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, domain.OrderCancelled, ite.From)
}
