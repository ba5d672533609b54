package orders

// An in-memory model of the coordinator's ledger semantics. The model
// applies the same plans the service applies in SQL, which lets the
// conservation invariant be exercised over long randomized operation
// sequences: at every point, the quantities of non-cancelled orders on an
// offering sum to initial - remaining, and 0 <= remaining <= initial.

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showbill/boxoffice/internal/domain"
)

type memOffering struct {
	remaining int
	initial   int
}

// memLedger serializes its operations the way the database serializes
// transactions, so concurrent callers model concurrent coordinator calls:
// the loser runs strictly after the winner's state is committed.
type memLedger struct {
	mu        sync.Mutex
	offerings map[int64]*memOffering
	orders    map[int64]*domain.Order
	nextOrder int64
}

func newMemLedger() *memLedger {
	return &memLedger{
		offerings: make(map[int64]*memOffering),
		orders:    make(map[int64]*domain.Order),
	}
}

func (l *memLedger) addOffering(id int64, initial int) {
	l.offerings[id] = &memOffering{remaining: initial, initial: initial}
}

func (l *memLedger) reserve(id int64, qty int) error {
	off := l.offerings[id]
	if off == nil {
		return ErrOfferingNotFound
	}
	if qty > off.remaining {
		return &InsufficientStockError{OfferingID: id, Requested: qty, Available: off.remaining}
	}
	off.remaining -= qty
	return nil
}

func (l *memLedger) release(id int64, qty int) {
	l.offerings[id].remaining += qty
}

func (l *memLedger) create(offeringID int64, qty int) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := validateQuantity(qty); err != nil {
		return 0, err
	}
	if err := l.reserve(offeringID, qty); err != nil {
		return 0, err
	}
	l.nextOrder++
	l.orders[l.nextOrder] = &domain.Order{
		OfferingID: offeringID,
		Quantity:   qty,
		Status:     domain.OrderPendingPayment,
	}
	return l.nextOrder, nil
}

// edit mirrors Service.Edit: the plan's legs apply all-or-nothing.
func (l *memLedger) edit(orderID, newOfferingID int64, newQty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ord := l.orders[orderID]
	if ord == nil {
		return ErrOrderNotFound
	}

	plan, err := planEdit(*ord, newOfferingID, newQty)
	if err != nil {
		return err
	}

	for _, rel := range plan.releases {
		l.release(rel.offeringID, rel.qty)
	}
	for _, res := range plan.reserves {
		if err := l.reserve(res.offeringID, res.qty); err != nil {
			// roll back the applied releases, like the aborted transaction
			for _, rel := range plan.releases {
				l.offerings[rel.offeringID].remaining -= rel.qty
			}
			return err
		}
	}

	ord.OfferingID = newOfferingID
	ord.Quantity = newQty
	return nil
}

func (l *memLedger) cancel(orderID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ord := l.orders[orderID]
	if ord == nil {
		return ErrOrderNotFound
	}
	if !ord.Status.CanTransitionTo(domain.OrderCancelled) {
		return &InvalidTransitionError{From: ord.Status, To: domain.OrderCancelled}
	}
	l.release(ord.OfferingID, ord.Quantity)
	ord.Status = domain.OrderCancelled
	return nil
}

// confirmPayment mirrors Service.ConfirmPayment: transition-table guarded,
// no ledger effect.
func (l *memLedger) confirmPayment(orderID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ord := l.orders[orderID]
	if ord == nil {
		return ErrOrderNotFound
	}
	if !ord.Status.CanTransitionTo(domain.OrderInProgress) {
		return &InvalidTransitionError{From: ord.Status, To: domain.OrderInProgress}
	}
	ord.Status = domain.OrderInProgress
	return nil
}

func (l *memLedger) checkInvariants(t *testing.T) {
	t.Helper()

	l.mu.Lock()
	defer l.mu.Unlock()

	committed := make(map[int64]int)
	for _, ord := range l.orders {
		if ord.Status != domain.OrderCancelled {
			committed[ord.OfferingID] += ord.Quantity
		}
	}

	for id, off := range l.offerings {
		require.GreaterOrEqual(t, off.remaining, 0, "offering %d remaining negative", id)
		require.LessOrEqual(t, off.remaining, off.initial, "offering %d overfull", id)
		require.Equalf(t, off.initial-off.remaining, committed[id],
			"offering %d: committed quantity does not match ledger", id)
	}
}

func TestCreate_InsufficientStockReportsAvailable(t *testing.T) {
	l := newMemLedger()
	l.addOffering(1, 2)

	_, err := l.create(1, 3)

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 2, ise.Available)
	assert.Equal(t, 2, l.offerings[1].remaining)
	l.checkInvariants(t)
}

func TestEdit_FailedMoveLeavesEverythingUnchanged(t *testing.T) {
	l := newMemLedger()
	l.addOffering(1, 5)
	l.addOffering(2, 0)

	id, err := l.create(1, 2)
	require.NoError(t, err)
	require.Equal(t, 3, l.offerings[1].remaining)

	err = l.edit(id, 2, 2)

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 0, ise.Available)
	assert.Equal(t, 3, l.offerings[1].remaining)
	assert.Equal(t, 0, l.offerings[2].remaining)
	assert.Equal(t, int64(1), l.orders[id].OfferingID)
	assert.Equal(t, 2, l.orders[id].Quantity)
	l.checkInvariants(t)
}

func TestEdit_MoveBetweenOfferings(t *testing.T) {
	l := newMemLedger()
	l.addOffering(1, 5)
	l.addOffering(2, 5)

	id, err := l.create(1, 2)
	require.NoError(t, err)

	require.NoError(t, l.edit(id, 2, 4))

	assert.Equal(t, 5, l.offerings[1].remaining)
	assert.Equal(t, 1, l.offerings[2].remaining)
	l.checkInvariants(t)
}

func TestCancel_DoubleCancelDoesNotDoubleRelease(t *testing.T) {
	l := newMemLedger()
	l.addOffering(1, 5)

	id, err := l.create(1, 3)
	require.NoError(t, err)
	require.NoError(t, l.cancel(id))
	assert.Equal(t, 5, l.offerings[1].remaining)

	err = l.cancel(id)

	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, 5, l.offerings[1].remaining)
	l.checkInvariants(t)
}

// Two concurrent creates whose quantities overrun the stock: exactly one
// wins, and the loser sees the count the winner left behind rather than a
// generic failure.
func TestCreate_ConcurrentOverlappingQuantities(t *testing.T) {
	l := newMemLedger()
	l.addOffering(1, 5)

	qtys := []int{3, 4}
	errs := make([]error, len(qtys))

	var wg sync.WaitGroup
	for i, q := range qtys {
		wg.Add(1)
		go func(i, q int) {
			defer wg.Done()
			_, errs[i] = l.create(1, q)
		}(i, q)
	}
	wg.Wait()

	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	require.Len(t, failures, 1)

	var ise *InsufficientStockError
	require.ErrorAs(t, failures[0], &ise)
	assert.Equal(t, l.offerings[1].remaining, ise.Available)
	l.checkInvariants(t)
}

// Two concurrent creates whose quantities fit together: neither may be
// rejected just for having raced the other.
func TestCreate_ConcurrentFittingQuantities(t *testing.T) {
	l := newMemLedger()
	l.addOffering(1, 5)

	qtys := []int{2, 3}
	errs := make([]error, len(qtys))

	var wg sync.WaitGroup
	for i, q := range qtys {
		wg.Add(1)
		go func(i, q int) {
			defer wg.Done()
			_, errs[i] = l.create(1, q)
		}(i, q)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 0, l.offerings[1].remaining)
	l.checkInvariants(t)
}

func TestConfirmPayment_OnlyFromPendingPayment(t *testing.T) {
	l := newMemLedger()
	l.addOffering(1, 5)

	id, err := l.create(1, 2)
	require.NoError(t, err)
	require.NoError(t, l.confirmPayment(id))

	err = l.confirmPayment(id)

	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, domain.OrderInProgress, ite.From)

	cancelled, err := l.create(1, 1)
	require.NoError(t, err)
	require.NoError(t, l.cancel(cancelled))
	require.ErrorAs(t, l.confirmPayment(cancelled), &ite)
	assert.Equal(t, domain.OrderCancelled, ite.From)
}

func TestLedger_RandomizedSequencesConserveStock(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	l := newMemLedger()
	offeringIDs := []int64{1, 2, 3}
	l.addOffering(1, 10)
	l.addOffering(2, 4)
	l.addOffering(3, 25)

	var live []int64

	for i := 0; i < 2000; i++ {
		switch rng.Intn(3) {
		case 0:
			id, err := l.create(offeringIDs[rng.Intn(3)], rng.Intn(7))
			if err == nil {
				live = append(live, id)
			}
		case 1:
			if len(live) > 0 {
				orderID := live[rng.Intn(len(live))]
				_ = l.edit(orderID, offeringIDs[rng.Intn(3)], rng.Intn(7))
			}
		case 2:
			if len(live) > 0 {
				_ = l.cancel(live[rng.Intn(len(live))])
			}
		}

		l.checkInvariants(t)
	}
}
