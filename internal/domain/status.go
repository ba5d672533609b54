package domain

type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderInProgress     OrderStatus = "in_progress"
	OrderCompleted      OrderStatus = "completed"
	OrderCancelled      OrderStatus = "cancelled"
)

// transitions is the single source of truth for legal status changes.
// Completed and Cancelled are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPendingPayment: {OrderInProgress, OrderCancelled},
	OrderInProgress:     {OrderCompleted, OrderCancelled},
	OrderCompleted:      {},
	OrderCancelled:      {},
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}
