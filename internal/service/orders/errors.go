package orders

import (
	"errors"
	"fmt"

	"github.com/showbill/boxoffice/internal/domain"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrOfferingNotFound = errors.New("offering not found")
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 5")
	ErrRateLimited      = errors.New("rate limited")
)

// InsufficientStockError reports the remaining count that was committed at
// the moment the reservation was rejected, so callers can render an exact
// message.
type InsufficientStockError struct {
	OfferingID int64
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock: offering %d has %d remaining, requested %d",
		e.OfferingID, e.Available, e.Requested,
	)
}

// InvalidTransitionError reports an illegal order-status change. A mutation
// of an order already in a terminal status reports From == To.
type InvalidTransitionError struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition: %s -> %s", e.From, e.To)
}
