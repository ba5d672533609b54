package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrBelowSoldFloor       = errors.New("initial quantity below sold count")
	ErrExceedsVenueCapacity = errors.New("initial quantity exceeds venue capacity")
)

// InsufficientStockError carries the remaining count observed inside the
// same transaction that rejected the reservation, so callers can report
// an accurate number.
type InsufficientStockError struct {
	OfferingID int64
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for offering %d: requested %d, available %d",
		e.OfferingID, e.Requested, e.Available,
	)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
