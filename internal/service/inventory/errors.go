package inventory

import "errors"

var (
	ErrOfferingNotFound     = errors.New("offering not found")
	ErrPerformanceNotFound  = errors.New("performance not found")
	ErrBelowSoldFloor       = errors.New("initial quantity cannot drop below the sold count")
	ErrExceedsVenueCapacity = errors.New("quantity exceeds venue capacity")
	ErrInvalidPrice         = errors.New("unit price must be positive and at most 2000")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
)
