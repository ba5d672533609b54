package query

import (
	"errors"
)

var (
	ErrOfferingNotFound    = errors.New("offering not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrVenueNotFound       = errors.New("venue not found")
	ErrPerformanceNotFound = errors.New("performance not found")
)
