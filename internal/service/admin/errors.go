package admin

import (
	"errors"
)

var (
	ErrVenueNotFound       = errors.New("venue not found")
	ErrVenueConflict       = errors.New("venue already exists")
	ErrPerformanceConflict = errors.New("performance already exists")
	ErrInvalidCapacity     = errors.New("capacity must be between 10 and 100000")
	ErrInvalidSchedule     = errors.New("performance must end after it starts")
)
