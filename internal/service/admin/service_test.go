package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreateVenueCapacityBounds(t *testing.T) {
	svc := New(nil)
	ctx := context.Background()

	_, err := svc.CreateVenue(ctx, "Small Hall", "1 Main St", 9)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = svc.CreateVenue(ctx, "Mega Dome", "2 Main St", 100001)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestCreatePerformanceSchedule(t *testing.T) {
	svc := New(nil)
	ctx := context.Background()
	starts := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)

	_, err := svc.CreatePerformance(ctx, 1, "Evening Show", starts, starts)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = svc.CreatePerformance(ctx, 1, "Evening Show", starts, starts.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}
