package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Venue struct {
	ID       int64
	Name     string
	Address  string
	Capacity int
}

type Performance struct {
	ID      int64
	VenueID int64
	Title   string
	Starts  time.Time
	Ends    time.Time
}

// Offering is a priced, quantity-limited ticket allotment for one performance.
// Invariant: 0 <= Remaining <= Initial.
type Offering struct {
	ID            int64
	PerformanceID int64
	UnitPrice     decimal.Decimal
	Remaining     int
	Initial       int
}

// Sold is the number of units committed to non-cancelled orders.
func (o Offering) Sold() int {
	return o.Initial - o.Remaining
}

// Order is a commitment of Quantity units against exactly one Offering.
// Total is frozen at commit time and only recomputed by an edit.
type Order struct {
	ID         uuid.UUID
	BuyerID    int64
	OfferingID int64
	Quantity   int
	Total      decimal.Decimal
	Status     OrderStatus
	CreatedAt  time.Time
}

// OfferingSummary is the read-side view of an offering with its
// derived sold percentage.
type OfferingSummary struct {
	Offering
	SoldPercentage decimal.Decimal
}

// StockCounts are the availability counters of one offering.
type StockCounts struct {
	Initial   int
	Remaining int
	Sold      int
}
