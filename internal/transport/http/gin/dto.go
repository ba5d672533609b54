package httpgin

import (
	"time"

	"github.com/showbill/boxoffice/internal/domain"
)

type CreateOrderRequest struct {
	BuyerID    int64 `json:"buyer_id" binding:"required"`
	OfferingID int64 `json:"offering_id" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required,gte=1,lte=5"`
}

type EditOrderRequest struct {
	OfferingID int64 `json:"offering_id" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required,gte=1,lte=5"`
}

type CreateVenueRequest struct {
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,gte=10,lte=100000"`
}

type CreatePerformanceRequest struct {
	VenueID  int64  `json:"venue_id" binding:"required"`
	Title    string `json:"title" binding:"required"`
	StartsAt string `json:"starts_at" binding:"required"`
	EndsAt   string `json:"ends_at" binding:"required"`
}

type CreateOfferingRequest struct {
	PerformanceID int64  `json:"performance_id" binding:"required"`
	UnitPrice     string `json:"unit_price" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,gt=0"`
}

type SetInitialRequest struct {
	Initial int `json:"initial" binding:"gte=0"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Available *int   `json:"available,omitempty"`
}

type OrderResponse struct {
	ID         string    `json:"id"`
	BuyerID    int64     `json:"buyer_id"`
	OfferingID int64     `json:"offering_id"`
	Quantity   int       `json:"quantity"`
	Total      string    `json:"total"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:         o.ID.String(),
		BuyerID:    o.BuyerID,
		OfferingID: o.OfferingID,
		Quantity:   o.Quantity,
		Total:      o.Total.StringFixed(2),
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
	}
}

type OfferingResponse struct {
	ID             int64  `json:"id"`
	PerformanceID  int64  `json:"performance_id"`
	UnitPrice      string `json:"unit_price"`
	Remaining      int    `json:"remaining"`
	Initial        int    `json:"initial"`
	SoldPercentage string `json:"sold_percentage,omitempty"`
}

func toOfferingResponse(o *domain.Offering) OfferingResponse {
	return OfferingResponse{
		ID:            o.ID,
		PerformanceID: o.PerformanceID,
		UnitPrice:     o.UnitPrice.StringFixed(2),
		Remaining:     o.Remaining,
		Initial:       o.Initial,
	}
}

func toOfferingSummaryResponse(s *domain.OfferingSummary) OfferingResponse {
	resp := toOfferingResponse(&s.Offering)
	resp.SoldPercentage = s.SoldPercentage.StringFixed(2)
	return resp
}

type AvailabilityResponse struct {
	Initial   int `json:"initial"`
	Remaining int `json:"remaining"`
	Sold      int `json:"sold"`
}

type CreateVenueResponse struct {
	VenueID int64 `json:"venue_id"`
}

type CreatePerformanceResponse struct {
	PerformanceID int64 `json:"performance_id"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
