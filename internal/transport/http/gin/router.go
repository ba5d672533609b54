package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/showbill/boxoffice/internal/domain"
	redisrepo "github.com/showbill/boxoffice/internal/repository/redis"
	"github.com/showbill/boxoffice/internal/service"
	"github.com/showbill/boxoffice/internal/service/admin"
	"github.com/showbill/boxoffice/internal/service/inventory"
	"github.com/showbill/boxoffice/internal/service/orders"
	"github.com/showbill/boxoffice/internal/service/query"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/offerings/:id", handleGetOffering(svcs))
	r.GET("/offerings/:id/availability", handleGetAvailability(svcs))
	r.GET("/offerings/:id/price", handleGetOfferingPrice(svcs))
	r.GET("/performances/:id/offerings", handleListOfferings(svcs))
	r.GET("/venues/:id/capacity", handleGetVenueCapacity(svcs))

	r.POST("/orders", handleCreateOrder(svcs, idem))
	r.GET("/orders", handleListOrders(svcs))
	r.GET("/orders/:id", handleGetOrder(svcs))
	r.PATCH("/orders/:id", handleEditOrder(svcs))
	r.POST("/orders/:id/cancel", handleCancelOrder(svcs))
	r.POST("/orders/:id/pay", handleConfirmPayment(svcs))

	// Admin API; the caller is expected to have done its capability check
	// before reaching these.
	adm := r.Group("/admin")
	{
		adm.POST("/venues", handleCreateVenue(svcs))
		adm.POST("/performances", handleCreatePerformance(svcs))
		adm.POST("/offerings", handleCreateOffering(svcs))
		adm.PATCH("/offerings/:id/initial", handleSetInitial(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Get offering with sold percentage
// @Param    id  path  int  true  "Offering ID"
// @Success  200  {object}  OfferingResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /offerings/{id} [get]
func handleGetOffering(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		offeringID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		s, err := svcs.Query.GetOffering(c.Request.Context(), offeringID)
		if err != nil {
			respondErr(c, err)
			return
		}
		resp := toOfferingSummaryResponse(s)
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, resp, "public, max-age=60", true)
	}
}

// @Summary  Get availability counters
// @Param    id  path  int  true  "Offering ID"
// @Success  200  {object}  AvailabilityResponse
// @Router   /offerings/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		offeringID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		counts, err := svcs.Query.Availability(c.Request.Context(), offeringID)
		if err != nil {
			respondErr(c, err)
			return
		}
		resp := AvailabilityResponse{
			Initial:   counts.Initial,
			Remaining: counts.Remaining,
			Sold:      counts.Sold,
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, resp, "public, max-age=15", true)
	}
}

// @Summary  Get offering unit price
// @Param    id  path  int  true  "Offering ID"
// @Success  200  {object}  map[string]string
// @Router   /offerings/{id}/price [get]
func handleGetOfferingPrice(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		offeringID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		s, err := svcs.Query.GetOffering(c.Request.Context(), offeringID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"unit_price": s.UnitPrice.StringFixed(2)})
	}
}

// @Summary  List offerings of a performance
// @Param    id  path  int  true  "Performance ID"
// @Success  200  {array}  OfferingResponse
// @Router   /performances/{id}/offerings [get]
func handleListOfferings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		performanceID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		summaries, err := svcs.Query.ListOfferings(c.Request.Context(), performanceID)
		if err != nil {
			respondErr(c, err)
			return
		}
		resp := make([]OfferingResponse, 0, len(summaries))
		for i := range summaries {
			resp = append(resp, toOfferingSummaryResponse(&summaries[i]))
		}
		writeJSONWithCache(c, http.StatusOK, resp, "public, max-age=15", true)
	}
}

// @Summary  Get venue capacity
// @Param    id  path  int  true  "Venue ID"
// @Success  200  {object}  map[string]int
// @Router   /venues/{id}/capacity [get]
func handleGetVenueCapacity(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		capacity, err := svcs.Query.VenueCapacity(c.Request.Context(), venueID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"capacity": capacity})
	}
}

// @Summary  Create order (idempotent)
// @Param    req body  CreateOrderRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} OrderResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "insufficient stock / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /orders [post]
func handleCreateOrder(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemOrder(idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		order, err := svcs.Orders.Create(
			c.Request.Context(),
			req.BuyerID,
			req.OfferingID,
			req.Quantity,
			rlKey,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := toOrderResponse(order)

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  List orders
// @Param    status query  string  false "pending_payment|in_progress|completed|cancelled"
// @Param    limit  query  int     false "page size"
// @Param    offset query  int     false "offset"
// @Success  200  {array}  OrderResponse
// @Router   /orders [get]
func handleListOrders(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := domain.OrderStatus(c.Query("status"))
		if status != "" && !status.Valid() {
			badRequest(c, "unknown status")
			return
		}
		limit := parseIntDefault(c.Query("limit"), 50)
		offset := parseIntDefault(c.Query("offset"), 0)

		list, err := svcs.Query.ListOrders(c.Request.Context(), status, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		resp := make([]OrderResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toOrderResponse(&list[i]))
		}
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary  Get order
// @Param    id  path  string  true  "Order ID (uuid)"
// @Success  200 {object} OrderResponse
// @Failure  404 {object} ErrorResponse
// @Router   /orders/{id} [get]
func handleGetOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		o, err := svcs.Query.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(o))
	}
}

// @Summary  Edit order quantity and/or offering
// @Param    id  path  string  true  "Order ID (uuid)"
// @Param    req body  EditOrderRequest true "payload"
// @Success  200 {object} OrderResponse
// @Failure  409 {object} ErrorResponse "insufficient stock / terminal order"
// @Router   /orders/{id} [patch]
func handleEditOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req EditOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		o, err := svcs.Orders.Edit(
			c.Request.Context(),
			orderID,
			req.OfferingID,
			req.Quantity,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(o))
	}
}

// @Summary  Cancel order and restore stock
// @Param    id  path  string  true  "Order ID (uuid)"
// @Success  200 {object} OrderResponse
// @Failure  409 {object} ErrorResponse "already cancelled"
// @Router   /orders/{id}/cancel [post]
func handleCancelOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		o, err := svcs.Orders.Cancel(c.Request.Context(), orderID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(o))
	}
}

// @Summary  Confirm payment
// @Param    id  path  string  true  "Order ID (uuid)"
// @Success  200 {object} OrderResponse
// @Failure  409 {object} ErrorResponse "not pending payment"
// @Router   /orders/{id}/pay [post]
func handleConfirmPayment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		o, err := svcs.Orders.ConfirmPayment(c.Request.Context(), orderID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(o))
	}
}

// @Summary  Create venue
// @Param    req body  CreateVenueRequest true "payload"
// @Success  201 {object} CreateVenueResponse
// @Router   /admin/venues [post]
func handleCreateVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateVenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		v, err := svcs.Admin.CreateVenue(
			c.Request.Context(),
			req.Name,
			req.Address,
			req.Capacity,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateVenueResponse{VenueID: v.ID})
	}
}

// @Summary  Create performance
// @Param    req body  CreatePerformanceRequest true "payload"
// @Success  201 {object} CreatePerformanceResponse
// @Router   /admin/performances [post]
func handleCreatePerformance(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePerformanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		ends, err := parseRFC3339(req.EndsAt)
		if err != nil {
			badRequest(c, "invalid ends_at (RFC3339)")
			return
		}
		p, err := svcs.Admin.CreatePerformance(
			c.Request.Context(),
			req.VenueID,
			req.Title,
			starts,
			ends,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreatePerformanceResponse{PerformanceID: p.ID})
	}
}

// @Summary  Create offering
// @Param    req body  CreateOfferingRequest true "payload"
// @Success  201 {object} OfferingResponse
// @Router   /admin/offerings [post]
func handleCreateOffering(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOfferingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		price, err := decimal.NewFromString(req.UnitPrice)
		if err != nil {
			badRequest(c, "invalid unit_price")
			return
		}
		o, err := svcs.Inventory.CreateOffering(
			c.Request.Context(),
			req.PerformanceID,
			price,
			req.Quantity,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toOfferingResponse(o))
	}
}

// @Summary  Resize offering allotment
// @Param    id  path  int  true  "Offering ID"
// @Param    req body  SetInitialRequest true "payload"
// @Success  200 {object} OfferingResponse
// @Failure  400 {object} ErrorResponse "below sold floor / over capacity"
// @Router   /admin/offerings/{id}/initial [patch]
func handleSetInitial(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		offeringID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req SetInitialRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		o, err := svcs.Inventory.SetInitial(
			c.Request.Context(),
			offeringID,
			req.Initial,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toOfferingResponse(o))
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	_ = c.Error(err)

	var ise *orders.InsufficientStockError
	if errors.As(err, &ise) {
		available := ise.Available
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:     "insufficient stock",
			Available: &available,
		})
		return
	}

	var ite *orders.InvalidTransitionError
	if errors.As(err, &ite) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: ite.Error()})
		return
	}

	switch {
	// orders service
	case errors.Is(err, orders.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "order not found"})
	case errors.Is(err, orders.ErrOfferingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "offering not found"})
	case errors.Is(err, orders.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quantity must be between 1 and 5"})
	case errors.Is(err, orders.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
	// inventory service
	case errors.Is(err, inventory.ErrOfferingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "offering not found"})
	case errors.Is(err, inventory.ErrPerformanceNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "performance not found"})
	case errors.Is(err, inventory.ErrBelowSoldFloor):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "initial quantity below sold count"})
	case errors.Is(err, inventory.ErrExceedsVenueCapacity):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quantity exceeds venue capacity"})
	case errors.Is(err, inventory.ErrInvalidPrice),
		errors.Is(err, inventory.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	// query service
	case errors.Is(err, query.ErrOfferingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "offering not found"})
	case errors.Is(err, query.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "order not found"})
	case errors.Is(err, query.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
	case errors.Is(err, query.ErrPerformanceNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "performance not found"})
	// admin service
	case errors.Is(err, admin.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
	case errors.Is(err, admin.ErrVenueConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "venue conflict"})
	case errors.Is(err, admin.ErrPerformanceConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "performance conflict"})
	case errors.Is(err, admin.ErrInvalidCapacity),
		errors.Is(err, admin.ErrInvalidSchedule):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
