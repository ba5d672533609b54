// Package query is the read side: committed inventory state served through
// a short-TTL cache. It never mutates the ledger.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/showbill/boxoffice/internal/domain"
	"github.com/showbill/boxoffice/internal/pricing"
	"github.com/showbill/boxoffice/internal/repository"
	postgresrepo "github.com/showbill/boxoffice/internal/repository/postgres"
	redisrepo "github.com/showbill/boxoffice/internal/repository/redis"
)

type Config struct {
	SummaryTTL        time.Duration
	AvailabilityTTL   time.Duration
	DefaultOrdersPage int
	MaxOrdersPage     int
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.SummaryTTL <= 0 {
		cfg.SummaryTTL = 60 * time.Second
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	if cfg.DefaultOrdersPage <= 0 {
		cfg.DefaultOrdersPage = 50
	}

	if cfg.MaxOrdersPage <= 0 {
		cfg.MaxOrdersPage = 200
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetOffering retrieves an offering with its derived sold percentage,
// through the cache.
//
// Returns:
//   - *domain.OfferingSummary: the offering view.
//   - error: query.ErrOfferingNotFound if the offering is not found.
func (s *Service) GetOffering(ctx context.Context, id int64) (*domain.OfferingSummary, error) {
	const op = "service.query.GetOffering"

	key := redisrepo.KeyOfferingSummary(id)

	summary, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.SummaryTTL,
		func(ctx context.Context) (domain.OfferingSummary, error) {
			o, err := s.store.Offerings().Get(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.OfferingSummary{}, ErrOfferingNotFound
				}

				return domain.OfferingSummary{}, err
			}

			return domain.OfferingSummary{
				Offering:       *o,
				SoldPercentage: pricing.SoldPercentage(o.Initial, o.Remaining),
			}, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &summary, nil
}

// Availability retrieves the stock counters of an offering through the cache.
// The offering row and the order-book sum are read in one snapshot and
// cross-checked: non-cancelled order quantities must account for every unit
// missing from the allotment.
//
// Returns:
//   - *domain.StockCounts: initial/remaining/sold counters.
//   - error: query.ErrOfferingNotFound if the offering is not found.
func (s *Service) Availability(ctx context.Context, id int64) (*domain.StockCounts, error) {
	const op = "service.query.Availability"

	key := redisrepo.KeyOfferingAvailability(id)

	counts, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (domain.StockCounts, error) {
			var out domain.StockCounts

			opts := &pgx.TxOptions{
				IsoLevel:   pgx.RepeatableRead,
				AccessMode: pgx.ReadOnly,
			}

			err := s.store.RunTx(ctx, opts, func(ctx context.Context, tx postgresrepo.DB) error {
				o, err := s.store.Offerings().With(tx).Get(ctx, id)
				if err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						return ErrOfferingNotFound
					}

					return err
				}

				sold, err := s.store.Query().With(tx).SoldQuantity(ctx, id)
				if err != nil {
					return err
				}

				if err := checkConservation(o, sold); err != nil {
					return err
				}

				out = domain.StockCounts{
					Initial:   o.Initial,
					Remaining: o.Remaining,
					Sold:      sold,
				}

				return nil
			})

			return out, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &counts, nil
}

// checkConservation verifies the ledger against the order book within one
// snapshot: the quantities of non-cancelled orders must sum to
// initial - remaining.
func checkConservation(o *domain.Offering, orderSum int) error {
	if orderSum != o.Sold() {
		return fmt.Errorf(
			"offering %d: order book commits %d units, ledger shows %d sold",
			o.ID, orderSum, o.Sold(),
		)
	}

	return nil
}

// ListOfferings lists a performance's offerings with sold percentages.
func (s *Service) ListOfferings(ctx context.Context, performanceID int64) ([]domain.OfferingSummary, error) {
	const op = "service.query.ListOfferings"

	offerings, err := s.store.Query().ListOfferings(ctx, performanceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]domain.OfferingSummary, 0, len(offerings))
	for _, o := range offerings {
		out = append(out, domain.OfferingSummary{
			Offering:       o,
			SoldPercentage: pricing.SoldPercentage(o.Initial, o.Remaining),
		})
	}

	return out, nil
}

// GetOrder retrieves a single order.
//
// Returns:
//   - *domain.Order: the order when found.
//   - error: query.ErrOrderNotFound if the order is not found.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "service.query.GetOrder"

	o, err := s.store.Orders().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return o, nil
}

// ListOrders lists orders newest first, optionally filtered by status.
func (s *Service) ListOrders(
	ctx context.Context,
	status domain.OrderStatus,
	limit, offset int,
) ([]domain.Order, error) {
	const op = "service.query.ListOrders"

	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%s: unknown status %q", op, status)
	}

	if limit <= 0 {
		limit = s.cfg.DefaultOrdersPage
	}

	if limit > s.cfg.MaxOrdersPage {
		limit = s.cfg.MaxOrdersPage
	}

	out, err := s.store.Query().ListOrders(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// VenueCapacity returns the capacity of a venue.
//
// Returns:
//   - int: the capacity.
//   - error: query.ErrVenueNotFound if the venue is not found.
func (s *Service) VenueCapacity(ctx context.Context, venueID int64) (int, error) {
	const op = "service.query.VenueCapacity"

	v, err := s.store.Query().GetVenue(ctx, venueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%s: %w", op, ErrVenueNotFound)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return v.Capacity, nil
}
