// Package inventory manages offering allotments: opening them and resizing
// initial quantities against the sold floor and venue capacity.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/showbill/boxoffice/internal/domain"
	"github.com/showbill/boxoffice/internal/repository"
	postgresrepo "github.com/showbill/boxoffice/internal/repository/postgres"
	redisrepo "github.com/showbill/boxoffice/internal/repository/redis"
	"github.com/showbill/boxoffice/internal/uow"
)

var maxUnitPrice = decimal.NewFromInt(2000)

type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisrepo.OfferingsPubSub
	uow    *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, pubsub *redisrepo.OfferingsPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
	}
}

// CreateOffering opens a new allotment for a performance. Both remaining and
// initial start at quantity.
//
// Returns:
//   - *domain.Offering: the created offering.
//   - error: inventory.ErrInvalidPrice, inventory.ErrInvalidQuantity,
//     inventory.ErrPerformanceNotFound, or
//     inventory.ErrExceedsVenueCapacity when quantity is larger than the
//     performance's venue.
func (s *Service) CreateOffering(
	ctx context.Context,
	performanceID int64,
	unitPrice decimal.Decimal,
	quantity int,
) (*domain.Offering, error) {
	const op = "service.inventory.CreateOffering"

	if unitPrice.Sign() <= 0 || unitPrice.GreaterThan(maxUnitPrice) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPrice)
	}

	if quantity <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	var offering *domain.Offering

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		perf, err := s.store.Query().With(tx).GetPerformance(ctx, performanceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrPerformanceNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		venue, err := s.store.Query().With(tx).GetVenue(ctx, perf.VenueID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if quantity > venue.Capacity {
			return fmt.Errorf("%s: %w", op, ErrExceedsVenueCapacity)
		}

		id, err := s.store.Admin().With(tx).
			CreateOffering(ctx, performanceID, unitPrice, quantity)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		offering = &domain.Offering{
			ID:            id,
			PerformanceID: performanceID,
			UnitPrice:     unitPrice,
			Remaining:     quantity,
			Initial:       quantity,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return offering, nil
}

// SetInitial resizes an offering's allotment. The sold count is preserved:
// remaining becomes newInitial - sold.
//
// Returns:
//   - *domain.Offering: the offering after the resize.
//   - error: inventory.ErrOfferingNotFound, inventory.ErrBelowSoldFloor when
//     newInitial is less than the units already sold, or
//     inventory.ErrExceedsVenueCapacity.
func (s *Service) SetInitial(ctx context.Context, offeringID int64, newInitial int) (*domain.Offering, error) {
	const op = "service.inventory.SetInitial"

	var offering *domain.Offering

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		o, err := s.store.Offerings().With(tx).SetInitial(ctx, offeringID, newInitial)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return fmt.Errorf("%s: %w", op, ErrOfferingNotFound)
			case errors.Is(err, repository.ErrBelowSoldFloor):
				return fmt.Errorf("%s: %w", op, ErrBelowSoldFloor)
			case errors.Is(err, repository.ErrExceedsVenueCapacity):
				return fmt.Errorf("%s: %w", op, ErrExceedsVenueCapacity)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		offering = o

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateOffering(ctx, offeringID)
			_ = s.pubsub.PublishOfferingChanged(ctx, offeringID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return offering, nil
}
