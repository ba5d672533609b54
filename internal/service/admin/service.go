// Package admin manages venue and performance records. It never touches the
// stock ledger; offerings are opened through the inventory service.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/showbill/boxoffice/internal/domain"
	"github.com/showbill/boxoffice/internal/repository"
	postgresrepo "github.com/showbill/boxoffice/internal/repository/postgres"
	"github.com/showbill/boxoffice/internal/uow"
)

const (
	minCapacity = 10
	maxCapacity = 100000
)

type Service struct {
	store *postgresrepo.Store
	uow   *uow.UoW
}

func New(store *postgresrepo.Store) *Service {
	return &Service{
		store: store,
		uow:   uow.NewUoW(store),
	}
}

// CreateVenue creates a venue record and returns it.
//
// Returns:
//   - *domain.Venue: the created venue.
//   - error: admin.ErrInvalidCapacity when capacity is out of range, or
//     admin.ErrVenueConflict if a venue with the same name already exists.
func (s *Service) CreateVenue(ctx context.Context, name, address string, capacity int) (*domain.Venue, error) {
	const op = "service.admin.CreateVenue"

	if capacity < minCapacity || capacity > maxCapacity {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCapacity)
	}

	var venue *domain.Venue

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		id, err := s.store.Admin().With(tx).CreateVenue(ctx, name, address, capacity)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrVenueConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		venue = &domain.Venue{ID: id, Name: name, Address: address, Capacity: capacity}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return venue, nil
}

// CreatePerformance creates a performance under a venue.
//
// Returns:
//   - *domain.Performance: the created performance.
//   - error: admin.ErrInvalidSchedule when ends is not after starts,
//     admin.ErrVenueNotFound, or admin.ErrPerformanceConflict on a
//     uniqueness violation.
func (s *Service) CreatePerformance(
	ctx context.Context,
	venueID int64,
	title string,
	starts, ends time.Time,
) (*domain.Performance, error) {
	const op = "service.admin.CreatePerformance"

	if !ends.After(starts) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSchedule)
	}

	var perf *domain.Performance

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if _, err := s.store.Query().With(tx).GetVenue(ctx, venueID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrVenueNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		id, err := s.store.Admin().With(tx).CreatePerformance(ctx, venueID, title, starts, ends)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrPerformanceConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		perf = &domain.Performance{
			ID:      id,
			VenueID: venueID,
			Title:   title,
			Starts:  starts,
			Ends:    ends,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return perf, nil
}
