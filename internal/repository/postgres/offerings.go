package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/showbill/boxoffice/internal/domain"
	"github.com/showbill/boxoffice/internal/repository"
)

// OfferingRepo is the stock ledger: it owns the remaining/initial counters
// of every offering. Remaining is only ever checked and mutated in a single
// statement so two transactions can never act on the same stale count.
type OfferingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *OfferingRepo) With(db DB) *OfferingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *OfferingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Get retrieves an offering by its ID.
//
// Returns:
//   - *domain.Offering: the offering when found.
//   - error: repository.ErrNotFound if the offering is not found.
func (r *OfferingRepo) Get(ctx context.Context, id int64) (*domain.Offering, error) {
	const op = "postgresrepo.OfferingRepo.Get"

	db := r.handle()

	var o domain.Offering
	err := db.QueryRow(ctx,
		`SELECT id, performance_id, unit_price, remaining, initial
       	 FROM offerings WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.PerformanceID, &o.UnitPrice, &o.Remaining, &o.Initial)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &o, nil
}

// Reserve decrements remaining by qty. The stock check and the decrement are
// one conditional UPDATE, so the decision is always made against the freshest
// committed value.
//
// Returns:
//   - *domain.Offering: the offering after the decrement.
//   - error: repository.ErrNotFound if the offering is not found.
//   - error: *repository.InsufficientStockError (matches
//     repository.ErrInsufficientStock) carrying the current remaining count
//     if qty exceeds it.
func (r *OfferingRepo) Reserve(ctx context.Context, id int64, qty int) (*domain.Offering, error) {
	const op = "postgresrepo.OfferingRepo.Reserve"

	db := r.handle()

	var o domain.Offering
	err := db.QueryRow(ctx,
		`UPDATE offerings
            SET remaining = remaining - $2
          WHERE id = $1 AND remaining >= $2
         RETURNING id, performance_id, unit_price, remaining, initial`,
		id, qty,
	).Scan(&o.ID, &o.PerformanceID, &o.UnitPrice, &o.Remaining, &o.Initial)
	if err == nil {
		return &o, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapDBErr(op, err)
	}

	// Zero rows matched: either the offering does not exist or the stock is
	// short. Re-read inside the same transaction to tell the two apart and
	// to report the current count.
	var remaining int
	if err := db.QueryRow(ctx,
		`SELECT remaining FROM offerings WHERE id = $1`, id,
	).Scan(&remaining); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return nil, fmt.Errorf("%s: %w", op, &repository.InsufficientStockError{
		OfferingID: id,
		Requested:  qty,
		Available:  remaining,
	})
}

// Release increments remaining by qty. At-most-once per cancelled or reduced
// order is the caller's responsibility; the remaining <= initial check
// constraint backstops over-release.
//
// Returns:
//   - error: repository.ErrNotFound if the offering is not found.
//   - error: repository.ErrConflict if the release would push remaining past
//     initial.
func (r *OfferingRepo) Release(ctx context.Context, id int64, qty int) error {
	const op = "postgresrepo.OfferingRepo.Release"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE offerings SET remaining = remaining + $2 WHERE id = $1`,
		id, qty,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

// SetInitial resizes the allotment. The row is locked for the duration of
// the check so sold cannot move between validation and the write.
// remaining is recomputed as newInitial - sold.
//
// Returns:
//   - *domain.Offering: the offering after the resize.
//   - error: repository.ErrNotFound if the offering is not found.
//   - error: repository.ErrBelowSoldFloor if newInitial < sold.
//   - error: repository.ErrExceedsVenueCapacity if newInitial is larger than
//     the venue of the offering's performance.
func (r *OfferingRepo) SetInitial(ctx context.Context, id int64, newInitial int) (*domain.Offering, error) {
	const op = "postgresrepo.OfferingRepo.SetInitial"

	db := r.handle()

	var o domain.Offering
	var capacity int
	err := db.QueryRow(ctx,
		`SELECT o.id, o.performance_id, o.unit_price, o.remaining, o.initial, v.capacity
           FROM offerings o
           JOIN performances p ON p.id = o.performance_id
           JOIN venues v ON v.id = p.venue_id
          WHERE o.id = $1
            FOR UPDATE OF o`,
		id,
	).Scan(&o.ID, &o.PerformanceID, &o.UnitPrice, &o.Remaining, &o.Initial, &capacity)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	sold := o.Sold()

	if newInitial < sold {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrBelowSoldFloor)
	}

	if newInitial > capacity {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrExceedsVenueCapacity)
	}

	if _, err := db.Exec(ctx,
		`UPDATE offerings SET initial = $2, remaining = $3 WHERE id = $1`,
		id, newInitial, newInitial-sold,
	); err != nil {
		return nil, wrapDBErr(op, err)
	}

	o.Initial = newInitial
	o.Remaining = newInitial - sold

	return &o, nil
}
