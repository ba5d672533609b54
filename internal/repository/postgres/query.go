package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/showbill/boxoffice/internal/domain"
)

type QueryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *QueryRepo) With(db DB) *QueryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *QueryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetVenue retrieves a venue by its ID.
//
// Returns:
//   - *domain.Venue: the venue when found.
//   - error: repository.ErrNotFound if the venue is not found.
func (r *QueryRepo) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "postgresrepo.QueryRepo.GetVenue"

	db := r.handle()

	var v domain.Venue
	err := db.QueryRow(ctx,
		`SELECT id, name, address, capacity
       	 FROM venues WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.Name, &v.Address, &v.Capacity)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

// GetPerformance retrieves a performance by its ID.
//
// Returns:
//   - *domain.Performance: the performance when found.
//   - error: repository.ErrNotFound if the performance is not found.
func (r *QueryRepo) GetPerformance(ctx context.Context, id int64) (*domain.Performance, error) {
	const op = "postgresrepo.QueryRepo.GetPerformance"

	db := r.handle()

	var p domain.Performance
	err := db.QueryRow(ctx,
		`SELECT id, venue_id, title, starts_at, ends_at
       	 FROM performances WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.VenueID, &p.Title, &p.Starts, &p.Ends)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &p, nil
}

// ListOfferings lists the offerings of a performance.
func (r *QueryRepo) ListOfferings(ctx context.Context, performanceID int64) ([]domain.Offering, error) {
	const op = "postgresrepo.QueryRepo.ListOfferings"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, performance_id, unit_price, remaining, initial
		 FROM offerings
		 WHERE performance_id = $1
		 ORDER BY id`,
		performanceID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Offering
	for rows.Next() {
		var o domain.Offering
		if err := rows.Scan(&o.ID, &o.PerformanceID, &o.UnitPrice, &o.Remaining, &o.Initial); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// ListOrders lists orders, optionally filtered by status, newest first.
func (r *QueryRepo) ListOrders(
	ctx context.Context,
	status domain.OrderStatus,
	limit, offset int,
) ([]domain.Order, error) {
	const op = "postgresrepo.QueryRepo.ListOrders"

	db := r.handle()

	q := `SELECT id, buyer_id, offering_id, quantity, total, status, created_at
            FROM orders`
	args := []any{}

	if status != "" {
		q += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, status, limit, offset)
	} else {
		q += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := db.Query(ctx, q, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.BuyerID, &o.OfferingID, &o.Quantity, &o.Total, &o.Status, &o.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// SoldQuantity sums the quantity of all non-cancelled orders on an offering.
// Used by reporting reads to cross-check the ledger: the sum must equal
// initial - remaining.
func (r *QueryRepo) SoldQuantity(ctx context.Context, offeringID int64) (int, error) {
	const op = "postgresrepo.QueryRepo.SoldQuantity"

	db := r.handle()

	var sold int
	err := db.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0)
           FROM orders
          WHERE offering_id = $1 AND status <> $2`,
		offeringID, domain.OrderCancelled,
	).Scan(&sold)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return sold, nil
}
