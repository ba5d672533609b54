package postgresrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type AdminRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AdminRepo) With(db DB) *AdminRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AdminRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *AdminRepo) CreateVenue(
	ctx context.Context,
	name, address string,
	capacity int,
) (int64, error) {
	const op = "postgresrepo.AdminRepo.CreateVenue"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO venues(name, address, capacity)
       	 VALUES ($1, $2, $3)
     	 RETURNING id`,
		name, address, capacity,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *AdminRepo) CreatePerformance(
	ctx context.Context,
	venueID int64,
	title string,
	starts, ends time.Time,
) (int64, error) {
	const op = "postgresrepo.AdminRepo.CreatePerformance"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO performances(venue_id, title, starts_at, ends_at)
       	 VALUES ($1, $2, $3, $4)
     	 RETURNING id`,
		venueID, title, starts, ends,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// CreateOffering opens a new allotment. Initial and remaining both start at
// quantity; initial is only revised later through the ledger's SetInitial.
func (r *AdminRepo) CreateOffering(
	ctx context.Context,
	performanceID int64,
	unitPrice decimal.Decimal,
	quantity int,
) (int64, error) {
	const op = "postgresrepo.AdminRepo.CreateOffering"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO offerings(performance_id, unit_price, remaining, initial)
       	 VALUES ($1, $2, $3, $3)
     	 RETURNING id`,
		performanceID, unitPrice, quantity,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}
