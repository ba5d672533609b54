package postgresrepo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/showbill/boxoffice/internal/domain"
	"github.com/showbill/boxoffice/internal/repository"
)

type OrderRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *OrderRepo) With(db DB) *OrderRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *OrderRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Insert creates an order row and returns it with the generated ID and
// timestamp filled in.
func (r *OrderRepo) Insert(
	ctx context.Context,
	buyerID, offeringID int64,
	qty int,
	total decimal.Decimal,
	status domain.OrderStatus,
) (*domain.Order, error) {
	const op = "postgresrepo.OrderRepo.Insert"

	db := r.handle()

	o := domain.Order{
		ID:         uuid.New(),
		BuyerID:    buyerID,
		OfferingID: offeringID,
		Quantity:   qty,
		Total:      total,
		Status:     status,
	}

	err := db.QueryRow(ctx,
		`INSERT INTO orders(id, buyer_id, offering_id, quantity, total, status)
       	 VALUES ($1, $2, $3, $4, $5, $6)
     	 RETURNING created_at`,
		o.ID, o.BuyerID, o.OfferingID, o.Quantity, o.Total, o.Status,
	).Scan(&o.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &o, nil
}

// Get retrieves an order by its ID.
//
// Returns:
//   - *domain.Order: the order when found.
//   - error: repository.ErrNotFound if the order is not found.
func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "postgresrepo.OrderRepo.Get"

	return r.get(ctx, op, id, false)
}

// GetForUpdate retrieves an order and locks its row for the rest of the
// transaction, serializing concurrent mutations of the same order.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "postgresrepo.OrderRepo.GetForUpdate"

	return r.get(ctx, op, id, true)
}

func (r *OrderRepo) get(ctx context.Context, op string, id uuid.UUID, lock bool) (*domain.Order, error) {
	db := r.handle()

	q := `SELECT id, buyer_id, offering_id, quantity, total, status, created_at
            FROM orders WHERE id = $1`
	if lock {
		q += ` FOR UPDATE`
	}

	var o domain.Order
	err := db.QueryRow(ctx, q, id).Scan(
		&o.ID, &o.BuyerID, &o.OfferingID, &o.Quantity, &o.Total, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &o, nil
}

// UpdateCommitment rewrites the offering linkage, quantity and total of an
// order after an edit. Status is untouched.
func (r *OrderRepo) UpdateCommitment(
	ctx context.Context,
	id uuid.UUID,
	offeringID int64,
	qty int,
	total decimal.Decimal,
) error {
	const op = "postgresrepo.OrderRepo.UpdateCommitment"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE orders SET offering_id = $2, quantity = $3, total = $4 WHERE id = $1`,
		id, offeringID, qty, total,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

// UpdateStatus moves an order to the given status. Transition legality is
// checked by the caller against the current, locked row.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	const op = "postgresrepo.OrderRepo.UpdateStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}
