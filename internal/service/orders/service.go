// Package orders is the inventory transaction coordinator: every order
// mutation and its paired stock-ledger adjustment run in one serializable
// transaction, so the ledger and the order book can never drift apart.
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/showbill/boxoffice/internal/domain"
	"github.com/showbill/boxoffice/internal/pricing"
	"github.com/showbill/boxoffice/internal/repository"
	postgresrepo "github.com/showbill/boxoffice/internal/repository/postgres"
	redisrepo "github.com/showbill/boxoffice/internal/repository/redis"
	"github.com/showbill/boxoffice/internal/uow"
)

type Service struct {
	store   *postgresrepo.Store
	cache   *redisrepo.Cache
	pubsub  *redisrepo.OfferingsPubSub
	limiter *redisrepo.SlidingWindowLimiter
	uow     *uow.UoW
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.OfferingsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		uow:     uow.NewUoW(store),
	}
}

// Create reserves qty units of the offering and opens an order in
// pending_payment, as one atomic unit. The stock check and decrement are a
// single statement against the latest committed value, so two concurrent
// creates can never both spend the same units.
//
// Parameters:
//   - ctx: request-scoped context.
//   - buyerID: the buyer placing the order.
//   - offeringID: the allotment to buy from.
//   - qty: units requested, 1..5.
//   - rlKey: rate-limit bucket for the caller; empty disables the limit.
//
// Returns:
//   - *domain.Order: the created order.
//   - error: orders.ErrInvalidQuantity, orders.ErrOfferingNotFound,
//     *orders.InsufficientStockError with the current remaining count, or
//     orders.ErrRateLimited.
func (s *Service) Create(
	ctx context.Context,
	buyerID, offeringID int64,
	qty int,
	rlKey string,
) (*domain.Order, error) {
	const op = "service.orders.Create"

	if err := validateQuantity(qty); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w (retry in %s)", op, ErrRateLimited, retry)
		}
	}

	var order *domain.Order

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		offering, err := s.store.Offerings().With(tx).Reserve(ctx, offeringID, qty)
		if err != nil {
			return fmt.Errorf("%s: %w", op, translateLedgerErr(err))
		}

		total := pricing.Total(offering.UnitPrice, qty)

		o, err := s.store.Orders().With(tx).
			Insert(ctx, buyerID, offeringID, qty, total, domain.OrderPendingPayment)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		order = o

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateOffering(ctx, offeringID)
			_ = s.pubsub.PublishOfferingChanged(ctx, offeringID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// Edit re-points an order to a (possibly different) offering and quantity.
// The ledger legs are derived up front: a changed offering releases the full
// original quantity and reserves the full new one; an unchanged offering
// moves only the signed delta. Any failed leg aborts the transaction, so a
// failed edit leaves both offerings and the order exactly as they were.
//
// Returns:
//   - *domain.Order: the order after the edit, total recomputed from the
//     target offering's unit price.
//   - error: orders.ErrOrderNotFound, orders.ErrOfferingNotFound,
//     orders.ErrInvalidQuantity, *orders.InsufficientStockError, or
//     *orders.InvalidTransitionError when the order is already terminal.
func (s *Service) Edit(
	ctx context.Context,
	orderID uuid.UUID,
	newOfferingID int64,
	newQty int,
) (*domain.Order, error) {
	const op = "service.orders.Edit"

	var order *domain.Order

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		ord, err := s.store.Orders().With(tx).GetForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrOrderNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		plan, err := planEdit(*ord, newOfferingID, newQty)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		ledger := s.store.Offerings().With(tx)

		for _, rel := range plan.releases {
			if err := ledger.Release(ctx, rel.offeringID, rel.qty); err != nil {
				return fmt.Errorf("%s: %w", op, translateLedgerErr(err))
			}
		}

		for _, res := range plan.reserves {
			if _, err := ledger.Reserve(ctx, res.offeringID, res.qty); err != nil {
				return fmt.Errorf("%s: %w", op, translateLedgerErr(err))
			}
		}

		target, err := ledger.Get(ctx, newOfferingID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, translateLedgerErr(err))
		}

		total := pricing.Total(target.UnitPrice, newQty)

		if err := s.store.Orders().With(tx).
			UpdateCommitment(ctx, orderID, newOfferingID, newQty, total); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		updated := *ord
		updated.OfferingID = newOfferingID
		updated.Quantity = newQty
		updated.Total = total
		order = &updated

		oldOfferingID := ord.OfferingID
		after(func(ctx context.Context) {
			_ = s.cache.InvalidateOffering(ctx, oldOfferingID)
			_ = s.pubsub.PublishOfferingChanged(ctx, oldOfferingID)
			if newOfferingID != oldOfferingID {
				_ = s.cache.InvalidateOffering(ctx, newOfferingID)
				_ = s.pubsub.PublishOfferingChanged(ctx, newOfferingID)
			}
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// Cancel releases the order's quantity back to its offering and moves the
// order to cancelled, atomically. A second cancel finds the order already
// cancelled and fails without touching the ledger.
//
// Returns:
//   - *domain.Order: the cancelled order.
//   - error: orders.ErrOrderNotFound, or *orders.InvalidTransitionError if
//     the order cannot be cancelled from its current status.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	const op = "service.orders.Cancel"

	var order *domain.Order

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		ord, err := s.store.Orders().With(tx).GetForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrOrderNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if !ord.Status.CanTransitionTo(domain.OrderCancelled) {
			return fmt.Errorf("%s: %w", op, &InvalidTransitionError{
				From: ord.Status,
				To:   domain.OrderCancelled,
			})
		}

		if err := s.store.Offerings().With(tx).
			Release(ctx, ord.OfferingID, ord.Quantity); err != nil {
			return fmt.Errorf("%s: %w", op, translateLedgerErr(err))
		}

		if err := s.store.Orders().With(tx).
			UpdateStatus(ctx, orderID, domain.OrderCancelled); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		updated := *ord
		updated.Status = domain.OrderCancelled
		order = &updated

		offeringID := ord.OfferingID
		after(func(ctx context.Context) {
			_ = s.cache.InvalidateOffering(ctx, offeringID)
			_ = s.pubsub.PublishOfferingChanged(ctx, offeringID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// ConfirmPayment moves an order from pending_payment to in_progress. Stock
// was already committed at creation, so the ledger is untouched.
//
// Returns:
//   - *domain.Order: the confirmed order.
//   - error: orders.ErrOrderNotFound, or *orders.InvalidTransitionError if
//     the order is not pending payment.
func (s *Service) ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	const op = "service.orders.ConfirmPayment"

	var order *domain.Order

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		ord, err := s.store.Orders().With(tx).GetForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrOrderNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		if !ord.Status.CanTransitionTo(domain.OrderInProgress) {
			return fmt.Errorf("%s: %w", op, &InvalidTransitionError{
				From: ord.Status,
				To:   domain.OrderInProgress,
			})
		}

		if err := s.store.Orders().With(tx).
			UpdateStatus(ctx, orderID, domain.OrderInProgress); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		updated := *ord
		updated.Status = domain.OrderInProgress
		order = &updated

		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// translateLedgerErr converts repository ledger errors to this package's
// error kinds.
func translateLedgerErr(err error) error {
	var ise *repository.InsufficientStockError
	if errors.As(err, &ise) {
		return &InsufficientStockError{
			OfferingID: ise.OfferingID,
			Requested:  ise.Requested,
			Available:  ise.Available,
		}
	}

	if errors.Is(err, repository.ErrNotFound) {
		return ErrOfferingNotFound
	}

	return err
}
