package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	postgresrepo "github.com/showbill/boxoffice/internal/repository/postgres"
)

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// txRunner is the transactional surface of postgresrepo.Store.
type txRunner interface {
	RunTx(
		ctx context.Context,
		opts *pgx.TxOptions,
		fn func(ctx context.Context, tx postgresrepo.DB) error,
	) error
}

// maxAttempts bounds how many times a serialization loser is replayed.
const maxAttempts = 3

// UoW is the atomic unit every coordinator operation runs in: the paired
// ledger adjustment and order transition commit together or not at all.
type UoW struct {
	store txRunner
}

func NewUoW(store txRunner) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside the transaction. After a successful commit,
// it executes all after-commit hooks.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx postgresrepo.DB, after func(AfterCommit)) error,
) error {
	return u.DoWithOpts(ctx, nil, fn)
}

// DoWithOpts runs fn inside the transaction with the given options.
//
// Under serializable isolation the loser of two conflicting transactions is
// aborted by Postgres (SQLSTATE 40001/40P01) rather than re-evaluated
// against the winner's commit. Such losers are replayed here, up to
// maxAttempts, so each retry runs fn against the newly committed state; fn
// must therefore be safe to re-run. Hooks registered by an aborted attempt
// are discarded; only the committing attempt's hooks execute.
func (u *UoW) DoWithOpts(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx postgresrepo.DB, after func(AfterCommit)) error,
) error {
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var hooks []AfterCommit

		err = u.store.RunTx(ctx, opts, func(ctx context.Context, tx postgresrepo.DB) error {
			return fn(ctx, tx, func(h AfterCommit) {
				hooks = append(hooks, h)
			})
		})
		if err == nil {
			for _, h := range hooks {
				h(ctx)
			}
			return nil
		}

		if !postgresrepo.IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}

	return err
}
