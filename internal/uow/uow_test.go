package uow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	postgresrepo "github.com/showbill/boxoffice/internal/repository/postgres"
)

// fakeRunner executes fn, then aborts the first `failures` attempts with err,
// mimicking a transaction that does its work but loses at commit.
type fakeRunner struct {
	failures int
	err      error
	calls    int
}

func (r *fakeRunner) RunTx(
	ctx context.Context,
	_ *pgx.TxOptions,
	fn func(ctx context.Context, tx postgresrepo.DB) error,
) error {
	r.calls++
	if err := fn(ctx, nil); err != nil {
		return err
	}
	if r.calls <= r.failures {
		return r.err
	}
	return nil
}

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
}

func TestDo_ReplaysSerializationLoser(t *testing.T) {
	runner := &fakeRunner{failures: 2, err: serializationFailure()}
	u := NewUoW(runner)

	ran := 0
	err := u.Do(context.Background(), func(ctx context.Context, tx postgresrepo.DB, after func(AfterCommit)) error {
		ran++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, runner.calls)
	assert.Equal(t, 3, ran)
}

func TestDo_HooksOfAbortedAttemptsDiscarded(t *testing.T) {
	runner := &fakeRunner{failures: 1, err: serializationFailure()}
	u := NewUoW(runner)

	fired := 0
	err := u.Do(context.Background(), func(ctx context.Context, tx postgresrepo.DB, after func(AfterCommit)) error {
		after(func(ctx context.Context) { fired++ })
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
	assert.Equal(t, 1, fired)
}

func TestDo_GivesUpAfterBoundedAttempts(t *testing.T) {
	runner := &fakeRunner{failures: 100, err: serializationFailure()}
	u := NewUoW(runner)

	err := u.Do(context.Background(), func(ctx context.Context, tx postgresrepo.DB, after func(AfterCommit)) error {
		return nil
	})

	require.Error(t, err)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "40001", pgErr.Code)
	assert.Equal(t, maxAttempts, runner.calls)
}

func TestDo_DoesNotReplayBusinessErrors(t *testing.T) {
	runner := &fakeRunner{}
	u := NewUoW(runner)

	sentinel := errors.New("insufficient stock")
	err := u.Do(context.Background(), func(ctx context.Context, tx postgresrepo.DB, after func(AfterCommit)) error {
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, runner.calls)
}

func TestDo_RetryableErrorSurvivesOpWrapping(t *testing.T) {
	// Repository errors reach the unit of work wrapped with an operation
	// name; the replay decision must see through the wrapping.
	wrapped := fmt.Errorf("%s: %w", "postgresrepo.OfferingRepo.Reserve", serializationFailure())
	assert.True(t, postgresrepo.IsRetryable(wrapped))
	assert.False(t, postgresrepo.IsRetryable(errors.New("insufficient stock")))
}
