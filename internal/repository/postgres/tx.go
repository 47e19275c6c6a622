package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// DefaultMaxAttempts is how many times a transaction aborted by a
// serialization failure or deadlock is run before the failure surfaces.
const DefaultMaxAttempts = 3

type txKey struct{}

// Option configures a repository.
type Option func(*base)

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(b *base) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

type base struct {
	pool        *pgxpool.Pool
	maxAttempts int
}

func newBase(pool *pgxpool.Pool, opts []Option) base {
	b := base{pool: pool, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// WithTx runs fn in a transaction stored in the context handed to fn.
// Commit happens only when fn succeeds; nested calls join the outer
// transaction.
func (b base) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		err = b.runTx(ctx, fn)
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (b base) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := b.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin tx", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit tx", err)
	}
	return nil
}

func (b base) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return b.pool.Exec(ctx, sql, args...)
}

func (b base) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return b.pool.QueryRow(ctx, sql, args...)
}

func (b base) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return b.pool.Query(ctx, sql, args...)
}

func (b base) copyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.CopyFrom(ctx, table, columns, src)
	}
	return b.pool.CopyFrom(ctx, table, columns, src)
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func storageErr(op string, err error) error {
	return &model.StorageError{Op: op, Err: err}
}
