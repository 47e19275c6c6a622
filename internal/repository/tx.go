// Package repository implements the event and seat stores on MySQL
// through database/sql.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// DefaultMaxAttempts is how many times a transaction aborted by a
// deadlock or lock wait timeout is run before the failure is surfaced.
const DefaultMaxAttempts = 3

// MySQL server error numbers that mean "run the transaction again".
const (
	errLockWaitTimeout uint16 = 1205
	errDeadlock        uint16 = 1213
	errDuplicateKey    uint16 = 1062
)

type txKey struct{}

// querier is the subset shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Option configures a repository.
type Option func(*base)

// WithMaxAttempts overrides DefaultMaxAttempts.  Values below one are
// ignored.
func WithMaxAttempts(n int) Option {
	return func(b *base) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

// base holds what every MySQL repository needs: the pool and the retry
// limit.  Repositories built on the same *sql.DB share transactions
// through the context.
type base struct {
	db          *sql.DB
	maxAttempts int
}

func newBase(db *sql.DB, opts []Option) base {
	b := base{db: db, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// WithTx runs fn inside a transaction carried by the context passed to fn.
// The transaction is committed when fn returns nil and rolled back on
// every other path.  Nested calls join the outer transaction.  Deadlocks
// and lock wait timeouts rerun fn from scratch, so fn must not keep
// state across attempts.
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
	// READ COMMITTED: a seat re-read after a failed compare-and-set sees
	// the status that beat it, not the transaction's first snapshot.
	tx, err := b.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return &model.StorageError{Op: "begin tx", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &model.StorageError{Op: "commit tx", Err: err}
	}
	committed = true
	return nil
}

// q returns the transaction carried by ctx, or the pool.
func (b base) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return b.db
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

func isRetryable(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == errDeadlock || myErr.Number == errLockWaitTimeout
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateKey
}

func storageErr(op string, err error) error {
	return &model.StorageError{Op: op, Err: err}
}
