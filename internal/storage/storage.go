// Package storage opens the backend named by DB_DRIVER and hands back
// the seat and event stores the services run on.
package storage

import (
	"context"
	"log/slog"

	"github.com/iliyamo/seat-inventory/internal/config"
	"github.com/iliyamo/seat-inventory/internal/database"
	"github.com/iliyamo/seat-inventory/internal/repository"
	"github.com/iliyamo/seat-inventory/internal/repository/memory"
	"github.com/iliyamo/seat-inventory/internal/repository/postgres"
	"github.com/iliyamo/seat-inventory/internal/service"
)

// Stores is an opened backend.  Close releases its connections.
type Stores struct {
	Seats  service.SeatStore
	Events service.EventStore
	Close  func()
}

// Open connects the backend named by cfg.DBDriver and applies its
// migrations.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Stores, error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		m := memory.NewStore()
		return Stores{Seats: m, Events: m, Close: func() {}}, nil

	case config.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return Stores{}, err
		}
		if err := database.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return Stores{}, err
		}
		opt := postgres.WithMaxAttempts(cfg.TxAttempts)
		return Stores{
			Seats:  postgres.NewSeatRepository(pool, opt),
			Events: postgres.NewEventRepository(pool, opt),
			Close:  pool.Close,
		}, nil

	default:
		db, err := database.Open(ctx, cfg.MySQL)
		if err != nil {
			return Stores{}, err
		}
		if err := database.MigrateMySQL(ctx, db); err != nil {
			_ = db.Close()
			return Stores{}, err
		}
		opt := repository.WithMaxAttempts(cfg.TxAttempts)
		return Stores{
			Seats:  repository.NewSeatRepo(db, opt),
			Events: repository.NewEventRepo(db, opt),
			Close:  func() { _ = db.Close() },
		}, nil
	}
}
