// Package service holds the inventory core: the seat state machine, the
// event catalog and the read-side reports.  Every component receives its
// stores explicitly; the MySQL, PostgreSQL and in-memory repositories all
// satisfy the interfaces below.
package service

import (
	"context"
	"log/slog"

	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/queue"
)

// Transactor runs fn in a transaction carried by ctx.  Store calls made
// with that ctx join it; it commits only when fn returns nil.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SeatStore is the authoritative seat table, keyed by (event, seat).
type SeatStore interface {
	Transactor
	GetSeat(ctx context.Context, eventID int64, seatID string) (model.Seat, error)
	CompareAndSetStatus(ctx context.Context, eventID int64, seatID string, from, to model.SeatStatus) (bool, error)
	InsertSeats(ctx context.Context, seats []model.Seat) error
	SetAllStatus(ctx context.Context, eventID int64, to model.SeatStatus) (int64, error)
	DeleteSeats(ctx context.Context, eventID int64) (int64, error)
	ListSeats(ctx context.Context, eventID int64) ([]model.Seat, error)
	CountByStatus(ctx context.Context, eventID int64) (model.StatusCounts, error)
	SummarizeRows(ctx context.Context, eventID int64) ([]model.RowSummary, error)
}

// EventReader is the read side of EventStore.
type EventReader interface {
	Transactor
	GetEvent(ctx context.Context, id int64) (model.Event, error)
}

type EventStore interface {
	EventReader
	CreateEvent(ctx context.Context, e *model.Event) error
	ListEvents(ctx context.Context) ([]model.Event, error)
	UpdateEvent(ctx context.Context, e model.Event) error
	DeleteEvent(ctx context.Context, id int64) error
}

// Notifier receives seat changes after they commit.
type Notifier interface {
	NotifySeatsChanged(ctx context.Context, ev queue.SeatChangedEvent) error
}

// Option configures InventoryEngine, EventCatalog and ReportAggregator.
type Option func(*deps)

// WithLogger sets the structured logger.  slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithNotifier publishes every committed seat change to n.
func WithNotifier(n Notifier) Option {
	return func(d *deps) { d.notifier = n }
}

type deps struct {
	logger   *slog.Logger
	notifier Notifier
}

func newDeps(opts []Option) deps {
	d := deps{logger: slog.Default()}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// notify publishes a committed change.  Publishing failures are logged
// and never reach the caller: the seat change already happened.
func (d deps) notify(ctx context.Context, eventID int64, op model.Op, status model.SeatStatus, seats []string) {
	if d.notifier == nil {
		return
	}
	ev := queue.SeatChangedEvent{
		EventID: eventID,
		Op:      string(op),
		Seats:   seats,
		Status:  string(status),
	}
	if err := d.notifier.NotifySeatsChanged(ctx, ev); err != nil {
		d.logger.Warn("seat change not published", "event_id", eventID, "op", op, "err", err)
	}
}
