package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// EventRepo manages persistence for events.  It shares transactions
// with a SeatRepo built on the same *sql.DB, so an event and its seats
// can be created or destroyed in one unit.
type EventRepo struct {
	base
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB, opts ...Option) *EventRepo {
	return &EventRepo{base: newBase(db, opts)}
}

// CreateEvent inserts e and populates its generated ID.
func (r *EventRepo) CreateEvent(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (name, event_date, active) VALUES (?, ?, ?)`
	res, err := r.q(ctx).ExecContext(ctx, q, e.Name, e.DateString(), e.Active)
	if err != nil {
		return storageErr("create event", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("create event", err)
	}
	e.ID = id
	return nil
}

// GetEvent loads one event.  A missing event yields *model.NotFoundError.
func (r *EventRepo) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	const q = `SELECT id, name, event_date, active FROM events WHERE id = ?`
	var e model.Event
	err := r.q(ctx).QueryRowContext(ctx, q, id).Scan(&e.ID, &e.Name, &e.Date, &e.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, model.EventNotFound(id)
		}
		return model.Event{}, storageErr("get event", err)
	}
	e.Date = model.NormalizeDate(e.Date)
	return e, nil
}

// ListEvents returns every event ordered by date then id.
func (r *EventRepo) ListEvents(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT id, name, event_date, active FROM events ORDER BY event_date, id`
	rows, err := r.q(ctx).QueryContext(ctx, q)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.Active); err != nil {
			return nil, storageErr("scan event", err)
		}
		e.Date = model.NormalizeDate(e.Date)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate events", err)
	}
	return events, nil
}

// UpdateEvent overwrites name, date and active of an existing event.
func (r *EventRepo) UpdateEvent(ctx context.Context, e model.Event) error {
	// Existence is checked separately: RowsAffected is zero both for a
	// missing row and for an update that changes nothing.
	if _, err := r.GetEvent(ctx, e.ID); err != nil {
		return err
	}
	const q = `UPDATE events SET name = ?, event_date = ?, active = ? WHERE id = ?`
	if _, err := r.q(ctx).ExecContext(ctx, q, e.Name, e.DateString(), e.Active, e.ID); err != nil {
		return storageErr("update event", err)
	}
	return nil
}

// DeleteEvent removes the event row.  Seats must be removed first.
func (r *EventRepo) DeleteEvent(ctx context.Context, id int64) error {
	res, err := r.q(ctx).ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete event", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.EventNotFound(id)
	}
	return nil
}
