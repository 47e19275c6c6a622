package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/seat-inventory/internal/model"
)

type EventRepository struct {
	base
}

func NewEventRepository(pool *pgxpool.Pool, opts ...Option) *EventRepository {
	return &EventRepository{base: newBase(pool, opts)}
}

func (r *EventRepository) CreateEvent(ctx context.Context, e *model.Event) error {
	const stmt = `INSERT INTO events (name, event_date, active) VALUES ($1, $2, $3) RETURNING id`
	if err := r.queryRow(ctx, stmt, e.Name, e.Date, e.Active).Scan(&e.ID); err != nil {
		return storageErr("create event", err)
	}
	return nil
}

func (r *EventRepository) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	const query = `SELECT id, name, event_date, active FROM events WHERE id = $1`
	var e model.Event
	if err := r.queryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.Date, &e.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Event{}, model.EventNotFound(id)
		}
		return model.Event{}, storageErr("get event", err)
	}
	e.Date = model.NormalizeDate(e.Date)
	return e, nil
}

func (r *EventRepository) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := r.query(ctx, `SELECT id, name, event_date, active FROM events ORDER BY event_date, id`)
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

func (r *EventRepository) UpdateEvent(ctx context.Context, e model.Event) error {
	const stmt = `UPDATE events SET name = $1, event_date = $2, active = $3, updated_at = NOW() WHERE id = $4`
	tag, err := r.exec(ctx, stmt, e.Name, e.Date, e.Active, e.ID)
	if err != nil {
		return storageErr("update event", err)
	}
	if tag.RowsAffected() == 0 {
		return model.EventNotFound(e.ID)
	}
	return nil
}

func (r *EventRepository) DeleteEvent(ctx context.Context, id int64) error {
	tag, err := r.exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete event", err)
	}
	if tag.RowsAffected() == 0 {
		return model.EventNotFound(id)
	}
	return nil
}
