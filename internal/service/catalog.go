package service

import (
	"context"
	"strings"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// EventCatalog manages event metadata and is the only component that
// creates or destroys seat rows.
type EventCatalog struct {
	events EventStore
	seats  SeatStore
	deps
}

func NewEventCatalog(events EventStore, seats SeatStore, opts ...Option) *EventCatalog {
	return &EventCatalog{events: events, seats: seats, deps: newDeps(opts)}
}

// CreateEventInput is the payload of CreateEvent.  A nil Layout
// provisions model.DefaultLayout.
type CreateEventInput struct {
	Name   string
	Date   string
	Layout model.SeatLayout
}

// CreateEvent validates the input, stores the event and provisions all
// of its seats as available in one transaction.
func (c *EventCatalog) CreateEvent(ctx context.Context, in CreateEventInput) (model.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Event{}, &model.ValidationError{Field: "name", Reason: "is required"}
	}
	date, err := model.ParseDate(in.Date)
	if err != nil {
		return model.Event{}, err
	}
	layout := in.Layout
	if layout == nil {
		layout = model.DefaultLayout()
	}
	if err := layout.Validate(); err != nil {
		return model.Event{}, err
	}

	var ev model.Event
	err = c.events.WithTx(ctx, func(txCtx context.Context) error {
		ev = model.Event{Name: name, Date: date, Active: true}
		if err := c.events.CreateEvent(txCtx, &ev); err != nil {
			return err
		}
		return c.seats.InsertSeats(txCtx, layout.Seats(ev.ID))
	})
	if err != nil {
		return model.Event{}, err
	}

	c.logger.Info("event created", "event_id", ev.ID, "seats", layout.Total())
	return ev, nil
}

// UpdateEvent applies a partial update of name, date and active.
func (c *EventCatalog) UpdateEvent(ctx context.Context, id int64, patch model.EventPatch) (model.Event, error) {
	if patch.Empty() {
		return model.Event{}, &model.ValidationError{Field: "event", Reason: "update must set name, date or active"}
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return model.Event{}, &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	var ev model.Event
	err := c.events.WithTx(ctx, func(txCtx context.Context) error {
		current, err := c.events.GetEvent(txCtx, id)
		if err != nil {
			return err
		}
		ev = patch.Apply(current)
		return c.events.UpdateEvent(txCtx, ev)
	})
	if err != nil {
		return model.Event{}, err
	}

	c.logger.Info("event updated", "event_id", id)
	return ev, nil
}

// DeleteEvent removes the seats of the event, then the event itself.
func (c *EventCatalog) DeleteEvent(ctx context.Context, id int64) error {
	var removed int64
	err := c.events.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := c.events.GetEvent(txCtx, id); err != nil {
			return err
		}
		n, err := c.seats.DeleteSeats(txCtx, id)
		if err != nil {
			return err
		}
		removed = n
		return c.events.DeleteEvent(txCtx, id)
	})
	if err != nil {
		return err
	}

	c.logger.Info("event deleted", "event_id", id, "seats", removed)
	return nil
}

// ResetEvent sets every seat of the event back to available regardless
// of its current status and returns how many seats the event has.
func (c *EventCatalog) ResetEvent(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := c.events.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := c.events.GetEvent(txCtx, id); err != nil {
			return err
		}
		var err error
		n, err = c.seats.SetAllStatus(txCtx, id, model.StatusAvailable)
		return err
	})
	if err != nil {
		return 0, err
	}

	c.logger.Info("event reset", "event_id", id, "seats", n)
	c.notify(ctx, id, model.OpReset, model.StatusAvailable, nil)
	return n, nil
}

func (c *EventCatalog) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	return c.events.GetEvent(ctx, id)
}

func (c *EventCatalog) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := c.events.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}
