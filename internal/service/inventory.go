package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// InventoryEngine applies the seat state machine.  Each transition is a
// compare-and-set on one seat, so two callers racing for the same seat
// cannot both win; seats of the same event are never locked together.
type InventoryEngine struct {
	seats  SeatStore
	events EventReader
	deps
}

func NewInventoryEngine(seats SeatStore, events EventReader, opts ...Option) *InventoryEngine {
	return &InventoryEngine{seats: seats, events: events, deps: newDeps(opts)}
}

// PurchaseSeats sells every requested seat that is available, in the
// order given.  Seats that are missing, belong to another event or are
// not available end up in Rejected and are left untouched.  The sold
// subset commits as one unit.
func (e *InventoryEngine) PurchaseSeats(ctx context.Context, eventID int64, seatIDs []string) (model.PurchaseResult, error) {
	if len(seatIDs) == 0 {
		return model.PurchaseResult{}, &model.ValidationError{Field: "seats", Reason: "must not be empty"}
	}

	var result model.PurchaseResult
	err := e.seats.WithTx(ctx, func(txCtx context.Context) error {
		// Reset on every attempt: WithTx may rerun this after a deadlock.
		result = model.PurchaseResult{Sold: []string{}, Rejected: []string{}}

		if _, err := e.events.GetEvent(txCtx, eventID); err != nil {
			return err
		}
		for _, raw := range seatIDs {
			id := strings.TrimSpace(raw)
			sold, err := e.purchaseOne(txCtx, eventID, id)
			if err != nil {
				return err
			}
			if sold {
				result.Sold = append(result.Sold, id)
			} else {
				result.Rejected = append(result.Rejected, id)
			}
		}
		return nil
	})
	if err != nil {
		return model.PurchaseResult{}, err
	}

	e.logger.Info("seats purchased", "event_id", eventID, "sold", len(result.Sold), "unavailable", len(result.Rejected))
	if len(result.Sold) > 0 {
		e.notify(ctx, eventID, model.OpPurchase, model.StatusSold, result.Sold)
	}
	return result, nil
}

// purchaseOne resolves one seat: existence, then availability, then the
// compare-and-set.  Only storage failures are returned as errors.
func (e *InventoryEngine) purchaseOne(ctx context.Context, eventID int64, seatID string) (bool, error) {
	if seatID == "" {
		return false, nil
	}
	seat, err := e.seats.GetSeat(ctx, eventID, seatID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if seat.Status != model.StatusAvailable {
		return false, nil
	}
	return e.seats.CompareAndSetStatus(ctx, eventID, seatID, model.StatusAvailable, model.StatusSold)
}

// ValidateSeat moves a sold seat to validated.
func (e *InventoryEngine) ValidateSeat(ctx context.Context, eventID int64, seatID string) (model.Seat, error) {
	return e.transition(ctx, eventID, seatID, model.OpValidate)
}

// ToggleBlock flips a seat between available and blocked.
func (e *InventoryEngine) ToggleBlock(ctx context.Context, eventID int64, seatID string) (model.Seat, error) {
	return e.transition(ctx, eventID, seatID, model.OpToggleBlock)
}

// ReleaseSeat returns a sold seat to available.
func (e *InventoryEngine) ReleaseSeat(ctx context.Context, eventID int64, seatID string) (model.Seat, error) {
	return e.transition(ctx, eventID, seatID, model.OpRelease)
}

func (e *InventoryEngine) transition(ctx context.Context, eventID int64, seatID string, op model.Op) (model.Seat, error) {
	seatID = strings.TrimSpace(seatID)
	if seatID == "" {
		return model.Seat{}, &model.ValidationError{Field: "seat", Reason: "is required"}
	}

	var seat model.Seat
	err := e.seats.WithTx(ctx, func(txCtx context.Context) error {
		current, err := e.lookup(txCtx, eventID, seatID)
		if err != nil {
			return err
		}
		next, ok := model.Next(op, current.Status)
		if !ok {
			return &model.TransitionError{EventID: eventID, SeatID: seatID, Op: string(op), Current: current.Status}
		}
		swapped, err := e.seats.CompareAndSetStatus(txCtx, eventID, seatID, current.Status, next)
		if err != nil {
			return err
		}
		if !swapped {
			// Another caller changed the seat between the read and the
			// write; report what it is now.
			now, err := e.lookup(txCtx, eventID, seatID)
			if err != nil {
				return err
			}
			return &model.TransitionError{EventID: eventID, SeatID: seatID, Op: string(op), Current: now.Status}
		}
		current.Status = next
		seat = current
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			e.logger.Info("seat transition rejected", "event_id", eventID, "seat_id", seatID, "op", op, "err", err)
		}
		return model.Seat{}, err
	}

	e.logger.Info("seat transition", "event_id", eventID, "seat_id", seatID, "op", op, "status", seat.Status)
	e.notify(ctx, eventID, op, seat.Status, []string{seatID})
	return seat, nil
}

// lookup reads a seat and tells an unknown event apart from an unknown
// seat.
func (e *InventoryEngine) lookup(ctx context.Context, eventID int64, seatID string) (model.Seat, error) {
	seat, err := e.seats.GetSeat(ctx, eventID, seatID)
	if err == nil {
		return seat, nil
	}
	if errors.Is(err, model.ErrNotFound) {
		if _, evErr := e.events.GetEvent(ctx, eventID); evErr != nil {
			return model.Seat{}, evErr
		}
	}
	return model.Seat{}, err
}

// GetSeat is a point read.
func (e *InventoryEngine) GetSeat(ctx context.Context, eventID int64, seatID string) (model.Seat, error) {
	return e.lookup(ctx, eventID, strings.TrimSpace(seatID))
}

// ListSeats scans the seats of an event ordered by row then number.
func (e *InventoryEngine) ListSeats(ctx context.Context, eventID int64) ([]model.Seat, error) {
	var seats []model.Seat
	err := e.seats.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := e.events.GetEvent(txCtx, eventID); err != nil {
			return err
		}
		var err error
		seats, err = e.seats.ListSeats(txCtx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if seats == nil {
		seats = []model.Seat{}
	}
	return seats, nil
}
