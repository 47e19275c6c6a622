package service

import (
	"context"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// ReportAggregator derives counts from the seat table on every call.  It
// never writes and keeps no state between calls.
type ReportAggregator struct {
	seats  SeatStore
	events EventReader
	deps
}

func NewReportAggregator(seats SeatStore, events EventReader, opts ...Option) *ReportAggregator {
	return &ReportAggregator{seats: seats, events: events, deps: newDeps(opts)}
}

// StatusCounts counts the seats of the event per status.  Statuses no
// seat is in are absent.
func (r *ReportAggregator) StatusCounts(ctx context.Context, eventID int64) (model.StatusCounts, error) {
	var counts model.StatusCounts
	err := r.events.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := r.events.GetEvent(txCtx, eventID); err != nil {
			return err
		}
		var err error
		counts, err = r.seats.CountByStatus(txCtx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	for status, n := range counts {
		if n == 0 {
			delete(counts, status)
		}
	}
	return counts, nil
}

// RowSummary returns one entry per row ordered by row label.
func (r *ReportAggregator) RowSummary(ctx context.Context, eventID int64) ([]model.RowSummary, error) {
	var rows []model.RowSummary
	err := r.events.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := r.events.GetEvent(txCtx, eventID); err != nil {
			return err
		}
		var err error
		rows, err = r.seats.SummarizeRows(txCtx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.RowSummary{}
	}
	return rows, nil
}
