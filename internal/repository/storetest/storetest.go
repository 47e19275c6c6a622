// Package storetest is a behavioural suite every SeatStore/EventStore
// pair must pass.  Each case provisions its own event, so the suite can
// run against a shared database.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/service"
)

// Run executes the suite against seats and events, which must share
// transactions.
func Run(t *testing.T, seats service.SeatStore, events service.EventStore) {
	s := suite{seats: seats, events: events}
	t.Run("provision and report", s.provisionAndReport)
	t.Run("compare and set", s.compareAndSet)
	t.Run("concurrent compare and set", s.concurrentCompareAndSet)
	t.Run("rollback", s.rollback)
	t.Run("duplicate insert", s.duplicateInsert)
	t.Run("reset and delete", s.resetAndDelete)
	t.Run("update and list events", s.updateAndList)
	t.Run("event isolation", s.isolation)
}

type suite struct {
	seats  service.SeatStore
	events service.EventStore
}

func (s suite) newEvent(t *testing.T, layout model.SeatLayout) int64 {
	t.Helper()
	ctx := context.Background()
	ev := model.Event{Name: "suite " + t.Name(), Date: time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC), Active: true}
	err := s.events.WithTx(ctx, func(ctx context.Context) error {
		if err := s.events.CreateEvent(ctx, &ev); err != nil {
			return err
		}
		return s.seats.InsertSeats(ctx, layout.Seats(ev.ID))
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_ = s.events.WithTx(ctx, func(ctx context.Context) error {
			if _, err := s.seats.DeleteSeats(ctx, ev.ID); err != nil {
				return err
			}
			return s.events.DeleteEvent(ctx, ev.ID)
		})
	})
	return ev.ID
}

func (s suite) provisionAndReport(t *testing.T) {
	ctx := context.Background()
	id := s.newEvent(t, model.DefaultLayout())

	counts, err := s.seats.CountByStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounts{model.StatusAvailable: 324}, counts)

	rows, err := s.seats.SummarizeRows(ctx, id)
	require.NoError(t, err)
	require.Len(t, rows, 21)
	assert.Equal(t, model.RowSummary{Row: "A", Total: 16}, rows[0])
	assert.Equal(t, model.RowSummary{Row: "U", Total: 13}, rows[20])

	seats, err := s.seats.ListSeats(ctx, id)
	require.NoError(t, err)
	require.Len(t, seats, 324)
	assert.Equal(t, "A1", seats[0].ID)
	assert.Equal(t, "A2", seats[1].ID)
	assert.Equal(t, model.Seat{ID: "U13", EventID: id, Row: "U", Number: 13, Status: model.StatusAvailable}, seats[323])
}

func (s suite) compareAndSet(t *testing.T) {
	ctx := context.Background()
	id := s.newEvent(t, model.SeatLayout{{Row: "A", Seats: 2}})

	ok, err := s.seats.CompareAndSetStatus(ctx, id, "A1", model.StatusAvailable, model.StatusSold)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.seats.CompareAndSetStatus(ctx, id, "A1", model.StatusAvailable, model.StatusSold)
	require.NoError(t, err)
	assert.False(t, ok)

	seat, err := s.seats.GetSeat(ctx, id, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSold, seat.Status)

	_, err = s.seats.GetSeat(ctx, id, "A9")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.seats.CompareAndSetStatus(ctx, id, "A2", model.StatusAvailable, model.SeatStatus("free"))
	assert.ErrorIs(t, err, model.ErrValidation)

	rows, err := s.seats.SummarizeRows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []model.RowSummary{{Row: "A", Total: 2, Sold: 1, Validated: 0}}, rows)
}

func (s suite) concurrentCompareAndSet(t *testing.T) {
	ctx := context.Background()
	id := s.newEvent(t, model.SeatLayout{{Row: "A", Seats: 1}})

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.seats.WithTx(ctx, func(ctx context.Context) error {
				ok, err := s.seats.CompareAndSetStatus(ctx, id, "A1", model.StatusAvailable, model.StatusSold)
				if err != nil || !ok {
					return err
				}
				mu.Lock()
				wins++
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func (s suite) rollback(t *testing.T) {
	ctx := context.Background()
	id := s.newEvent(t, model.SeatLayout{{Row: "A", Seats: 2}})
	boom := errors.New("boom")

	err := s.seats.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.seats.CompareAndSetStatus(ctx, id, "A1", model.StatusAvailable, model.StatusSold)
		require.NoError(t, err)
		require.True(t, ok)
		_, err = s.seats.SetAllStatus(ctx, id, model.StatusBlocked)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	counts, err := s.seats.CountByStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounts{model.StatusAvailable: 2}, counts)
}

func (s suite) duplicateInsert(t *testing.T) {
	ctx := context.Background()
	id := s.newEvent(t, model.SeatLayout{{Row: "A", Seats: 1}})

	err := s.seats.InsertSeats(ctx, []model.Seat{{ID: "A1", EventID: id, Row: "A", Number: 1, Status: model.StatusAvailable}})
	assert.ErrorIs(t, err, model.ErrValidation)

	err = s.seats.InsertSeats(ctx, []model.Seat{{ID: "B1", EventID: id, Row: "B", Number: 1, Status: "reserved"}})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func (s suite) resetAndDelete(t *testing.T) {
	ctx := context.Background()
	id := s.newEvent(t, model.SeatLayout{{Row: "A", Seats: 3}})

	_, err := s.seats.CompareAndSetStatus(ctx, id, "A1", model.StatusAvailable, model.StatusBlocked)
	require.NoError(t, err)
	_, err = s.seats.CompareAndSetStatus(ctx, id, "A2", model.StatusAvailable, model.StatusSold)
	require.NoError(t, err)

	n, err := s.seats.SetAllStatus(ctx, id, model.StatusAvailable)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	counts, err := s.seats.CountByStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounts{model.StatusAvailable: 3}, counts)

	err = s.events.WithTx(ctx, func(ctx context.Context) error {
		removed, err := s.seats.DeleteSeats(ctx, id)
		if err != nil {
			return err
		}
		assert.EqualValues(t, 3, removed)
		return s.events.DeleteEvent(ctx, id)
	})
	require.NoError(t, err)

	_, err = s.events.GetEvent(ctx, id)
	assert.ErrorIs(t, err, model.ErrNotFound)
	seats, err := s.seats.ListSeats(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, seats)
	assert.ErrorIs(t, s.events.DeleteEvent(ctx, id), model.ErrNotFound)
}

func (s suite) updateAndList(t *testing.T) {
	ctx := context.Background()
	id := s.newEvent(t, model.SeatLayout{{Row: "A", Seats: 1}})

	ev, err := s.events.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-09", ev.DateString())
	assert.True(t, ev.Active)

	ev.Name = "renamed"
	ev.Active = false
	ev.Date = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.events.UpdateEvent(ctx, ev))

	got, err := s.events.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, "2026-01-02", got.DateString())
	assert.False(t, got.Active)

	// Writing identical values is not a miss.
	require.NoError(t, s.events.UpdateEvent(ctx, got))
	assert.ErrorIs(t, s.events.UpdateEvent(ctx, model.Event{ID: id + 1_000_000, Name: "x"}), model.ErrNotFound)

	all, err := s.events.ListEvents(ctx)
	require.NoError(t, err)
	found := false
	for _, e := range all {
		found = found || e.ID == id
	}
	assert.True(t, found)
}

func (s suite) isolation(t *testing.T) {
	ctx := context.Background()
	layout := model.SeatLayout{{Row: "A", Seats: 1}}
	first := s.newEvent(t, layout)
	second := s.newEvent(t, layout)

	ok, err := s.seats.CompareAndSetStatus(ctx, first, "A1", model.StatusAvailable, model.StatusSold)
	require.NoError(t, err)
	require.True(t, ok)

	seat, err := s.seats.GetSeat(ctx, second, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, seat.Status)
}
