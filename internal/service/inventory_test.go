package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/queue"
)

func TestPurchaseSeats_PartialFill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createEvent(t, model.SeatLayout{{Row: "A", Seats: 5}})

	_, err := f.engine.PurchaseSeats(ctx, id, []string{"A2"})
	require.NoError(t, err)

	res, err := f.engine.PurchaseSeats(ctx, id, []string{"A1", "A2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, res.Sold)
	assert.Equal(t, []string{"A2"}, res.Rejected)
	assert.Equal(t, model.StatusSold, f.status(t, id, "A1"))
}

func TestPurchaseSeats_KeepsCallerOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createEvent(t, model.SeatLayout{{Row: "A", Seats: 5}})

	_, err := f.engine.ToggleBlock(ctx, id, "A3")
	require.NoError(t, err)

	res, err := f.engine.PurchaseSeats(ctx, id, []string{"A5", "Z1", "A3", "A1", "A5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A5", "A1"}, res.Sold)
	assert.Equal(t, []string{"Z1", "A3", "A5"}, res.Rejected, "missing, blocked and repeated ids are rejected")
	assert.Equal(t, model.StatusBlocked, f.status(t, id, "A3"))
}

func TestPurchaseSeats_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createEvent(t, model.SeatLayout{{Row: "A", Seats: 1}})

	_, err := f.engine.PurchaseSeats(ctx, id, nil)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.engine.PurchaseSeats(ctx, id+100, []string{"A1"})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, model.StatusAvailable, f.status(t, id, "A1"))
}

func TestPurchaseSeats_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createEvent(t, nil)

	const callers = 32
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sold     int
		rejected int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.engine.PurchaseSeats(ctx, id, []string{"A1"})
			assert.NoError(t, err)
			mu.Lock()
			sold += len(res.Sold)
			rejected += len(res.Rejected)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, sold)
	assert.Equal(t, callers-1, rejected)
	assert.Equal(t, model.StatusSold, f.status(t, id, "A1"))
}

func TestPurchaseSeats_CrossEventIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	layout := model.SeatLayout{{Row: "A", Seats: 2}}
	first := f.createEvent(t, layout)
	second := f.createEvent(t, layout)

	res, err := f.engine.PurchaseSeats(ctx, first, []string{"A1"})
	require.NoError(t, err)
	require.Equal(t, []string{"A1"}, res.Sold)

	assert.Equal(t, model.StatusAvailable, f.status(t, second, "A1"))
	counts, err := f.reports.StatusCounts(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounts{model.StatusAvailable: 2}, counts)
}

func TestValidateSeat_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createEvent(t, model.SeatLayout{{Row: "A", Seats: 1}})
	_, err := f.engine.PurchaseSeats(ctx, id, []string{"A1"})
	require.NoError(t, err)

	seat, err := f.engine.ValidateSeat(ctx, id, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusValidated, seat.Status)

	_, err = f.engine.ValidateSeat(ctx, id, "A1")
	require.ErrorIs(t, err, model.ErrInvalidTransition)
	var tErr *model.TransitionError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, model.StatusValidated, tErr.Current)
	assert.Equal(t, "A1", tErr.SeatID)
	assert.Equal(t, model.StatusValidated, f.status(t, id, "A1"))
}

func TestSingleSeatTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createEvent(t, model.SeatLayout{{Row: "A", Seats: 2}})

	// available -> blocked -> available
	seat, err := f.engine.ToggleBlock(ctx, id, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusBlocked, seat.Status)
	_, err = f.engine.ValidateSeat(ctx, id, "A1")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	seat, err = f.engine.ToggleBlock(ctx, id, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, seat.Status)

	// sold cannot be blocked, only released or validated
	_, err = f.engine.PurchaseSeats(ctx, id, []string{"A2"})
	require.NoError(t, err)
	_, err = f.engine.ToggleBlock(ctx, id, "A2")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	seat, err = f.engine.ReleaseSeat(ctx, id, "A2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, seat.Status)
	_, err = f.engine.ReleaseSeat(ctx, id, "A2")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	// unknown seat and unknown event are both not found
	_, err = f.engine.ValidateSeat(ctx, id, "Q1")
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Q1", nf.SeatID)

	_, err = f.engine.ValidateSeat(ctx, id+1, "A1")
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, nf.SeatID)

	_, err = f.engine.ToggleBlock(ctx, id, "  ")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestListSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createEvent(t, model.SeatLayout{{Row: "B", Seats: 1}, {Row: "A", Seats: 2}})

	seats, err := f.engine.ListSeats(ctx, id)
	require.NoError(t, err)
	require.Len(t, seats, 3)
	assert.Equal(t, "A1", seats[0].ID)
	assert.Equal(t, "A2", seats[1].ID)
	assert.Equal(t, "B1", seats[2].ID)

	_, err = f.engine.ListSeats(ctx, id+1)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestNotifierReceivesCommittedChanges(t *testing.T) {
	n := &mockNotifier{}
	f := newFixture(t, WithNotifier(n))
	ctx := context.Background()
	id := f.createEvent(t, model.SeatLayout{{Row: "A", Seats: 2}})

	n.On("NotifySeatsChanged", mock.Anything, mock.MatchedBy(func(ev queue.SeatChangedEvent) bool {
		return ev.EventID == id && ev.Op == "purchase" && ev.Status == "sold" && len(ev.Seats) == 1 && ev.Seats[0] == "A1"
	})).Return(nil).Once()
	n.On("NotifySeatsChanged", mock.Anything, mock.MatchedBy(func(ev queue.SeatChangedEvent) bool {
		return ev.Op == "validate" && ev.Status == "validated"
	})).Return(errors.New("broker down")).Once()

	_, err := f.engine.PurchaseSeats(ctx, id, []string{"A1"})
	require.NoError(t, err)
	_, err = f.engine.ValidateSeat(ctx, id, "A1")
	require.NoError(t, err, "publish failures never fail the operation")

	// A purchase that sells nothing and a rejected transition publish nothing.
	_, err = f.engine.PurchaseSeats(ctx, id, []string{"A1"})
	require.NoError(t, err)
	_, err = f.engine.ValidateSeat(ctx, id, "A2")
	require.Error(t, err)

	n.AssertExpectations(t)
	n.AssertNumberOfCalls(t, "NotifySeatsChanged", 2)
}
