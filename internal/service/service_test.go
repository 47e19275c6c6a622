package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/queue"
	"github.com/iliyamo/seat-inventory/internal/repository/memory"
)

// mockNotifier records published seat changes.
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifySeatsChanged(ctx context.Context, ev queue.SeatChangedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type fixture struct {
	store   *memory.Store
	catalog *EventCatalog
	engine  *InventoryEngine
	reports *ReportAggregator
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	store := memory.NewStore()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return fixture{
		store:   store,
		catalog: NewEventCatalog(store, store, opts...),
		engine:  NewInventoryEngine(store, store, opts...),
		reports: NewReportAggregator(store, store, opts...),
	}
}

// createEvent provisions an event with the given layout, or the default
// auditorium when layout is nil.
func (f fixture) createEvent(t *testing.T, layout model.SeatLayout) int64 {
	t.Helper()
	ev, err := f.catalog.CreateEvent(context.Background(), CreateEventInput{Name: "Concert", Date: "2025-06-01", Layout: layout})
	require.NoError(t, err)
	return ev.ID
}

func (f fixture) status(t *testing.T, eventID int64, seatID string) model.SeatStatus {
	t.Helper()
	seat, err := f.engine.GetSeat(context.Background(), eventID, seatID)
	require.NoError(t, err)
	return seat.Status
}
