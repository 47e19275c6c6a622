package handler

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/service"
)

// Catalog is the event side of the API.
type Catalog interface {
	CreateEvent(ctx context.Context, in service.CreateEventInput) (model.Event, error)
	UpdateEvent(ctx context.Context, id int64, patch model.EventPatch) (model.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	ResetEvent(ctx context.Context, id int64) (int64, error)
	GetEvent(ctx context.Context, id int64) (model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
}

// Inventory is the seat side of the API.
type Inventory interface {
	PurchaseSeats(ctx context.Context, eventID int64, seatIDs []string) (model.PurchaseResult, error)
	ValidateSeat(ctx context.Context, eventID int64, seatID string) (model.Seat, error)
	ToggleBlock(ctx context.Context, eventID int64, seatID string) (model.Seat, error)
	ReleaseSeat(ctx context.Context, eventID int64, seatID string) (model.Seat, error)
	GetSeat(ctx context.Context, eventID int64, seatID string) (model.Seat, error)
	ListSeats(ctx context.Context, eventID int64) ([]model.Seat, error)
}

// Reports is the read-only aggregation side of the API.
type Reports interface {
	StatusCounts(ctx context.Context, eventID int64) (model.StatusCounts, error)
	RowSummary(ctx context.Context, eventID int64) ([]model.RowSummary, error)
}

// InventoryHandler bundles the services behind the /v1/events routes.
type InventoryHandler struct {
	Catalog   Catalog
	Inventory Inventory
	Reports   Reports
	// Layout is provisioned when a create request carries none.  nil
	// means model.DefaultLayout.
	Layout model.SeatLayout
	Logger *slog.Logger
}

// NewInventoryHandler panics if a service is nil.  A nil logger means
// slog.Default.
func NewInventoryHandler(catalog Catalog, inventory Inventory, reports Reports, layout model.SeatLayout, logger *slog.Logger) *InventoryHandler {
	if catalog == nil || inventory == nil || reports == nil {
		panic("nil service passed to NewInventoryHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryHandler{Catalog: catalog, Inventory: inventory, Reports: reports, Layout: layout, Logger: logger}
}

// eventID parses the :id path parameter.
func eventID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// seatParam normalises the :seat path parameter ("a5" -> "A5").
func seatParam(c echo.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("seat")))
}
