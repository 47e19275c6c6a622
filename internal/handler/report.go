package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/service"
)

type reportResponse struct {
	EventID int64              `json:"event_id"`
	Counts  model.StatusCounts `json:"counts"`
	ByRow   []model.RowSummary `json:"by_row"`
}

// Report handles GET /v1/events/:id/report.
func (h *InventoryHandler) Report(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ctx := c.Request().Context()
	counts, err := h.Reports.StatusCounts(ctx, id)
	if err != nil {
		return h.writeError(c, err)
	}
	rows, err := h.Reports.RowSummary(ctx, id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, reportResponse{EventID: id, Counts: counts, ByRow: rows})
}

// ExportCSV handles GET /v1/events/:id/export.csv.
func (h *InventoryHandler) ExportCSV(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	seats, err := h.Inventory.ListSeats(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="event-`+strconv.FormatInt(id, 10)+`-seats.csv"`)
	res.WriteHeader(http.StatusOK)
	return service.WriteSeatsCSV(res, seats)
}
