package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-inventory/internal/model"
)

type purchaseRequest struct {
	Seats []string `json:"seats"`
}

// ListSeats handles GET /v1/events/:id/seats.
func (h *InventoryHandler) ListSeats(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	seats, err := h.Inventory.ListSeats(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, seats)
}

// GetSeat handles GET /v1/events/:id/seats/:seat.
func (h *InventoryHandler) GetSeat(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	seat, err := h.Inventory.GetSeat(c.Request().Context(), id, seatParam(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, seat)
}

// Purchase handles POST /v1/events/:id/purchase.  It answers 200 even
// when some or all seats are unavailable; the body tells which.
func (h *InventoryHandler) Purchase(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var body purchaseRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	ids := make([]string, len(body.Seats))
	for i, s := range body.Seats {
		ids[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	res, err := h.Inventory.PurchaseSeats(c.Request().Context(), id, ids)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ValidateSeat handles POST /v1/events/:id/seats/:seat/validate.
func (h *InventoryHandler) ValidateSeat(c echo.Context) error {
	return h.seatTransition(c, h.Inventory.ValidateSeat)
}

// ToggleBlock handles POST /v1/events/:id/seats/:seat/toggle-block.
func (h *InventoryHandler) ToggleBlock(c echo.Context) error {
	return h.seatTransition(c, h.Inventory.ToggleBlock)
}

// ReleaseSeat handles POST /v1/events/:id/seats/:seat/release.
func (h *InventoryHandler) ReleaseSeat(c echo.Context) error {
	return h.seatTransition(c, h.Inventory.ReleaseSeat)
}

func (h *InventoryHandler) seatTransition(c echo.Context, apply func(context.Context, int64, string) (model.Seat, error)) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	seat, err := apply(c.Request().Context(), id, seatParam(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, seat)
}
