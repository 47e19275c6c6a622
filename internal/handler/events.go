package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-inventory/internal/model"
	"github.com/iliyamo/seat-inventory/internal/service"
)

// eventResponse is the wire form of model.Event with the date rendered
// as YYYY-MM-DD.
type eventResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Date   string `json:"date"`
	Active bool   `json:"active"`
}

func toEventResponse(e model.Event) eventResponse {
	return eventResponse{ID: e.ID, Name: e.Name, Date: e.DateString(), Active: e.Active}
}

type createEventRequest struct {
	Name   string          `json:"name"`
	Date   string          `json:"date"`
	Layout []model.RowSpec `json:"layout"`
}

type updateEventRequest struct {
	Name   *string `json:"name"`
	Date   *string `json:"date"`
	Active *bool   `json:"active"`
}

// ListEvents handles GET /v1/events.
func (h *InventoryHandler) ListEvents(c echo.Context) error {
	events, err := h.Catalog.ListEvents(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return c.JSON(http.StatusOK, out)
}

// GetEvent handles GET /v1/events/:id.
func (h *InventoryHandler) GetEvent(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	e, err := h.Catalog.GetEvent(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// CreateEvent handles POST /v1/events and provisions the seat map.
func (h *InventoryHandler) CreateEvent(c echo.Context) error {
	var body createEventRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	layout := h.Layout
	if len(body.Layout) > 0 {
		layout = model.SeatLayout(body.Layout)
	}
	e, err := h.Catalog.CreateEvent(c.Request().Context(), service.CreateEventInput{
		Name:   body.Name,
		Date:   body.Date,
		Layout: layout,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// UpdateEvent handles PATCH /v1/events/:id.  Omitted fields keep their
// value.
func (h *InventoryHandler) UpdateEvent(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var body updateEventRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	patch := model.EventPatch{Name: body.Name, Active: body.Active}
	if body.Date != nil {
		d, err := model.ParseDate(*body.Date)
		if err != nil {
			return h.writeError(c, err)
		}
		patch.Date = &d
	}
	e, err := h.Catalog.UpdateEvent(c.Request().Context(), id, patch)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// DeleteEvent handles DELETE /v1/events/:id.
func (h *InventoryHandler) DeleteEvent(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	if err := h.Catalog.DeleteEvent(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetEvent handles POST /v1/events/:id/reset.
func (h *InventoryHandler) ResetEvent(c echo.Context) error {
	id, ok := eventID(c)
	if !ok {
		return badRequest(c, "invalid event id")
	}
	n, err := h.Catalog.ResetEvent(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"event_id": id, "seats": n, "status": model.StatusAvailable})
}
