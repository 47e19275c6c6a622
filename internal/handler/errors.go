package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-inventory/internal/model"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	Field         string `json:"field,omitempty"`
	Seat          string `json:"seat,omitempty"`
	CurrentStatus string `json:"current_status,omitempty"`
}

// writeError maps the error taxonomy onto HTTP statuses: validation 400,
// not found 404, invalid transition 409, storage 503, anything else 500.
func (h *InventoryHandler) writeError(c echo.Context, err error) error {
	var (
		vErr  *model.ValidationError
		nfErr *model.NotFoundError
		tErr  *model.TransitionError
	)
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, errorBody{Error: vErr.Error(), Code: "validation_failed", Field: vErr.Field})
	case errors.As(err, &nfErr):
		return c.JSON(http.StatusNotFound, errorBody{Error: nfErr.Error(), Code: "not_found", Seat: nfErr.SeatID})
	case errors.As(err, &tErr):
		return c.JSON(http.StatusConflict, errorBody{
			Error:         tErr.Error(),
			Code:          "invalid_transition",
			Seat:          tErr.SeatID,
			CurrentStatus: string(tErr.Current),
		})
	case errors.Is(err, model.ErrStorage):
		h.Logger.Error("storage failure", "method", c.Request().Method, "path", c.Request().URL.Path, "err", err)
		return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "storage unavailable, retry later", Code: "storage_unavailable"})
	default:
		h.Logger.Error("unhandled error", "method", c.Request().Method, "path", c.Request().URL.Path, "err", err)
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
	}
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: msg, Code: "validation_failed"})
}
