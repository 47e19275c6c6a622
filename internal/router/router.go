package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-inventory/internal/handler"
)

// RegisterRoutes registers the unversioned operational routes.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// Middleware groups the optional middleware of the /v1 routes.  A nil
// field is skipped.
type Middleware struct {
	RateLimit  echo.MiddlewareFunc // every /v1 route
	Cache      echo.MiddlewareFunc // catalog reads
	Invalidate echo.MiddlewareFunc // catalog writes
}

// RegisterInventory registers the event, seat and report routes.  Seat
// and report reads are never cached: they change with every sale.
func RegisterInventory(e *echo.Echo, h *handler.InventoryHandler, mw Middleware) {
	v1 := e.Group("/v1", optional(mw.RateLimit)...)

	cached := optional(mw.Cache)
	invalidate := optional(mw.Invalidate)

	// Catalog
	v1.GET("/events", h.ListEvents, cached...)
	v1.POST("/events", h.CreateEvent, invalidate...)
	v1.GET("/events/:id", h.GetEvent, cached...)
	v1.PATCH("/events/:id", h.UpdateEvent, invalidate...)
	v1.DELETE("/events/:id", h.DeleteEvent, invalidate...)
	v1.POST("/events/:id/reset", h.ResetEvent)

	// Seats
	v1.GET("/events/:id/seats", h.ListSeats)
	v1.GET("/events/:id/seats/:seat", h.GetSeat)
	v1.POST("/events/:id/purchase", h.Purchase)
	v1.POST("/events/:id/seats/:seat/validate", h.ValidateSeat)
	v1.POST("/events/:id/seats/:seat/toggle-block", h.ToggleBlock)
	v1.POST("/events/:id/seats/:seat/release", h.ReleaseSeat)

	// Reports
	v1.GET("/events/:id/report", h.Report)
	v1.GET("/events/:id/export.csv", h.ExportCSV)
}

func optional(m echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if m == nil {
		return nil
	}
	return []echo.MiddlewareFunc{m}
}
