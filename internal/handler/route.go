package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
)

// RouteHandler lists the stops and priced routes of the line.
type RouteHandler struct {
	Service *booking.Service
}

// NewRouteHandler returns a RouteHandler over svc.
func NewRouteHandler(svc *booking.Service) *RouteHandler { return &RouteHandler{Service: svc} }

// ListRoutes handles GET /api/v1/routes.
func (h *RouteHandler) ListRoutes(c echo.Context) error {
	routes, err := h.Service.Routes(c.Request().Context())
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stops": h.Service.Stops(), "routes": routes})
}
