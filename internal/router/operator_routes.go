package router

// This file registers operator routes for inspecting committed
// reservations.  They require a valid JWT carrying the OPERATOR role.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/line-seat-reservation/internal/handler"
	"github.com/iliyamo/line-seat-reservation/internal/middleware"
)

// RegisterOperator mounts the operator-only reservation endpoints.  The
// middlewares are attached per route so that unknown paths under the
// prefix still answer 404 instead of 401.
func RegisterOperator(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleOperator),
	}
	g := e.Group(APIPrefix)
	g.GET("/reservations", h.ListReservations, auth...)
	g.GET("/reservations/:number", h.GetReservation, auth...)
}
