package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/line-seat-reservation/internal/handler"
)

// APIPrefix is the path prefix of every versioned endpoint.
const APIPrefix = "/api/v1"

// RegisterRoutes registers routes that sit outside the versioned API.
// Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterAuth registers the operator login endpoint.  Login is rate
// limited like the public API.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	e.POST(APIPrefix+"/auth/login", a.Login, limit)
}

// RegisterPublic registers the unauthenticated booking endpoints.  limit
// applies to all of them; cache wraps only the read-only browse endpoints
// so reservation commits always reach the ledger.
func RegisterPublic(e *echo.Echo, r *handler.ReservationHandler, routes *handler.RouteHandler, limit, cache echo.MiddlewareFunc) {
	g := e.Group(APIPrefix)
	g.GET("/routes", routes.ListRoutes, limit, cache)
	g.GET("/reservations/availability", r.QueryAvailability, limit, cache)
	g.POST("/reservations/check-availability", r.CheckAvailability, limit)
	g.POST("/reservations/reserve", r.Reserve, limit)
}
