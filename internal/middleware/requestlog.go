package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/line-seat-reservation/internal/logging"
)

// RequestLogger tags every request with an ID, puts a request-scoped
// logger into the request context and logs the outcome once the handler
// returns.  Incoming X-Request-ID headers are reused.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			logger := base.With(slog.String("request_id", id))
			c.SetRequest(req.WithContext(logging.WithLogger(req.Context(), logger)))

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the logged status is final.
				c.Error(err)
			}
			logging.LogHTTPRequest(logger, req.Method, c.Path(), c.Response().Status,
				float64(time.Since(start).Microseconds())/1000,
				slog.String("remote_ip", c.RealIP()))
			return nil
		}
	}
}
