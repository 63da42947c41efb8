package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
	"github.com/iliyamo/line-seat-reservation/internal/logging"
)

// bookingError writes the JSON response for an error returned by the
// booking service.  Domain errors become 4xx responses; anything else is
// logged and reported as 500 without its details.
func bookingError(c echo.Context, err error) error {
	var (
		invalid  *booking.InvalidItineraryError
		unknown  *booking.UnknownStopError
		noRoute  *booking.RouteNotFoundError
		mismatch *booking.PriceMismatchError
		capacity *booking.InsufficientCapacityError
		conflict *booking.AllocationConflictError
		verrs    validator.ValidationErrors
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &unknown), errors.Is(err, booking.ErrInvalidPassengerCount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.As(err, &verrs):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fieldErrors(verrs)})
	case errors.As(err, &mismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":    "price confirmation mismatch",
			"expected": mismatch.Expected.StringFixed(2),
			"received": mismatch.Confirmed.StringFixed(2),
		})
	case errors.As(err, &noRoute), errors.Is(err, booking.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.As(err, &capacity):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "not enough seats available",
			"requested": capacity.Requested,
			"available": capacity.Available,
		})
	case errors.As(err, &conflict):
		logging.LogError(logging.FromContext(c.Request().Context()), "allocation conflict", err)
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation could not be completed, please retry"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request timed out"})
	default:
		logging.LogError(logging.FromContext(c.Request().Context()), "request failed", err,
			slog.String("path", c.Path()))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// fieldErrors flattens validator errors into field -> failed tag.
func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
