package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
	"github.com/iliyamo/line-seat-reservation/internal/logging"
	"github.com/iliyamo/line-seat-reservation/internal/model"
	"github.com/iliyamo/line-seat-reservation/internal/queue"
)

// EventPublisher receives reservation events after commit.
type EventPublisher interface {
	PublishReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// ReservationHandler serves the availability and reservation endpoints.
type ReservationHandler struct {
	Service *booking.Service
	Events  EventPublisher // optional
	Timeout time.Duration
}

// NewReservationHandler returns a handler over svc.  events may be nil.
func NewReservationHandler(svc *booking.Service, events EventPublisher) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Service: svc, Events: events, Timeout: 10 * time.Second}
}

// ----- DTOs -----

type availabilityReq struct {
	PassengerCount int    `json:"passenger_count" query:"passenger_count" validate:"required,min=1,max=40"`
	Origin         string `json:"origin" query:"origin" validate:"required"`
	Destination    string `json:"destination" query:"destination" validate:"required"`
}

type reserveReq struct {
	PassengerCount    int              `json:"passenger_count" validate:"required,min=1,max=40"`
	Origin            string           `json:"origin" validate:"required"`
	Destination       string           `json:"destination" validate:"required"`
	PriceConfirmation *decimal.Decimal `json:"price_confirmation" validate:"required"`
}

type reservationResp struct {
	ReservationNumber string          `json:"reservation_number"`
	Origin            model.Stop      `json:"departure_location"`
	Destination       model.Stop      `json:"arrival_location"`
	PassengerCount    int             `json:"passenger_count"`
	SeatNumbers       []string        `json:"seat_numbers"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toReservationResp(r model.Reservation) reservationResp {
	return reservationResp{
		ReservationNumber: r.Number,
		Origin:            r.Origin,
		Destination:       r.Destination,
		PassengerCount:    r.PassengerCount,
		SeatNumbers:       model.SeatNumbers(r.Seats),
		TotalPrice:        r.TotalPrice,
		CreatedAt:         r.CreatedAt,
	}
}

func (h *ReservationHandler) context(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.Timeout)
}

// CheckAvailability handles POST /api/v1/reservations/check-availability.
func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	return h.availability(c)
}

// QueryAvailability handles GET /api/v1/reservations/availability with the
// same fields as query parameters.  Responses may be served from cache.
func (h *ReservationHandler) QueryAvailability(c echo.Context) error {
	return h.availability(c)
}

func (h *ReservationHandler) availability(c echo.Context) error {
	var req availabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return bookingError(c, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()
	res, err := h.Service.CheckAvailability(ctx, req.PassengerCount, model.Stop(req.Origin), model.Stop(req.Destination))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Reserve handles POST /api/v1/reservations/reserve.  On success it
// hands a reservation.confirmed event to the publisher and answers 201.
// The publisher only enqueues, so the broker never delays the response.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return bookingError(c, err)
	}
	if !req.PriceConfirmation.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"fields": map[string]string{"price_confirmation": "gt"},
		})
	}

	ctx, cancel := h.context(c)
	defer cancel()
	res, err := h.Service.Reserve(ctx, req.PassengerCount, model.Stop(req.Origin), model.Stop(req.Destination), *req.PriceConfirmation)
	if err != nil {
		return bookingError(c, err)
	}

	if h.Events != nil {
		h.publish(c, res)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *ReservationHandler) publish(c echo.Context, res *booking.ReservationResult) {
	logger := logging.FromContext(c.Request().Context())
	// The commit is done; a cancelled request must not drop the event.
	ctx := context.WithoutCancel(c.Request().Context())
	if err := h.Events.PublishReservationConfirmed(ctx, queue.NewReservationConfirmed(res.Reservation)); err != nil {
		logging.LogError(logger, "reservation event not published", err, slog.String("reservation_number", res.ReservationNumber))
	}
}

// ListReservations handles GET /api/v1/reservations (operators only).
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()
	list, err := h.Service.Reservations(ctx)
	if err != nil {
		return bookingError(c, err)
	}
	out := make([]reservationResp, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out, "count": len(out)})
}

// GetReservation handles GET /api/v1/reservations/:number (operators only).
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	number := c.Param("number")
	if number == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation number is required"})
	}
	ctx, cancel := h.context(c)
	defer cancel()
	r, err := h.Service.Reservation(ctx, number)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(r))
}
