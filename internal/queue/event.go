// Package queue defines the reservation events exchanged over RabbitMQ and
// the consumer that records them.
package queue

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// ReservationConfirmedQueue is the durable queue reservation events go to.
const ReservationConfirmedQueue = "reservation.confirmed"

// ReservationConfirmedEvent is published after a reservation commits.  It
// carries enough for consumers to log or notify without reading the
// database.
type ReservationConfirmedEvent struct {
	ReservationNumber string          `json:"reservation_number"`
	Origin            model.Stop      `json:"departure_location"`
	Destination       model.Stop      `json:"arrival_location"`
	PassengerCount    int             `json:"passenger_count"`
	SeatNumbers       []string        `json:"seat_numbers"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	ConfirmedAt       string          `json:"confirmed_at"`
}

// NewReservationConfirmed builds the event for a committed reservation.
func NewReservationConfirmed(res model.Reservation) ReservationConfirmedEvent {
	at := res.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	return ReservationConfirmedEvent{
		ReservationNumber: res.Number,
		Origin:            res.Origin,
		Destination:       res.Destination,
		PassengerCount:    res.PassengerCount,
		SeatNumbers:       model.SeatNumbers(res.Seats),
		TotalPrice:        res.TotalPrice,
		ConfirmedAt:       at.UTC().Format(time.RFC3339),
	}
}
