package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation records a committed booking of one or more seats for a
// directed segment of the line.  Reservations are immutable once they
// have been created; there is no cancellation.
//
// Fields:
//  ID             – primary key identifier.
//  Number         – unique public reservation number (RES-...).
//  Origin         – departure stop.
//  Destination    – arrival stop.
//  PassengerCount – number of passengers (equals len(Seats)).
//  TotalPrice     – route price multiplied by PassengerCount.
//  Seats          – seats held by the reservation, in allocation order.
//  CreatedAt      – creation timestamp.
type Reservation struct {
	ID             uint64          `json:"id"`                 // reservations.id
	Number         string          `json:"reservation_number"` // reservations.reservation_number
	Origin         Stop            `json:"origin"`             // reservations.from_location
	Destination    Stop            `json:"destination"`        // reservations.to_location
	PassengerCount int             `json:"passenger_count"`    // reservations.passenger_count
	TotalPrice     decimal.Decimal `json:"total_price"`        // reservations.total_price
	Seats          []Seat          `json:"seats"`              // reservation_seats
	CreatedAt      time.Time       `json:"created_at"`         // reservations.created_at
}

// Segment returns the directed segment booked by the reservation.
func (r Reservation) Segment() Segment { return NewSegment(r.Origin, r.Destination) }
