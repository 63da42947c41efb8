package model

// Seat describes a physical seat on the vehicle.  Seats are shared by
// every segment of the line; whether a seat is free depends on the
// segments of the reservations that already hold it.  Seats are created
// once at provisioning and never deleted.
//
// Fields:
//  ID     – primary key identifier, also the stable allocation order.
//  Number – printed seat number (e.g. "12A").
type Seat struct {
	ID     uint64 `json:"id"`          // seats.id
	Number string `json:"seat_number"` // seats.seat_number
}

// SeatNumbers returns the printed numbers of the given seats, keeping
// their order.
func SeatNumbers(seats []Seat) []string {
	out := make([]string, 0, len(seats))
	for _, s := range seats {
		out = append(out, s.Number)
	}
	return out
}
