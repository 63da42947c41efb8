package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// ReservationRepo provides access to reservations and their seats.
// Reservations are stored in the reservations table; the seats held by a
// reservation are stored in reservation_seats with their allocation
// position.  All timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// reservationSelect joins every reservation with its seats.  Rows come out
// grouped by reservation and, inside a reservation, in allocation order.
const reservationSelect = `SELECT r.id, r.reservation_number, r.from_location, r.to_location,
                                  r.passenger_count, r.total_price, r.created_at,
                                  s.id, s.seat_number
                           FROM reservations r
                           JOIN reservation_seats rs ON rs.reservation_id = r.id
                           JOIN seats s ON s.id = rs.seat_id`

// ListAll returns every committed reservation ordered by ID.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return scanReservations(ctx, r.db, reservationSelect+` ORDER BY r.id, rs.position`)
}

// ListAllTx is ListAll inside an existing transaction.
func (r *ReservationRepo) ListAllTx(ctx context.Context, tx *sql.Tx) ([]model.Reservation, error) {
	return scanReservations(ctx, tx, reservationSelect+` ORDER BY r.id, rs.position`)
}

// GetByNumber returns the reservation with the given public number or
// booking.ErrReservationNotFound.
func (r *ReservationRepo) GetByNumber(ctx context.Context, number string) (model.Reservation, error) {
	list, err := scanReservations(ctx, r.db,
		reservationSelect+` WHERE r.reservation_number = ? ORDER BY rs.position`, number)
	if err != nil {
		return model.Reservation{}, err
	}
	if len(list) == 0 {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	return list[0], nil
}

func scanReservations(ctx context.Context, q queryer, query string, args ...any) ([]model.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		var (
			id        uint64
			number    string
			from, to  model.Stop
			count     int
			total     decimal.Decimal
			createdAt time.Time
			seat      model.Seat
		)
		if err := rows.Scan(&id, &number, &from, &to, &count, &total, &createdAt, &seat.ID, &seat.Number); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ID != id {
			out = append(out, model.Reservation{
				ID:             id,
				Number:         number,
				Origin:         from,
				Destination:    to,
				PassengerCount: count,
				TotalPrice:     total,
				CreatedAt:      createdAt.UTC(),
			})
		}
		last := &out[len(out)-1]
		last.Seats = append(last.Seats, seat)
	}
	return out, rows.Err()
}

// CreateTx inserts res and its seat links within the scope of an existing
// transaction.  It populates the generated ID and creation time on res.
// A duplicate reservation number yields booking.ErrDuplicateNumber.  The
// caller must commit or rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (reservation_number, from_location, to_location, passenger_count, total_price)
	           VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.Number, string(res.Origin), string(res.Destination), res.PassengerCount, res.TotalPrice)
	if err != nil {
		if isDuplicate(err) {
			return booking.ErrDuplicateNumber
		}
		return classify(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	if err := r.createSeatsBulkTx(ctx, tx, res.ID, res.Seats); err != nil {
		return err
	}

	const sel = `SELECT created_at FROM reservations WHERE id = ?`
	var createdAt time.Time
	if err := tx.QueryRowContext(ctx, sel, res.ID).Scan(&createdAt); err != nil {
		return err
	}
	res.CreatedAt = createdAt.UTC()
	return nil
}

// createSeatsBulkTx inserts all reservation_seats rows of one reservation
// in a single statement.  Passing an empty slice has no effect.
func (r *ReservationRepo) createSeatsBulkTx(ctx context.Context, tx *sql.Tx, reservationID uint64, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_seats (reservation_id, seat_id, position) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, reservationID, s.ID, i)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	if isDuplicate(err) {
		return errors.Join(ErrConflict, err)
	}
	return classify(err)
}
