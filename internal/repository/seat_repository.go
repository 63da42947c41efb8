package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives

	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// SeatRepo provides methods to work with the vehicle's seat pool.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// Provision inserts the seat pool.  Seats that already exist are left
// untouched, so provisioning is safe to repeat on every start.
func (r *SeatRepo) Provision(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT IGNORE INTO seats (id, seat_number) VALUES `
	args := make([]interface{}, 0, len(seats)*2)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, s.ID, s.Number)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// List returns every seat ordered by ID, which is the allocation order.
func (r *SeatRepo) List(ctx context.Context) ([]model.Seat, error) {
	return listSeats(ctx, r.db, `SELECT id, seat_number FROM seats ORDER BY id`)
}

// LockAllTx returns every seat ordered by ID and takes row locks on them
// inside tx.  Locks are always acquired in ID order.
func (r *SeatRepo) LockAllTx(ctx context.Context, tx *sql.Tx) ([]model.Seat, error) {
	return listSeats(ctx, tx, `SELECT id, seat_number FROM seats ORDER BY id FOR UPDATE`)
}

func listSeats(ctx context.Context, q queryer, query string) ([]model.Seat, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.Number); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}
