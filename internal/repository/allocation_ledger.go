package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
	"github.com/iliyamo/line-seat-reservation/internal/logging"
	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// AllocationLedger is the MySQL implementation of booking.Ledger.
//
// An allocation pins one pooled connection, takes the named lock
// "<prefix>:<direction>" with GET_LOCK, and runs the availability scan and
// the insert in a REPEATABLE READ transaction that also locks the seat
// rows in ID order.  The named lock serializes allocations in one
// direction across every server process; opposite directions use
// different locks and only meet on the seat row locks.
type AllocationLedger struct {
	db           *sql.DB
	seats        *SeatRepo
	reservations *ReservationRepo
	lockPrefix   string
	lockTimeout  time.Duration
}

// NewAllocationLedger builds a ledger over db.  lockTimeout bounds how long
// an allocation waits for the direction lock.
func NewAllocationLedger(db *sql.DB, lockPrefix string, lockTimeout time.Duration) *AllocationLedger {
	if lockPrefix == "" {
		lockPrefix = "seat-allocation"
	}
	return &AllocationLedger{
		db:           db,
		seats:        NewSeatRepo(db),
		reservations: NewReservationRepo(db),
		lockPrefix:   lockPrefix,
		lockTimeout:  lockTimeout,
	}
}

// Seats returns the seat pool in ID order.
func (l *AllocationLedger) Seats(ctx context.Context) ([]model.Seat, error) {
	return l.seats.List(ctx)
}

// Reservations returns every committed reservation.
func (l *AllocationLedger) Reservations(ctx context.Context) ([]model.Reservation, error) {
	return l.reservations.ListAll(ctx)
}

// Reservation looks a committed reservation up by number.
func (l *AllocationLedger) Reservation(ctx context.Context, number string) (model.Reservation, error) {
	return l.reservations.GetByNumber(ctx, number)
}

// lockSeconds converts the lock timeout to the whole seconds GET_LOCK takes.
func (l *AllocationLedger) lockSeconds() int {
	if l.lockTimeout <= 0 {
		return 5
	}
	return int(math.Ceil(l.lockTimeout.Seconds()))
}

// Allocate implements booking.Ledger.
func (l *AllocationLedger) Allocate(ctx context.Context, dir booking.Direction, fn func(ctx context.Context, tx booking.AllocationTx) error) error {
	logger := logging.FromContext(ctx)

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer logging.SafeCloseWithLogging(conn, logger, "allocation_conn")

	name := l.lockPrefix + ":" + dir.String()
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, name, l.lockSeconds()).Scan(&got); err != nil {
		return fmt.Errorf("get lock %s: %w", name, classify(err))
	}
	if !got.Valid || got.Int64 != 1 {
		return fmt.Errorf("%w: lock %s not acquired within %ds", booking.ErrRetryable, name, l.lockSeconds())
	}
	defer func() {
		// Released with a fresh context so a cancelled request still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.ExecContext(releaseCtx, `SELECT RELEASE_LOCK(?)`, name); err != nil {
			logging.LogError(logger, "failed to release allocation lock", err)
		}
	}()

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("begin allocation: %w", classify(err))
	}
	committed := false
	defer func() {
		if !committed {
			logging.SafeRollbackWithLogging(tx, logger, "allocate")
		}
	}()

	seats, err := l.seats.LockAllTx(ctx, tx)
	if err != nil {
		return fmt.Errorf("lock seats: %w", classify(err))
	}
	if err := fn(ctx, &sqlAllocationTx{tx: tx, ledger: l, seats: seats}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit allocation: %w", classify(err))
	}
	committed = true
	return nil
}

// sqlAllocationTx reads through the allocation transaction.  The seat pool
// was already read while locking it.
type sqlAllocationTx struct {
	tx     *sql.Tx
	ledger *AllocationLedger
	seats  []model.Seat
}

func (t *sqlAllocationTx) Seats(_ context.Context) ([]model.Seat, error) {
	out := make([]model.Seat, len(t.seats))
	copy(out, t.seats)
	return out, nil
}

func (t *sqlAllocationTx) Reservations(ctx context.Context) ([]model.Reservation, error) {
	list, err := t.ledger.reservations.ListAllTx(ctx, t.tx)
	return list, classify(err)
}

func (t *sqlAllocationTx) Insert(ctx context.Context, res *model.Reservation) error {
	return t.ledger.reservations.CreateTx(ctx, t.tx, res)
}
