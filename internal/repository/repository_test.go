package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
	"github.com/iliyamo/line-seat-reservation/internal/model"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, classify(plain))

	for _, n := range []uint16{mysqlLockWaitTimeout, mysqlDeadlock} {
		err := classify(fmt.Errorf("exec: %w", &mysql.MySQLError{Number: n, Message: "try again"}))
		assert.ErrorIs(t, err, booking.ErrRetryable, "error %d", n)
		var me *mysql.MySQLError
		assert.ErrorAs(t, err, &me)
	}

	dup := &mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry"}
	assert.False(t, errors.Is(classify(dup), booking.ErrRetryable))
	assert.True(t, isDuplicate(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isDuplicate(plain))
}

func testSeats(n int) []model.Seat {
	out := make([]model.Seat, n)
	for i := range out {
		// Deliberately reversed to check the ledger orders by ID.
		id := uint64(n - i)
		out[i] = model.Seat{ID: id, Number: fmt.Sprintf("%dA", id)}
	}
	return out
}

func TestMemoryLedgerOrdersSeats(t *testing.T) {
	l := NewMemoryLedger(testSeats(12), time.Second)
	seats, err := l.Seats(context.Background())
	require.NoError(t, err)
	require.Len(t, seats, 12)
	for i, s := range seats {
		assert.Equal(t, uint64(i+1), s.ID)
	}
	assert.Equal(t, "10A", seats[9].Number)
}

func newReservation(number string, seats ...model.Seat) *model.Reservation {
	return &model.Reservation{
		Number:         number,
		Origin:         "A",
		Destination:    "B",
		PassengerCount: len(seats),
		TotalPrice:     decimal.NewFromInt(int64(50 * len(seats))),
		Seats:          seats,
	}
}

func TestMemoryLedgerCommitsOnlyOnSuccess(t *testing.T) {
	l := NewMemoryLedger(testSeats(3), time.Second)
	ctx := context.Background()
	seat := model.Seat{ID: 1, Number: "1A"}

	errAbort := errors.New("abort")
	err := l.Allocate(ctx, booking.Forward, func(ctx context.Context, tx booking.AllocationTx) error {
		require.NoError(t, tx.Insert(ctx, newReservation("RES-1", seat)))
		list, err := tx.Reservations(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1, "pending insert visible inside the allocation")
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)
	list, err := l.Reservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	var inserted *model.Reservation
	err = l.Allocate(ctx, booking.Forward, func(ctx context.Context, tx booking.AllocationTx) error {
		inserted = newReservation("RES-1", seat)
		return tx.Insert(ctx, inserted)
	})
	require.NoError(t, err)
	assert.NotZero(t, inserted.ID)
	assert.False(t, inserted.CreatedAt.IsZero())

	got, err := l.Reservation(ctx, "RES-1")
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, got.ID)

	_, err = l.Reservation(ctx, "RES-2")
	assert.ErrorIs(t, err, booking.ErrReservationNotFound)
}

func TestMemoryLedgerRejectsDuplicateNumbers(t *testing.T) {
	l := NewMemoryLedger(testSeats(3), time.Second)
	ctx := context.Background()
	insert := func(number string) error {
		return l.Allocate(ctx, booking.Backward, func(ctx context.Context, tx booking.AllocationTx) error {
			return tx.Insert(ctx, newReservation(number, model.Seat{ID: 2, Number: "2A"}))
		})
	}
	require.NoError(t, insert("RES-1"))
	err := insert("RES-1")
	assert.ErrorIs(t, err, booking.ErrDuplicateNumber)
	assert.ErrorIs(t, err, booking.ErrRetryable)
}

func TestMemoryLedgerLaneTimeoutIsRetryable(t *testing.T) {
	l := NewMemoryLedger(testSeats(1), 20*time.Millisecond)
	ctx := context.Background()

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- l.Allocate(ctx, booking.Forward, func(context.Context, booking.AllocationTx) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	err := l.Allocate(ctx, booking.Forward, func(context.Context, booking.AllocationTx) error { return nil })
	assert.ErrorIs(t, err, booking.ErrRetryable)

	// The opposite direction has its own lane.
	err = l.Allocate(ctx, booking.Backward, func(context.Context, booking.AllocationTx) error { return nil })
	assert.NoError(t, err)

	close(release)
	assert.NoError(t, <-done)
}

func TestMemoryLedgerDropsWorkOnCancelledContext(t *testing.T) {
	l := NewMemoryLedger(testSeats(2), time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	err := l.Allocate(ctx, booking.Forward, func(ctx context.Context, tx booking.AllocationTx) error {
		require.NoError(t, tx.Insert(ctx, newReservation("RES-1", model.Seat{ID: 1, Number: "1A"})))
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	list, err := l.Reservations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStaticOperators(t *testing.T) {
	s := NewStaticOperators()
	ctx := context.Background()

	_, err := s.OperatorByUsername(ctx, "ops")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Upsert(ctx, " Ops ", "hash-1", "OPERATOR"))
	require.NoError(t, s.Upsert(ctx, "ops", "hash-2", "OPERATOR"))

	op, err := s.OperatorByUsername(ctx, "OPS")
	require.NoError(t, err)
	assert.Equal(t, "ops", op.Username)
	assert.Equal(t, "hash-2", op.PasswordHash)
	assert.Equal(t, uint64(1), op.ID)
	assert.True(t, op.IsActive)
}
