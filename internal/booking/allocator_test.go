package booking_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
	"github.com/iliyamo/line-seat-reservation/internal/model"
	"github.com/iliyamo/line-seat-reservation/internal/repository"
)

func scenarioRoutes() []model.Route {
	return []model.Route{
		{ID: 1, Origin: "A", Destination: "B", Price: dec("50.00")},
		{ID: 2, Origin: "B", Destination: "A", Price: dec("50.00")},
	}
}

func TestTenSeatScenario(t *testing.T) {
	f := newFixture(t, 10, scenarioRoutes())
	ctx := context.Background()

	avail, err := f.service.CheckAvailability(ctx, 2, "A", "B")
	require.NoError(t, err)
	assert.Equal(t, 10, avail.AvailableSeatCount)
	assert.Equal(t, "100.00", avail.TotalPrice.StringFixed(2))

	res, err := f.service.Reserve(ctx, 2, "A", "B", dec("100.00"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1A", "2A"}, res.SeatNumbers)
	assert.True(t, strings.HasPrefix(res.ReservationNumber, "RES-"))
	assert.Equal(t, model.Stop("A"), res.Origin)
	assert.Equal(t, model.Stop("B"), res.Destination)
	assert.True(t, res.TotalPrice.Equal(dec("100")))

	avail, err = f.service.CheckAvailability(ctx, 2, "A", "B")
	require.NoError(t, err)
	assert.Equal(t, 8, avail.AvailableSeatCount)

	avail, err = f.service.CheckAvailability(ctx, 2, "B", "A")
	require.NoError(t, err)
	assert.Equal(t, 10, avail.AvailableSeatCount)

	_, err = f.service.Reserve(ctx, 3, "A", "B", dec("150.00"))
	require.NoError(t, err)

	_, err = f.service.Reserve(ctx, 10, "A", "B", dec("500.00"))
	var capacity *booking.InsufficientCapacityError
	require.ErrorAs(t, err, &capacity)
	assert.Equal(t, 10, capacity.Requested)
	assert.Equal(t, 5, capacity.Available)

	_, err = f.service.Reserve(ctx, 1, "A", "A", dec("50.00"))
	var invalid *booking.InvalidItineraryError
	assert.ErrorAs(t, err, &invalid)

	list, err := f.ledger.Reservations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2, "failed reservations must not be stored")
}

func TestReserveRejectsPriceMismatchWithoutSideEffects(t *testing.T) {
	f := newFixture(t, 10, allRoutes())
	_, err := f.service.Reserve(context.Background(), 2, "A", "B", dec("99.99"))
	var mismatch *booking.PriceMismatchError
	require.ErrorAs(t, err, &mismatch)

	list, err := f.ledger.Reservations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReserveStoresReservation(t *testing.T) {
	f := newFixture(t, 10, allRoutes())
	res := f.reserve(t, 2, "B", "D")

	stored, err := f.service.Reservation(context.Background(), res.ReservationNumber)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.PassengerCount)
	assert.Equal(t, res.SeatNumbers, model.SeatNumbers(stored.Seats))
	assert.False(t, stored.CreatedAt.IsZero())

	_, err = f.service.Reservation(context.Background(), "RES-NOPE")
	assert.ErrorIs(t, err, booking.ErrReservationNotFound)
}

func TestAllocatorRequiresCommitInquiry(t *testing.T) {
	f := newFixture(t, 10, allRoutes())
	a := booking.NewAllocator(f.engine, f.ledger, &seqNumbers{}, booking.RetryPolicy{})
	_, err := a.Reserve(context.Background(), booking.AvailabilityInquiry(1, "A", "B"))
	assert.Error(t, err)
}

func TestConcurrentReserveNeverDoubleBooks(t *testing.T) {
	const fleet = 20
	f := newFixture(t, fleet, allRoutes())
	segments := []model.Segment{
		model.NewSegment("A", "D"),
		model.NewSegment("A", "B"),
		model.NewSegment("B", "C"),
		model.NewSegment("C", "D"),
		model.NewSegment("D", "A"),
		model.NewSegment("C", "A"),
	}

	var (
		wg       sync.WaitGroup
		ok, full atomic.Int64
	)
	for i := 0; i < 120; i++ {
		wg.Add(1)
		go func(seg model.Segment) {
			defer wg.Done()
			ctx := context.Background()
			avail, err := f.service.CheckAvailability(ctx, 1, seg.Origin, seg.Destination)
			if !assert.NoError(t, err) {
				return
			}
			_, err = f.service.Reserve(ctx, 1, seg.Origin, seg.Destination, avail.PricePerSeat)
			var capacity *booking.InsufficientCapacityError
			switch {
			case err == nil:
				ok.Add(1)
			case errors.As(err, &capacity):
				full.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(segments[i%len(segments)])
	}
	wg.Wait()
	assert.Equal(t, int64(120), ok.Load()+full.Load())

	list, err := f.ledger.Reservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int(ok.Load()), len(list))

	top := newTopology(t)
	for i := range list {
		for j := i + 1; j < len(list); j++ {
			conflict, err := top.Conflicts(list[i].Segment(), list[j].Segment())
			require.NoError(t, err)
			if !conflict {
				continue
			}
			for _, a := range list[i].Seats {
				for _, b := range list[j].Seats {
					assert.NotEqual(t, a.ID, b.ID, "seat %s double booked by %s and %s", a.Number, list[i].Number, list[j].Number)
				}
			}
		}
	}
}

// retryLedger fails every allocation with a retryable error.
type retryLedger struct {
	*repository.MemoryLedger
	calls atomic.Int32
}

func (l *retryLedger) Allocate(ctx context.Context, dir booking.Direction, fn func(ctx context.Context, tx booking.AllocationTx) error) error {
	l.calls.Add(1)
	return fmt.Errorf("%w: lock wait timeout", booking.ErrRetryable)
}

func TestReserveRetriesThenReportsConflict(t *testing.T) {
	engine := booking.NewEngine(newTopology(t), booking.NewStaticCatalog(allRoutes()))
	ledger := &retryLedger{MemoryLedger: repository.NewMemoryLedger(seats(5), 0)}
	svc := booking.NewService(engine, ledger, &seqNumbers{}, booking.RetryPolicy{MaxAttempts: 4, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond})

	_, err := svc.Reserve(context.Background(), 1, "A", "B", dec("50"))
	var conflict *booking.AllocationConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 4, conflict.Attempts)
	assert.ErrorIs(t, err, booking.ErrRetryable)
	assert.Equal(t, int32(4), ledger.calls.Load())
}

// dupOnceNumbers repeats its first number once to force a duplicate.
type dupOnceNumbers struct {
	mu    sync.Mutex
	calls int
}

func (d *dupOnceNumbers) Next(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.calls <= 2 {
		return "RES-FIXED", nil
	}
	return fmt.Sprintf("RES-%d", d.calls), nil
}

func TestReserveRetriesDuplicateNumber(t *testing.T) {
	engine := booking.NewEngine(newTopology(t), booking.NewStaticCatalog(allRoutes()))
	ledger := repository.NewMemoryLedger(seats(5), time.Second)
	svc := booking.NewService(engine, ledger, &dupOnceNumbers{}, booking.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond})

	first, err := svc.Reserve(context.Background(), 1, "A", "B", dec("50"))
	require.NoError(t, err)
	assert.Equal(t, "RES-FIXED", first.ReservationNumber)

	second, err := svc.Reserve(context.Background(), 1, "A", "B", dec("50"))
	require.NoError(t, err)
	assert.Equal(t, "RES-3", second.ReservationNumber)
	assert.Equal(t, []string{"2A"}, second.SeatNumbers)
}

// cancellingNumbers cancels the request while the allocation is running.
type cancellingNumbers struct{ cancel context.CancelFunc }

func (c cancellingNumbers) Next(context.Context) (string, error) {
	c.cancel()
	return "RES-CANCELLED", nil
}

func TestCancelledReserveLeavesNoReservation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := booking.NewEngine(newTopology(t), booking.NewStaticCatalog(allRoutes()))
	ledger := repository.NewMemoryLedger(seats(5), time.Second)
	svc := booking.NewService(engine, ledger, cancellingNumbers{cancel: cancel}, booking.RetryPolicy{})

	_, err := svc.Reserve(ctx, 1, "A", "B", dec("50"))
	assert.ErrorIs(t, err, context.Canceled)

	list, err := ledger.Reservations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
