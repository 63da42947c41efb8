package booking

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/iliyamo/line-seat-reservation/internal/logging"
	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// RetryPolicy bounds how often an allocation is retried after a
// retryable ledger error.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy is used when the allocator is given a zero policy.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	Backoff:     20 * time.Millisecond,
	MaxBackoff:  500 * time.Millisecond,
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	if p.MaxBackoff < p.Backoff {
		p.MaxBackoff = p.Backoff
	}
	return p
}

// wait returns the delay before attempt+1: exponential with up to 50% jitter.
func (p RetryPolicy) wait(attempt int) time.Duration {
	if p.Backoff == 0 {
		return 0
	}
	d := p.Backoff << (attempt - 1)
	if d <= 0 || d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d/2 + rand.N(d/2+1)
}

// allocation states, logged as an attempt moves through Reserve.
const (
	stateValidating      = "validating"
	statePricingChecked  = "pricing_checked"
	stateCapacityChecked = "capacity_checked"
	stateCommitted       = "committed"
	stateRejected        = "rejected"
)

// Allocator commits reservations.  Every attempt re-runs availability
// inside the ledger's allocation boundary so the seats it picks are still
// free when the reservation is written.
type Allocator struct {
	engine  *Engine
	ledger  Ledger
	numbers NumberGenerator
	policy  RetryPolicy
}

// NewAllocator returns an Allocator.  A zero policy uses DefaultRetryPolicy.
func NewAllocator(engine *Engine, ledger Ledger, numbers NumberGenerator, policy RetryPolicy) *Allocator {
	if engine == nil || ledger == nil || numbers == nil {
		panic("nil dependency passed to NewAllocator")
	}
	return &Allocator{engine: engine, ledger: ledger, numbers: numbers, policy: policy.normalized()}
}

// Reserve allocates the first q.PassengerCount free seats for q's segment
// and persists the reservation.  q must be a commit inquiry.  On any error
// no reservation is stored.
func (a *Allocator) Reserve(ctx context.Context, q Inquiry) (*model.Reservation, error) {
	logger := logging.FromContext(ctx).With(
		slog.String("segment", q.Segment().String()),
		slog.Int("passengers", q.PassengerCount))

	if q.Kind != InquiryCommit {
		return nil, errors.New("reserve requires a price-confirmed inquiry")
	}
	if err := a.engine.topology.Validate(q.Segment()); err != nil {
		logger.Debug("reservation state", slog.String("state", stateRejected), slog.String("error", err.Error()))
		return nil, err
	}
	if q.PassengerCount < 1 {
		return nil, ErrInvalidPassengerCount
	}
	dir, err := a.engine.topology.Direction(q.Segment())
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= a.policy.MaxAttempts; attempt++ {
		res, err := a.attempt(logging.WithLogger(ctx, logger), dir, q)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrRetryable) {
			return nil, err
		}
		lastErr = err
		logger.Warn("allocation attempt failed, retrying",
			slog.Int("attempt", attempt), slog.String("error", err.Error()))
		if attempt == a.policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.policy.wait(attempt)):
		}
	}
	logging.LogError(logger, "allocation retries exhausted", lastErr, slog.Int("attempts", a.policy.MaxAttempts))
	return nil, &AllocationConflictError{Attempts: a.policy.MaxAttempts, Err: lastErr}
}

func (a *Allocator) attempt(ctx context.Context, dir Direction, q Inquiry) (*model.Reservation, error) {
	logger := logging.FromContext(ctx)
	var out *model.Reservation
	err := a.ledger.Allocate(ctx, dir, func(ctx context.Context, tx AllocationTx) error {
		logger.Debug("reservation state", slog.String("state", stateValidating))
		avail, err := a.engine.Evaluate(ctx, tx, q)
		if err != nil {
			return err
		}
		logger.Debug("reservation state", slog.String("state", statePricingChecked))

		if len(avail.FreeSeats) < q.PassengerCount {
			logger.Warn("insufficient seats available",
				slog.Int("requested", q.PassengerCount), slog.Int("available", len(avail.FreeSeats)))
			return &InsufficientCapacityError{Requested: q.PassengerCount, Available: len(avail.FreeSeats)}
		}
		logger.Debug("reservation state", slog.String("state", stateCapacityChecked))

		number, err := a.numbers.Next(ctx)
		if err != nil {
			return err
		}
		seats := make([]model.Seat, q.PassengerCount)
		copy(seats, avail.FreeSeats[:q.PassengerCount])
		res := &model.Reservation{
			Number:         number,
			Origin:         q.Origin,
			Destination:    q.Destination,
			PassengerCount: q.PassengerCount,
			TotalPrice:     avail.TotalPrice,
			Seats:          seats,
		}
		if err := tx.Insert(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		logger.Debug("reservation state", slog.String("state", stateRejected), slog.String("error", err.Error()))
		return nil, err
	}
	logger.Info("reservation committed",
		slog.String("state", stateCommitted),
		slog.String("reservation_number", out.Number),
		slog.Any("seats", model.SeatNumbers(out.Seats)),
		slog.String("total_price", out.TotalPrice.StringFixed(2)))
	return out, nil
}
