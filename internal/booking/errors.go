package booking

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// ErrRetryable marks storage failures that are safe to retry from the start
// of the allocation: lock wait timeouts, deadlocks, serialization failures
// and duplicate reservation numbers.  Ledgers wrap their errors with it.
var ErrRetryable = errors.New("allocation: retryable conflict")

// ErrDuplicateNumber is returned by a ledger when the generated reservation
// number already exists.  It is retryable.
var ErrDuplicateNumber = fmt.Errorf("%w: duplicate reservation number", ErrRetryable)

// InvalidItineraryError is returned when origin and destination are the same stop.
type InvalidItineraryError struct {
	Origin      model.Stop
	Destination model.Stop
}

func (e *InvalidItineraryError) Error() string {
	return "origin and destination cannot be the same"
}

// UnknownStopError is returned when a stop is not part of the configured line.
type UnknownStopError struct {
	Stop model.Stop
}

func (e *UnknownStopError) Error() string {
	return fmt.Sprintf("unknown stop %q", string(e.Stop))
}

// RouteNotFoundError is returned when no route is priced for the exact
// directed pair.
type RouteNotFoundError struct {
	Origin      model.Stop
	Destination model.Stop
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("no route found from %s to %s", e.Origin, e.Destination)
}

// PriceMismatchError is returned when the confirmed price differs from
// passengerCount × route price by any amount.
type PriceMismatchError struct {
	Expected  decimal.Decimal
	Confirmed decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price confirmation mismatch: expected %s, received %s",
		e.Expected.StringFixed(2), e.Confirmed.StringFixed(2))
}

// InsufficientCapacityError is returned when fewer seats are free than
// passengers requested.
type InsufficientCapacityError struct {
	Requested int
	Available int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("not enough seats available: requested %d, available %d", e.Requested, e.Available)
}

// AllocationConflictError is returned when the commit could not be
// serialized within the retry policy.  Err holds the last retryable cause.
type AllocationConflictError struct {
	Attempts int
	Err      error
}

func (e *AllocationConflictError) Error() string {
	return fmt.Sprintf("allocation conflict after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AllocationConflictError) Unwrap() error { return e.Err }

// ErrReservationNotFound is returned when no reservation has the requested number.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrInvalidPassengerCount is returned when an inquiry asks for fewer than one seat.
var ErrInvalidPassengerCount = errors.New("passenger count must be at least 1")
