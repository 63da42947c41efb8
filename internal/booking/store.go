package booking

import (
	"context"

	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// Snapshot is a read view over the seat pool and the committed
// reservations.  Seats must be returned in ascending ID order.
type Snapshot interface {
	Seats(ctx context.Context) ([]model.Seat, error)
	Reservations(ctx context.Context) ([]model.Reservation, error)
}

// AllocationTx is the view handed to an allocation.  Reads observe every
// reservation committed before the allocation started and Insert becomes
// visible only when the allocation returns nil.
type AllocationTx interface {
	Snapshot
	// Insert persists res and its seat links.  It sets res.ID and
	// res.CreatedAt.  A duplicate reservation number yields ErrDuplicateNumber.
	Insert(ctx context.Context, res *model.Reservation) error
}

// Ledger owns the shared reservation state.  Allocate runs fn as one
// isolated unit with respect to every other allocation in the same
// direction; allocations in opposite directions may run in parallel.  When
// fn returns an error nothing it inserted is kept.  Errors wrapping
// ErrRetryable may be retried by the caller.
type Ledger interface {
	Snapshot
	Allocate(ctx context.Context, dir Direction, fn func(ctx context.Context, tx AllocationTx) error) error
	// Reservation looks up a committed reservation by its public number.
	Reservation(ctx context.Context, number string) (model.Reservation, error)
}

// NumberGenerator yields reservation numbers.  It must never return the
// same number twice within a process; ledgers enforce uniqueness across
// processes.
type NumberGenerator interface {
	Next(ctx context.Context) (string, error)
}
