package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// MemoryLedger keeps seats and reservations in process memory.  It is used
// by tests and by the memory store driver.  Allocations in the same
// direction are serialized by a per-direction semaphore; reads and commits
// are guarded by mu.
type MemoryLedger struct {
	mu           sync.RWMutex
	seats        []model.Seat
	reservations []model.Reservation
	byNumber     map[string]int

	lanes       map[booking.Direction]chan struct{}
	lockTimeout time.Duration
	nextID      atomic.Uint64
	now         func() time.Time
}

// NewMemoryLedger returns a ledger over the given seat pool.  lockTimeout
// bounds how long an allocation waits for its direction lane; zero waits
// until the context is done.
func NewMemoryLedger(seats []model.Seat, lockTimeout time.Duration) *MemoryLedger {
	pool := make([]model.Seat, len(seats))
	copy(pool, seats)
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	return &MemoryLedger{
		seats:    pool,
		byNumber: make(map[string]int),
		lanes: map[booking.Direction]chan struct{}{
			booking.Forward:  make(chan struct{}, 1),
			booking.Backward: make(chan struct{}, 1),
		},
		lockTimeout: lockTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Seats returns a copy of the seat pool in ID order.
func (l *MemoryLedger) Seats(ctx context.Context) ([]model.Seat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Seat, len(l.seats))
	copy(out, l.seats)
	return out, nil
}

// Reservations returns the committed reservations in commit order.
func (l *MemoryLedger) Reservations(ctx context.Context) ([]model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Reservation, len(l.reservations))
	copy(out, l.reservations)
	return out, nil
}

// Reservation returns the committed reservation with the given number or
// booking.ErrReservationNotFound.
func (l *MemoryLedger) Reservation(ctx context.Context, number string) (model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return model.Reservation{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byNumber[number]
	if !ok {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	return l.reservations[i], nil
}

// Allocate runs fn while holding the lane for dir.  Reservations inserted
// by fn are published only if fn returns nil and ctx is still live.
func (l *MemoryLedger) Allocate(ctx context.Context, dir booking.Direction, fn func(ctx context.Context, tx booking.AllocationTx) error) error {
	lane, ok := l.lanes[dir]
	if !ok {
		return fmt.Errorf("memory ledger: no lane for direction %d", dir)
	}
	if err := l.acquire(ctx, lane, dir); err != nil {
		return err
	}
	defer func() { <-lane }()

	tx := &memoryTx{ledger: l}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.commit(tx.pending)
}

func (l *MemoryLedger) acquire(ctx context.Context, lane chan struct{}, dir booking.Direction) error {
	var timeout <-chan time.Time
	if l.lockTimeout > 0 {
		t := time.NewTimer(l.lockTimeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case lane <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timeout:
		return fmt.Errorf("%w: %s lane busy for %s", booking.ErrRetryable, dir, l.lockTimeout)
	}
}

func (l *MemoryLedger) commit(pending []model.Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range pending {
		if _, dup := l.byNumber[r.Number]; dup {
			return booking.ErrDuplicateNumber
		}
	}
	for _, r := range pending {
		l.byNumber[r.Number] = len(l.reservations)
		l.reservations = append(l.reservations, r)
	}
	return nil
}

// memoryTx sees committed reservations plus the ones inserted so far.
type memoryTx struct {
	ledger  *MemoryLedger
	pending []model.Reservation
}

func (t *memoryTx) Seats(ctx context.Context) ([]model.Seat, error) {
	return t.ledger.Seats(ctx)
}

func (t *memoryTx) Reservations(ctx context.Context) ([]model.Reservation, error) {
	committed, err := t.ledger.Reservations(ctx)
	if err != nil {
		return nil, err
	}
	return append(committed, t.pending...), nil
}

func (t *memoryTx) Insert(ctx context.Context, res *model.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.ledger.mu.RLock()
	_, dup := t.ledger.byNumber[res.Number]
	t.ledger.mu.RUnlock()
	if dup {
		return booking.ErrDuplicateNumber
	}
	for _, p := range t.pending {
		if p.Number == res.Number {
			return booking.ErrDuplicateNumber
		}
	}
	res.ID = t.ledger.nextID.Add(1)
	res.CreatedAt = t.ledger.now()
	stored := *res
	stored.Seats = append([]model.Seat(nil), res.Seats...)
	t.pending = append(t.pending, stored)
	return nil
}
