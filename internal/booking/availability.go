package booking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/line-seat-reservation/internal/logging"
	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// Availability is the answer to an inquiry: the route, the seats that are
// free for the requested segment in allocation order, and the price quote.
type Availability struct {
	Route        model.Route
	FreeSeats    []model.Seat
	PricePerSeat decimal.Decimal
	TotalPrice   decimal.Decimal
}

// Engine computes availability for an inquiry against a snapshot.
type Engine struct {
	topology *Topology
	catalog  Catalog
}

// NewEngine returns an Engine.  Both dependencies must be non-nil.
func NewEngine(topology *Topology, catalog Catalog) *Engine {
	if topology == nil || catalog == nil {
		panic("nil dependency passed to NewEngine")
	}
	return &Engine{topology: topology, catalog: catalog}
}

// Topology returns the line topology used by the engine.
func (e *Engine) Topology() *Topology { return e.topology }

// Catalog returns the route catalog used by the engine.
func (e *Engine) Catalog() Catalog { return e.catalog }

// Evaluate validates q, resolves its route, confirms the price for commit
// inquiries and returns the seats not held by any conflicting reservation
// in snap.  It never mutates state.
func (e *Engine) Evaluate(ctx context.Context, snap Snapshot, q Inquiry) (*Availability, error) {
	logger := logging.FromContext(ctx)
	seg := q.Segment()

	if err := e.topology.Validate(seg); err != nil {
		logger.Warn("invalid itinerary", slog.String("segment", seg.String()), slog.String("error", err.Error()))
		return nil, err
	}
	if q.PassengerCount < 1 {
		return nil, ErrInvalidPassengerCount
	}

	route, err := e.catalog.Lookup(ctx, q.Origin, q.Destination)
	if err != nil {
		return nil, err
	}

	total := route.Price.Mul(decimal.NewFromInt(int64(q.PassengerCount)))
	switch q.Kind {
	case InquiryCommit:
		if !q.ConfirmedPrice.Equal(total) {
			logger.Warn("price confirmation mismatch",
				slog.String("expected", total.StringFixed(2)),
				slog.String("received", q.ConfirmedPrice.StringFixed(2)))
			return nil, &PriceMismatchError{Expected: total, Confirmed: q.ConfirmedPrice}
		}
	case InquiryAvailability:
	default:
		return nil, fmt.Errorf("unknown inquiry kind %d", q.Kind)
	}

	free, err := e.freeSeats(ctx, snap, seg)
	if err != nil {
		return nil, err
	}
	return &Availability{
		Route:        route,
		FreeSeats:    free,
		PricePerSeat: route.Price,
		TotalPrice:   total,
	}, nil
}

// freeSeats returns the seat pool minus every seat held by a reservation
// whose segment conflicts with seg.
func (e *Engine) freeSeats(ctx context.Context, snap Snapshot, seg model.Segment) ([]model.Seat, error) {
	reservations, err := snap.Reservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	blocked := make(map[uint64]struct{})
	for _, r := range reservations {
		conflict, err := e.topology.Conflicts(seg, r.Segment())
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", r.Number, err)
		}
		if !conflict {
			continue
		}
		for _, s := range r.Seats {
			blocked[s.ID] = struct{}{}
		}
	}

	seats, err := snap.Seats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seats: %w", err)
	}
	free := make([]model.Seat, 0, len(seats))
	for _, s := range seats {
		if _, held := blocked[s.ID]; !held {
			free = append(free, s)
		}
	}
	logging.FromContext(ctx).Debug("availability computed",
		slog.String("segment", seg.String()),
		slog.Int("blocked", len(blocked)),
		slog.Int("free", len(free)))
	return free, nil
}
