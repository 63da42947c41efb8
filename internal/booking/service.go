package booking

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/line-seat-reservation/internal/logging"
	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// AvailabilityResult is returned by CheckAvailability.
type AvailabilityResult struct {
	AvailableSeatCount   int             `json:"available_seats"`
	PricePerSeat         decimal.Decimal `json:"price_per_seat"`
	TotalPrice           decimal.Decimal `json:"total_price"`
	AvailableSeatNumbers []string        `json:"available_seat_numbers"`
}

// ReservationResult is returned by Reserve.
type ReservationResult struct {
	ReservationNumber string          `json:"reservation_number"`
	SeatNumbers       []string        `json:"seat_numbers"`
	Origin            model.Stop      `json:"departure_location"`
	Destination       model.Stop      `json:"arrival_location"`
	TotalPrice        decimal.Decimal `json:"total_price"`

	// Reservation is the committed record, kept for event publishing.
	Reservation model.Reservation `json:"-"`
}

// Service exposes the two booking operations to transport layers.
// Availability checks read a plain snapshot of the ledger and may be
// slightly stale; Reserve re-checks everything inside the allocation.
type Service struct {
	engine    *Engine
	allocator *Allocator
	ledger    Ledger
}

// NewService wires an engine, ledger and number generator together.
func NewService(engine *Engine, ledger Ledger, numbers NumberGenerator, policy RetryPolicy) *Service {
	return &Service{
		engine:    engine,
		allocator: NewAllocator(engine, ledger, numbers, policy),
		ledger:    ledger,
	}
}

// CheckAvailability reports the free seats and the price for carrying
// passengerCount passengers from origin to destination.
func (s *Service) CheckAvailability(ctx context.Context, passengerCount int, origin, destination model.Stop) (*AvailabilityResult, error) {
	logger := logging.FromContext(ctx)
	logger.Info("checking availability",
		slog.String("origin", string(origin)),
		slog.String("destination", string(destination)),
		slog.Int("passengers", passengerCount))

	avail, err := s.engine.Evaluate(ctx, s.ledger, AvailabilityInquiry(passengerCount, origin, destination))
	if err != nil {
		return nil, err
	}
	res := &AvailabilityResult{
		AvailableSeatCount:   len(avail.FreeSeats),
		PricePerSeat:         avail.PricePerSeat,
		TotalPrice:           avail.TotalPrice,
		AvailableSeatNumbers: model.SeatNumbers(avail.FreeSeats),
	}
	logger.Info("availability check complete",
		slog.Int("available", res.AvailableSeatCount),
		slog.String("total_price", res.TotalPrice.StringFixed(2)))
	return res, nil
}

// Reserve books passengerCount seats from origin to destination provided
// that confirmedPrice equals the current total price exactly.
func (s *Service) Reserve(ctx context.Context, passengerCount int, origin, destination model.Stop, confirmedPrice decimal.Decimal) (*ReservationResult, error) {
	res, err := s.allocator.Reserve(ctx, CommitInquiry(passengerCount, origin, destination, confirmedPrice))
	if err != nil {
		return nil, err
	}
	return &ReservationResult{
		ReservationNumber: res.Number,
		SeatNumbers:       model.SeatNumbers(res.Seats),
		Origin:            res.Origin,
		Destination:       res.Destination,
		TotalPrice:        res.TotalPrice,
		Reservation:       *res,
	}, nil
}

// Reservation returns a committed reservation by number.
func (s *Service) Reservation(ctx context.Context, number string) (model.Reservation, error) {
	return s.ledger.Reservation(ctx, number)
}

// Reservations returns every committed reservation.
func (s *Service) Reservations(ctx context.Context) ([]model.Reservation, error) {
	return s.ledger.Reservations(ctx)
}

// Routes lists the priced routes of the line.
func (s *Service) Routes(ctx context.Context) ([]model.Route, error) {
	return s.engine.catalog.Routes(ctx)
}

// Stops lists the stops of the line in order.
func (s *Service) Stops() []model.Stop {
	return s.engine.topology.Stops()
}
