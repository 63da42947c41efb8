package booking_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
	"github.com/iliyamo/line-seat-reservation/internal/model"
	"github.com/iliyamo/line-seat-reservation/internal/repository"
)

// seqNumbers hands out RES-TEST-<n>.
type seqNumbers struct{ n atomic.Uint64 }

func (s *seqNumbers) Next(context.Context) (string, error) {
	return fmt.Sprintf("RES-TEST-%06d", s.n.Add(1)), nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seats(n int) []model.Seat {
	out := make([]model.Seat, n)
	for i := range out {
		out[i] = model.Seat{ID: uint64(i + 1), Number: fmt.Sprintf("%dA", i+1)}
	}
	return out
}

// allRoutes prices every directed pair of A..D at 50 per hop.
func allRoutes() []model.Route {
	stops := booking.DefaultStops
	var out []model.Route
	var id uint64
	for i, o := range stops {
		for j, d := range stops {
			if i == j {
				continue
			}
			id++
			hops := j - i
			if hops < 0 {
				hops = -hops
			}
			out = append(out, model.Route{ID: id, Origin: o, Destination: d, Price: decimal.NewFromInt(int64(50 * hops))})
		}
	}
	return out
}

func newTopology(t *testing.T) *booking.Topology {
	t.Helper()
	top, err := booking.NewTopology(booking.DefaultStops...)
	require.NoError(t, err)
	return top
}

type fixture struct {
	engine  *booking.Engine
	ledger  *repository.MemoryLedger
	service *booking.Service
}

func newFixture(t *testing.T, fleet int, routes []model.Route) *fixture {
	t.Helper()
	engine := booking.NewEngine(newTopology(t), booking.NewStaticCatalog(routes))
	ledger := repository.NewMemoryLedger(seats(fleet), time.Second)
	return &fixture{
		engine:  engine,
		ledger:  ledger,
		service: booking.NewService(engine, ledger, &seqNumbers{}, booking.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}),
	}
}

// reserve books n seats at the catalog price and fails the test on error.
func (f *fixture) reserve(t *testing.T, n int, o, d model.Stop) *booking.ReservationResult {
	t.Helper()
	avail, err := f.service.CheckAvailability(context.Background(), n, o, d)
	require.NoError(t, err)
	res, err := f.service.Reserve(context.Background(), n, o, d, avail.TotalPrice)
	require.NoError(t, err)
	return res
}
