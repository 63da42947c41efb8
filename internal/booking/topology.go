// Package booking implements the seat allocation engine for a single
// vehicle running a linear line: the stop topology, the conflict rule
// between directed segments, availability and the atomic reservation
// commit.
package booking

import (
	"errors"
	"fmt"

	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// Direction is the sign of travel along the line.
type Direction int

const (
	// Backward travels towards lower positions (e.g. D to A).
	Backward Direction = -1
	// Forward travels towards higher positions (e.g. A to D).
	Forward Direction = 1
)

// String returns "forward", "backward" or "none".
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return "none"
}

// Span is the unordered position interval covered by a segment.
type Span struct {
	Start int
	End   int
}

// Overlaps reports whether two spans share more than an endpoint.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Topology maps the stops of the line to their positions.  It is
// immutable after construction and safe for concurrent use.
type Topology struct {
	stops     []model.Stop
	positions map[model.Stop]int
}

// DefaultStops is the four-stop line served when no line file is configured.
var DefaultStops = []model.Stop{"A", "B", "C", "D"}

// NewTopology builds a topology from stops given in line order.
func NewTopology(stops ...model.Stop) (*Topology, error) {
	if len(stops) < 2 {
		return nil, errors.New("topology: a line needs at least two stops")
	}
	t := &Topology{
		stops:     make([]model.Stop, 0, len(stops)),
		positions: make(map[model.Stop]int, len(stops)),
	}
	for i, s := range stops {
		if s == "" {
			return nil, fmt.Errorf("topology: empty stop name at position %d", i)
		}
		if _, dup := t.positions[s]; dup {
			return nil, fmt.Errorf("topology: duplicate stop %q", string(s))
		}
		t.positions[s] = i
		t.stops = append(t.stops, s)
	}
	return t, nil
}

// Stops returns the stops in line order.
func (t *Topology) Stops() []model.Stop {
	out := make([]model.Stop, len(t.stops))
	copy(out, t.stops)
	return out
}

// PositionOf returns the position of stop on the line.
func (t *Topology) PositionOf(stop model.Stop) (int, error) {
	p, ok := t.positions[stop]
	if !ok {
		return 0, &UnknownStopError{Stop: stop}
	}
	return p, nil
}

func (t *Topology) positionsOf(seg model.Segment) (from, to int, err error) {
	if from, err = t.PositionOf(seg.Origin); err != nil {
		return 0, 0, err
	}
	if to, err = t.PositionOf(seg.Destination); err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

// Validate checks that both stops exist and that the segment actually moves.
func (t *Topology) Validate(seg model.Segment) error {
	if seg.Origin == seg.Destination {
		return &InvalidItineraryError{Origin: seg.Origin, Destination: seg.Destination}
	}
	_, _, err := t.positionsOf(seg)
	return err
}

// Direction returns the travel direction of seg.
func (t *Topology) Direction(seg model.Segment) (Direction, error) {
	from, to, err := t.positionsOf(seg)
	if err != nil {
		return 0, err
	}
	switch {
	case to > from:
		return Forward, nil
	case to < from:
		return Backward, nil
	}
	return 0, &InvalidItineraryError{Origin: seg.Origin, Destination: seg.Destination}
}

// Span returns the position interval covered by seg regardless of direction.
func (t *Topology) Span(seg model.Segment) (Span, error) {
	from, to, err := t.positionsOf(seg)
	if err != nil {
		return Span{}, err
	}
	return Span{Start: min(from, to), End: max(from, to)}, nil
}
