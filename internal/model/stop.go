package model

// Stop is a named location on the line, e.g. "A".  The position of a stop
// along the line is not stored here; it is owned by the booking topology
// that is built from the configured stop order.
type Stop string

// String returns the stop name.
func (s Stop) String() string { return string(s) }

// Segment is a directed trip between two stops on the line.  A segment
// is valid only when Origin and Destination differ.
//
// Fields:
//  Origin      – stop where the passengers board.
//  Destination – stop where the passengers leave.
type Segment struct {
	Origin      Stop
	Destination Stop
}

// NewSegment builds a Segment from origin to destination.
func NewSegment(origin, destination Stop) Segment {
	return Segment{Origin: origin, Destination: destination}
}

// Reverse returns the segment travelled in the opposite direction.
func (s Segment) Reverse() Segment {
	return Segment{Origin: s.Destination, Destination: s.Origin}
}

func (s Segment) String() string {
	return string(s.Origin) + "->" + string(s.Destination)
}
