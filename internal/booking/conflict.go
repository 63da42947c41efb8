package booking

import "github.com/iliyamo/line-seat-reservation/internal/model"

// Conflicts reports whether two directed segments compete for the same seat.
// Segments travelling in opposite directions never conflict.  Segments in
// the same direction conflict when their spans overlap as open intervals,
// so a trip ending at B and another starting at B can share a seat.
func (t *Topology) Conflicts(a, b model.Segment) (bool, error) {
	da, err := t.Direction(a)
	if err != nil {
		return false, err
	}
	db, err := t.Direction(b)
	if err != nil {
		return false, err
	}
	if da != db {
		return false, nil
	}
	sa, err := t.Span(a)
	if err != nil {
		return false, err
	}
	sb, err := t.Span(b)
	if err != nil {
		return false, err
	}
	return sa.Overlaps(sb), nil
}
