package booking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
	"github.com/iliyamo/line-seat-reservation/internal/model"
)

func TestNewTopologyRejectsBadLines(t *testing.T) {
	_, err := booking.NewTopology("A")
	assert.Error(t, err)
	_, err = booking.NewTopology("A", "B", "A")
	assert.Error(t, err)
	_, err = booking.NewTopology("A", "")
	assert.Error(t, err)
}

func TestDirectionAndSpan(t *testing.T) {
	top := newTopology(t)

	dir, err := top.Direction(model.NewSegment("A", "C"))
	require.NoError(t, err)
	assert.Equal(t, booking.Forward, dir)

	dir, err = top.Direction(model.NewSegment("D", "B"))
	require.NoError(t, err)
	assert.Equal(t, booking.Backward, dir)

	span, err := top.Span(model.NewSegment("D", "B"))
	require.NoError(t, err)
	assert.Equal(t, booking.Span{Start: 1, End: 3}, span)

	_, err = top.Direction(model.NewSegment("A", "A"))
	var invalid *booking.InvalidItineraryError
	assert.ErrorAs(t, err, &invalid)
}

func TestValidate(t *testing.T) {
	top := newTopology(t)

	var invalid *booking.InvalidItineraryError
	assert.ErrorAs(t, top.Validate(model.NewSegment("A", "A")), &invalid)
	// Same unknown stop on both ends is still an invalid itinerary first.
	assert.ErrorAs(t, top.Validate(model.NewSegment("Z", "Z")), &invalid)

	var unknown *booking.UnknownStopError
	require.ErrorAs(t, top.Validate(model.NewSegment("A", "Z")), &unknown)
	assert.Equal(t, model.Stop("Z"), unknown.Stop)

	assert.NoError(t, top.Validate(model.NewSegment("C", "A")))
}

func TestConflicts(t *testing.T) {
	top := newTopology(t)
	tests := []struct {
		name string
		a, b model.Segment
		want bool
	}{
		{"identical", model.NewSegment("A", "B"), model.NewSegment("A", "B"), true},
		{"nested", model.NewSegment("A", "D"), model.NewSegment("B", "C"), true},
		{"partial overlap", model.NewSegment("A", "C"), model.NewSegment("B", "D"), true},
		{"touching endpoints", model.NewSegment("A", "B"), model.NewSegment("B", "C"), false},
		{"disjoint", model.NewSegment("A", "B"), model.NewSegment("C", "D"), false},
		{"opposite directions same span", model.NewSegment("A", "C"), model.NewSegment("C", "A"), false},
		{"backward overlap", model.NewSegment("D", "B"), model.NewSegment("C", "A"), true},
		{"backward touching", model.NewSegment("D", "C"), model.NewSegment("C", "A"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := top.Conflicts(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			rev, err := top.Conflicts(tt.b, tt.a)
			require.NoError(t, err)
			assert.Equal(t, got, rev, "conflict must be symmetric")
		})
	}
}

func TestConflictsUnknownStop(t *testing.T) {
	top := newTopology(t)
	_, err := top.Conflicts(model.NewSegment("A", "B"), model.NewSegment("A", "X"))
	var unknown *booking.UnknownStopError
	assert.ErrorAs(t, err, &unknown)
}
