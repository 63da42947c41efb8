package booking

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// InquiryKind discriminates the two shapes of an itinerary request.
type InquiryKind int

const (
	// InquiryAvailability is a read-only availability question.
	InquiryAvailability InquiryKind = iota
	// InquiryCommit carries the price the caller agreed to pay and must be
	// checked before any seats are allocated.
	InquiryCommit
)

// Inquiry is an itinerary request.  ConfirmedPrice is only meaningful for
// InquiryCommit.
type Inquiry struct {
	Kind           InquiryKind
	PassengerCount int
	Origin         model.Stop
	Destination    model.Stop
	ConfirmedPrice decimal.Decimal
}

// AvailabilityInquiry builds a read-only inquiry.
func AvailabilityInquiry(passengers int, origin, destination model.Stop) Inquiry {
	return Inquiry{
		Kind:           InquiryAvailability,
		PassengerCount: passengers,
		Origin:         origin,
		Destination:    destination,
	}
}

// CommitInquiry builds an inquiry that confirms price before allocation.
func CommitInquiry(passengers int, origin, destination model.Stop, confirmed decimal.Decimal) Inquiry {
	return Inquiry{
		Kind:           InquiryCommit,
		PassengerCount: passengers,
		Origin:         origin,
		Destination:    destination,
		ConfirmedPrice: confirmed,
	}
}

// Segment returns the requested directed segment.
func (q Inquiry) Segment() model.Segment { return model.NewSegment(q.Origin, q.Destination) }
