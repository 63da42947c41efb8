package model

import "github.com/shopspring/decimal"

// Route is a priced directed segment of the line.  There is exactly one
// route per realizable (origin, destination) pair.  A→B and B→A are two
// different routes even when they cost the same.  This struct corresponds
// to a row in the `routes` table.
//
// Fields:
//  ID          – primary key identifier.
//  Origin      – departure stop.
//  Destination – arrival stop.
//  Price       – price of one seat on this route.
type Route struct {
	ID          uint64          `json:"id"`          // routes.id
	Origin      Stop            `json:"origin"`      // routes.from_location
	Destination Stop            `json:"destination"` // routes.to_location
	Price       decimal.Decimal `json:"price"`       // routes.price
}

// Segment returns the directed segment served by the route.
func (r Route) Segment() Segment { return NewSegment(r.Origin, r.Destination) }
