package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/line-seat-reservation/internal/booking"
	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// RouteRepo reads and seeds the routes table.  It implements
// booking.Catalog.
type RouteRepo struct {
	db *sql.DB
}

// NewRouteRepo returns a RouteRepo bound to db.
func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{db: db} }

// Lookup returns the route for the exact directed pair, or
// *booking.RouteNotFoundError.
func (r *RouteRepo) Lookup(ctx context.Context, origin, destination model.Stop) (model.Route, error) {
	const q = `SELECT id, from_location, to_location, price
	           FROM routes
	           WHERE from_location = ? AND to_location = ?`
	var rt model.Route
	err := r.db.QueryRowContext(ctx, q, string(origin), string(destination)).
		Scan(&rt.ID, &rt.Origin, &rt.Destination, &rt.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Route{}, &booking.RouteNotFoundError{Origin: origin, Destination: destination}
	}
	if err != nil {
		return model.Route{}, err
	}
	return rt, nil
}

// Routes lists every route ordered by origin then destination.
func (r *RouteRepo) Routes(ctx context.Context) ([]model.Route, error) {
	const q = `SELECT id, from_location, to_location, price
	           FROM routes
	           ORDER BY from_location, to_location`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Route
	for rows.Next() {
		var rt model.Route
		if err := rows.Scan(&rt.ID, &rt.Origin, &rt.Destination, &rt.Price); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// Seed inserts the configured routes and updates the price of routes that
// already exist.
func (r *RouteRepo) Seed(ctx context.Context, routes []model.Route) error {
	if len(routes) == 0 {
		return nil
	}
	query := `INSERT INTO routes (from_location, to_location, price) VALUES `
	args := make([]interface{}, 0, len(routes)*3)
	for i, rt := range routes {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, string(rt.Origin), string(rt.Destination), rt.Price)
	}
	query += ` ON DUPLICATE KEY UPDATE price = VALUES(price)`
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
