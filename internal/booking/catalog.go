package booking

import (
	"context"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/iliyamo/line-seat-reservation/internal/model"
)

// Catalog resolves the priced route for a directed pair of stops.  Lookup
// returns *RouteNotFoundError when the exact directed pair is not priced.
type Catalog interface {
	Lookup(ctx context.Context, origin, destination model.Stop) (model.Route, error)
	Routes(ctx context.Context) ([]model.Route, error)
}

// StaticCatalog is a read-only catalog built from configuration.
type StaticCatalog struct {
	routes map[model.Segment]model.Route
}

// NewStaticCatalog indexes routes by their directed segment.  Later entries
// for the same pair replace earlier ones.
func NewStaticCatalog(routes []model.Route) *StaticCatalog {
	c := &StaticCatalog{routes: make(map[model.Segment]model.Route, len(routes))}
	for _, r := range routes {
		c.routes[r.Segment()] = r
	}
	return c
}

// Lookup implements Catalog.
func (c *StaticCatalog) Lookup(_ context.Context, origin, destination model.Stop) (model.Route, error) {
	r, ok := c.routes[model.NewSegment(origin, destination)]
	if !ok {
		return model.Route{}, &RouteNotFoundError{Origin: origin, Destination: destination}
	}
	return r, nil
}

// Routes returns every route ordered by origin then destination.
func (c *StaticCatalog) Routes(_ context.Context) ([]model.Route, error) {
	out := make([]model.Route, 0, len(c.routes))
	for _, r := range c.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Origin != out[j].Origin {
			return out[i].Origin < out[j].Origin
		}
		return out[i].Destination < out[j].Destination
	})
	return out, nil
}

// CachedCatalog keeps recently resolved routes in process memory so that
// availability checks do not hit the database for every request.  Misses
// (RouteNotFoundError) are not cached.
type CachedCatalog struct {
	next  Catalog
	cache *gocache.Cache
}

// NewCachedCatalog wraps next with a TTL cache.  A non-positive ttl keeps
// entries until the process exits.
func NewCachedCatalog(next Catalog, ttl time.Duration) *CachedCatalog {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &CachedCatalog{next: next, cache: gocache.New(ttl, 10*time.Minute)}
}

func cacheKey(origin, destination model.Stop) string {
	return "route:" + string(origin) + ":" + string(destination)
}

// Lookup returns the cached route for the pair or resolves it through the
// wrapped catalog.
func (c *CachedCatalog) Lookup(ctx context.Context, origin, destination model.Stop) (model.Route, error) {
	key := cacheKey(origin, destination)
	if v, ok := c.cache.Get(key); ok {
		return v.(model.Route), nil
	}
	r, err := c.next.Lookup(ctx, origin, destination)
	if err != nil {
		return model.Route{}, err
	}
	c.cache.SetDefault(key, r)
	return r, nil
}

// Routes returns the cached route list, loading it on a miss.
func (c *CachedCatalog) Routes(ctx context.Context) ([]model.Route, error) {
	const allKey = "routes:all"
	if v, ok := c.cache.Get(allKey); ok {
		return v.([]model.Route), nil
	}
	routes, err := c.next.Routes(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(allKey, routes)
	return routes, nil
}
