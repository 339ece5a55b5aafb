package diversity

import "github.com/ZmnSCPxj/routingcore/route"

// RouteCache is the list of routes already emitted for one destination,
// used to reject a route the tree traversal has already produced.
// Cleared whenever the diversity queue drains, since that signals the
// traversal is restarting at the tree root and will regenerate
// everything from scratch.
type RouteCache struct {
	routes []route.Route
}

// NewRouteCache constructs an empty cache.
func NewRouteCache() *RouteCache {
	return &RouteCache{}
}

// LookupOrInsert reports whether r is already present in the cache. If
// not, it inserts r and returns false (matching the "not found and
// inserted" convention of the routine this is grounded on).
func (c *RouteCache) LookupOrInsert(r route.Route) (found bool) {
	// Scan in reverse: routes tend to start short and grow longer, so
	// later insertions are more likely to match a recent duplicate.
	for i := len(c.routes) - 1; i >= 0; i-- {
		if c.routes[i].SameHops(r) {
			return true
		}
	}
	c.routes = append(c.routes, r)
	return false
}

// Clear empties the cache.
func (c *RouteCache) Clear() {
	c.routes = nil
}
