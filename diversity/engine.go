// Package diversity implements the path-diversity tree traversal: it
// wraps a plain shortest-route planner with a progressively-banning
// breadth-first walk that hands out a stream of distinct routes to a
// destination, so that a payment split across several sub-payments
// does not send them all down the same path.
package diversity

import (
	"context"
	"sync"

	"github.com/ZmnSCPxj/routingcore/external"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
	"github.com/ZmnSCPxj/routingcore/route"
)

// Engine drives shortest-route requests through the path-diversity
// tree, one destination context at a time, serializing concurrent
// requests to the same destination while letting requests to different
// destinations proceed independently.
type Engine struct {
	graph   graph.Graph
	planner external.RoutePlanner
	self    graph.Vertex

	mu           sync.Mutex
	destinations map[graph.Vertex]*destination
	pending      map[graph.Vertex]int
}

// NewEngine constructs an Engine over g (used to expand ban edges into
// concrete channel ids) and planner (the underlying shortest-route
// operation), landmarked at self (the payer, used as the source
// endpoint of a route's first ban edge).
func NewEngine(g graph.Graph, planner external.RoutePlanner, self graph.Vertex) *Engine {
	return &Engine{
		graph:        g,
		planner:      planner,
		self:         self,
		destinations: make(map[graph.Vertex]*destination),
		pending:      make(map[graph.Vertex]int),
	}
}

// GetRoute requests a diverse route to dst for amount, honoring cltv,
// riskFactor and maxHops as getroute parameters, payerExcludes as
// caller-supplied exclusions, and feeBudget/cltvBudget as the payment's
// own cost limits. It blocks until a route is found or the destination
// context's traversal exhausts itself.
func (e *Engine) GetRoute(ctx context.Context, dst graph.Vertex, amount lnwire.MilliSatoshi,
	cltv uint32, riskFactor float64, maxHops int,
	payerExcludes map[graph.ChannelID]bool, feeBudget lnwire.MilliSatoshi, cltvBudget uint32) (route.Route, error) {

	d := e.acquire(dst)

	req := &request{
		ctx:           ctx,
		self:          e.self,
		amount:        amount,
		cltv:          cltv,
		riskFactor:    riskFactor,
		maxHops:       maxHops,
		payerExcludes: payerExcludes,
		feeBudget:     feeBudget,
		cltvBudget:    cltvBudget,
		result:        make(chan requestResult, 1),
	}

	d.work <- req
	res := <-req.result

	e.release(dst)

	return res.route, res.err
}

// acquire looks up (creating if necessary) the destination context for
// dst and marks one more request pending against it.
func (e *Engine) acquire(dst graph.Vertex) *destination {
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.destinations[dst]
	if !ok {
		d = newDestination(dst)
		e.destinations[dst] = d
		go d.run(e.graph, e.planner)
	}
	e.pending[dst]++
	return d
}

// release marks one pending request against dst as done, tearing down
// the destination context (and its goroutine) once no waiters remain.
func (e *Engine) release(dst graph.Vertex) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending[dst]--
	if e.pending[dst] <= 0 {
		if d, ok := e.destinations[dst]; ok {
			close(d.work)
		}
		delete(e.destinations, dst)
		delete(e.pending, dst)
	}
}
