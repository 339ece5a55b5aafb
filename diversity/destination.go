package diversity

import (
	"context"

	"github.com/ZmnSCPxj/routingcore/coreerrors"
	"github.com/ZmnSCPxj/routingcore/external"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
	"github.com/ZmnSCPxj/routingcore/route"
)

// request is one queued shortest-route ask against a single
// destination's ban-tree.
type request struct {
	ctx           context.Context
	self          graph.Vertex
	amount        lnwire.MilliSatoshi
	cltv          uint32
	riskFactor    float64
	maxHops       int
	payerExcludes map[graph.ChannelID]bool
	feeBudget     lnwire.MilliSatoshi
	cltvBudget    uint32

	result chan requestResult
}

type requestResult struct {
	route route.Route
	err   error
}

// destination is the per-target-node ban-tree state: the queue of
// unexpanded edges, the route cache, and the single goroutine that
// serializes every request against this destination so that an
// in-flight getroute always finishes (and seeds the queue) before the
// next request starts.
type destination struct {
	node  graph.Vertex
	queue *Queue
	cache *RouteCache
	work  chan *request
}

func newDestination(node graph.Vertex) *destination {
	d := &destination{
		node:  node,
		queue: NewQueue(),
		cache: NewRouteCache(),
		work:  make(chan *request),
	}
	return d
}

// run is the destination's serializing goroutine: exactly one request
// is processed at a time, in FIFO order, until work is closed.
func (d *destination) run(g graph.Graph, planner external.RoutePlanner) {
	for req := range d.work {
		rt, err := d.process(g, planner, req)
		req.result <- requestResult{route: rt, err: err}
	}
}

// process implements the tree-traversal algorithm: pop an edge (or
// tree root), expand it to a ban set, ask the planner for a route,
// reject duplicates and out-of-budget routes, and on success seed the
// queue with the route's own hops before returning it.
func (d *destination) process(g graph.Graph, planner external.RoutePlanner, req *request) (route.Route, error) {
	for {
		e := d.queue.Pop()
		if e == nil {
			d.cache.Clear()
		}

		banned, err := ExcludedChannels(g, e)
		if err != nil {
			return nil, err
		}
		exclude := unionExcludes(req.payerExcludes, banned)

		rt, err := planner.GetRoute(req.ctx, d.node, req.amount, req.cltv, req.riskFactor, req.maxHops, exclude)
		if err != nil {
			if e != nil {
				// Drop this edge, try the next one.
				log.Debugf("diversity: getroute failed with extra bans, trying next: %v", err)
				continue
			}
			return nil, err
		}

		if found := d.cache.LookupOrInsert(rt); found {
			continue
		}

		fee := rt.TotalAmount() - req.amount
		delay := rt.TotalDelay()

		switch {
		case fee > req.feeBudget:
			if e == nil {
				idx := rt.MostExpensiveHop()
				return nil, coreerrors.NewBudgetExceeded(
					"fee exceeds budget on best-possible route",
					uint64(rt[idx].Channel.ID),
				)
			}
			d.queue.Clear()
			continue
		case delay > req.cltvBudget:
			if e == nil {
				idx := rt.LargestDelayHop()
				return nil, coreerrors.NewBudgetExceeded(
					"cltv delay exceeds budget on best-possible route",
					uint64(rt[idx].Channel.ID),
				)
			}
			d.queue.Clear()
			continue
		}

		pushRouteEdges(d.queue, rt, req.self, e)
		return rt, nil
	}
}

func unionExcludes(a, b map[graph.ChannelID]bool) map[graph.ChannelID]bool {
	out := make(map[graph.ChannelID]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

// pushRouteEdges enqueues one child edge per hop of rt, all sharing
// parent as their immediate ban-chain ancestor — mirroring the
// original's choice to parent every new edge to the edge that was just
// expanded, rather than chaining the new edges to each other.
func pushRouteEdges(q *Queue, rt route.Route, self graph.Vertex, parent *Edge) {
	prev := self
	for _, hop := range rt {
		q.Push(&Edge{Source: prev, Destination: hop.Node, Parent: parent})
		prev = hop.Node
	}
}
