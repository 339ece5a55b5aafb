package diversity

import (
	"context"
	"testing"

	"github.com/ZmnSCPxj/routingcore/coreerrors"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
	"github.com/ZmnSCPxj/routingcore/route"
)

func vtx(b byte) graph.Vertex {
	var v graph.Vertex
	v[0] = 0x02
	v[1] = b
	return v
}

func TestExcludedChannelsBansBothParallelChannelsAndReverseDirection(t *testing.T) {
	u, v := vtx(1), vtx(2)
	g := graph.NewMemGraph()
	g.AddChannel(&graph.Channel{ID: 1, Source: u, Destination: v, MaxHTLC: 1 << 40})
	g.AddChannel(&graph.Channel{ID: 2, Source: u, Destination: v, MaxHTLC: 1 << 40})
	g.AddChannel(&graph.Channel{ID: 3, Source: v, Destination: u, MaxHTLC: 1 << 40})

	banned, err := ExcludedChannels(g, &Edge{Source: u, Destination: v})
	if err != nil {
		t.Fatalf("ExcludedChannels: %v", err)
	}
	for _, id := range []graph.ChannelID{1, 2, 3} {
		if !banned[id] {
			t.Fatalf("expected channel %d to be banned, got %v", id, banned)
		}
	}
}

// fakePlanner returns a canned route on every call, regardless of the
// exclude set, and counts its invocations.
type fakePlanner struct {
	route route.Route
	err   error
	calls int
}

func (p *fakePlanner) GetRoute(ctx context.Context, dst graph.Vertex, amount lnwire.MilliSatoshi,
	cltv uint32, riskFactor float64, maxHops int, exclude map[graph.ChannelID]bool) (route.Route, error) {
	p.calls++
	return p.route, p.err
}

func sampleRoute(deliverAmt lnwire.MilliSatoshi) route.Route {
	a, b := vtx(10), vtx(11)
	return route.Route{
		{Node: a, Channel: &graph.Channel{ID: 100}, AmountToFwd: deliverAmt + 10, CLTVExpiry: 100},
		{Node: b, Channel: &graph.Channel{ID: 101}, AmountToFwd: deliverAmt, CLTVExpiry: 60},
	}
}

func TestEngineDuplicateRouteRestartsAtRootThenSucceeds(t *testing.T) {
	self := vtx(1)
	dst := vtx(11)
	g := graph.NewMemGraph()

	planner := &fakePlanner{route: sampleRoute(1000)}

	// Both requests run against one destination context directly: the
	// Engine tears a destination down once its last waiter finishes, so
	// two sequential GetRoute calls would each start from an empty queue
	// and cache.
	d := newDestination(dst)
	newReq := func() *request {
		return &request{ctx: context.Background(), self: self, amount: 1000, cltv: 100,
			riskFactor: 10.0, maxHops: 20, feeBudget: 1_000_000, cltvBudget: 1000}
	}

	// First call: empty queue, gets the route, seeds the queue with its
	// two hops.
	rt1, err := d.process(g, planner, newReq())
	if err != nil {
		t.Fatalf("first GetRoute: %v", err)
	}
	if !rt1.SameHops(sampleRoute(1000)) {
		t.Fatalf("unexpected first route")
	}

	// Second call: the planner keeps returning the same route no matter
	// what is excluded, so every popped edge produces a cache hit until
	// the queue drains and the cache clears, at which point the same
	// route is accepted again as "new".
	rt2, err := d.process(g, planner, newReq())
	if err != nil {
		t.Fatalf("second GetRoute: %v", err)
	}
	if !rt2.SameHops(sampleRoute(1000)) {
		t.Fatalf("unexpected second route")
	}
	if planner.calls < 3 {
		t.Fatalf("expected the duplicate-then-restart loop to call the planner at least 3 times, got %d", planner.calls)
	}
}

func TestEngineSurfacesBudgetExceededWithHintOnBestRoute(t *testing.T) {
	self := vtx(1)
	dst := vtx(11)
	g := graph.NewMemGraph()

	planner := &fakePlanner{route: sampleRoute(1000)}
	e := NewEngine(g, planner, self)

	// fee = hop0.amount(1010) - delivered(1000) = 10, budget of 5 is
	// exceeded on the very first (root) attempt.
	_, err := e.GetRoute(context.Background(), dst, 1000, 100, 10.0, 20, nil, 5, 1000)
	if err == nil {
		t.Fatalf("expected a budget-exceeded error")
	}
	budgetErr, ok := err.(*coreerrors.BudgetError)
	if !ok {
		t.Fatalf("expected *coreerrors.BudgetError, got %T", err)
	}
	if budgetErr.Hint.ChannelID != 100 {
		t.Fatalf("expected hint to name the most expensive hop's channel (100), got %d", budgetErr.Hint.ChannelID)
	}
}

func TestEngineTearsDownDestinationWhenNoWaitersRemain(t *testing.T) {
	self := vtx(1)
	dst := vtx(11)
	g := graph.NewMemGraph()

	planner := &fakePlanner{route: sampleRoute(1000)}
	e := NewEngine(g, planner, self)

	if _, err := e.GetRoute(context.Background(), dst, 1000, 100, 10.0, 20, nil, 1_000_000, 1000); err != nil {
		t.Fatalf("GetRoute: %v", err)
	}

	e.mu.Lock()
	_, stillPresent := e.destinations[dst]
	e.mu.Unlock()
	if stillPresent {
		t.Fatalf("expected destination context to be torn down once its only waiter finished")
	}
}
