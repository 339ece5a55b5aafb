package dhc

import (
	"testing"
	"time"

	"github.com/ZmnSCPxj/routingcore/clock"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
)

// fakeTimer is a no-op clock.Timer; tests drive the refresher by calling
// its registered function directly instead of waiting on a real clock.
type fakeTimer struct{}

func (fakeTimer) Stop() bool { return true }

// fakeClock is a manually-advanced clock.Source: AfterFunc runs its
// callback synchronously and immediately, which works here because the
// refresh cycles under test always finish within one stepsPerBatch
// batch (so the "go to sleep" branch is never exercised).
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// AfterFunc only fires synchronously for zero-delay scheduling (used by
// the refresher to kick off its own reawaken loop); non-zero delays
// (used for sleep-and-resume and deferred retry) are left unfired,
// since these tests only exercise cycles that finish within one batch.
func (c *fakeClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	if d == 0 {
		f()
	}
	return fakeTimer{}
}

func vtx(b byte) graph.Vertex {
	var v graph.Vertex
	v[0] = 0x02
	v[1] = b
	return v
}

// zeroCostCoster-free channel: CLTVDelta 0 and FeePPM/BaseFee chosen so
// that Coster.Cost(ch) with DefaultSampleAmount returns exactly the
// listed edge cost, independent of the sample amount — we do this by
// setting BaseFeeMSat to the desired cost and FeePPM/CLTVDelta to 0.
func edge(id graph.ChannelID, from, to graph.Vertex, cost uint64) *graph.Channel {
	return &graph.Channel{
		ID:          id,
		Source:      from,
		Destination: to,
		BaseFeeMSat: lnwire.MilliSatoshi(cost),
		MaxHTLC:     1 << 40,
	}
}

func TestRefresherLandmarkDistanceScenario(t *testing.T) {
	l, a, b, g := vtx(1), vtx(2), vtx(3), vtx(4)

	mg := graph.NewMemGraph()
	mg.AddChannel(edge(1, l, a, 10))
	mg.AddChannel(edge(2, a, b, 3))
	mg.AddChannel(edge(3, b, g, 7))
	mg.AddChannel(edge(4, l, g, 100))

	cache := New()
	clk := &fakeClock{now: time.Unix(0, 0)}

	completed := false
	r := NewRefresher(mg, cache, clk, l, func() { completed = true })
	r.ImmediateTrigger()

	if !completed {
		t.Fatalf("expected refresh to complete synchronously under the fake clock")
	}
	if !cache.Available() {
		t.Fatalf("expected cache to be available after a completed refresh")
	}

	reader, err := cache.NewReader(g)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	if !reader.Reachable(a) || !reader.Reachable(b) || !reader.Reachable(g) {
		t.Fatalf("expected a, b, g all reachable")
	}

	// d(G,L)=20 (via A-B-G: 10+3+7), d(A,L)=10, d(B,L)=13.
	if dist := reader.Distance(a); dist != 10 {
		t.Fatalf("reader(G).distance(A) = %d, want 10", dist)
	}
	if dist := reader.Distance(b); dist != 7 {
		t.Fatalf("reader(G).distance(B) = %d, want 7", dist)
	}
	if dist := reader.Distance(g); dist != 0 {
		t.Fatalf("reader(G).distance(G) = %d, want 0", dist)
	}
}

func TestRefresherSkipsNodeThatDisappeared(t *testing.T) {
	l, a := vtx(1), vtx(2)
	mg := graph.NewMemGraph()
	mg.AddChannel(edge(1, l, a, 5))

	cache := New()
	clk := &fakeClock{now: time.Unix(0, 0)}

	r := NewRefresher(mg, cache, clk, l, nil)
	r.ImmediateTrigger()

	if !cache.Available() {
		t.Fatalf("expected refresh to complete even with a trivial graph")
	}
}

func TestRefresherFailsWhenSelfUnknown(t *testing.T) {
	mg := graph.NewMemGraph()
	cache := New()
	clk := &fakeClock{now: time.Unix(0, 0)}

	r := NewRefresher(mg, cache, clk, vtx(99), nil)
	r.ImmediateTrigger()

	if cache.Available() {
		t.Fatalf("expected refresh against an unknown self node to fail, not complete")
	}
}

func TestCosterFeePlusRisk(t *testing.T) {
	c := Coster{SampleAmount: 1_000_000, RiskFactor: 10.0}
	ch := &graph.Channel{BaseFeeMSat: 1000, FeePPM: 500, CLTVDelta: 40}
	cost := c.Cost(ch)
	if cost <= uint64(ch.Fee(c.SampleAmount)) {
		t.Fatalf("expected cost %d to exceed the bare fee %d by a positive risk term", cost, ch.Fee(c.SampleAmount))
	}
}
