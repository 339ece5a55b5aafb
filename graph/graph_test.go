package graph

import "testing"

func vtx(b byte) Vertex {
	var v Vertex
	v[0] = 0x02
	v[1] = b
	return v
}

func TestMemGraphForEachChannelTolerantOfMissingNode(t *testing.T) {
	g := NewMemGraph()

	called := false
	err := g.ForEachChannel(vtx(1), func(c *Channel) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("fn should not be called for a vertex with no channels")
	}
}

func TestChannelFee(t *testing.T) {
	c := &Channel{
		BaseFeeMSat: 1000,
		FeePPM:      500,
	}
	// 500ppm of 1_000_000 msat = 1_000_000*500/1e6 = 500 msat, rounded up.
	fee := c.Fee(1_000_000)
	if fee != 1500 {
		t.Fatalf("expected fee 1500, got %d", fee)
	}
}

func TestChannelAcceptsAmount(t *testing.T) {
	c := &Channel{MinHTLC: 100, MaxHTLC: 10000}
	if !c.AcceptsAmount(5000) {
		t.Fatalf("expected 5000 to be accepted")
	}
	if c.AcceptsAmount(50) {
		t.Fatalf("expected 50 to be rejected (below min)")
	}
	if c.AcceptsAmount(20000) {
		t.Fatalf("expected 20000 to be rejected (above max)")
	}
}

func TestRemoveNodeDropsOutgoingChannels(t *testing.T) {
	g := NewMemGraph()
	a, b := vtx(1), vtx(2)
	g.AddChannel(&Channel{ID: 1, Source: a, Destination: b, MinHTLC: 0, MaxHTLC: 1 << 40})

	if _, ok := g.Node(a); !ok {
		t.Fatalf("expected node a to exist")
	}

	g.RemoveNode(a)

	if _, ok := g.Node(a); ok {
		t.Fatalf("expected node a to be removed")
	}

	count := 0
	g.ForEachChannel(a, func(c *Channel) error {
		count++
		return nil
	})
	if count != 0 {
		t.Fatalf("expected no channels from removed node, got %d", count)
	}
}
