package repair

import (
	"context"
	"testing"

	"github.com/ZmnSCPxj/routingcore/coreerrors"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/route"
)

func vtx(b byte) graph.Vertex {
	var v graph.Vertex
	v[0] = 0x02
	v[1] = b
	return v
}

type fakeNodeLister struct {
	nodes map[graph.Vertex]graph.Node
}

func (f *fakeNodeLister) ListNode(ctx context.Context, id graph.Vertex) (graph.Node, error) {
	n, ok := f.nodes[id]
	if !ok {
		return graph.Node{}, coreerrors.New(coreerrors.Unreachable, coreerrors.CodeOther, "node not found")
	}
	return n, nil
}

// TestPermuteSplicesChannelFailure exercises spec's scenario 3: route
// A->B->C->D fails on the B->C channel, and a new node F, connected to
// both B and C, is spliced in around it.
func TestPermuteSplicesChannelFailure(t *testing.T) {
	a, b, c, d, f := vtx(1), vtx(2), vtx(3), vtx(4), vtx(5)

	g := graph.NewMemGraph()
	chanAB := &graph.Channel{ID: 1, Source: a, Destination: b, MinHTLC: 0, MaxHTLC: 1 << 40}
	chanBC := &graph.Channel{ID: 2, Source: b, Destination: c, MinHTLC: 0, MaxHTLC: 1 << 40}
	chanCD := &graph.Channel{ID: 3, Source: c, Destination: d, MinHTLC: 0, MaxHTLC: 1 << 40}
	chanBF := &graph.Channel{ID: 4, Source: b, Destination: f, BaseFeeMSat: 5, FeePPM: 1000, CLTVDelta: 6, MinHTLC: 0, MaxHTLC: 1 << 40}
	chanFC := &graph.Channel{ID: 5, Source: f, Destination: c, BaseFeeMSat: 7, FeePPM: 2000, CLTVDelta: 9, MinHTLC: 0, MaxHTLC: 1 << 40}
	g.AddChannel(chanAB)
	g.AddChannel(chanBC)
	g.AddChannel(chanCD)
	g.AddChannel(chanBF)
	g.AddChannel(chanFC)

	nodes := &fakeNodeLister{nodes: map[graph.Vertex]graph.Node{
		f: {ID: f, Features: graph.Features{VarOnionOptin: true}},
	}}

	original := route.Route{
		{Node: b, Channel: chanAB, AmountToFwd: 100_100, CLTVExpiry: 130},
		{Node: c, Channel: chanBC, AmountToFwd: 100_000, CLTVExpiry: 120},
		{Node: d, Channel: chanCD, AmountToFwd: 99_900, CLTVExpiry: 100},
	}

	req := Request{
		Route:       original,
		ErringIndex: 1,
		NodeFailure: false,
		Source:      a,
	}

	out, err := Permute(context.Background(), g, nodes, req)
	if err != nil {
		t.Fatalf("Permute: %v", err)
	}

	if len(out) != 4 {
		t.Fatalf("expected a 4-hop repaired route, got %d hops: %+v", len(out), out)
	}

	// The failing hop's channel must not appear in the result.
	for _, hop := range out {
		if hop.Channel.ID == chanBC.ID {
			t.Fatalf("repaired route still uses the failing channel")
		}
	}

	// hop0 keeps its channel (source index 1 means a one-hop prefix,
	// whose amount and delay are bumped to cover the splice).
	if out[0].Channel.ID != chanAB.ID {
		t.Fatalf("expected hop 0 to still use chanAB, got %d", out[0].Channel.ID)
	}
	// The splice is B->F->C.
	if out[1].Channel.ID != chanBF.ID || out[1].Node != f {
		t.Fatalf("expected hop 1 to be the B->F splice hop, got %+v", out[1])
	}
	if out[2].Channel.ID != chanFC.ID || out[2].Node != c {
		t.Fatalf("expected hop 2 to be the F->C splice hop, got %+v", out[2])
	}
	// The tail (C->D) is preserved verbatim.
	if out[3].Channel.ID != chanCD.ID || out[3].AmountToFwd != 99_900 || out[3].CLTVExpiry != 100 {
		t.Fatalf("expected the tail hop to be preserved unchanged, got %+v", out[3])
	}

	// The final delivered amount/delay to C must match the original.
	if out[2].AmountToFwd != 100_000 {
		t.Fatalf("expected the splice to still deliver 100000 to C, got %d", out[2].AmountToFwd)
	}
	if out[2].CLTVExpiry != 120 {
		t.Fatalf("expected the splice to still deliver delay 120 to C, got %d", out[2].CLTVExpiry)
	}
	// The intermediate hop must charge at least chanFC's fee on top.
	if out[1].AmountToFwd <= out[2].AmountToFwd {
		t.Fatalf("expected hop 1 to forward more than hop 2 delivers (fee), got %d <= %d",
			out[1].AmountToFwd, out[2].AmountToFwd)
	}
	// F offers var-onion, so the new hop must use TLV.
	if out[1].Style != route.StyleTLV {
		t.Fatalf("expected the new intermediate hop to use TLV style")
	}
}

func TestPermuteFailsWhenNoAlternateSourceChannel(t *testing.T) {
	a, b, c := vtx(1), vtx(2), vtx(3)
	g := graph.NewMemGraph()
	chanAB := &graph.Channel{ID: 1, Source: a, Destination: b, MinHTLC: 0, MaxHTLC: 1 << 40}
	chanBC := &graph.Channel{ID: 2, Source: b, Destination: c, MinHTLC: 0, MaxHTLC: 1 << 40}
	g.AddChannel(chanAB)
	g.AddChannel(chanBC)

	nodes := &fakeNodeLister{nodes: map[graph.Vertex]graph.Node{}}

	original := route.Route{
		{Node: b, Channel: chanAB, AmountToFwd: 1000, CLTVExpiry: 40},
		{Node: c, Channel: chanBC, AmountToFwd: 900, CLTVExpiry: 20},
	}

	_, err := Permute(context.Background(), g, nodes, Request{
		Route:       original,
		ErringIndex: 1,
		NodeFailure: false,
		Source:      a,
	})
	if err == nil {
		t.Fatalf("expected repair to fail: B has no other usable channel")
	}
}

func TestPermuteRejectsBadErringIndex(t *testing.T) {
	a, b := vtx(1), vtx(2)
	g := graph.NewMemGraph()
	chanAB := &graph.Channel{ID: 1, Source: a, Destination: b}
	original := route.Route{{Node: b, Channel: chanAB, AmountToFwd: 1000, CLTVExpiry: 40}}

	_, err := Permute(context.Background(), g, &fakeNodeLister{}, Request{
		Route:       original,
		ErringIndex: 0,
		NodeFailure: true,
		Source:      a,
	})
	if err == nil {
		t.Fatalf("expected a param error for node-failure at index 0")
	}
}
