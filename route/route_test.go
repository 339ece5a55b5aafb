package route

import (
	"testing"

	"github.com/ZmnSCPxj/routingcore/graph"
)

func chanWithID(id graph.ChannelID) *graph.Channel {
	return &graph.Channel{ID: id}
}

func TestAddFee(t *testing.T) {
	// 500ppm of 1_000_000 msat = 500 msat, plus 1000 base = 1500.
	got := AddFee(1_000_000, 1000, 500)
	if got != 1_001_500 {
		t.Fatalf("AddFee = %d, want 1001500", got)
	}
}

func TestSameHops(t *testing.T) {
	r1 := Route{{Channel: chanWithID(1)}, {Channel: chanWithID(2)}}
	r2 := Route{{Channel: chanWithID(1)}, {Channel: chanWithID(2)}}
	r3 := Route{{Channel: chanWithID(1)}, {Channel: chanWithID(3)}}

	if !r1.SameHops(r2) {
		t.Fatalf("expected r1 and r2 to be the same route")
	}
	if r1.SameHops(r3) {
		t.Fatalf("expected r1 and r3 to differ")
	}
}

func TestMostExpensiveHop(t *testing.T) {
	r := Route{
		{AmountToFwd: 1000},
		{AmountToFwd: 950}, // hop 0 fee = 50
		{AmountToFwd: 700}, // hop 1 fee = 250
	}
	if idx := r.MostExpensiveHop(); idx != 1 {
		t.Fatalf("MostExpensiveHop = %d, want 1", idx)
	}
}

func TestLargestDelayHop(t *testing.T) {
	r := Route{
		{CLTVExpiry: 500},
		{CLTVExpiry: 460}, // hop 0 delta = 40
		{CLTVExpiry: 400}, // hop 1 delta = 60
	}
	if idx := r.LargestDelayHop(); idx != 1 {
		t.Fatalf("LargestDelayHop = %d, want 1", idx)
	}
}
