// Package route defines the route and hop types shared by the
// path-diversity engine, route repair, and the payment sender named in
// spec §6, plus the fee/CLTV arithmetic hops are built from.
package route

import (
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
)

// HopStyle selects the onion payload format used to reach a hop.
type HopStyle int

const (
	// StyleLegacy is the fixed-size pre-TLV onion hop payload.
	StyleLegacy HopStyle = iota
	// StyleTLV is the variable-length TLV onion hop payload, used
	// whenever the intermediate node advertises the var-onion feature.
	StyleTLV
)

// Hop is one forwarding step of a route: the node the payment is being
// forwarded to, the channel used to reach it, the amount arriving at
// that node, the absolute CLTV expiry it must forward with, and the
// onion style used to address it.
type Hop struct {
	Node         graph.Vertex
	Channel      *graph.Channel
	AmountToFwd  lnwire.MilliSatoshi
	CLTVExpiry   uint32
	Style        HopStyle
}

// Route is an ordered sequence of hops from the payer to the payee.
// Hop i's AmountToFwd is what node i receives; the fee charged by hop
// i's channel is layered into hop i-1's AmountToFwd (or into the
// payer's total send amount, for hop 0).
type Route []Hop

// TotalAmount returns the amount the payer must send, i.e. hop 0's
// forwarded amount plus whatever fee hop 0's own channel charges is
// already folded into it by the caller that built the route; TotalAmount
// simply reports hop 0's AmountToFwd, or 0 for an empty route.
func (r Route) TotalAmount() lnwire.MilliSatoshi {
	if len(r) == 0 {
		return 0
	}
	return r[0].AmountToFwd
}

// TotalDelay returns hop 0's CLTV expiry, the delay a payer commits to
// when it sends the first HTLC.
func (r Route) TotalDelay() uint32 {
	if len(r) == 0 {
		return 0
	}
	return r[0].CLTVExpiry
}

// SameHops reports whether r and other visit the same sequence of
// channels, used by the diversity route cache to detect a duplicate
// route regardless of amount/delay bookkeeping differences.
func (r Route) SameHops(other Route) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i].Channel.ID != other[i].Channel.ID {
			return false
		}
	}
	return true
}

// MostExpensiveHop returns the index i with the largest difference
// between hop i's AmountToFwd and hop i+1's, i.e. the fee node i keeps
// for forwarding onward (the last hop keeps none, since it is the
// final delivery). Ties go to the earliest hop. Used by the
// diversity engine's fee-budget repair hint.
func (r Route) MostExpensiveHop() int {
	best := 0
	var bestFee lnwire.MilliSatoshi
	for i := 0; i < len(r)-1; i++ {
		fee := r[i].AmountToFwd - r[i+1].AmountToFwd
		if fee > bestFee {
			bestFee = fee
			best = i
		}
	}
	return best
}

// LargestDelayHop returns the index of the hop with the largest CLTV
// delta contribution, i.e. the biggest expiry drop from one hop to the
// next. Used by the diversity engine's CLTV-budget repair hint.
func (r Route) LargestDelayHop() int {
	best := 0
	var bestDelta uint32
	for i := 0; i < len(r)-1; i++ {
		delta := r[i].CLTVExpiry - r[i+1].CLTVExpiry
		if delta > bestDelta {
			bestDelta = delta
			best = i
		}
	}
	return best
}

// AddFee returns amt plus the fee a channel with the given base fee and
// proportional fee (parts-per-million) would charge to forward amt,
// rounding the proportional component up. This mirrors
// amount_msat_add_fee from the repair splice arithmetic: it computes
// the amount that must arrive at the upstream end of a hop so that amt
// arrives at the downstream end after the hop's own fee is deducted.
func AddFee(amt lnwire.MilliSatoshi, baseFeeMSat lnwire.MilliSatoshi, feePPM uint32) lnwire.MilliSatoshi {
	ppmFee := (uint64(amt)*uint64(feePPM) + 999_999) / 1_000_000
	return amt + baseFeeMSat + lnwire.MilliSatoshi(ppmFee)
}
