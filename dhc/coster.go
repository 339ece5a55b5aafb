package dhc

import (
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
)

// blocksPerYear is the same constant the refresh driver uses to turn an
// annualized risk factor into a per-block one: 365.25 * 24 * 60 / 10.
const blocksPerYear = 52596

// DefaultSampleAmount is 1 millibitcoin, expressed in millisatoshis:
// 1000 msat/sat * 100 sat/microbtc * 1000 microbtc/millibtc.
const DefaultSampleAmount = lnwire.MilliSatoshi(1000 * 100 * 1000)

// DefaultRiskFactor is 10% per annum.
const DefaultRiskFactor = 10.0

// Coster measures the cost of traversing a channel, combining its
// forwarding fee for a representative sample amount with the time-value
// risk of locking that amount up for the channel's CLTV delta. The same
// Coster is used by the refresher to build the distance cache and by
// pathfinders to score real routes, so the heuristic and the actual
// search share one metric.
type Coster struct {
	SampleAmount lnwire.MilliSatoshi
	RiskFactor   float64
}

func (c Coster) riskFactorPerBlock() float64 {
	return c.RiskFactor / blocksPerYear / 100
}

// Cost returns the cost of forwarding SampleAmount across ch: the
// channel's advertised fee for that amount, plus a risk term
// proportional to the amount locked and the number of blocks it is
// locked for.
func (c Coster) Cost(ch *graph.Channel) uint64 {
	fee := uint64(ch.Fee(c.SampleAmount))
	risk := uint64(float64(c.SampleAmount) * float64(ch.CLTVDelta) * c.riskFactorPerBlock())
	return fee + risk
}
