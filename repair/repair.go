// Package repair implements route repair (permuteroute): splicing a
// two-hop detour around a single failed hop of an already-built route,
// without recomputing the whole path.
package repair

import (
	"context"

	"github.com/ZmnSCPxj/routingcore/coreerrors"
	"github.com/ZmnSCPxj/routingcore/external"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
	"github.com/ZmnSCPxj/routingcore/route"
)

// Request describes one permuteroute call.
type Request struct {
	// Route is the route that failed.
	Route route.Route
	// ErringIndex is the index of the hop that failed.
	ErringIndex int
	// NodeFailure is true if the node reached by hop ErringIndex-1
	// (i.e. the sender of the failing hop) rejected the payment
	// outright; false if the channel of hop ErringIndex itself failed.
	NodeFailure bool
	// Source is the payer, used as the source node when the splice
	// begins at the very first hop.
	Source graph.Vertex
	// ExcludeNodes and ExcludeChannels are caller-supplied exclusions,
	// in addition to the automatic every-node-on-the-route exclusion
	// this procedure always applies to avoid looping the route back on
	// itself.
	ExcludeNodes    map[graph.Vertex]bool
	ExcludeChannels map[graph.ChannelID]bool
}

// Permute splices a two-hop detour into req.Route around the failing
// hop, returning the repaired route. It fails with a Kind Unreachable
// coreerrors.Error, naming the last-attempted sub-operation, if no
// detour exists; a ParamError if the request itself is malformed.
func Permute(ctx context.Context, g graph.Graph, nodes external.NodeLister, req Request) (route.Route, error) {
	if len(req.Route) == 0 {
		return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, "route cannot be empty")
	}
	if req.NodeFailure && req.ErringIndex == 0 {
		return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, "erring_index cannot be 0 for node failures")
	}
	if req.ErringIndex >= len(req.Route) {
		return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, "erring_index cannot exceed route length")
	}

	var sourceIndex, destIndex int
	if req.NodeFailure {
		sourceIndex = req.ErringIndex - 1
		destIndex = req.ErringIndex + 1
	} else {
		sourceIndex = req.ErringIndex
		destIndex = req.ErringIndex + 1
	}

	var sourceNode graph.Vertex
	if sourceIndex == 0 {
		sourceNode = req.Source
	} else {
		sourceNode = req.Route[sourceIndex-1].Node
	}
	sourceOutAmount := req.Route[sourceIndex].AmountToFwd

	destHop := req.Route[destIndex-1]
	destNode := destHop.Node
	destAmount := destHop.AmountToFwd
	destDelay := destHop.CLTVExpiry
	destStyle := destHop.Style

	excludeNodes := make(map[graph.Vertex]bool, len(req.ExcludeNodes)+len(req.Route)+1)
	for k := range req.ExcludeNodes {
		excludeNodes[k] = true
	}
	for _, hop := range req.Route {
		excludeNodes[hop.Node] = true
	}
	excludeNodes[req.Source] = true

	excludeChans := req.ExcludeChannels

	// Step 2: half-channels leaving the source node that can carry the
	// amount and are not banned.
	var sourceChannels []*graph.Channel
	err := g.ForEachChannel(sourceNode, func(c *graph.Channel) error {
		if !c.AcceptsAmount(sourceOutAmount) {
			return nil
		}
		if excludeChans[c.ID] {
			return nil
		}
		if excludeNodes[c.Destination] {
			return nil
		}
		sourceChannels = append(sourceChannels, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(sourceChannels) == 0 {
		log.Debugf("repair: source %s had no alternate routes", sourceNode)
		return nil, coreerrors.New(coreerrors.Unreachable, coreerrors.CodeOther,
			"no other usable channels before erring_index").WithSubCommand("listchannels-source")
	}

	// Step 3: half-channels arriving at the destination node, matched
	// against the source set by a common intermediate node.
	destChannels, err := incomingChannels(g, destNode)
	if err != nil {
		return nil, err
	}

	var hop1, hop2 *graph.Channel
search:
	for _, dc := range destChannels {
		if !dc.AcceptsAmount(destAmount) {
			continue
		}
		if excludeChans[dc.ID] {
			continue
		}
		for _, sc := range sourceChannels {
			if sc.Destination == dc.Source {
				hop1, hop2 = sc, dc
				break search
			}
		}
	}
	if hop1 == nil {
		log.Debugf("repair: no route to fix erring_index %d", req.ErringIndex)
		return nil, coreerrors.New(coreerrors.Unreachable, coreerrors.CodeOther,
			"no route to fix erring_index").WithSubCommand("listchannels-destination")
	}

	// Step 5: resolve the intermediate node's onion style. Any failure
	// here — including the node having vanished between the two
	// listchannels calls above — is a repair failure, not a crash.
	intermediate, err := nodes.ListNode(ctx, hop1.Destination)
	if err != nil {
		return nil, coreerrors.New(coreerrors.Unreachable, coreerrors.CodeOther,
			"intermediate node disappeared in a race condition, cowardly failing").WithSubCommand("listnodes")
	}
	h1Style := route.StyleLegacy
	if intermediate.Features.VarOnionOptin {
		h1Style = route.StyleTLV
	}

	// Step 4: splice arithmetic, working backwards from the delivered
	// amount at the destination.
	h2Amount := destAmount
	h2Delay := destDelay
	h1Amount := route.AddFee(h2Amount, hop2.BaseFeeMSat, hop2.FeePPM)
	h1Delay := h2Delay + uint32(hop2.CLTVDelta)
	prefixAmount := route.AddFee(h1Amount, hop1.BaseFeeMSat, hop1.FeePPM)
	prefixDelay := h1Delay + uint32(hop1.CLTVDelta)

	h1 := route.Hop{
		Node:        hop1.Destination,
		Channel:     hop1,
		AmountToFwd: h1Amount,
		CLTVExpiry:  h1Delay,
		Style:       h1Style,
	}
	h2 := route.Hop{
		Node:        hop2.Destination,
		Channel:     hop2,
		AmountToFwd: h2Amount,
		CLTVExpiry:  h2Delay,
		Style:       destStyle,
	}

	prefix := adjustPrefix(req.Route[:sourceIndex], prefixAmount, prefixDelay)

	out := make(route.Route, 0, len(prefix)+2+len(req.Route)-destIndex)
	out = append(out, prefix...)
	out = append(out, h1, h2)
	out = append(out, req.Route[destIndex:]...)
	return out, nil
}

// incomingChannels returns every half-channel whose destination is
// dest. The narrow graph.Graph interface only exposes outgoing edges
// per node, so this walks every node's outgoing set — an acceptable
// cost here since repair is an occasional, RPC-latency-bound operation
// rather than a hot path, mirroring the cost of the listchannels call
// this stands in for.
func incomingChannels(g graph.Graph, dest graph.Vertex) ([]*graph.Channel, error) {
	var chans []*graph.Channel
	err := g.ForEachNode(func(v graph.Vertex) error {
		return g.ForEachChannel(v, func(c *graph.Channel) error {
			if c.Destination == dest {
				chans = append(chans, c)
			}
			return nil
		})
	})
	return chans, err
}

// adjustPrefix returns a copy of prefix with each hop's amount and
// delay bumped so that its last hop delivers at least prefixAmount and
// prefixDelay to the splice. If the prefix already delivers enough,
// it is returned unchanged. Each hop moving upstream is bumped by one
// extra msat over the last, absorbing fee-ppm rounding drift caused by
// the amount increase rather than re-querying every hop's fee rate.
func adjustPrefix(prefix route.Route, prefixAmount lnwire.MilliSatoshi, prefixDelay uint32) route.Route {
	if len(prefix) == 0 {
		return prefix
	}

	out := make(route.Route, len(prefix))
	copy(out, prefix)

	amountLast := out[len(out)-1].AmountToFwd
	delayLast := out[len(out)-1].CLTVExpiry

	var amountDelta lnwire.MilliSatoshi
	if prefixAmount > amountLast {
		amountDelta = prefixAmount - amountLast
	}
	var delayDelta uint32
	if prefixDelay > delayLast {
		delayDelta = prefixDelay - delayLast
	}
	if amountDelta == 0 && delayDelta == 0 {
		return out
	}

	for i := len(out) - 1; i >= 0; i-- {
		out[i].AmountToFwd += amountDelta
		out[i].CLTVExpiry += delayDelta
		amountDelta++
	}
	return out
}
