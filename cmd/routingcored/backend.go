package main

import (
	"errors"

	"github.com/ZmnSCPxj/routingcore/accel"
	"github.com/ZmnSCPxj/routingcore/external"
	"github.com/ZmnSCPxj/routingcore/funding"
	"github.com/ZmnSCPxj/routingcore/graph"
)

// Backend groups every out-of-scope collaborator interface named in
// spec §6 that the daemon needs a concrete implementation of: the
// gossip graph, the peer/channel-funding/wallet protocol, node lookup
// for onion-style resolution, and the fee-bump/block-wait backend.
// Constructing one means speaking to a real lightning node and chain
// backend, which spec §1 places out of scope for this repository —
// so this package defines the seam and lets a deployment supply the
// implementation, the way lnd's chain-backend interface is satisfied
// by a separate btcd/bitcoind/neutrino driver package.
type Backend interface {
	funding.External
	external.NodeLister
	accel.Backend
	graph.Graph
}

// newBackend is the hook a deployment overrides (by building this
// binary against a package that sets it in an init function) to
// supply a concrete Backend talking to a real node and chain source.
// Left unset, routingcored refuses to start rather than serve RPCs
// against a backend that can't reach a network.
var newBackend = func(cfg *Config) (Backend, error) {
	return nil, errors.New("routingcored: no backend implementation linked; " +
		"see cmd/routingcored/backend.go")
}
