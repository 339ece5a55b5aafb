package main

import "gopkg.in/macaroon-bakery.v2/bakery"

// macaroonOps returns the single (entity, "write") operation every
// routing-core RPC method requires, mirroring
// lnrpc/autopilotrpc/autopilot_server.go's macaroonOps — this surface
// has no read-only subset, since even multiconnect changes the peer
// connection state.
func macaroonOps(entity string) []bakery.Op {
	return []bakery.Op{{Entity: entity, Action: "write"}}
}

// routingcoreOps is every operation the macaroon minted at startup
// authorizes, the union of macaroonOps across the RPC surface.
func routingcoreOps() []bakery.Op {
	return macaroonOps("routingcore")
}
