// Package graph defines the channel-graph domain types shared by the
// pathfinding engines, and the narrow Graph interface through which they
// consume the out-of-scope gossip-ingest collaborator named in spec §6.
package graph

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec"

	"github.com/ZmnSCPxj/routingcore/lnwire"
)

// Vertex is the 33-byte compressed public key identifying a node in the
// channel graph. It is comparable, so it can be used directly as a map
// key the way route.Vertex is in the teacher's routing package.
type Vertex [33]byte

// NewVertex returns the Vertex for the given public key.
func NewVertex(pub *btcec.PublicKey) Vertex {
	var v Vertex
	copy(v[:], pub.SerializeCompressed())
	return v
}

func (v Vertex) String() string {
	return hex.EncodeToString(v[:])
}

// ChannelID is the short channel id of a gossiped channel.
type ChannelID uint64

// Channel is a directed half-channel: an edge from Source to Destination,
// carrying the policy Source advertises for forwarding in that direction.
type Channel struct {
	ID          ChannelID
	Source      Vertex
	Destination Vertex

	BaseFeeMSat    lnwire.MilliSatoshi
	FeePPM         uint32
	CLTVDelta      uint16
	MinHTLC        lnwire.MilliSatoshi
	MaxHTLC        lnwire.MilliSatoshi
	Active         bool
}

// Fee returns the fee this half-channel charges to forward amt.
func (c *Channel) Fee(amt lnwire.MilliSatoshi) lnwire.MilliSatoshi {
	ppmFee := (uint64(amt) * uint64(c.FeePPM) + 999_999) / 1_000_000
	return c.BaseFeeMSat + lnwire.MilliSatoshi(ppmFee)
}

// AcceptsAmount reports whether amt falls within this channel's advertised
// HTLC bounds.
func (c *Channel) AcceptsAmount(amt lnwire.MilliSatoshi) bool {
	return amt >= c.MinHTLC && amt <= c.MaxHTLC
}

// Node is a gossiped node record. Feature bits are kept as the two
// named booleans this core inspects, rather than a raw bitset.
type Node struct {
	ID       Vertex
	Features Features
}

// Features is a minimal feature-bit set, sufficient to answer "does this
// node offer TLV/var-onion payloads" and "does this node accept a
// channel funded above the standard channel-size cap" without pulling
// in the full BOLT 9 feature vector machinery (out of scope per spec
// §1).
type Features struct {
	// VarOnionOptin is used by route repair to pick a hop's wire style.
	VarOnionOptin bool
	// LargeChannels is used by the funding orchestrator's destination
	// validation to waive the large-channel amount cap.
	LargeChannels bool
}

// Graph abstracts the gossip-ingest collaborator named in spec §6. It is
// a single-writer/many-reader view: the gossip subsystem mutates it
// between calls, so every method must tolerate a node or channel having
// disappeared since the caller last looked, per spec §3's lifecycle note.
type Graph interface {
	// Node looks up a node by vertex. ok is false if the node is not
	// (or no longer) known to the graph.
	Node(v Vertex) (Node, bool)

	// ForEachNode calls fn once for every node currently in the graph.
	// fn may observe a graph that is being concurrently mutated by
	// gossip ingest between calls; implementations must tolerate this.
	ForEachNode(fn func(Vertex) error) error

	// ForEachChannel calls fn once for every outgoing half-channel of
	// v. If v is not known to the graph, ForEachChannel returns nil
	// without calling fn, rather than an error — a vanished node is
	// not a fault.
	ForEachChannel(v Vertex, fn func(*Channel) error) error
}

// ErrNodeNotFound is returned by callers (not Graph itself, which prefers
// the bool-ok idiom) when a lookup that must succeed does not.
var ErrNodeNotFound = fmt.Errorf("node not found in graph")
