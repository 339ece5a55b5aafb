// Package external declares the narrow interfaces this core consumes
// from collaborators explicitly out of scope: gossip ingest, the wire
// and cryptographic channel protocol, chain watching, JSON-RPC
// transport, invoice decoding, the on-chain wallet, and the peer
// connection manager. Every engine in this repository depends only on
// these interfaces, never on a concrete implementation of any of them.
package external

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcutil"

	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
	"github.com/ZmnSCPxj/routingcore/route"
)

// SatPerKWeight is a fee rate expressed in satoshis per kilo-weight
// unit, the unit the funding transaction's fee negotiation is
// conducted in.
type SatPerKWeight uint64

// GossipGraph is the local node's view of the channel graph plus the
// two scalar facts (own identity, chain tip) pathfinding and the DHC
// refresher need alongside it. It embeds graph.Graph directly since
// the graph traversal operations are exactly listchannels/listnodes
// aggregated locally, rather than issued one RPC at a time.
type GossipGraph interface {
	graph.Graph
	LocalNodeID() graph.Vertex
	BlockHeight() (uint32, error)
}

// NodeLister answers listnodes: node records including feature bits,
// for the single node repair needs to resolve TLV-vs-legacy hop style.
type NodeLister interface {
	ListNode(ctx context.Context, id graph.Vertex) (graph.Node, error)
}

// RoutePlanner answers getroute: the shortest route to a destination
// under a set of excluded channel directions.
type RoutePlanner interface {
	GetRoute(ctx context.Context, dst graph.Vertex, amount lnwire.MilliSatoshi,
		cltv uint32, riskFactor float64, maxHops int,
		exclude map[graph.ChannelID]bool) (route.Route, error)
}

// PeerInfo is one connect() result: a peer's id and advertised
// features.
type PeerInfo struct {
	ID       graph.Vertex
	Features graph.Features
}

// PeerConnector answers connect(): establish (or confirm) a transport
// connection to a set of peers, in parallel, returning their features.
type PeerConnector interface {
	Connect(ctx context.Context, ids []graph.Vertex) ([]PeerInfo, error)
}

// ChannelFunder is the per-peer channel-open protocol: start, complete,
// or cancel a funding flow with one peer.
type ChannelFunder interface {
	FundChannelStart(ctx context.Context, id graph.Vertex, amount lnwire.MilliSatoshi,
		feerate SatPerKWeight, announce bool, pushMSat lnwire.MilliSatoshi) (fundingAddress string, scriptPubKey []byte, err error)
	FundChannelComplete(ctx context.Context, id graph.Vertex, txid chainhash.Hash, outnum uint32) (channelID [32]byte, err error)
	FundChannelCancel(ctx context.Context, id graph.Vertex) error
}

// AmountAll is the sentinel TxOutput.Amount value requesting that this
// output receive every satoshi left over after every other output and
// the transaction fee — the same "send everything remaining" trick
// the wallet RPC this interface wraps expresses with a distinguished
// out-of-range amount value.
const AmountAll btcutil.Amount = -1

// Wallet is the on-chain UTXO wallet: reserve inputs into a
// transaction, then send or discard the reservation.
type Wallet interface {
	TxPrepare(ctx context.Context, outputs []TxOutput, feerate SatPerKWeight,
		minconf int, utxos []OutPoint) (txid chainhash.Hash, rawTx []byte, err error)
	TxSend(ctx context.Context, txid chainhash.Hash) (rawTx []byte, err error)
	TxDiscard(ctx context.Context, txid chainhash.Hash) error
}

// TxOutput is a single (scriptPubKey, amount) transaction output, kept
// deliberately independent of btcd/wire.TxOut so Wallet implementations
// can be backed by any transaction-building library.
type TxOutput struct {
	ScriptPubKey []byte
	Amount       btcutil.Amount
}

// OutPoint identifies a UTXO to spend from.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// BlockWaiter answers waitblockheight: block until the given height is
// reached, chain reorgs notwithstanding, or until timeout elapses, and
// answers getinfo's blockheight field for callers that need to compute
// the next height to wait for.
type BlockWaiter interface {
	WaitBlockHeight(ctx context.Context, height uint32, timeout time.Duration) error
	BlockHeight(ctx context.Context) (uint32, error)
}

// AccelBackend is the child-pays-for-parent fee-bump backend consumed
// by the fee-acceleration loop. TotalFee/DeltaFee/MaxFee describe the
// current fee-bump estimate: TotalFee is what the next execute would
// pay, DeltaFee is how much of that is new versus already paid, and
// MaxFee is the most this txid can ever be bumped to (a function of
// its own inputs and the fees already reserved against them).
type AccelBackend interface {
	TxAccelerateStart(ctx context.Context, txid chainhash.Hash) (accelID string, totalFee, deltaFee, maxFee btcutil.Amount, err error)
	TxAccelerateExecute(ctx context.Context, accelID string, totalFee btcutil.Amount) (newTotalFee, deltaFee, maxFee btcutil.Amount, err error)
}

// ErrAccelIDNotFound is returned by AccelBackend.TxAccelerateExecute
// when accelID no longer names a pending acceleration — the original
// transaction (or an earlier child) already confirmed. The
// accelerator's retry loop treats this as success.
var ErrAccelIDNotFound = errAccelIDNotFound{}

type errAccelIDNotFound struct{}

func (errAccelIDNotFound) Error() string { return "txaccelerate: id not found" }
