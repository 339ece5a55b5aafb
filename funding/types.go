// Package funding implements the multi-destination channel-funding
// orchestrator: a sequenced pipeline that opens N channels in a single
// funding transaction, with per-destination concurrency via spark,
// at-most-once cleanup semantics, and ambiguous-broadcast handling.
package funding

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcutil"

	"github.com/ZmnSCPxj/routingcore/external"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
	"github.com/ZmnSCPxj/routingcore/spark"
)

// State is a destination's position in the funding state machine:
// NotStarted -> Started -> Done, or NotStarted -> StartFailed, or
// Started -> CompleteFailed, or Started -> NotStarted once cleanup has
// canceled it.
type State int

const (
	NotStarted State = iota
	Started
	StartFailed
	CompleteFailed
	Done
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Started:
		return "started"
	case StartFailed:
		return "start_failed"
	case CompleteFailed:
		return "complete_failed"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Destination is one peer to open a channel with, and the funding
// state accumulated for it as the pipeline progresses.
type Destination struct {
	// RawID is the peer identifier as the caller supplied it; the
	// pipeline does not parse it.
	RawID string
	// ID is the peer node id, set by the caller before Run; connect
	// passes it to Connect.
	ID       graph.Vertex
	Features graph.Features

	// All is set when the caller requested "send everything left" for
	// this destination; Amount is 0 until the dry-run resolves it.
	All      bool
	Amount   btcutil.Amount
	Announce bool
	PushMSat lnwire.MilliSatoshi

	State State

	PlaceholderScript []byte
	FundingScript     []byte
	FundingAddress    string
	Outnum            uint32
	ChannelID         [32]byte

	Err error
}

// External groups the collaborator calls the orchestrator needs: peer
// connection, the per-peer channel-open protocol, and the on-chain
// wallet's reserve/send/discard cycle.
type External interface {
	external.PeerConnector
	external.ChannelFunder
	external.Wallet
}

// Command is one multifundchannel invocation: its destinations, the
// transaction parameters, and the spark scope every per-destination
// sub-step runs under.
type Command struct {
	Spark       *spark.Command
	External    External
	Destination []*Destination

	Feerate external.SatPerKWeight
	Minconf int
	UTXOs   []external.OutPoint

	HasAll bool
	Txid   *chainhash.Hash

	FinalTx   []byte
	FinalTxid chainhash.Hash

	// Store, if non-nil, journals this command's cleanup-relevant
	// state before cleanup runs so an interrupted cleanup can be
	// replayed at startup. ID is the command's Store-assigned id;
	// meaningless when Store is nil.
	Store *Store
	ID    uint64
}
