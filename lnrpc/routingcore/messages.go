// Package routingcore defines the wire request/response shapes for the
// five operations spec §6 exposes ("multifundchannel", "multiwithdraw",
// "multiconnect", "permuteroute", "txaccelerate"), and a hand-written
// gRPC service description for them.
//
// The teacher's RPC subservers (lnrpc/autopilotrpc and friends) are
// generated from .proto files by protoc; this repository has no protoc
// available to it, so this package plays the role a generated
// *.pb.go/*.pb.gw.go pair would, hand-written against the same
// conventions: JSON-tagged Go structs standing in for protobuf
// messages, and a plain google.golang.org/grpc.ServiceDesc standing in
// for the generated one. See DESIGN.md for the full justification.
package routingcore

import (
	"encoding/hex"
	"fmt"

	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
	"github.com/ZmnSCPxj/routingcore/route"
)

// Destination is one multifundchannel target.
type Destination struct {
	ID       string `json:"id"`
	AmountSat int64  `json:"amount_sat,omitempty"`
	All       bool   `json:"all,omitempty"`
	Announce  bool   `json:"announce,omitempty"`
	PushMsat  uint64 `json:"push_msat,omitempty"`
}

// MultiFundChannelRequest is the multifundchannel input.
type MultiFundChannelRequest struct {
	Destinations []Destination `json:"destinations"`
	FeeratePerKw uint64        `json:"feerate_per_kw,omitempty"`
	MinConf      int32         `json:"minconf,omitempty"`
	UTXOs        []OutPoint    `json:"utxos,omitempty"`
}

// OutPoint identifies a UTXO the caller wants the wallet to spend from.
type OutPoint struct {
	Txid  string `json:"txid"`
	Index uint32 `json:"index"`
}

// MultiFundChannelResponse is the multifundchannel output.
type MultiFundChannelResponse struct {
	Tx         string   `json:"tx"`
	Txid       string   `json:"txid"`
	ChannelIDs []string `json:"channel_id"`
}

// WithdrawOutput is one multiwithdraw destination; Amount is either a
// decimal satoshi amount or the literal string "all".
type WithdrawOutput struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// MultiWithdrawRequest is the multiwithdraw input.
type MultiWithdrawRequest struct {
	Outputs      []WithdrawOutput `json:"outputs"`
	FeeratePerKw uint64           `json:"feerate_per_kw,omitempty"`
	MinConf      int32            `json:"minconf,omitempty"`
	UTXOs        []OutPoint       `json:"utxos,omitempty"`
}

// MultiWithdrawResponse is the multiwithdraw output.
type MultiWithdrawResponse struct {
	Tx   string `json:"tx"`
	Txid string `json:"txid"`
}

// MultiConnectRequest is the multiconnect input.
type MultiConnectRequest struct {
	IDs []string `json:"ids"`
}

// PeerResult is one multiconnect result entry.
type PeerResult struct {
	ID       string `json:"id"`
	Features string `json:"features"`
	Error    string `json:"error,omitempty"`
}

// MultiConnectResponse is the multiconnect output.
type MultiConnectResponse struct {
	Peers []PeerResult `json:"peers"`
}

// Hop is one hop of a wire-format route.
type Hop struct {
	NodeID      string `json:"node_id"`
	ChannelID   uint64 `json:"channel_id"`
	AmountMsat  uint64 `json:"amount_msat"`
	CltvExpiry  uint32 `json:"cltv_expiry"`
	TLV         bool   `json:"tlv,omitempty"`
}

// PermuteRouteRequest is the permuteroute input.
type PermuteRouteRequest struct {
	Route           []Hop    `json:"route"`
	ErringIndex     int32    `json:"erring_index"`
	NodeFailure     bool     `json:"node_failure,omitempty"`
	Source          string   `json:"source,omitempty"`
	ExcludeNodes    []string `json:"exclude_nodes,omitempty"`
	ExcludeChannels []uint64 `json:"exclude_channels,omitempty"`
}

// PermuteRouteResponse is the permuteroute output.
type PermuteRouteResponse struct {
	Route []Hop `json:"route"`
}

// TxAccelerateRequest is the txaccelerate input.
type TxAccelerateRequest struct {
	Txid             string  `json:"txid"`
	MaxAcceptableFeeSat int64 `json:"max_acceptable_fee_sat"`
	Aggression       float64 `json:"aggression,omitempty"`
}

// TxAccelerateResponse is the txaccelerate output, returned once the
// original transaction or a fee-bumped child of it confirms.
type TxAccelerateResponse struct {
	Confirmed bool `json:"confirmed"`
}

// ParseVertex decodes a hex-encoded 33-byte compressed public key, the
// wire encoding graph.Vertex.String() produces and every request field
// naming a node id uses.
func ParseVertex(s string) (graph.Vertex, error) {
	var v graph.Vertex
	raw, err := hex.DecodeString(s)
	if err != nil {
		return v, fmt.Errorf("malformed node id %q: %w", s, err)
	}
	if len(raw) != len(v) {
		return v, fmt.Errorf("node id %q: expected %d bytes, got %d", s, len(v), len(raw))
	}
	copy(v[:], raw)
	return v, nil
}

// RouteFromWire converts wire hops into a route.Route, giving each hop
// a graph.Channel stub carrying only the channel id: repair.Permute
// only dereferences the policy fields of the two hops it newly splices
// in (looked up live from the graph), never of hops copied through
// from the caller's original route.
func RouteFromWire(hops []Hop) (route.Route, error) {
	out := make(route.Route, len(hops))
	for i, h := range hops {
		node, err := ParseVertex(h.NodeID)
		if err != nil {
			return nil, err
		}
		style := route.StyleLegacy
		if h.TLV {
			style = route.StyleTLV
		}
		out[i] = route.Hop{
			Node:        node,
			Channel:     &graph.Channel{ID: graph.ChannelID(h.ChannelID)},
			AmountToFwd: lnwire.MilliSatoshi(h.AmountMsat),
			CLTVExpiry:  h.CltvExpiry,
			Style:       style,
		}
	}
	return out, nil
}

// RouteToWire is the inverse of RouteFromWire.
func RouteToWire(r route.Route) []Hop {
	out := make([]Hop, len(r))
	for i, h := range r {
		var channelID uint64
		if h.Channel != nil {
			channelID = uint64(h.Channel.ID)
		}
		out[i] = Hop{
			NodeID:     h.Node.String(),
			ChannelID:  channelID,
			AmountMsat: uint64(h.AmountToFwd),
			CltvExpiry: h.CLTVExpiry,
			TLV:        h.Style == route.StyleTLV,
		}
	}
	return out
}
