package main

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcutil"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ZmnSCPxj/routingcore/accel"
	"github.com/ZmnSCPxj/routingcore/coreerrors"
	"github.com/ZmnSCPxj/routingcore/external"
	"github.com/ZmnSCPxj/routingcore/funding"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnrpc/routingcore"
	"github.com/ZmnSCPxj/routingcore/lnwire"
	"github.com/ZmnSCPxj/routingcore/repair"
)

// server implements routingcore.Server by driving the four engines
// against a Backend, translating between the wire types
// lnrpc/routingcore declares and each engine's domain types.
type server struct {
	backend    Backend
	store      *funding.Store
	netParams  *chaincfg.Params
	defaultFee external.SatPerKWeight
	defaultMin int
}

func newServer(cfg *Config, backend Backend, store *funding.Store) *server {
	return &server{
		backend:    backend,
		store:      store,
		netParams:  netParamsFor(cfg.Network),
		defaultFee: external.SatPerKWeight(cfg.DefaultFeeratePerKw),
		defaultMin: cfg.DefaultMinConf,
	}
}

func netParamsFor(network string) *chaincfg.Params {
	switch network {
	case "testnet":
		return &chaincfg.TestNet3Params
	case "regtest":
		return &chaincfg.RegressionNetParams
	case "signet":
		return &chaincfg.SigNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// rpcError maps a coreerrors.Error onto a grpc status: the Kind selects
// the grpc status code family (ParamError -> InvalidArgument,
// Unreachable -> NotFound, BudgetExceeded -> ResourceExhausted,
// ProtocolFailure -> Aborted, Transient -> Unavailable), and the
// message is prefixed with the numeric spec §6 RPC code so a CLI or
// grpc-gateway JSON caller can still branch on 300/301/302/303/-1/
// -32602 the way spec §7's structured errors are meant to. An
// AmbiguousBroadcast error is, per spec §7, a success for the
// orchestrator's own state machine, but the caller still needs to see
// it — it maps to Aborted rather than being swallowed.
//
// coreerrors.BudgetError embeds Error by value rather than pointer, so
// it is a distinct concrete type from *coreerrors.Error and needs its
// own case to unwrap the embedded Error before the Kind switch below.
func rpcError(err error) error {
	if err == nil {
		return nil
	}

	var cerr *coreerrors.Error
	switch e := err.(type) {
	case *coreerrors.Error:
		cerr = e
	case *coreerrors.BudgetError:
		cerr = &e.Error
	default:
		return status.Error(codes.Unknown, err.Error())
	}

	var code codes.Code
	switch cerr.Kind {
	case coreerrors.ParamError:
		code = codes.InvalidArgument
	case coreerrors.Transient:
		code = codes.Unavailable
	case coreerrors.BudgetExceeded:
		code = codes.ResourceExhausted
	case coreerrors.Unreachable:
		code = codes.NotFound
	case coreerrors.ProtocolFailure, coreerrors.AmbiguousBroadcast:
		code = codes.Aborted
	default:
		code = codes.Unknown
	}

	return status.Error(code, fmt.Sprintf("[%d] %s", cerr.Code, cerr.Error()))
}

func (s *server) MultiFundChannel(ctx context.Context, req *routingcore.MultiFundChannelRequest) (*routingcore.MultiFundChannelResponse, error) {
	if len(req.Destinations) == 0 {
		return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, "destinations cannot be empty")
	}

	dests := make([]*funding.Destination, len(req.Destinations))
	for i, d := range req.Destinations {
		id, err := routingcore.ParseVertex(d.ID)
		if err != nil {
			return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, err.Error())
		}
		dests[i] = &funding.Destination{
			RawID:    d.ID,
			ID:       id,
			All:      d.All,
			Amount:   btcutil.Amount(d.AmountSat),
			Announce: d.Announce,
			PushMSat: lnwire.MilliSatoshi(d.PushMsat),
		}
	}

	feerate := external.SatPerKWeight(req.FeeratePerKw)
	if feerate == 0 {
		feerate = s.defaultFee
	}
	minconf := int(req.MinConf)
	if !hasMinConf(req) {
		minconf = s.defaultMin
	}

	utxos, err := utxosFromWire(req.UTXOs)
	if err != nil {
		return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, err.Error())
	}

	result, err := funding.Run(ctx, s.backend, s.store, dests, feerate, minconf, utxos)
	if err != nil {
		return nil, rpcError(err)
	}

	channelIDs := make([]string, len(result.ChannelIDs))
	for i, id := range result.ChannelIDs {
		channelIDs[i] = fmt.Sprintf("%x", id)
	}

	return &routingcore.MultiFundChannelResponse{
		Tx:         fmt.Sprintf("%x", result.Tx),
		Txid:       result.Txid.String(),
		ChannelIDs: channelIDs,
	}, nil
}

// hasMinConf reports whether the request carries an explicit minconf.
// The wire type has no separate presence flag, so a nonzero value is
// treated as explicit and 0 falls back to the configured default; a
// caller cannot request minconf 0 when the default is nonzero.
func hasMinConf(req *routingcore.MultiFundChannelRequest) bool {
	return req.MinConf != 0
}

func (s *server) MultiWithdraw(ctx context.Context, req *routingcore.MultiWithdrawRequest) (*routingcore.MultiWithdrawResponse, error) {
	if len(req.Outputs) == 0 {
		return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, "outputs cannot be empty")
	}

	outputs := make([]external.TxOutput, len(req.Outputs))
	for i, o := range req.Outputs {
		addr, err := btcutil.DecodeAddress(o.Address, s.netParams)
		if err != nil {
			return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam,
				fmt.Sprintf("malformed address %q: %v", o.Address, err))
		}
		script, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, err.Error())
		}

		amount := external.AmountAll
		if o.Amount != "all" {
			parsed, err := parseAmount(o.Amount)
			if err != nil {
				return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, err.Error())
			}
			amount = parsed
		}

		outputs[i] = external.TxOutput{ScriptPubKey: script, Amount: amount}
	}

	feerate := external.SatPerKWeight(req.FeeratePerKw)
	if feerate == 0 {
		feerate = s.defaultFee
	}

	utxos, err := utxosFromWire(req.UTXOs)
	if err != nil {
		return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, err.Error())
	}

	rawTx, txid, err := funding.Withdraw(ctx, s.backend, outputs, feerate, int(req.MinConf), utxos)
	if err != nil {
		return nil, rpcError(err)
	}

	return &routingcore.MultiWithdrawResponse{
		Tx:   fmt.Sprintf("%x", rawTx),
		Txid: txid.String(),
	}, nil
}

func (s *server) MultiConnect(ctx context.Context, req *routingcore.MultiConnectRequest) (*routingcore.MultiConnectResponse, error) {
	raw := make([]string, len(req.IDs))
	ids := make([]graph.Vertex, len(req.IDs))
	for i, id := range req.IDs {
		v, err := routingcore.ParseVertex(id)
		if err != nil {
			return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, err.Error())
		}
		raw[i], ids[i] = id, v
	}

	results := funding.MultiConnect(ctx, s.backend, ids)

	peers := make([]routingcore.PeerResult, len(results))
	for i, r := range results {
		if r.Err != nil {
			peers[i] = routingcore.PeerResult{ID: raw[i], Error: r.Err.Error()}
			continue
		}
		peers[i] = routingcore.PeerResult{
			ID:       r.Info.ID.String(),
			Features: featuresString(r.Info.Features),
		}
	}

	return &routingcore.MultiConnectResponse{Peers: peers}, nil
}

func (s *server) PermuteRoute(ctx context.Context, req *routingcore.PermuteRouteRequest) (*routingcore.PermuteRouteResponse, error) {
	rt, err := routingcore.RouteFromWire(req.Route)
	if err != nil {
		return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, err.Error())
	}

	var source graph.Vertex
	if req.Source != "" {
		v, err := routingcore.ParseVertex(req.Source)
		if err != nil {
			return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, err.Error())
		}
		source = v
	}

	excludeNodes := make(map[graph.Vertex]bool, len(req.ExcludeNodes))
	for _, n := range req.ExcludeNodes {
		v, err := routingcore.ParseVertex(n)
		if err != nil {
			return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, err.Error())
		}
		excludeNodes[v] = true
	}

	excludeChannels := make(map[graph.ChannelID]bool, len(req.ExcludeChannels))
	for _, c := range req.ExcludeChannels {
		excludeChannels[graph.ChannelID(c)] = true
	}

	repaired, err := repair.Permute(ctx, s.backend, s.backend, repair.Request{
		Route:           rt,
		ErringIndex:     int(req.ErringIndex),
		NodeFailure:     req.NodeFailure,
		Source:          source,
		ExcludeNodes:    excludeNodes,
		ExcludeChannels: excludeChannels,
	})
	if err != nil {
		if cerr, ok := err.(*coreerrors.Error); ok && cerr.Kind == coreerrors.Unreachable {
			return nil, status.Errorf(codes.NotFound, "%s: %s", coreerrors.CodeRouteNotFound, cerr.Error())
		}
		return nil, rpcError(err)
	}

	return &routingcore.PermuteRouteResponse{Route: routingcore.RouteToWire(repaired)}, nil
}

func (s *server) TxAccelerate(ctx context.Context, req *routingcore.TxAccelerateRequest) (*routingcore.TxAccelerateResponse, error) {
	txid, err := chainhash.NewHashFromStr(req.Txid)
	if err != nil {
		return nil, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam, err.Error())
	}

	aggression := req.Aggression
	if aggression == 0 {
		aggression = 0.1
	}

	err = accel.Accelerate(ctx, s.backend, *txid, btcutil.Amount(req.MaxAcceptableFeeSat), aggression)
	if err != nil {
		return nil, rpcError(err)
	}

	return &routingcore.TxAccelerateResponse{Confirmed: true}, nil
}
