package funding

import (
	"bytes"
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"

	"github.com/ZmnSCPxj/routingcore/chainparams"
	"github.com/ZmnSCPxj/routingcore/coreerrors"
	"github.com/ZmnSCPxj/routingcore/external"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
	"github.com/ZmnSCPxj/routingcore/spark"
)

// lnwireAmount converts a whole-satoshi channel amount to the
// millisatoshi unit FundChannelStart's wire message wants.
func lnwireAmount(amount btcutil.Amount) lnwire.MilliSatoshi {
	return lnwire.NewMSatFromSatoshis(int64(amount))
}

// Result is the successful outcome of Run: the broadcast transaction,
// its txid, and the resulting channel id of every destination, in the
// same order the caller supplied them.
type Result struct {
	Tx         []byte
	Txid       chainhash.Hash
	ChannelIDs [][32]byte
}

// Run drives the seven-step multi-fund pipeline to completion. Cleanup
// (discard the reservation, cancel any Started-but-not-Done
// destination) always runs before Run returns, on both the success and
// failure paths, so the caller never observes a destination left in
// Started unless its fundchannel_cancel itself failed.
// Run drives one multi-fund command. store may be nil, in which case
// an interrupted cleanup cannot be replayed after a crash; passing a
// live *Store is how a caller opts into that recovery.
func Run(ctx context.Context, ext External, store *Store, dests []*Destination,
	feerate external.SatPerKWeight, minconf int, utxos []external.OutPoint) (*Result, error) {

	cmd := &Command{
		Spark:       spark.NewCommand(ctx),
		External:    ext,
		Store:       store,
		Destination: dests,
		Feerate:     feerate,
		Minconf:     minconf,
		UTXOs:       utxos,
	}
	defer cmd.Spark.Finish()

	if store != nil {
		id, err := store.NextID()
		if err != nil {
			return nil, err
		}
		cmd.ID = id
	}

	result, err := cmd.run(ctx)

	cmd.cleanup(context.Background())

	return result, err
}

func (c *Command) run(ctx context.Context) (*Result, error) {
	if err := validateDestinations(c.Destination); err != nil {
		return nil, err
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	if err := validateAgainstFeatures(c.Destination); err != nil {
		return nil, err
	}

	if err := c.dryRunPrepare(ctx); err != nil {
		return nil, err
	}

	if err := c.fundchannelStartAll(ctx); err != nil {
		return nil, err
	}

	if err := c.modifyTx(ctx); err != nil {
		return nil, err
	}

	if err := c.fundchannelCompleteAll(ctx); err != nil {
		return nil, err
	}

	// Mark every destination done before broadcasting: broadcast
	// failure is ambiguous (the tx may already be relayed), so once
	// we're at this point the channels are considered opened even if
	// the reply below reports an error.
	for _, d := range c.Destination {
		d.State = Done
	}

	// Ownership of the reservation passes to TxSend here: whether it
	// succeeds or fails, the broadcast may have gone out, so cleanup
	// must not txdiscard it afterward. Clear c.Txid before checking the
	// error so both paths are covered.
	sendTxid := *c.Txid
	c.Txid = nil

	rawTx, err := c.External.TxSend(ctx, sendTxid)
	if err != nil {
		return nil, coreerrors.New(coreerrors.AmbiguousBroadcast, coreerrors.CodeBroadcastFailed,
			err.Error()).WithSubCommand("txsend")
	}
	c.FinalTx = rawTx
	c.FinalTxid = sendTxid

	channelIDs := make([][32]byte, len(c.Destination))
	for i, d := range c.Destination {
		channelIDs[i] = d.ChannelID
	}

	return &Result{Tx: rawTx, Txid: sendTxid, ChannelIDs: channelIDs}, nil
}

// validateDestinations is step 1's static checks: they need no
// network round trip and so run before connect.
func validateDestinations(dests []*Destination) error {
	if len(dests) == 0 {
		return coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam,
			"destinations must have at least one entry")
	}

	hasAll := false
	seen := make(map[graph.Vertex]bool, len(dests))
	for _, d := range dests {
		if seen[d.ID] {
			return coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam,
				"duplicate destination: "+d.ID.String())
		}
		seen[d.ID] = true

		if d.All {
			if hasAll {
				return coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam,
					`only one destination can indicate "all" for amount`)
			}
			hasAll = true
			continue
		}
		if d.Amount < chainparams.Active().DustLimit {
			return coreerrors.New(coreerrors.ParamError, coreerrors.CodeDust,
				"amount below dust limit")
		}
	}
	return nil
}

// validateAgainstFeatures is the half of step 1 that needs the peer
// features connect just resolved: an explicit amount above the
// large-channel cap is only valid if the peer advertised support for
// it. An "all" destination is instead clamped, not rejected, once its
// exact amount is known — see dryRunPrepare.
func validateAgainstFeatures(dests []*Destination) error {
	limit := chainparams.Active().LargeChannelLimit
	for _, d := range dests {
		if d.All {
			continue
		}
		if d.Amount > limit && !d.Features.LargeChannels {
			return coreerrors.New(coreerrors.ParamError, coreerrors.CodeExceedsMaxFunding,
				"amount exceeds max funding for a peer without large-channel support")
		}
	}
	return nil
}

func (c *Command) connect(ctx context.Context) error {
	ids := make([]graph.Vertex, len(c.Destination))
	for i, d := range c.Destination {
		ids[i] = d.ID
	}

	infos, err := c.External.Connect(ctx, ids)
	if err != nil {
		return err
	}

	byID := make(map[graph.Vertex]external.PeerInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}
	for _, d := range c.Destination {
		info, ok := byID[d.ID]
		if !ok {
			return coreerrors.New(coreerrors.Transient, coreerrors.CodeOther,
				"peer did not appear in connect result").WithSubCommand("multiconnect")
		}
		d.Features = info.Features
	}
	return nil
}

// dryRunPrepare reserves funds against a unique placeholder script per
// destination. Besides reserving inputs before troubling any peer, it
// resolves any "all" destination's exact amount by reading back the
// placeholder output the wallet actually built.
func (c *Command) dryRunPrepare(ctx context.Context) error {
	outputs := make([]external.TxOutput, len(c.Destination))
	for i, d := range c.Destination {
		d.PlaceholderScript = placeholderScript(d.ID)
		amount := d.Amount
		if d.All {
			amount = external.AmountAll
		}
		outputs[i] = external.TxOutput{ScriptPubKey: d.PlaceholderScript, Amount: amount}
	}

	txid, rawTx, err := c.External.TxPrepare(ctx, outputs, c.Feerate, c.Minconf, c.UTXOs)
	if err != nil {
		return coreerrors.New(coreerrors.Transient, coreerrors.CodeInsufficientFunds,
			err.Error()).WithSubCommand("txprepare")
	}
	c.Txid = &txid

	txOuts, err := decodeTxOutputs(rawTx)
	if err != nil {
		return err
	}

	limit := chainparams.Active().LargeChannelLimit
	for _, d := range c.Destination {
		out, ok := findByScript(txOuts, d.PlaceholderScript)
		if !ok {
			return coreerrors.New(coreerrors.ProtocolFailure, coreerrors.CodeOther,
				"txprepare transaction has no output for a destination").WithSubCommand("txprepare")
		}
		amount := btcutil.Amount(out.Value)
		if d.All && !d.Features.LargeChannels && amount > limit {
			amount = limit
		}
		d.Amount = amount
		d.All = false
	}
	return nil
}

// fundchannelStartAll runs fundchannel_start against every destination
// in parallel. Per §4.7 step 4's policy, a failure does not abort the
// fan-out early — every spark still runs to completion so cleanup
// later sees an accurate Started/StartFailed state for each
// destination — and only after all have finished is the first failure
// (in destination order) surfaced.
func (c *Command) fundchannelStartAll(ctx context.Context) error {
	tokens := make([]*spark.Token, len(c.Destination))
	for i, d := range c.Destination {
		d := d
		tokens[i] = spark.StartSpark(c.Spark, func(ctx context.Context, tok *spark.Token) {
			addr, script, err := c.External.FundChannelStart(ctx, d.ID, lnwireAmount(d.Amount),
				c.Feerate, d.Announce, d.PushMSat)
			if err != nil {
				d.State = StartFailed
				d.Err = err
				spark.Complete(tok)
				return
			}
			d.FundingAddress = addr
			d.FundingScript = script
			d.State = Started
			spark.Complete(tok)
		})
	}
	spark.WaitAllSparks(c.Spark, tokens)

	for _, d := range c.Destination {
		if d.State == StartFailed {
			return coreerrors.New(coreerrors.ProtocolFailure, coreerrors.CodeOther,
				d.Err.Error()).WithSubCommand("fundchannel_start")
		}
	}
	return nil
}

// modifyTx discards the dry-run reservation and reprepares the same
// spend with the destinations' real funding scripts in place of the
// placeholders, then locates each destination's output index by
// scriptPubKey.
func (c *Command) modifyTx(ctx context.Context) error {
	if err := c.External.TxDiscard(ctx, *c.Txid); err != nil {
		return coreerrors.New(coreerrors.Transient, coreerrors.CodeOther,
			err.Error()).WithSubCommand("txdiscard")
	}

	outputs := make([]external.TxOutput, len(c.Destination))
	for i, d := range c.Destination {
		outputs[i] = external.TxOutput{ScriptPubKey: d.FundingScript, Amount: d.Amount}
	}

	txid, rawTx, err := c.External.TxPrepare(ctx, outputs, c.Feerate, c.Minconf, c.UTXOs)
	if err != nil {
		return coreerrors.New(coreerrors.Transient, coreerrors.CodeInsufficientFunds,
			err.Error()).WithSubCommand("txprepare")
	}
	c.Txid = &txid

	txOuts, err := decodeTxOutputs(rawTx)
	if err != nil {
		return err
	}
	for _, d := range c.Destination {
		out, idx, ok := findIndexByScript(txOuts, d.FundingScript)
		if !ok {
			return coreerrors.New(coreerrors.ProtocolFailure, coreerrors.CodeOther,
				"modified transaction has no output for a destination").WithSubCommand("txprepare")
		}
		d.Outnum = uint32(idx)
		d.Amount = btcutil.Amount(out.Value)
	}
	return nil
}

// fundchannelCompleteAll mirrors fundchannelStartAll's wait-for-all,
// surface-first-failure policy for step 6.
func (c *Command) fundchannelCompleteAll(ctx context.Context) error {
	tokens := make([]*spark.Token, len(c.Destination))
	for i, d := range c.Destination {
		d := d
		tokens[i] = spark.StartSpark(c.Spark, func(ctx context.Context, tok *spark.Token) {
			chanID, err := c.External.FundChannelComplete(ctx, d.ID, *c.Txid, d.Outnum)
			if err != nil {
				d.State = CompleteFailed
				d.Err = err
				spark.Complete(tok)
				return
			}
			d.ChannelID = chanID
			spark.Complete(tok)
		})
	}
	spark.WaitAllSparks(c.Spark, tokens)

	for _, d := range c.Destination {
		if d.State == CompleteFailed {
			return coreerrors.New(coreerrors.ProtocolFailure, coreerrors.CodeOther,
				d.Err.Error()).WithSubCommand("fundchannel_complete")
		}
	}
	return nil
}

func decodeTxOutputs(rawTx []byte) ([]*wire.TxOut, error) {
	tx := wire.NewMsgTx(2)
	if err := tx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return nil, coreerrors.New(coreerrors.ProtocolFailure, coreerrors.CodeOther,
			"could not parse wallet-prepared transaction: "+err.Error())
	}
	return tx.TxOut, nil
}

func findByScript(outs []*wire.TxOut, script []byte) (*wire.TxOut, bool) {
	out, _, ok := findIndexByScript(outs, script)
	return out, ok
}

func findIndexByScript(outs []*wire.TxOut, script []byte) (*wire.TxOut, int, bool) {
	for i, out := range outs {
		if bytes.Equal(out.PkScript, script) {
			return out, i, true
		}
	}
	return nil, 0, false
}
