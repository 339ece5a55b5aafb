package funding

import (
	"bytes"
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"

	"github.com/ZmnSCPxj/routingcore/external"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnwire"
)

func vtx(b byte) graph.Vertex {
	var v graph.Vertex
	v[0] = 0x02
	v[1] = b
	return v
}

// fakeExternal implements External entirely in memory: connect always
// succeeds, funding scripts are derived deterministically from the
// peer id, and TxPrepare builds a real serialized transaction so
// run.go's wire.MsgTx parsing is exercised end to end.
type fakeExternal struct {
	features map[graph.Vertex]graph.Features

	failStart    map[graph.Vertex]bool
	failComplete map[graph.Vertex]bool

	canceled map[graph.Vertex]bool
	sent     bool
	discards int
}

func newFakeExternal() *fakeExternal {
	return &fakeExternal{
		features:     make(map[graph.Vertex]graph.Features),
		failStart:    make(map[graph.Vertex]bool),
		failComplete: make(map[graph.Vertex]bool),
		canceled:     make(map[graph.Vertex]bool),
	}
}

func (f *fakeExternal) Connect(ctx context.Context, ids []graph.Vertex) ([]external.PeerInfo, error) {
	infos := make([]external.PeerInfo, len(ids))
	for i, id := range ids {
		infos[i] = external.PeerInfo{ID: id, Features: f.features[id]}
	}
	return infos, nil
}

func (f *fakeExternal) FundChannelStart(ctx context.Context, id graph.Vertex, amount lnwire.MilliSatoshi,
	feerate external.SatPerKWeight, announce bool, pushMSat lnwire.MilliSatoshi) (string, []byte, error) {

	if f.failStart[id] {
		return "", nil, errFake("fundchannel_start refused")
	}
	return "bcrt1qfake", fundingScript(id), nil
}

func (f *fakeExternal) FundChannelComplete(ctx context.Context, id graph.Vertex, txid chainhash.Hash, outnum uint32) ([32]byte, error) {
	if f.failComplete[id] {
		return [32]byte{}, errFake("fundchannel_complete refused")
	}
	var chanID [32]byte
	copy(chanID[:], id[:])
	return chanID, nil
}

func (f *fakeExternal) FundChannelCancel(ctx context.Context, id graph.Vertex) error {
	f.canceled[id] = true
	return nil
}

func (f *fakeExternal) TxPrepare(ctx context.Context, outputs []external.TxOutput, feerate external.SatPerKWeight,
	minconf int, utxos []external.OutPoint) (chainhash.Hash, []byte, error) {

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 0}})
	for _, o := range outputs {
		amount := o.Amount
		if amount == external.AmountAll {
			amount = 5_000_000
		}
		tx.AddTxOut(&wire.TxOut{Value: int64(amount), PkScript: o.ScriptPubKey})
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return chainhash.Hash{}, nil, err
	}
	return tx.TxHash(), buf.Bytes(), nil
}

func (f *fakeExternal) TxSend(ctx context.Context, txid chainhash.Hash) ([]byte, error) {
	f.sent = true
	return []byte("signed-tx"), nil
}

func (f *fakeExternal) TxDiscard(ctx context.Context, txid chainhash.Hash) error {
	f.discards++
	return nil
}

func fundingScript(id graph.Vertex) []byte {
	script := make([]byte, 34)
	script[0] = 0x00
	script[1] = 0x20
	copy(script[2:], id[:32])
	return script
}

type errFake string

func (e errFake) Error() string { return string(e) }

func destination(id graph.Vertex, amount btcutil.Amount) *Destination {
	return &Destination{ID: id, Amount: amount}
}

func TestRunOpensChannelsForEveryDestination(t *testing.T) {
	ext := newFakeExternal()
	dests := []*Destination{
		destination(vtx(1), 100_000),
		destination(vtx(2), 200_000),
	}

	result, err := Run(context.Background(), ext, nil, dests, 253, 1, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.ChannelIDs) != 2 {
		t.Fatalf("expected 2 channel ids, got %d", len(result.ChannelIDs))
	}
	if !ext.sent {
		t.Fatalf("expected TxSend to have been called")
	}
	for _, d := range dests {
		if d.State != Done {
			t.Fatalf("destination %x left in state %s", d.ID, d.State)
		}
	}
	if len(ext.canceled) != 0 {
		t.Fatalf("expected no cancellations on success, got %v", ext.canceled)
	}
	// Exactly one discard is expected: modifyTx discarding the dry-run
	// reservation. Cleanup must not also discard the broadcast tx.
	if ext.discards != 1 {
		t.Fatalf("expected exactly 1 discard (the dry-run swap), got %d", ext.discards)
	}
}

func TestRunResolvesAllAmountFromDryRun(t *testing.T) {
	ext := newFakeExternal()
	dests := []*Destination{
		{ID: vtx(1), All: true},
	}

	_, err := Run(context.Background(), ext, nil, dests, 253, 1, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if dests[0].Amount != 5_000_000 {
		t.Fatalf("expected all-amount resolved to 5_000_000, got %d", dests[0].Amount)
	}
	if dests[0].All {
		t.Fatalf("expected All cleared once resolved")
	}
}

func TestRunCancelsStartedDestinationsWhenOneFailsToComplete(t *testing.T) {
	ext := newFakeExternal()
	ext.failComplete[vtx(2)] = true

	dests := []*Destination{
		destination(vtx(1), 100_000),
		destination(vtx(2), 100_000),
	}

	_, err := Run(context.Background(), ext, nil, dests, 253, 1, nil)
	if err == nil {
		t.Fatalf("expected an error from a failed fundchannel_complete")
	}
	if !ext.canceled[vtx(1)] {
		t.Fatalf("expected the Started-but-not-Done peer to be canceled")
	}
	if ext.discards == 0 {
		t.Fatalf("expected the reservation to be discarded on failure")
	}
}

func TestRunSurfacesStartFailureAfterWaitingForAllSparks(t *testing.T) {
	ext := newFakeExternal()
	ext.failStart[vtx(1)] = true

	dests := []*Destination{
		destination(vtx(1), 100_000),
		destination(vtx(2), 100_000),
	}

	_, err := Run(context.Background(), ext, nil, dests, 253, 1, nil)
	if err == nil {
		t.Fatalf("expected an error from a failed fundchannel_start")
	}
	if dests[1].State != NotStarted {
		t.Fatalf("expected the other destination to finish its own start and then be reset by cleanup's cancel, got %s", dests[1].State)
	}
	if !ext.canceled[vtx(2)] {
		t.Fatalf("expected the succeeding peer to be canceled during cleanup")
	}
}

func TestValidateDestinationsRejectsDuplicateAndDoubleAll(t *testing.T) {
	if err := validateDestinations(nil); err == nil {
		t.Fatalf("expected error for empty destination list")
	}

	dup := []*Destination{destination(vtx(1), 100_000), destination(vtx(1), 200_000)}
	if err := validateDestinations(dup); err == nil {
		t.Fatalf("expected error for duplicate destination id")
	}

	twoAll := []*Destination{{ID: vtx(1), All: true}, {ID: vtx(2), All: true}}
	if err := validateDestinations(twoAll); err == nil {
		t.Fatalf("expected error for two \"all\" destinations")
	}

	dust := []*Destination{destination(vtx(1), 1)}
	if err := validateDestinations(dust); err == nil {
		t.Fatalf("expected error for a below-dust amount")
	}
}
