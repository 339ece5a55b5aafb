package funding

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/ZmnSCPxj/routingcore/external"
)

func TestWithdrawSendsPreparedTransaction(t *testing.T) {
	ext := newFakeExternal()
	outputs := []external.TxOutput{
		{ScriptPubKey: fundingScript(vtx(1)), Amount: 100_000},
	}

	rawTx, txid, err := Withdraw(context.Background(), ext, outputs, 253, 1, nil)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if len(rawTx) == 0 {
		t.Fatalf("expected a signed transaction back")
	}
	if txid == (chainhash.Hash{}) {
		t.Fatalf("expected a non-zero txid")
	}
	if !ext.sent {
		t.Fatalf("expected TxSend to have been called")
	}
}

func TestWithdrawRejectsTwoAllOutputs(t *testing.T) {
	ext := newFakeExternal()
	outputs := []external.TxOutput{
		{ScriptPubKey: fundingScript(vtx(1)), Amount: external.AmountAll},
		{ScriptPubKey: fundingScript(vtx(2)), Amount: external.AmountAll},
	}

	_, _, err := Withdraw(context.Background(), ext, outputs, 253, 1, nil)
	if err == nil {
		t.Fatalf(`expected error for two "all" outputs`)
	}
}

func TestWithdrawRejectsDustAmount(t *testing.T) {
	ext := newFakeExternal()
	outputs := []external.TxOutput{
		{ScriptPubKey: fundingScript(vtx(1)), Amount: 1},
	}

	_, _, err := Withdraw(context.Background(), ext, outputs, 253, 1, nil)
	if err == nil {
		t.Fatalf("expected error for a below-dust amount")
	}
}
