package funding

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/ZmnSCPxj/routingcore/chainparams"
	"github.com/ZmnSCPxj/routingcore/coreerrors"
	"github.com/ZmnSCPxj/routingcore/external"
)

// Withdraw sends funds from the wallet to multiple outputs in a single
// transaction. Unlike Run, there is no per-destination protocol
// negotiation, so it needs neither spark fan-out nor the funding state
// machine — it is a direct txprepare/txsend. On any txsend failure it
// issues txdiscard and reports the failure as AmbiguousBroadcast.
func Withdraw(ctx context.Context, wallet external.Wallet, outputs []external.TxOutput,
	feerate external.SatPerKWeight, minconf int, utxos []external.OutPoint) ([]byte, chainhash.Hash, error) {

	if len(outputs) == 0 {
		return nil, chainhash.Hash{}, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam,
			"outputs must have at least one entry")
	}

	numAll := 0
	for _, o := range outputs {
		if o.Amount == external.AmountAll {
			numAll++
			continue
		}
		if o.Amount < chainparams.Active().DustLimit {
			return nil, chainhash.Hash{}, coreerrors.New(coreerrors.ParamError, coreerrors.CodeDust,
				"amount below dust limit")
		}
	}
	if numAll > 1 {
		return nil, chainhash.Hash{}, coreerrors.New(coreerrors.ParamError, coreerrors.CodeParam,
			`only one output can indicate "all" for amount`)
	}

	txid, _, err := wallet.TxPrepare(ctx, outputs, feerate, minconf, utxos)
	if err != nil {
		return nil, chainhash.Hash{}, coreerrors.New(coreerrors.Transient, coreerrors.CodeInsufficientFunds,
			err.Error()).WithSubCommand("txprepare")
	}

	rawTx, err := wallet.TxSend(ctx, txid)
	if err != nil {
		if discardErr := wallet.TxDiscard(ctx, txid); discardErr != nil {
			log.Debugf("funding: txdiscard %s failed after failed txsend: %v", txid, discardErr)
		}
		return nil, chainhash.Hash{}, coreerrors.New(coreerrors.AmbiguousBroadcast, coreerrors.CodeBroadcastFailed,
			err.Error()).WithSubCommand("txsend")
	}
	return rawTx, txid, nil
}
