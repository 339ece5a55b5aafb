package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcutil"

	"github.com/ZmnSCPxj/routingcore/external"
	"github.com/ZmnSCPxj/routingcore/graph"
	"github.com/ZmnSCPxj/routingcore/lnrpc/routingcore"
)

// parseAmount decodes a decimal satoshi amount, the numeric form every
// WithdrawOutput.Amount other than the literal "all" takes.
func parseAmount(s string) (btcutil.Amount, error) {
	sat, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed amount %q: %w", s, err)
	}
	return btcutil.Amount(sat), nil
}

func utxosFromWire(wire []routingcore.OutPoint) ([]external.OutPoint, error) {
	if len(wire) == 0 {
		return nil, nil
	}
	out := make([]external.OutPoint, len(wire))
	for i, o := range wire {
		hash, err := chainhash.NewHashFromStr(o.Txid)
		if err != nil {
			return nil, fmt.Errorf("malformed utxo txid %q: %w", o.Txid, err)
		}
		out[i] = external.OutPoint{Hash: *hash, Index: o.Index}
	}
	return out, nil
}

func featuresString(f graph.Features) string {
	var flags []string
	if f.VarOnionOptin {
		flags = append(flags, "var_onion_optin")
	}
	if f.LargeChannels {
		flags = append(flags, "large_channels")
	}
	return strings.Join(flags, ",")
}
