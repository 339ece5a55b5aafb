// Package chainparams holds the process-wide network parameters that
// the funding orchestrator and fee accelerator need but that this core
// does not itself decide — the dust limit and the large-channel
// threshold above which a peer must advertise wumbo support. These are
// established once at process startup and read thereafter, the way the
// teacher wires a single active chaincfg.Params through its wallet and
// RPC setup paths.
package chainparams

import (
	"sync"

	"github.com/btcsuite/btcutil"
)

// Params bundles the network parameters this core consults.
type Params struct {
	// DustLimit is the smallest channel-open or withdrawal output
	// amount accepted.
	DustLimit btcutil.Amount
	// LargeChannelLimit is the largest channel-open amount accepted
	// from a peer that has not advertised large-channel ("wumbo")
	// support.
	LargeChannelLimit btcutil.Amount
}

// MainNetParams are the default parameters for mainnet-scale channels:
// a 546 sat dust limit (the standard P2WSH dust threshold) and a
// 16,777,215 sat (2^24-1) non-wumbo channel-size ceiling.
var MainNetParams = Params{
	DustLimit:         546,
	LargeChannelLimit: (1 << 24) - 1,
}

var (
	mu     sync.RWMutex
	active = MainNetParams
)

// Active returns the currently active process-wide parameters.
func Active() Params {
	mu.RLock()
	defer mu.RUnlock()
	return active
}

// SetActive installs p as the process-wide parameters. Called once at
// startup before any component reads Active.
func SetActive(p Params) {
	mu.Lock()
	defer mu.Unlock()
	active = p
}
