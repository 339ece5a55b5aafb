package accel

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

// UseLogger sets the package-wide logger used by the fee-acceleration
// loop.
func UseLogger(logger btclog.Logger) {
	log = logger
}
