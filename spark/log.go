package spark

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

// UseLogger sets the package-wide logger used to report dropped
// post-cancellation spark completions.
func UseLogger(logger btclog.Logger) {
	log = logger
}
