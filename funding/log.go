package funding

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

// UseLogger sets the package-wide logger used by the multi-fund
// orchestrator.
func UseLogger(logger btclog.Logger) {
	log = logger
}
