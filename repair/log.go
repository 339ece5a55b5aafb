package repair

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

// UseLogger sets the package-wide logger used by the repair splice finder.
func UseLogger(logger btclog.Logger) {
	log = logger
}
