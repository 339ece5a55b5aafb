package dhc

import "github.com/btcsuite/btclog"

// log is this subsystem's logger, set via UseLogger. It defaults to
// btclog.Disabled so tests and callers that never wire up logging don't
// need a nil check.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by the refresher.
func UseLogger(logger btclog.Logger) {
	log = logger
}
