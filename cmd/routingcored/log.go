package main

import (
	"os"

	"github.com/btcsuite/btclog"

	"github.com/ZmnSCPxj/routingcore/accel"
	"github.com/ZmnSCPxj/routingcore/dhc"
	"github.com/ZmnSCPxj/routingcore/diversity"
	"github.com/ZmnSCPxj/routingcore/funding"
	"github.com/ZmnSCPxj/routingcore/repair"
)

var backend = btclog.NewBackend(os.Stdout)

var log = backend.Logger("RCRD")

// initLogging wires every engine package's package-level logger to a
// stdout backend, the way each of them expects a daemon entrypoint to
// call its UseLogger once at startup.
func initLogging() {
	dhc.UseLogger(backend.Logger("DHCC"))
	diversity.UseLogger(backend.Logger("DVSY"))
	repair.UseLogger(backend.Logger("RPAR"))
	funding.UseLogger(backend.Logger("FUND"))
	accel.UseLogger(backend.Logger("ACCL"))
}
