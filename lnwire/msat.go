// Package lnwire holds the tiny set of wire-level numeric types the
// routing core shares across its packages. It intentionally does not
// pull in the upstream lnd module for this: we need exactly one type
// (MilliSatoshi) and none of its protocol messages, so vendoring the
// daemon for a uint64 wrapper would be a far heavier and more fragile
// dependency than is warranted (see DESIGN.md).
package lnwire

import "fmt"

// MilliSatoshi represents a thousandth of a satoshi. Lightning Network
// payments are denominated in millisatoshis to allow sub-satoshi fee
// precision on each hop of a route.
type MilliSatoshi uint64

const mSatPerSat = 1000

// NewMSatFromSatoshis creates a MilliSatoshi from a whole number of
// satoshis.
func NewMSatFromSatoshis(sat int64) MilliSatoshi {
	return MilliSatoshi(sat * mSatPerSat)
}

// ToSatoshis truncates the millisatoshi value down to whole satoshis.
func (m MilliSatoshi) ToSatoshis() int64 {
	return int64(m / mSatPerSat)
}

func (m MilliSatoshi) String() string {
	return fmt.Sprintf("%d mSAT", uint64(m))
}
