package chainparams

import "testing"

func TestSetActiveRoundTrips(t *testing.T) {
	orig := Active()
	defer SetActive(orig)

	custom := Params{DustLimit: 1000, LargeChannelLimit: 5_000_000}
	SetActive(custom)

	got := Active()
	if got.DustLimit != 1000 || got.LargeChannelLimit != 5_000_000 {
		t.Fatalf("Active() = %+v, want %+v", got, custom)
	}
}
