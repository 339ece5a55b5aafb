package accel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcutil"

	"github.com/ZmnSCPxj/routingcore/external"
)

// fakeBackend drives a scripted sequence of fee estimates and lets a
// test assert how many execute attempts and block-waits happened
// before Accelerate returns.
type fakeBackend struct {
	height uint32

	totalFee, deltaFee, maxFee btcutil.Amount

	// confirmAfterExecutes, if > 0, makes the N'th call to
	// TxAccelerateExecute report the tx already confirmed.
	confirmAfterExecutes int
	executes              int
	waits                 int

	executeErr error
}

func (f *fakeBackend) TxAccelerateStart(ctx context.Context, txid chainhash.Hash) (string, btcutil.Amount, btcutil.Amount, btcutil.Amount, error) {
	return "acc-1", f.totalFee, f.deltaFee, f.maxFee, nil
}

func (f *fakeBackend) TxAccelerateExecute(ctx context.Context, accelID string, totalFee btcutil.Amount) (btcutil.Amount, btcutil.Amount, btcutil.Amount, error) {
	f.executes++
	if f.executeErr != nil {
		return 0, 0, 0, f.executeErr
	}
	if f.confirmAfterExecutes > 0 && f.executes >= f.confirmAfterExecutes {
		return 0, 0, 0, external.ErrAccelIDNotFound
	}
	f.totalFee = totalFee
	f.deltaFee = 0
	return f.totalFee, f.deltaFee, f.maxFee, nil
}

func (f *fakeBackend) WaitBlockHeight(ctx context.Context, height uint32, timeout time.Duration) error {
	f.waits++
	f.height = height
	f.maxFee += 2000 // simulate more headroom opening up next round
	f.deltaFee = f.maxFee - f.totalFee
	return nil
}

func (f *fakeBackend) BlockHeight(ctx context.Context) (uint32, error) {
	return f.height, nil
}

func TestAccelerateStopsOnceIDNotFound(t *testing.T) {
	backend := &fakeBackend{
		totalFee:              1000,
		deltaFee:              4000,
		maxFee:                5000,
		confirmAfterExecutes: 1,
	}

	err := Accelerate(context.Background(), backend, chainhash.Hash{}, 5000, 0.5)
	if err != nil {
		t.Fatalf("Accelerate failed: %v", err)
	}
	if backend.executes != 1 {
		t.Fatalf("expected exactly one execute attempt, got %d", backend.executes)
	}
}

func TestAccelerateFailsWhenCeilingTooLowToEverStart(t *testing.T) {
	backend := &fakeBackend{
		totalFee: 10_000,
		deltaFee: 1000,
		maxFee:   20_000,
	}

	err := Accelerate(context.Background(), backend, chainhash.Hash{}, 5000, 0.5)
	if err == nil {
		t.Fatalf("expected an error when the ceiling is below the first estimate")
	}
	if backend.executes != 0 {
		t.Fatalf("expected no execute attempts, got %d", backend.executes)
	}
}

func TestAccelerateWaitsAndReestimatesWhenExhausted(t *testing.T) {
	backend := &fakeBackend{
		totalFee: 5000,
		deltaFee: 0,
		maxFee:   5000,
	}
	// After one wait, simulate room opening up and then
	// confirmation on the next execute.
	backend.confirmAfterExecutes = 1

	done := make(chan error, 1)
	go func() {
		done <- Accelerate(context.Background(), backend, chainhash.Hash{}, 5000, 0.5)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Accelerate failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Accelerate did not return in time")
	}

	if backend.waits == 0 {
		t.Fatalf("expected at least one waitblockheight call")
	}
}

func TestAccelerateSurfacesUnexpectedExecuteError(t *testing.T) {
	backend := &fakeBackend{
		totalFee: 1000,
		deltaFee: 4000,
		maxFee:   5000,
	}
	backend.executeErr = errors.New("execute: peer refused")

	err := Accelerate(context.Background(), backend, chainhash.Hash{}, 5000, 0.5)
	if err == nil {
		t.Fatalf("expected the execute error to propagate")
	}
}
