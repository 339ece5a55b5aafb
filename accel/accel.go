// Package accel implements the fee-acceleration retry loop: given a
// transaction that seems to be stuck, repeatedly bump its
// child-pays-for-parent fee by a fraction of the remaining headroom
// toward a caller-set ceiling, backing off between attempts until a
// new block arrives.
package accel

import (
	"context"
	"errors"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcutil"

	"github.com/ZmnSCPxj/routingcore/external"
)

// waitTimeout bounds each waitblockheight call, matching the ceiling
// the source polls at between acceleration attempts.
const waitTimeout = 60 * time.Second

// Backend groups the collaborator calls the acceleration loop needs:
// the fee-bump backend and the ability to wait for and read the chain
// tip between attempts.
type Backend interface {
	external.AccelBackend
	external.BlockWaiter
}

// state tracks one in-progress acceleration across loop iterations,
// the way txaccelerate_command does in the source.
type state struct {
	backend Backend
	txid    chainhash.Hash

	maxAcceptableFee btcutil.Amount
	aggression       float64

	accelID string

	totalFee btcutil.Amount
	deltaFee btcutil.Amount
	maxFee   btcutil.Amount

	haveAccelerated bool
}

// Accelerate blocks until txid (or a fee-bumped descendant of it)
// confirms, or ctx is canceled. aggression is a fraction in [0, 1]:
// each attempt raises the fee by that fraction of the distance
// remaining to maxAcceptableFee. It never pays more than
// maxAcceptableFee, and it never bumps at all past that ceiling once
// no attempt has yet succeeded.
func Accelerate(ctx context.Context, backend Backend, txid chainhash.Hash,
	maxAcceptableFee btcutil.Amount, aggression float64) error {

	s := &state{
		backend:          backend,
		txid:             txid,
		maxAcceptableFee: maxAcceptableFee,
		aggression:       aggression,
	}

	accelID, totalFee, deltaFee, maxFee, err := backend.TxAccelerateStart(ctx, txid)
	if err != nil {
		return err
	}
	s.accelID, s.totalFee, s.deltaFee, s.maxFee = accelID, totalFee, deltaFee, maxFee

	for {
		done, err := s.loop(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// loop runs one estimate/execute/backoff round. It returns done=true
// once the caller no longer needs to iterate, i.e. the underlying tx
// confirmed (surfaced as ErrAccelIDNotFound). If no attempt has been
// made yet and the ceiling is already below the current total fee, it
// returns an error instead.
func (s *state) loop(ctx context.Context) (bool, error) {
	log.Debugf("accel: %s estimate total=%d delta=%d max=%d limit=%d",
		s.txid, s.totalFee, s.deltaFee, s.maxFee, s.maxAcceptableFee)

	if s.deltaFee == 0 && s.totalFee == s.maxFee {
		log.Debugf("accel: %s cannot accelerate further right now, waiting", s.txid)
		return s.waitAndReestimate(ctx)
	}

	if s.totalFee > s.maxAcceptableFee {
		if !s.haveAccelerated {
			return false, errors.New("accel: max acceptable fee too low for any acceleration")
		}
		log.Debugf("accel: %s max acceptable fee reached, waiting", s.txid)
		return s.waitAndReestimate(ctx)
	}

	target := s.totalFee + btcutil.Amount(float64(s.maxAcceptableFee-s.totalFee)*s.aggression)
	if target > s.maxFee {
		target = s.maxFee
	}
	s.totalFee = target

	newTotal, deltaFee, maxFee, err := s.backend.TxAccelerateExecute(ctx, s.accelID, s.totalFee)
	if err != nil {
		if errors.Is(err, external.ErrAccelIDNotFound) {
			log.Debugf("accel: %s confirmed, done", s.txid)
			return true, nil
		}
		return false, err
	}

	s.haveAccelerated = true
	s.totalFee, s.deltaFee, s.maxFee = newTotal, deltaFee, maxFee

	return s.waitAndReestimate(ctx)
}

// waitAndReestimate blocks until the chain tip advances (or times
// out), then reissues the estimate that seeds the next loop iteration
// — the Open Question this package resolves in favor of a fresh
// estimate on every retry rather than scaling the previous attempt's
// fee further.
func (s *state) waitAndReestimate(ctx context.Context) (bool, error) {
	height, err := s.backend.BlockHeight(ctx)
	if err != nil {
		return false, err
	}

	if err := s.backend.WaitBlockHeight(ctx, height+1, waitTimeout); err != nil {
		log.Debugf("accel: %s waitblockheight returned %v, reestimating anyway", s.txid, err)
	}

	accelID, totalFee, deltaFee, maxFee, err := s.backend.TxAccelerateStart(ctx, s.txid)
	if err != nil {
		if errors.Is(err, external.ErrAccelIDNotFound) {
			return true, nil
		}
		return false, err
	}
	s.accelID, s.totalFee, s.deltaFee, s.maxFee = accelID, totalFee, deltaFee, maxFee

	return false, nil
}
