// Package macaroons implements a minimal bakery-backed macaroon
// authorization service: mint a root-keyed macaroon scoped to a set of
// (entity, action) operations, then verify an incoming macaroon still
// authorizes the operations a given RPC requires.
//
// The full lnd macaroons.Service additionally persists baked macaroons
// in a database and layers on user-supplied caveats (IP address,
// expiration); this port keeps only the bakery.Checker/Oven core that
// rpcperms.RpcInterceptor actually calls, since a wire-level macaroon
// store is a UTXO-wallet-adjacent persistence concern out of scope per
// spec §1, not part of the routing core itself.
package macaroons

import (
	"context"
	"fmt"

	macaroon "gopkg.in/macaroon.v2"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

// MacaroonValidator validates that the macaroons attached to a gRPC
// context carry every operation in ops for the named RPC method.
// rpcperms.RpcInterceptor consults this once per request.
type MacaroonValidator interface {
	ValidateMacaroon(ctx context.Context, ops []bakery.Op, fullMethod string) error
}

// Service mints and validates macaroons scoped to this daemon's RPC
// surface. ExternalValidators lets a caller override validation for a
// specific method (e.g. to allow an unauthenticated health check)
// without weakening every other method.
type Service struct {
	Bakery *bakery.Bakery
	Oven   *bakery.Oven

	ExternalValidators map[string]MacaroonValidator
}

// NewService creates a Service backed by an in-memory root key store.
// location is the bakery's identifier, stamped into every macaroon it
// mints, matching the "location" caveat convention macaroon.v2
// verification checks against.
//
// The real lnd macaroons.Service persists its root key in a database
// so minted macaroons stay valid across restarts; this port takes no
// such key because bakery.NewMemRootKeyStore generates and holds its
// own, which is enough for one daemon's lifetime and keeps a database
// dependency out of this package (see DESIGN.md).
func NewService(location string) *Service {
	locator := bakery.NewMemRootKeyStore()
	keyPair := bakery.MustGenerateKey()

	oven := bakery.NewOven(bakery.OvenParams{
		Namespace: nil,
		RootKeyStoreForOps: func(ops []bakery.Op) bakery.RootKeyStore {
			return locator
		},
		Key:      keyPair,
		Location: location,
	})

	b := bakery.New(bakery.BakeryParams{
		Location:     location,
		RootKeyStore: locator,
		Key:          keyPair,
	})

	return &Service{
		Bakery:             b,
		Oven:               oven,
		ExternalValidators: make(map[string]MacaroonValidator),
	}
}

// ValidateMacaroon checks that the macaroon(s) attached to ctx (via
// the "macaroon" metadata key, hex-encoded) authorize every operation
// in ops. It implements MacaroonValidator so Service itself is the
// default validator rpcperms.RpcInterceptor falls back to.
func (s *Service) ValidateMacaroon(ctx context.Context, ops []bakery.Op, fullMethod string) error {
	mac, err := macaroonFromContext(ctx)
	if err != nil {
		return err
	}

	authChecker := s.Bakery.Checker.Auth(macaroon.Slice{mac})
	if _, err := authChecker.Allow(ctx, ops...); err != nil {
		return fmt.Errorf("%s: macaroon does not grant required "+
			"permissions: %w", fullMethod, err)
	}
	return nil
}

// NewMacaroon mints a macaroon authorizing ops, with no additional
// caveats. Callers that need a scoped, time-limited macaroon should
// add caveats to the result before serializing it.
func (s *Service) NewMacaroon(ctx context.Context, ops ...bakery.Op) (*bakery.Macaroon, error) {
	return s.Oven.NewMacaroon(ctx, bakery.LatestVersion, nil, ops...)
}
