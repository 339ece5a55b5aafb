package macaroons

import (
	"context"
	"encoding/hex"
	"errors"

	macaroon "gopkg.in/macaroon.v2"

	"google.golang.org/grpc/metadata"
)

// metadataKey is the gRPC metadata key a client attaches its
// hex-encoded, serialized macaroon under, mirroring the convention the
// grpc-gateway REST mapping forwards request headers under
// unmodified.
const metadataKey = "macaroon"

// ErrNoMacaroon is returned when a request carries no macaroon at all.
var ErrNoMacaroon = errors.New("macaroons: no macaroon provided in request")

func macaroonFromContext(ctx context.Context) (*macaroon.Macaroon, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, ErrNoMacaroon
	}

	values := md.Get(metadataKey)
	if len(values) == 0 {
		return nil, ErrNoMacaroon
	}

	raw, err := hex.DecodeString(values[0])
	if err != nil {
		return nil, errors.New("macaroons: malformed macaroon hex encoding")
	}

	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(raw); err != nil {
		return nil, errors.New("macaroons: malformed macaroon")
	}
	return mac, nil
}
