package main

import (
	"github.com/urfave/cli"
)

// Config holds every setting routingcored's ambient stack (listener
// addresses, TLS, macaroons, the cleanup journal) needs; it deliberately
// carries nothing about how to reach the on-chain wallet, peer, chain,
// or gossip backend — per spec §1 that integration is a collaborator
// this daemon consumes through the external package's interfaces, not
// something it constructs itself.
type Config struct {
	Network string

	RPCListen  string
	RESTListen string

	TLSCertPath string
	TLSKeyPath  string

	MacaroonDBPath string
	NoMacaroons    bool

	DataDir string

	DefaultFeeratePerKw uint64
	DefaultMinConf      int
}

func defaultConfig() *Config {
	return &Config{
		Network:             "mainnet",
		RPCListen:           "localhost:10555",
		RESTListen:          "localhost:8555",
		TLSCertPath:         "tls.cert",
		TLSKeyPath:          "tls.key",
		MacaroonDBPath:      "routingcore.macaroon",
		DataDir:             ".",
		DefaultFeeratePerKw: 253,
		DefaultMinConf:      1,
	}
}

func configFromCLI(ctx *cli.Context) *Config {
	cfg := defaultConfig()

	if v := ctx.String("network"); v != "" {
		cfg.Network = v
	}
	if v := ctx.String("rpclisten"); v != "" {
		cfg.RPCListen = v
	}
	if v := ctx.String("restlisten"); v != "" {
		cfg.RESTListen = v
	}
	if v := ctx.String("tlscertpath"); v != "" {
		cfg.TLSCertPath = v
	}
	if v := ctx.String("tlskeypath"); v != "" {
		cfg.TLSKeyPath = v
	}
	if v := ctx.String("macaroonpath"); v != "" {
		cfg.MacaroonDBPath = v
	}
	if v := ctx.String("datadir"); v != "" {
		cfg.DataDir = v
	}
	cfg.NoMacaroons = ctx.Bool("no-macaroons")

	return cfg
}

var globalFlags = []cli.Flag{
	cli.StringFlag{Name: "network", Usage: "mainnet, testnet, regtest, or signet"},
	cli.StringFlag{Name: "rpclisten", Usage: "host:port to listen for gRPC connections on"},
	cli.StringFlag{Name: "restlisten", Usage: "host:port to listen for grpc-gateway REST connections on"},
	cli.StringFlag{Name: "tlscertpath"},
	cli.StringFlag{Name: "tlskeypath"},
	cli.StringFlag{Name: "macaroonpath"},
	cli.BoolFlag{Name: "no-macaroons", Usage: "disable macaroon authentication (testing only)"},
	cli.StringFlag{Name: "datadir", Usage: "directory holding the funding cleanup journal"},
}
