// routingcored is the process entrypoint: it wires logging,
// the four engines, the funding cleanup journal, and exposes
// multifundchannel/multiwithdraw/multiconnect/permuteroute/txaccelerate
// as both gRPC methods and a grpc-gateway JSON REST surface, guarded by
// a macaroon interceptor.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/coreos/bbolt"
	"github.com/urfave/cli"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/ZmnSCPxj/routingcore/funding"
	"github.com/ZmnSCPxj/routingcore/lnrpc/routingcore"
	"github.com/ZmnSCPxj/routingcore/macaroons"
	"github.com/ZmnSCPxj/routingcore/rpcperms"
)

func main() {
	app := cli.NewApp()
	app.Name = "routingcored"
	app.Usage = "run the payment-routing core daemon"
	app.Flags = globalFlags
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "[routingcored] %v\n", err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	cfg := configFromCLI(cliCtx)
	initLogging()

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}

	db, err := bbolt.Open(filepath.Join(cfg.DataDir, "funding.db"), 0600, nil)
	if err != nil {
		return fmt.Errorf("opening funding journal: %w", err)
	}
	defer db.Close()

	store, err := funding.NewStore(db)
	if err != nil {
		return fmt.Errorf("initializing funding journal: %w", err)
	}

	srv := newServer(cfg, backend, store)

	interceptor := rpcperms.NewInterceptor(log)
	if !cfg.NoMacaroons {
		macService := macaroons.NewService(cfg.RPCListen)
		interceptor.AddMacaroonService(macService)

		mac, err := macService.NewMacaroon(context.Background(), routingcoreOps()...)
		if err != nil {
			return fmt.Errorf("minting macaroon: %w", err)
		}
		macBytes, err := mac.M().MarshalBinary()
		if err != nil {
			return fmt.Errorf("serializing macaroon: %w", err)
		}
		if err := os.WriteFile(cfg.MacaroonDBPath, macBytes, 0600); err != nil {
			return fmt.Errorf("writing macaroon: %w", err)
		}
	}
	for method, entity := range routingcore.MethodPermissions() {
		if err := interceptor.AddPermission(method, macaroonOps(entity)); err != nil {
			return err
		}
	}

	creds, err := credentials.NewServerTLSFromFile(cfg.TLSCertPath, cfg.TLSKeyPath)
	if err != nil {
		return fmt.Errorf("loading TLS material: %w", err)
	}

	serverOpts := append([]grpc.ServerOption{grpc.Creds(creds)}, interceptor.CreateServerOpts()...)
	grpcServer := grpc.NewServer(serverOpts...)
	routingcore.RegisterServer(grpcServer, srv)

	lis, err := net.Listen("tcp", cfg.RPCListen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.RPCListen, err)
	}

	go func() {
		log.Infof("gRPC listening on %s", cfg.RPCListen)
		if err := grpcServer.Serve(lis); err != nil {
			log.Errorf("gRPC server exited: %v", err)
		}
	}()

	clientCreds, err := credentials.NewClientTLSFromFile(cfg.TLSCertPath, "")
	if err != nil {
		return fmt.Errorf("loading TLS material for gateway dial: %w", err)
	}
	gatewayConn, err := grpc.Dial(cfg.RPCListen, grpc.WithTransportCredentials(clientCreds))
	if err != nil {
		return fmt.Errorf("dialing gateway upstream: %w", err)
	}
	defer gatewayConn.Close()

	log.Infof("REST gateway listening on %s", cfg.RESTListen)
	return http.ListenAndServe(cfg.RESTListen, newGateway(gatewayConn))
}
