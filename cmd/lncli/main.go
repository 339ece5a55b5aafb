// routingcore-cli is the command-line client for routingcored, mirroring
// lncli's command registration and connection-setup conventions.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/urfave/cli"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ZmnSCPxj/routingcore/lnrpc/routingcore"
)

const (
	defaultRPCPort        = "10555"
	defaultRPCHostPort    = "localhost:" + defaultRPCPort
	defaultTLSCertFilename = "tls.cert"
	defaultMacaroonFilename = "routingcore.macaroon"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[routingcore-cli] %v\n", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "routingcore-cli"
	app.Usage = "control plane for a running routingcored"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rpcserver",
			Value: defaultRPCHostPort,
			Usage: "host:port of routingcored's gRPC listener",
		},
		cli.StringFlag{
			Name:  "tlscertpath",
			Value: defaultTLSCertFilename,
			Usage: "path to routingcored's TLS certificate",
		},
		cli.StringFlag{
			Name:  "macaroonpath",
			Value: defaultMacaroonFilename,
			Usage: "path to the macaroon authorizing this command",
		},
		cli.BoolFlag{
			Name:  "no-macaroons",
			Usage: "disable macaroon authentication",
		},
		cli.BoolFlag{
			Name:  "insecure",
			Usage: "connect to routingcored without TLS (plaintext)",
		},
	}
	app.Commands = []cli.Command{
		multiFundChannelCommand,
		multiWithdrawCommand,
		multiConnectCommand,
		permuteRouteCommand,
		txAccelerateCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// actionDecorator wraps a cli.ActionFunc so a returned error is
// reported the same way for every command, instead of each command
// separately formatting its own failure.
func actionDecorator(f func(*cli.Context) error) func(*cli.Context) error {
	return func(c *cli.Context) error {
		if err := f(c); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		return nil
	}
}

// macaroonCredential attaches a hex-encoded macaroon to every request's
// "macaroon" metadata key, the encoding macaroons.macaroonFromContext
// decodes on the server side.
type macaroonCredential struct {
	hexMac string
}

func (m macaroonCredential) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{"macaroon": m.hexMac}, nil
}

func (m macaroonCredential) RequireTransportSecurity() bool {
	return true
}

// getClientConn dials routingcored using the connection flags common to
// every subcommand.
func getClientConn(ctx *cli.Context) (*grpc.ClientConn, error) {
	var creds credentials.TransportCredentials
	if ctx.GlobalBool("insecure") {
		creds = insecure.NewCredentials()
	} else {
		certPath := ctx.GlobalString("tlscertpath")
		c, err := credentials.NewClientTLSFromFile(certPath, "")
		if err != nil {
			return nil, fmt.Errorf("reading TLS cert %s: %w", certPath, err)
		}
		creds = c
	}

	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}

	if !ctx.GlobalBool("no-macaroons") {
		macBytes, err := ioutil.ReadFile(ctx.GlobalString("macaroonpath"))
		if err != nil {
			return nil, fmt.Errorf("reading macaroon %s: %w",
				ctx.GlobalString("macaroonpath"), err)
		}
		opts = append(opts, grpc.WithPerRPCCredentials(macaroonCredential{
			hexMac: hex.EncodeToString(macBytes),
		}))
	}

	return grpc.Dial(ctx.GlobalString("rpcserver"), opts...)
}

func getRoutingCoreClient(ctx *cli.Context) (*routingcore.Client, func(), error) {
	conn, err := getClientConn(ctx)
	if err != nil {
		return nil, nil, err
	}
	return routingcore.NewClient(conn), func() { conn.Close() }, nil
}

// printRespJSON pretty-prints an RPC response the way lncli echoes
// every command's result back to the terminal.
func printRespJSON(resp interface{}) {
	b, err := json.MarshalIndent(resp, "", "    ")
	if err != nil {
		fmt.Println("unable to marshal response:", err)
		return
	}
	fmt.Println(string(b))
}

