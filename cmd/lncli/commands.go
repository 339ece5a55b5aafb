package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli"

	"github.com/ZmnSCPxj/routingcore/lnrpc/routingcore"
)

var multiFundChannelCommand = cli.Command{
	Name:      "multifundchannel",
	Category:  "Channels",
	Usage:     "Open channels to multiple peers in one funding transaction.",
	ArgsUsage: "dest1=amt1[,dest2=amt2,...]",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "destinations",
			Usage: "comma-separated id=amount pairs; amount may be \"all\" for at most one destination",
		},
		cli.Uint64Flag{Name: "feerate_per_kw"},
		cli.IntFlag{Name: "minconf", Value: 1},
	},
	Action: actionDecorator(multiFundChannel),
}

func multiFundChannel(ctx *cli.Context) error {
	if !ctx.IsSet("destinations") {
		return fmt.Errorf("destinations is required")
	}

	var dests []routingcore.Destination
	for _, pair := range strings.Split(ctx.String("destinations"), ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("malformed destination %q, want id=amount", pair)
		}
		d := routingcore.Destination{ID: parts[0]}
		if parts[1] == "all" {
			d.All = true
		} else {
			amt, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return fmt.Errorf("malformed amount in %q: %w", pair, err)
			}
			d.AmountSat = amt
		}
		dests = append(dests, d)
	}

	client, cleanUp, err := getRoutingCoreClient(ctx)
	if err != nil {
		return err
	}
	defer cleanUp()

	resp, err := client.MultiFundChannel(context.Background(), &routingcore.MultiFundChannelRequest{
		Destinations: dests,
		FeeratePerKw: ctx.Uint64("feerate_per_kw"),
		MinConf:      int32(ctx.Int("minconf")),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

var multiWithdrawCommand = cli.Command{
	Name:      "multiwithdraw",
	Category:  "Wallet",
	Usage:     "Send to multiple addresses in one transaction.",
	ArgsUsage: "addr1=amt1[,addr2=amt2,...]",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "outputs",
			Usage: "comma-separated address=amount pairs; amount may be \"all\" for at most one output",
		},
		cli.Uint64Flag{Name: "feerate_per_kw"},
		cli.IntFlag{Name: "minconf"},
	},
	Action: actionDecorator(multiWithdraw),
}

func multiWithdraw(ctx *cli.Context) error {
	if !ctx.IsSet("outputs") {
		return fmt.Errorf("outputs is required")
	}

	var outputs []routingcore.WithdrawOutput
	for _, pair := range strings.Split(ctx.String("outputs"), ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("malformed output %q, want address=amount", pair)
		}
		outputs = append(outputs, routingcore.WithdrawOutput{
			Address: parts[0],
			Amount:  parts[1],
		})
	}

	client, cleanUp, err := getRoutingCoreClient(ctx)
	if err != nil {
		return err
	}
	defer cleanUp()

	resp, err := client.MultiWithdraw(context.Background(), &routingcore.MultiWithdrawRequest{
		Outputs:      outputs,
		FeeratePerKw: ctx.Uint64("feerate_per_kw"),
		MinConf:      int32(ctx.Int("minconf")),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

var multiConnectCommand = cli.Command{
	Name:      "multiconnect",
	Category:  "Peers",
	Usage:     "Connect to multiple peers in parallel.",
	ArgsUsage: "id1[,id2,...]",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "ids"},
	},
	Action: actionDecorator(multiConnect),
}

func multiConnect(ctx *cli.Context) error {
	if !ctx.IsSet("ids") {
		return fmt.Errorf("ids is required")
	}

	client, cleanUp, err := getRoutingCoreClient(ctx)
	if err != nil {
		return err
	}
	defer cleanUp()

	resp, err := client.MultiConnect(context.Background(), &routingcore.MultiConnectRequest{
		IDs: strings.Split(ctx.String("ids"), ","),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

var permuteRouteCommand = cli.Command{
	Name:     "permuteroute",
	Category: "Routing",
	Usage:    "Splice a two-hop detour around a failed hop of an existing route.",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "route_json", Usage: "the failed route, as JSON [{node_id,channel_id,amount_msat,cltv_expiry,tlv},...]"},
		cli.IntFlag{Name: "erring_index"},
		cli.BoolFlag{Name: "node_failure"},
		cli.StringFlag{Name: "source"},
	},
	Action: actionDecorator(permuteRoute),
}

func permuteRoute(ctx *cli.Context) error {
	if !ctx.IsSet("route_json") {
		return fmt.Errorf("route_json is required")
	}

	var hops []routingcore.Hop
	if err := parseJSON(ctx.String("route_json"), &hops); err != nil {
		return fmt.Errorf("malformed route_json: %w", err)
	}

	client, cleanUp, err := getRoutingCoreClient(ctx)
	if err != nil {
		return err
	}
	defer cleanUp()

	resp, err := client.PermuteRoute(context.Background(), &routingcore.PermuteRouteRequest{
		Route:       hops,
		ErringIndex: int32(ctx.Int("erring_index")),
		NodeFailure: ctx.Bool("node_failure"),
		Source:      ctx.String("source"),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

var txAccelerateCommand = cli.Command{
	Name:     "txaccelerate",
	Category: "Wallet",
	Usage:    "Bump a stuck transaction's fee until it, or a fee-bumped child, confirms.",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "txid"},
		cli.Int64Flag{Name: "max_acceptable_fee_sat"},
		cli.Float64Flag{Name: "aggression", Value: 0.1},
	},
	Action: actionDecorator(txAccelerate),
}

func txAccelerate(ctx *cli.Context) error {
	if !ctx.IsSet("txid") || !ctx.IsSet("max_acceptable_fee_sat") {
		return fmt.Errorf("txid and max_acceptable_fee_sat are required")
	}

	client, cleanUp, err := getRoutingCoreClient(ctx)
	if err != nil {
		return err
	}
	defer cleanUp()

	resp, err := client.TxAccelerate(context.Background(), &routingcore.TxAccelerateRequest{
		Txid:                ctx.String("txid"),
		MaxAcceptableFeeSat: ctx.Int64("max_acceptable_fee_sat"),
		Aggression:          ctx.Float64("aggression"),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}
