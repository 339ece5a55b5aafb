package routingcore

import (
	"context"

	"google.golang.org/grpc"
)

// Client is a thin wrapper around a grpc.ClientConn that dials this
// package's hand-written service, the way a generated
// RoutingCoreClient would.
type Client struct {
	cc *grpc.ClientConn
}

// NewClient wraps an already-dialed connection.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc}
}

// callOpts forces the json codec registered in codec.go, since this
// connection never carries protobuf-encoded messages.
var callOpts = []grpc.CallOption{grpc.CallContentSubtype(jsonCodec{}.Name())}

func (c *Client) invoke(ctx context.Context, method string, req, resp interface{}) error {
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp, callOpts...)
}

func (c *Client) MultiFundChannel(ctx context.Context, req *MultiFundChannelRequest) (*MultiFundChannelResponse, error) {
	resp := new(MultiFundChannelResponse)
	if err := c.invoke(ctx, "MultiFundChannel", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) MultiWithdraw(ctx context.Context, req *MultiWithdrawRequest) (*MultiWithdrawResponse, error) {
	resp := new(MultiWithdrawResponse)
	if err := c.invoke(ctx, "MultiWithdraw", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) MultiConnect(ctx context.Context, req *MultiConnectRequest) (*MultiConnectResponse, error) {
	resp := new(MultiConnectResponse)
	if err := c.invoke(ctx, "MultiConnect", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) PermuteRoute(ctx context.Context, req *PermuteRouteRequest) (*PermuteRouteResponse, error) {
	resp := new(PermuteRouteResponse)
	if err := c.invoke(ctx, "PermuteRoute", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) TxAccelerate(ctx context.Context, req *TxAccelerateRequest) (*TxAccelerateResponse, error) {
	resp := new(TxAccelerateResponse)
	if err := c.invoke(ctx, "TxAccelerate", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
