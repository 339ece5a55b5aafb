package main

import (
	"encoding/json"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/ZmnSCPxj/routingcore/lnrpc/routingcore"
)

// requestContext carries the caller's macaroon (if any) from the HTTP
// header grpc-gateway convention exposes it under into the outgoing
// grpc metadata the dialed connection sends upstream, so
// rpcperms.RpcInterceptor validates the gateway caller's own macaroon
// rather than whatever the gateway's own dial credentials carry.
func requestContext(r *http.Request) *http.Request {
	mac := r.Header.Get("Grpc-Metadata-Macaroon")
	if mac == "" {
		return r
	}
	ctx := metadata.AppendToOutgoingContext(r.Context(), "macaroon", mac)
	return r.WithContext(ctx)
}

// newGateway builds the REST/JSON reverse proxy the way a generated
// *.pb.gw.go file would, minus the code generation: one HandlePath per
// RPC method, each decoding a JSON body, forwarding it (with the
// caller's macaroon header carried along, exactly as a dialed
// grpc.ClientConn would) to the real gRPC listener, and writing the
// JSON response back. runtime.ServeMux is the same request router
// grpc-gateway's generated code uses; only the registration is
// hand-written here since protoc isn't available to generate it.
func newGateway(conn *grpc.ClientConn) *runtime.ServeMux {
	mux := runtime.NewServeMux()
	client := routingcore.NewClient(conn)

	register(mux, "multifundchannel", func(ctx *http.Request) (interface{}, error) {
		req := new(routingcore.MultiFundChannelRequest)
		if err := json.NewDecoder(ctx.Body).Decode(req); err != nil {
			return nil, err
		}
		return client.MultiFundChannel(ctx.Context(), req)
	})
	register(mux, "multiwithdraw", func(ctx *http.Request) (interface{}, error) {
		req := new(routingcore.MultiWithdrawRequest)
		if err := json.NewDecoder(ctx.Body).Decode(req); err != nil {
			return nil, err
		}
		return client.MultiWithdraw(ctx.Context(), req)
	})
	register(mux, "multiconnect", func(ctx *http.Request) (interface{}, error) {
		req := new(routingcore.MultiConnectRequest)
		if err := json.NewDecoder(ctx.Body).Decode(req); err != nil {
			return nil, err
		}
		return client.MultiConnect(ctx.Context(), req)
	})
	register(mux, "permuteroute", func(ctx *http.Request) (interface{}, error) {
		req := new(routingcore.PermuteRouteRequest)
		if err := json.NewDecoder(ctx.Body).Decode(req); err != nil {
			return nil, err
		}
		return client.PermuteRoute(ctx.Context(), req)
	})
	register(mux, "txaccelerate", func(ctx *http.Request) (interface{}, error) {
		req := new(routingcore.TxAccelerateRequest)
		if err := json.NewDecoder(ctx.Body).Decode(req); err != nil {
			return nil, err
		}
		return client.TxAccelerate(ctx.Context(), req)
	})

	return mux
}

func register(mux *runtime.ServeMux, path string, call func(*http.Request) (interface{}, error)) {
	mux.HandlePath(http.MethodPost, "/v1/"+path, func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		resp, err := call(requestContext(r))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
}
