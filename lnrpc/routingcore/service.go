package routingcore

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Server is the routing core's RPC surface: the five spec §6
// operations, one method each.
type Server interface {
	MultiFundChannel(context.Context, *MultiFundChannelRequest) (*MultiFundChannelResponse, error)
	MultiWithdraw(context.Context, *MultiWithdrawRequest) (*MultiWithdrawResponse, error)
	MultiConnect(context.Context, *MultiConnectRequest) (*MultiConnectResponse, error)
	PermuteRoute(context.Context, *PermuteRouteRequest) (*PermuteRouteResponse, error)
	TxAccelerate(context.Context, *TxAccelerateRequest) (*TxAccelerateResponse, error)
}

// ServiceName is the fully-qualified gRPC service name, matching the
// "routingcore.RoutingCore" package.Service convention a .proto file
// for this surface would declare.
const ServiceName = "routingcore.RoutingCore"

func handler(method func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error), newReq func() interface{}) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		req := newReq()
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv, ctx, req)
		}
		fullMethod, _ := grpc.Method(ctx)
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handlerFunc := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(srv, ctx, req)
		}
		return interceptor(ctx, req, info, handlerFunc)
	}
}

// ServiceDesc is the grpc.ServiceDesc a generated *_grpc.pb.go file
// would provide. Each Handler entry's FullMethod (used by
// rpcperms.RpcInterceptor's permission lookup) is
// "/routingcore.RoutingCore/<MethodName>", read from the incoming call
// by grpc.Method; grpc routes that path to the MethodName below.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "MultiFundChannel",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				return handler(func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(Server).MultiFundChannel(ctx, req.(*MultiFundChannelRequest))
				}, func() interface{} { return new(MultiFundChannelRequest) })(srv, ctx, dec, interceptor)
			},
		},
		{
			MethodName: "MultiWithdraw",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				return handler(func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(Server).MultiWithdraw(ctx, req.(*MultiWithdrawRequest))
				}, func() interface{} { return new(MultiWithdrawRequest) })(srv, ctx, dec, interceptor)
			},
		},
		{
			MethodName: "MultiConnect",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				return handler(func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(Server).MultiConnect(ctx, req.(*MultiConnectRequest))
				}, func() interface{} { return new(MultiConnectRequest) })(srv, ctx, dec, interceptor)
			},
		},
		{
			MethodName: "PermuteRoute",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				return handler(func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(Server).PermuteRoute(ctx, req.(*PermuteRouteRequest))
				}, func() interface{} { return new(PermuteRouteRequest) })(srv, ctx, dec, interceptor)
			},
		},
		{
			MethodName: "TxAccelerate",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				return handler(func(srv interface{}, ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(Server).TxAccelerate(ctx, req.(*TxAccelerateRequest))
				}, func() interface{} { return new(TxAccelerateRequest) })(srv, ctx, dec, interceptor)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "routingcore.proto",
}

// RegisterServer registers srv on s under ServiceDesc, the hand-written
// stand-in for a generated RegisterRoutingCoreServer function.
func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

// MethodPermissions names the URI (full gRPC method name) every
// operation runs under, for rpcperms.RpcInterceptor.AddPermission —
// the map a generated lnrpc subserver's macaroons.go would hand-write
// once per method.
func MethodPermissions() map[string]string {
	entity := "routingcore"
	return map[string]string{
		"/" + ServiceName + "/MultiFundChannel": entity,
		"/" + ServiceName + "/MultiWithdraw":    entity,
		"/" + ServiceName + "/MultiConnect":     entity,
		"/" + ServiceName + "/PermuteRoute":     entity,
		"/" + ServiceName + "/TxAccelerate":     entity,
	}
}
