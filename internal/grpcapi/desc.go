package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service names as registered on the server.
const (
	GachaServiceName  = "gachabattle.v1.Gacha"
	BattleServiceName = "gachabattle.v1.Battle"
)

// GachaServer is the gachabattle.v1.Gacha service. Payloads are
// google.protobuf.Struct documents with the same fields as the HTTP API.
type GachaServer interface {
	Pull(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// BattleServer is the gachabattle.v1.Battle service.
type BattleServer interface {
	Start(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Get(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Play(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Skip(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

// unary adapts a Struct -> Struct method to a grpc.MethodDesc.
func unary(service, name string, call structMethod) grpc.MethodDesc {
	full := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var gachaDesc = grpc.ServiceDesc{
	ServiceName: GachaServiceName,
	HandlerType: (*GachaServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(GachaServiceName, "Pull", func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(GachaServer).Pull(ctx, in)
		}),
		unary(GachaServiceName, "GetProfile", func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(GachaServer).GetProfile(ctx, in)
		}),
	},
	Metadata: "gachabattle/v1/gacha.proto",
}

var battleDesc = grpc.ServiceDesc{
	ServiceName: BattleServiceName,
	HandlerType: (*BattleServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(BattleServiceName, "Start", func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(BattleServer).Start(ctx, in)
		}),
		unary(BattleServiceName, "Get", func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(BattleServer).Get(ctx, in)
		}),
		unary(BattleServiceName, "Play", func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(BattleServer).Play(ctx, in)
		}),
		unary(BattleServiceName, "Skip", func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(BattleServer).Skip(ctx, in)
		}),
	},
	Metadata: "gachabattle/v1/battle.proto",
}

func RegisterGachaServer(s grpc.ServiceRegistrar, srv GachaServer) {
	s.RegisterService(&gachaDesc, srv)
}

func RegisterBattleServer(s grpc.ServiceRegistrar, srv BattleServer) {
	s.RegisterService(&battleDesc, srv)
}

// Client calls both services over one connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// Call invokes service/method with in and returns the response document.
func (c *Client) Call(ctx context.Context, service, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+service+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
