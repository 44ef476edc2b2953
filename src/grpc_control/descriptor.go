package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "chartfeed.ChartControl"

// ChartControlServer is the control surface of a running chart-feed process.
// Requests and replies are protobuf Structs so no generated code is needed.
type ChartControlServer interface {
	ListSessions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	AddSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StopSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PauseSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResumeSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Zoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetZoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// -----------------------------------------------------------------------------

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChartControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListSessions", Handler: listSessionsHandler},
		{MethodName: "AddSession", Handler: structHandler("AddSession", ChartControlServer.AddSession)},
		{MethodName: "RemoveSession", Handler: structHandler("RemoveSession", ChartControlServer.RemoveSession)},
		{MethodName: "StartSession", Handler: structHandler("StartSession", ChartControlServer.StartSession)},
		{MethodName: "StopSession", Handler: structHandler("StopSession", ChartControlServer.StopSession)},
		{MethodName: "PauseSession", Handler: structHandler("PauseSession", ChartControlServer.PauseSession)},
		{MethodName: "ResumeSession", Handler: structHandler("ResumeSession", ChartControlServer.ResumeSession)},
		{MethodName: "Zoom", Handler: structHandler("Zoom", ChartControlServer.Zoom)},
		{MethodName: "ResetZoom", Handler: structHandler("ResetZoom", ChartControlServer.ResetZoom)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chart_control.proto",
}

// RegisterChartControlServer attaches srv to a gRPC server.
func RegisterChartControlServer(s grpc.ServiceRegistrar, srv ChartControlServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// -----------------------------------------------------------------------------

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func listSessionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChartControlServer).ListSessions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("ListSessions")}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChartControlServer).ListSessions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func structHandler(method string, call func(ChartControlServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ChartControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ChartControlServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type ChartControlClient struct {
	cc grpc.ClientConnInterface
}

func NewChartControlClient(cc grpc.ClientConnInterface) *ChartControlClient {
	return &ChartControlClient{cc: cc}
}

func (c *ChartControlClient) ListSessions(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("ListSessions"), &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Call invokes a Struct-in/Struct-out method such as "StartSession".
func (c *ChartControlClient) Call(ctx context.Context, method string, req map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
