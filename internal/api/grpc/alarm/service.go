package alarm

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/alarm-clock/internal/logger"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "alarmclock.v1.AlarmService"
	// ActorMetadataKey carries the "user@host" of the caller.
	ActorMetadataKey = "x-alarm-actor"
	// unknownActor is logged when a caller did not identify itself.
	unknownActor = "unknown"
)

// AlarmServiceServer is the server API of the alarm service.
type AlarmServiceServer interface {
	SetAlarm(ctx context.Context, req *timestamppb.Timestamp) (*timestamppb.Timestamp, error)
	GetAlarm(ctx context.Context, req *emptypb.Empty) (*timestamppb.Timestamp, error)
	ClearAlarm(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
	RunCheck(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// ServiceDesc describes the alarm service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SetAlarm",
			Handler:    unaryHandler[timestamppb.Timestamp]("SetAlarm", AlarmServiceServer.SetAlarm),
		},
		{
			MethodName: "GetAlarm",
			Handler:    unaryHandler[emptypb.Empty]("GetAlarm", AlarmServiceServer.GetAlarm),
		},
		{
			MethodName: "ClearAlarm",
			Handler:    unaryHandler[emptypb.Empty]("ClearAlarm", AlarmServiceServer.ClearAlarm),
		},
		{
			MethodName: "RunCheck",
			Handler:    unaryHandler[emptypb.Empty]("RunCheck", AlarmServiceServer.RunCheck),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterAlarmServiceServer registers srv on registrar.
func RegisterAlarmServiceServer(registrar grpc.ServiceRegistrar, srv AlarmServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](
	method string,
	call func(AlarmServiceServer, context.Context, PReq) (Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(AlarmServiceServer)

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}

		handler := func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(PReq)

			return call(server, ctx, typed)
		}

		return interceptor(ctx, in, info, handler)
	}
}

// fullMethod returns the gRPC path of method.
func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AlarmServiceClient calls the alarm service over a client connection.
type AlarmServiceClient struct {
	// cc is the underlying connection.
	cc grpc.ClientConnInterface
}

// NewAlarmServiceClient creates a client over cc.
func NewAlarmServiceClient(cc grpc.ClientConnInterface) *AlarmServiceClient {
	return &AlarmServiceClient{
		cc: cc,
	}
}

// SetAlarm arms the alarm for the requested time.
func (c *AlarmServiceClient) SetAlarm(
	ctx context.Context,
	in *timestamppb.Timestamp,
	opts ...grpc.CallOption,
) (*timestamppb.Timestamp, error) {
	return invoke(ctx, c.cc, "SetAlarm", in, new(timestamppb.Timestamp), opts)
}

// GetAlarm returns the pending alarm.
func (c *AlarmServiceClient) GetAlarm(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*timestamppb.Timestamp, error) {
	return invoke(ctx, c.cc, "GetAlarm", in, new(timestamppb.Timestamp), opts)
}

// ClearAlarm disarms the alarm.
func (c *AlarmServiceClient) ClearAlarm(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	return invoke(ctx, c.cc, "ClearAlarm", in, new(emptypb.Empty), opts)
}

// RunCheck forces one watcher cycle.
func (c *AlarmServiceClient) RunCheck(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*wrapperspb.StringValue, error) {
	return invoke(ctx, c.cc, "RunCheck", in, new(wrapperspb.StringValue), opts)
}

func invoke[Resp proto.Message](
	ctx context.Context,
	cc grpc.ClientConnInterface,
	method string,
	in proto.Message,
	out Resp,
	opts []grpc.CallOption,
) (Resp, error) {
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		var zero Resp

		return zero, err
	}

	return out, nil
}

// WithActor attaches the caller identity to an outgoing request context.
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, ActorMetadataKey, actor)
}

// ActorFromContext returns the caller identity of an incoming request.
func ActorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return unknownActor
	}

	values := md.Get(ActorMetadataKey)
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return unknownActor
	}

	return values[0]
}

// ActorInterceptor adds the caller identity and method to the request logger.
func ActorInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	ctx = logger.WithKV(ctx, "actor", ActorFromContext(ctx), "method", info.FullMethod)

	return handler(ctx, req)
}
