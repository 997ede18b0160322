// Package rotation speaks the lease protocol of the external combat
// automation engine over gRPC. Messages are protobuf well-known types, so
// the service needs no generated code.
package rotation

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name, also used as the
// health check service.
const ServiceName = "rotation.v1.AutomationService"

const (
	testMethod              = "/" + ServiceName + "/Test"
	registerMethod          = "/" + ServiceName + "/RegisterForLeaseWithCallback"
	setRotationStateMethod  = "/" + ServiceName + "/SetAutoRotationState"
	setJobReadyMethod       = "/" + ServiceName + "/SetCurrentJobAutoRotationReady"
	releaseControlMethod    = "/" + ServiceName + "/ReleaseControl"
	watchLeaseCallbacksName = "WatchLeaseCallbacks"
	watchMethod             = "/" + ServiceName + "/" + watchLeaseCallbacksName
)

// Struct field names used in requests and callbacks.
const (
	FieldCallerID        = "caller_id"
	FieldCallerName      = "caller_name"
	FieldCallbackChannel = "callback_channel"
	FieldLease           = "lease"
	FieldEnabled         = "enabled"
	FieldReason          = "reason"
	FieldInfo            = "info"
)

// AutomationServer is the server side of the lease protocol.
type AutomationServer interface {
	Test(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	RegisterForLeaseWithCallback(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	SetAutoRotationState(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	SetCurrentJobAutoRotationReady(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	ReleaseControl(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	WatchLeaseCallbacks(*wrapperspb.StringValue, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterAutomationServer registers srv on s.
func RegisterAutomationServer(s grpc.ServiceRegistrar, srv AutomationServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the lease protocol service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AutomationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Test", Handler: unaryHandler(testMethod, AutomationServer.Test)},
		{MethodName: "RegisterForLeaseWithCallback", Handler: unaryHandler(registerMethod, AutomationServer.RegisterForLeaseWithCallback)},
		{MethodName: "SetAutoRotationState", Handler: unaryHandler(setRotationStateMethod, AutomationServer.SetAutoRotationState)},
		{MethodName: "SetCurrentJobAutoRotationReady", Handler: unaryHandler(setJobReadyMethod, AutomationServer.SetCurrentJobAutoRotationReady)},
		{MethodName: "ReleaseControl", Handler: unaryHandler(releaseControlMethod, AutomationServer.ReleaseControl)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    watchLeaseCallbacksName,
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "rotation/v1/automation.proto",
}

// unaryHandler adapts a typed server method to a grpc.MethodDesc handler.
func unaryHandler[Req any, Res any, PReq interface {
	*Req
}](fullMethod string, call func(AutomationServer, context.Context, PReq) (Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AutomationServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AutomationServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(AutomationServer).WatchLeaseCallbacks(in, &grpc.GenericServerStream[wrapperspb.StringValue, structpb.Struct]{ServerStream: stream})
}
