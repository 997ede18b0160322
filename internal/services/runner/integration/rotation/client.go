package rotation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	apperrors "github.com/louisbranch/questrunner/internal/platform/errors"
	platformgrpc "github.com/louisbranch/questrunner/internal/platform/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls the engine's lease protocol. Every error it returns is an
// *apperrors.Error rebuilt from the gRPC status.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps an engine connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Test probes the engine. Engines without a Test method are probed through
// the standard health service instead.
func (c *Client) Test(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return apperrors.New(apperrors.CodeEngineUnavailable, "combat engine is not configured")
	}
	err := c.conn.Invoke(ctx, testMethod, &emptypb.Empty{}, new(emptypb.Empty))
	if status.Code(err) == codes.Unimplemented {
		err = platformgrpc.CheckHealth(ctx, c.conn, ServiceName)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeEngineUnavailable, err.Error(), err)
		}
		return nil
	}
	return fromStatus(err)
}

// RegisterForLeaseWithCallback asks for a lease. ok is false when the engine
// declined without an error.
func (c *Client) RegisterForLeaseWithCallback(ctx context.Context, callerID, callerName, channel string) (uuid.UUID, bool, error) {
	in, err := structpb.NewStruct(map[string]any{
		FieldCallerID:        callerID,
		FieldCallerName:      callerName,
		FieldCallbackChannel: channel,
	})
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("build lease request: %w", err)
	}
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, registerMethod, in, out); err != nil {
		return uuid.Nil, false, fromStatus(err)
	}
	value := strings.TrimSpace(out.GetValue())
	if value == "" {
		return uuid.Nil, false, nil
	}
	lease, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false, apperrors.Wrap(apperrors.CodeInvalidEngineInput, fmt.Sprintf("engine returned malformed lease %q", value), err)
	}
	return lease, true, nil
}

// SetAutoRotationState turns the engine's rotation on or off.
func (c *Client) SetAutoRotationState(ctx context.Context, lease uuid.UUID, enabled bool) error {
	in, err := structpb.NewStruct(map[string]any{
		FieldLease:   lease.String(),
		FieldEnabled: enabled,
	})
	if err != nil {
		return fmt.Errorf("build rotation state request: %w", err)
	}
	return fromStatus(c.conn.Invoke(ctx, setRotationStateMethod, in, new(emptypb.Empty)))
}

// SetCurrentJobAutoRotationReady marks the current job ready for rotation.
func (c *Client) SetCurrentJobAutoRotationReady(ctx context.Context, lease uuid.UUID) error {
	return fromStatus(c.conn.Invoke(ctx, setJobReadyMethod, wrapperspb.String(lease.String()), new(emptypb.Empty)))
}

// ReleaseControl gives the lease back.
func (c *Client) ReleaseControl(ctx context.Context, lease uuid.UUID) error {
	return fromStatus(c.conn.Invoke(ctx, releaseControlMethod, wrapperspb.String(lease.String()), new(emptypb.Empty)))
}

// WatchLeaseCallbacks opens the revocation stream for channel.
func (c *Client) WatchLeaseCallbacks(ctx context.Context, channel string) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], watchMethod)
	if err != nil {
		return nil, fromStatus(err)
	}
	x := &grpc.GenericClientStream[wrapperspb.StringValue, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(wrapperspb.String(channel)); err != nil {
		return nil, fromStatus(err)
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, fromStatus(err)
	}
	return x, nil
}

func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.FromGRPCStatus(err)
}

// Callback is one revocation notice.
type Callback struct {
	Reason int32
	Info   string
}

// CallbackFromStruct decodes a revocation notice.
func CallbackFromStruct(msg *structpb.Struct) Callback {
	fields := msg.GetFields()
	return Callback{
		Reason: int32(fields[FieldReason].GetNumberValue()),
		Info:   fields[FieldInfo].GetStringValue(),
	}
}

// Struct encodes the notice for the wire.
func (cb Callback) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldReason: structpb.NewNumberValue(float64(cb.Reason)),
		FieldInfo:   structpb.NewStringValue(cb.Info),
	}}
}
