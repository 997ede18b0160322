package rotation

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/louisbranch/questrunner/internal/platform/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// LeaseServer is an in-memory engine that grants one lease at a time. It
// backs local development and integration tests of the lease client.
type LeaseServer struct {
	mu          sync.Mutex
	holder      *uuid.UUID
	caller      string
	channel     string
	enabled     bool
	ready       bool
	subscribers map[string]map[chan Callback]struct{}
}

// NewLeaseServer returns an engine with no lease granted.
func NewLeaseServer() *LeaseServer {
	return &LeaseServer{subscribers: make(map[string]map[chan Callback]struct{})}
}

// LeaseSnapshot describes the engine state.
type LeaseSnapshot struct {
	Lease   uuid.UUID
	Held    bool
	Caller  string
	Channel string
	Enabled bool
	Ready   bool
}

// Snapshot returns the current engine state.
func (s *LeaseServer) Snapshot() LeaseSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := LeaseSnapshot{Caller: s.caller, Channel: s.channel, Enabled: s.enabled, Ready: s.ready}
	if s.holder != nil {
		snap.Lease = *s.holder
		snap.Held = true
	}
	return snap
}

// Watchers returns how many streams watch channel.
func (s *LeaseServer) Watchers(channel string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers[channel])
}

// Test always succeeds.
func (s *LeaseServer) Test(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}

// RegisterForLeaseWithCallback grants a lease unless one is held.
func (s *LeaseServer) RegisterForLeaseWithCallback(_ context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	fields := in.GetFields()
	callerID := fields[FieldCallerID].GetStringValue()
	if callerID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidEngineInput, "caller id is required").
			ToGRPCStatus("en-US", apperrors.CodeInvalidEngineInput.UserMessage())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.holder != nil {
		return wrapperspb.String(""), nil
	}
	lease := uuid.New()
	s.holder = &lease
	s.caller = callerID
	s.channel = fields[FieldCallbackChannel].GetStringValue()
	s.enabled = false
	s.ready = false
	return wrapperspb.String(lease.String()), nil
}

// SetAutoRotationState toggles rotation for the lease holder.
func (s *LeaseServer) SetAutoRotationState(_ context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	fields := in.GetFields()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(fields[FieldLease].GetStringValue()); err != nil {
		return nil, err
	}
	s.enabled = fields[FieldEnabled].GetBoolValue()
	return &emptypb.Empty{}, nil
}

// SetCurrentJobAutoRotationReady marks the job ready for the lease holder.
func (s *LeaseServer) SetCurrentJobAutoRotationReady(_ context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(in.GetValue()); err != nil {
		return nil, err
	}
	s.ready = true
	return &emptypb.Empty{}, nil
}

// ReleaseControl ends the lease.
func (s *LeaseServer) ReleaseControl(_ context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(in.GetValue()); err != nil {
		return nil, err
	}
	s.clearLocked()
	return &emptypb.Empty{}, nil
}

// WatchLeaseCallbacks streams revocation notices for a channel.
func (s *LeaseServer) WatchLeaseCallbacks(in *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	channel := in.GetValue()
	notices := make(chan Callback, 8)
	s.mu.Lock()
	if s.subscribers[channel] == nil {
		s.subscribers[channel] = make(map[chan Callback]struct{})
	}
	s.subscribers[channel][notices] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subscribers[channel], notices)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case cb := <-notices:
			if err := stream.Send(cb.Struct()); err != nil {
				return err
			}
		}
	}
}

// Revoke ends the current lease and notifies the holder's channel. It
// reports whether a lease was held.
func (s *LeaseServer) Revoke(reason int32, info string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.holder == nil {
		return false
	}
	channel := s.channel
	s.clearLocked()
	for notices := range s.subscribers[channel] {
		select {
		case notices <- Callback{Reason: reason, Info: info}:
		default:
		}
	}
	return true
}

func (s *LeaseServer) checkLocked(lease string) error {
	if s.holder == nil || s.holder.String() != lease {
		return apperrors.WithMetadata(apperrors.CodeLeaseUnknown, fmt.Sprintf("unknown lease %q", lease), map[string]string{
			"lease": lease,
		}).ToGRPCStatus("en-US", apperrors.CodeLeaseUnknown.UserMessage())
	}
	return nil
}

func (s *LeaseServer) clearLocked() {
	s.holder = nil
	s.caller = ""
	s.channel = ""
	s.enabled = false
	s.ready = false
}
