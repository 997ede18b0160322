package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
)

func discard(string, ...any) {}

func TestSignaledLifecycle(t *testing.T) {
	movement := NewMovement(discard)
	if movement.IsRunning() {
		t.Fatal("expected idle controller")
	}
	dest := Destination{Position: &quest.Position{X: 1, Y: 2, Z: 3}}
	if err := movement.Start(context.Background(), dest); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !movement.IsRunning() {
		t.Fatal("expected running controller")
	}
	got, ok := movement.Request()
	if !ok || got.Position.X != 1 {
		t.Fatalf("request = %+v, %v", got, ok)
	}
	if !movement.Complete() {
		t.Fatal("expected complete to report running")
	}
	if movement.Complete() {
		t.Fatal("expected second complete to be a no-op")
	}
	if _, ok := movement.Request(); ok {
		t.Fatal("expected no request after completion")
	}
}

func TestSignaledStopIsIdempotent(t *testing.T) {
	gathering := NewGathering(discard)
	if err := gathering.Start(context.Background(), GatherRequest{DataID: 5}); err != nil {
		t.Fatalf("start: %v", err)
	}
	gathering.Stop("manual")
	gathering.Stop("again")
	if gathering.IsRunning() {
		t.Fatal("expected idle controller")
	}
	if _, ok := gathering.Request(); ok {
		t.Fatal("expected no request after stop")
	}
}

func TestMovementRejectsEmptyDestination(t *testing.T) {
	movement := NewMovement(discard)
	err := movement.Start(context.Background(), Destination{})
	if !errors.Is(err, ErrEmptyRequest) {
		t.Fatalf("err = %v, want %v", err, ErrEmptyRequest)
	}
	if movement.IsRunning() {
		t.Fatal("expected idle controller")
	}
}

func TestSignaledRejectsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gathering := NewGathering(discard)
	if err := gathering.Start(ctx, GatherRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSignaledSatisfiesController(t *testing.T) {
	var _ Controller[Destination] = NewMovement(discard)
	var _ Controller[GatherRequest] = NewGathering(discard)
}
