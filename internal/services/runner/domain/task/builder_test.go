package task

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/controller"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
)

type fakeFight struct {
	running   bool
	started   controller.Fight
	updateErr error
	stopped   string
}

func (f *fakeFight) Start(_ context.Context, fight controller.Fight) error {
	f.running = true
	f.started = fight
	return nil
}

func (f *fakeFight) Stop(reason string) {
	f.running = false
	f.stopped = reason
}

func (f *fakeFight) IsRunning() bool { return f.running }
func (f *fakeFight) Update(context.Context) error { return f.updateErr }

type fakeInteractor struct{ ids []uint32 }

func (f *fakeInteractor) Interact(_ context.Context, id uint32) error {
	f.ids = append(f.ids, id)
	return nil
}

func discard(string, ...any) {}

func names(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Name())
	}
	return out
}

func TestBuildOrdersTeleportMoveInteract(t *testing.T) {
	step := &quest.Step{
		InteractionType: quest.InteractionInteract,
		Teleport:        "Gridania",
		Position:        &quest.Position{X: 1, Y: 2, Z: 3},
		DataID:          100,
	}
	tasks := Build(step, Subsystems{Settle: time.Second})
	want := []string{"teleport(Gridania)", "move_to(1.0,2.0,3.0)", "interact(100)", "wait_next_step"}
	if got := names(tasks); !slices.Equal(got, want) {
		t.Fatalf("tasks = %v, want %v", got, want)
	}
}

func TestBuildManualStepHasNoSettle(t *testing.T) {
	step := &quest.Step{InteractionType: quest.InteractionWaitForManualProgress, Comment: "talk"}
	tasks := Build(step, Subsystems{Settle: time.Second})
	if got := names(tasks); !slices.Equal(got, []string{"wait_for_manual_progress(talk)"}) {
		t.Fatalf("tasks = %v", got)
	}
	if Build(nil, Subsystems{}) != nil {
		t.Fatal("expected no tasks for nil step")
	}
}

func TestMoveToCompletesWhenMovementIdle(t *testing.T) {
	movement := controller.NewMovement(discard)
	tasks := Build(&quest.Step{InteractionType: quest.InteractionWalkTo, Position: &quest.Position{}}, Subsystems{Movement: movement})
	if len(tasks) != 1 {
		t.Fatalf("tasks = %v", names(tasks))
	}
	ctx := context.Background()
	if err := tasks[0].Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if res, _ := tasks[0].Update(ctx); res != StillRunning {
		t.Fatalf("result = %v, want still running", res)
	}
	movement.Complete()
	if res, _ := tasks[0].Update(ctx); res != Complete {
		t.Fatalf("result = %v, want complete", res)
	}
}

func TestCombatTaskPropagatesControlLost(t *testing.T) {
	fight := &fakeFight{}
	tasks := Build(&quest.Step{InteractionType: quest.InteractionCombat, Enemies: []uint32{7, 8}}, Subsystems{Combat: fight})
	combat := tasks[0]
	if combat.Name() != "combat(7,8)" {
		t.Fatalf("name = %q", combat.Name())
	}
	ctx := context.Background()
	if err := combat.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !slices.Equal(fight.started.Enemies, []uint32{7, 8}) {
		t.Fatalf("enemies = %v", fight.started.Enemies)
	}
	if res, err := combat.Update(ctx); err != nil || res != StillRunning {
		t.Fatalf("update = %v, %v", res, err)
	}
	fight.updateErr = ControlLost(errors.New("revoked"))
	if _, err := combat.Update(ctx); !IsControlLost(err) {
		t.Fatalf("err = %v, want control lost", err)
	}
	combat.(Stopper).Stop("abort")
	if fight.stopped != "abort" {
		t.Fatalf("stopped = %q", fight.stopped)
	}
	if res, _ := combat.Update(ctx); res != Complete {
		t.Fatalf("result = %v, want complete", res)
	}
}

func TestInteractWaitsForAcknowledge(t *testing.T) {
	interactor := &fakeInteractor{}
	interact := Interact(interactor, 55)
	ctx := context.Background()
	if err := interact.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !slices.Equal(interactor.ids, []uint32{55}) {
		t.Fatalf("interactions = %v", interactor.ids)
	}
	if res, _ := interact.Update(ctx); res != StillRunning {
		t.Fatalf("result = %v", res)
	}
	interact.(Acknowledger).Acknowledge()
	if res, _ := interact.Update(ctx); res != Complete {
		t.Fatalf("result = %v", res)
	}
}

func TestWaitNextStepUsesClock(t *testing.T) {
	now := time.Unix(100, 0)
	wait := WaitNextStep(2*time.Second, func() time.Time { return now })
	ctx := context.Background()
	_ = wait.Start(ctx)
	if res, _ := wait.Update(ctx); res != StillRunning {
		t.Fatalf("result = %v", res)
	}
	now = now.Add(2 * time.Second)
	if res, _ := wait.Update(ctx); res != Complete {
		t.Fatalf("result = %v", res)
	}
}

func TestSubsystemTaskWithoutControllerFails(t *testing.T) {
	teleport := Teleport(nil, "Limsa")
	if err := teleport.Start(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
