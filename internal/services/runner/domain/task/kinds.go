package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/controller"
)

// FightRunner is the combat subsystem as seen by a combat task. Update
// returns a control-lost error when delegated control was revoked.
type FightRunner interface {
	controller.Controller[controller.Fight]
	Update(ctx context.Context) error
}

// Interactor asks the game client to interact with an object.
type Interactor interface {
	Interact(ctx context.Context, dataID uint32) error
}

// subsystemTask starts a controller and completes once it goes idle.
type subsystemTask[T any] struct {
	name    string
	ctl     controller.Controller[T]
	request T
}

func (t *subsystemTask[T]) Name() string { return t.name }

func (t *subsystemTask[T]) Start(ctx context.Context) error {
	if t.ctl == nil {
		return fmt.Errorf("%s: controller unavailable", t.name)
	}
	return t.ctl.Start(ctx, t.request)
}

func (t *subsystemTask[T]) Update(context.Context) (Result, error) {
	if t.ctl.IsRunning() {
		return StillRunning, nil
	}
	return Complete, nil
}

func (t *subsystemTask[T]) Stop(reason string) {
	if t.ctl != nil {
		t.ctl.Stop(reason)
	}
}

// Teleport uses an aetheryte and completes on arrival.
func Teleport(movement controller.Controller[controller.Destination], aetheryte string) Task {
	return &subsystemTask[controller.Destination]{
		name:    "teleport(" + aetheryte + ")",
		ctl:     movement,
		request: controller.Destination{Aetheryte: aetheryte},
	}
}

// MoveTo walks to a destination and completes on arrival.
func MoveTo(movement controller.Controller[controller.Destination], dest controller.Destination) Task {
	name := "move_to"
	if dest.Position != nil {
		name = fmt.Sprintf("move_to(%.1f,%.1f,%.1f)", dest.Position.X, dest.Position.Y, dest.Position.Z)
	}
	return &subsystemTask[controller.Destination]{name: name, ctl: movement, request: dest}
}

// Gather runs the gathering subsystem until it reports done.
func Gather(gathering controller.Controller[controller.GatherRequest], request controller.GatherRequest) Task {
	return &subsystemTask[controller.GatherRequest]{
		name:    fmt.Sprintf("gather(%d)", request.DataID),
		ctl:     gathering,
		request: request,
	}
}

type combatTask struct {
	runner FightRunner
	fight  controller.Fight
}

// Combat fights until the combat subsystem goes idle. A revoked lease
// surfaces as a control-lost error from Update.
func Combat(runner FightRunner, fight controller.Fight) Task {
	return &combatTask{runner: runner, fight: fight}
}

func (t *combatTask) Name() string {
	ids := make([]string, 0, len(t.fight.Enemies))
	for _, id := range t.fight.Enemies {
		ids = append(ids, fmt.Sprint(id))
	}
	return "combat(" + strings.Join(ids, ",") + ")"
}

func (t *combatTask) Start(ctx context.Context) error {
	if t.runner == nil {
		return fmt.Errorf("combat: controller unavailable")
	}
	return t.runner.Start(ctx, t.fight)
}

func (t *combatTask) Update(ctx context.Context) (Result, error) {
	if !t.runner.IsRunning() {
		return Complete, nil
	}
	if err := t.runner.Update(ctx); err != nil {
		return StillRunning, err
	}
	return StillRunning, nil
}

func (t *combatTask) Stop(reason string) {
	if t.runner != nil {
		t.runner.Stop(reason)
	}
}

// waitTask completes once Acknowledge is called.
type waitTask struct {
	name     string
	onStart  func(ctx context.Context) error
	released bool
}

func (t *waitTask) Name() string { return t.name }

func (t *waitTask) Start(ctx context.Context) error {
	t.released = false
	if t.onStart != nil {
		return t.onStart(ctx)
	}
	return nil
}

func (t *waitTask) Update(context.Context) (Result, error) {
	if t.released {
		return Complete, nil
	}
	return StillRunning, nil
}

func (t *waitTask) Acknowledge() { t.released = true }

// WaitForManualProgress waits for the player to finish the step and report it.
func WaitForManualProgress(comment string) Task {
	name := "wait_for_manual_progress"
	if comment != "" {
		name += "(" + comment + ")"
	}
	return &waitTask{name: name}
}

// Interact requests an interaction and waits for it to be acknowledged.
func Interact(interactor Interactor, dataID uint32) Task {
	return &waitTask{
		name: fmt.Sprintf("interact(%d)", dataID),
		onStart: func(ctx context.Context) error {
			if interactor == nil {
				return nil
			}
			return interactor.Interact(ctx, dataID)
		},
	}
}

type waitNextStep struct {
	delay    time.Duration
	now      func() time.Time
	deadline time.Time
}

// WaitNextStep pauses briefly so the game state settles before the cursor
// moves on.
func WaitNextStep(delay time.Duration, now func() time.Time) Task {
	if now == nil {
		now = time.Now
	}
	return &waitNextStep{delay: delay, now: now}
}

func (t *waitNextStep) Name() string { return "wait_next_step" }

func (t *waitNextStep) Start(context.Context) error {
	t.deadline = t.now().Add(t.delay)
	return nil
}

func (t *waitNextStep) Update(context.Context) (Result, error) {
	if t.now().Before(t.deadline) {
		return StillRunning, nil
	}
	return Complete, nil
}
