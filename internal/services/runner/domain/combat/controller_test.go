package combat

import (
	"context"
	"testing"

	apperrors "github.com/louisbranch/questrunner/internal/platform/errors"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/controller"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/task"
)

type stubModule struct {
	name     string
	handles  bool
	starts   bool
	stopped  int
	updates  []Target
	attacks  func(Target) bool
	updateFn func() error
}

func (s *stubModule) Name() string { return s.name }

func (s *stubModule) CanHandleFight(context.Context, controller.Fight) bool { return s.handles }

func (s *stubModule) Start(context.Context, controller.Fight) bool { return s.starts }

func (s *stubModule) Stop(context.Context) bool {
	s.stopped++
	return true
}

func (s *stubModule) Update(_ context.Context, target Target) error {
	s.updates = append(s.updates, target)
	if s.updateFn != nil {
		return s.updateFn()
	}
	return nil
}

func (s *stubModule) CanAttack(target Target) bool {
	if s.attacks != nil {
		return s.attacks(target)
	}
	return true
}

func TestControllerPicksFirstApplicableModule(t *testing.T) {
	first := &stubModule{name: "first", handles: false, starts: true}
	second := &stubModule{name: "second", handles: true, starts: true}
	c := NewController(discard, first, second)

	if err := c.Start(context.Background(), controller.Fight{Enemies: []uint32{3}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.ModuleName() != "second" || !c.IsRunning() {
		t.Fatalf("module = %q running = %v", c.ModuleName(), c.IsRunning())
	}
}

func TestControllerNoModule(t *testing.T) {
	c := NewController(discard, &stubModule{name: "x"})
	err := c.Start(context.Background(), controller.Fight{})
	if apperrors.CodeOf(err) != apperrors.CodeEngineUnavailable {
		t.Fatalf("err = %v, want engine unavailable", err)
	}
	if c.IsRunning() {
		t.Fatal("expected idle controller")
	}
}

func TestControllerStartFailureDoesNotFallThrough(t *testing.T) {
	broken := &stubModule{name: "broken", handles: true, starts: false}
	fallback := &stubModule{name: "fallback", handles: true, starts: true}
	c := NewController(discard, broken, fallback)
	err := c.Start(context.Background(), controller.Fight{})
	if apperrors.CodeOf(err) != apperrors.CodeLeaseUnavailable {
		t.Fatalf("err = %v, want lease unavailable", err)
	}
}

func TestControllerUpdateTargetsFirstAttackable(t *testing.T) {
	m := &stubModule{name: "m", handles: true, starts: true, attacks: func(t Target) bool { return t.ID != 1 }}
	c := NewController(discard, m)
	ctx := context.Background()
	_ = c.Start(ctx, controller.Fight{Enemies: []uint32{1, 2}})
	if err := c.Update(ctx); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(m.updates) != 1 || m.updates[0].ID != 2 {
		t.Fatalf("updates = %v", m.updates)
	}
}

func TestControllerStopIsIdempotent(t *testing.T) {
	m := &stubModule{name: "m", handles: true, starts: true}
	c := NewController(discard, m)
	_ = c.Start(context.Background(), controller.Fight{})
	c.Stop("done")
	c.Stop("again")
	if m.stopped != 1 {
		t.Fatalf("stopped = %d, want 1", m.stopped)
	}
	if c.Complete() {
		t.Fatal("expected complete on idle controller to be false")
	}
	if err := c.Update(context.Background()); err != nil {
		t.Fatalf("update when idle: %v", err)
	}
}

func TestControllerFallsBackToLocal(t *testing.T) {
	engine := &fakeEngine{testErr: apperrors.New(apperrors.CodeEngineUnavailable, "down")}
	settings := Settings{Module: KindLeased, FallbackLocal: true}
	leased := NewLeasedRotation(LeasedConfig{Settings: settings, Engine: engine, Logf: discard})
	c := NewController(discard, leased, NewLocalRotation(settings))

	if err := c.Start(context.Background(), controller.Fight{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.ModuleName() != string(KindLocal) {
		t.Fatalf("module = %q, want local", c.ModuleName())
	}
}

func TestControllerWithoutFallbackDeclines(t *testing.T) {
	engine := &fakeEngine{testErr: apperrors.New(apperrors.CodeEngineUnavailable, "down")}
	settings := Settings{Module: KindLeased}
	leased := NewLeasedRotation(LeasedConfig{Settings: settings, Engine: engine, Logf: discard})
	c := NewController(discard, leased, NewLocalRotation(settings))
	if err := c.Start(context.Background(), controller.Fight{}); err == nil {
		t.Fatal("expected no module to accept the fight")
	}
}

func TestControllerSurfacesControlLoss(t *testing.T) {
	engine := &fakeEngine{}
	leased := newLeased(engine)
	c := NewController(discard, leased)
	ctx := context.Background()
	if err := c.Start(ctx, controller.Fight{Enemies: []uint32{9}}); err != nil {
		t.Fatalf("start: %v", err)
	}
	leased.HandleRevocation(0, "")
	if err := c.Update(ctx); !task.IsControlLost(err) {
		t.Fatalf("err = %v, want control lost", err)
	}
	var _ task.FightRunner = c
}

func TestControllerPauseResume(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{}
	leased := newLeased(engine)
	c := NewController(discard, leased)
	if err := c.Pause(ctx); apperrors.CodeOf(err) != apperrors.CodeCombatInactive {
		t.Fatalf("err = %v, want combat inactive", err)
	}
	if err := c.Start(ctx, controller.Fight{Enemies: []uint32{4}}); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := c.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !c.Paused() || leased.State() != LeasePaused {
		t.Fatalf("paused = %t, state = %s", c.Paused(), leased.State())
	}
	if err := c.Update(ctx); err != nil {
		t.Fatalf("update while paused: %v", err)
	}
	if err := c.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if c.Paused() {
		t.Fatal("expected rotation resumed")
	}

	engine.stateErr = apperrors.New(apperrors.CodeLeaseUnknown, "unknown lease")
	if err := c.Pause(ctx); apperrors.CodeOf(err) != apperrors.CodeEngineUnavailable {
		t.Fatalf("err = %v, want engine unavailable", err)
	}
	var _ Pauser = leased
}

func TestControllerLocalCannotPause(t *testing.T) {
	ctx := context.Background()
	c := NewController(discard, NewLocalRotation(Settings{Module: KindLocal}))
	if err := c.Start(ctx, controller.Fight{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Pause(ctx); apperrors.CodeOf(err) != apperrors.CodeCombatNotPausable {
		t.Fatalf("err = %v, want not pausable", err)
	}
	if c.Paused() {
		t.Fatal("expected local rotation never paused")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" Leased "); err != nil || k != KindLeased {
		t.Fatalf("ParseKind = %q, %v", k, err)
	}
	if _, err := ParseKind("wrath"); err == nil {
		t.Fatal("expected error")
	}
}
