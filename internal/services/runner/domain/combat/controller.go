package combat

import (
	"context"
	"log"
	"sync"

	apperrors "github.com/louisbranch/questrunner/internal/platform/errors"
	"github.com/louisbranch/questrunner/internal/platform/timeouts"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/controller"
)

// Controller is the combat subsystem. For each encounter it commits to the
// first module, in priority order, that accepts the fight.
type Controller struct {
	modules []Module
	logf    func(string, ...any)

	mu      sync.Mutex
	active  Module
	fight   controller.Fight
	running bool
}

// NewController builds a combat controller over modules in priority order.
func NewController(logf func(string, ...any), modules ...Module) *Controller {
	if logf == nil {
		logf = log.Printf
	}
	return &Controller{modules: modules, logf: logf}
}

// Start selects a module for the fight and hands it control.
func (c *Controller) Start(ctx context.Context, fight controller.Fight) error {
	c.Stop("new encounter")

	for _, module := range c.modules {
		if !module.CanHandleFight(ctx, fight) {
			continue
		}
		if !module.Start(ctx, fight) {
			return apperrors.WithMetadata(apperrors.CodeLeaseUnavailable, "combat module failed to start", map[string]string{
				"module": module.Name(),
			})
		}
		c.mu.Lock()
		c.active = module
		c.fight = fight
		c.running = true
		c.mu.Unlock()
		c.logf("combat started: module=%s enemies=%v", module.Name(), fight.Enemies)
		return nil
	}
	return apperrors.New(apperrors.CodeEngineUnavailable, "no combat module can handle the fight")
}

// Stop releases the active module. Safe to call at any time.
func (c *Controller) Stop(reason string) {
	c.mu.Lock()
	active := c.active
	wasRunning := c.running
	c.active = nil
	c.running = false
	c.fight = controller.Fight{}
	c.mu.Unlock()

	if !wasRunning || active == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.EngineCall)
	defer cancel()
	if !active.Stop(ctx) {
		c.logf("combat module did not stop cleanly: module=%s", active.Name())
	}
	c.logf("combat stopped: module=%s reason=%s", active.Name(), reason)
}

// Complete ends the encounter after the fight was won. It returns false when
// no encounter was running.
func (c *Controller) Complete() bool {
	if !c.IsRunning() {
		return false
	}
	c.Stop("combat complete")
	return true
}

// IsRunning reports whether an encounter is active.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Update advances the active module by one tick.
func (c *Controller) Update(ctx context.Context) error {
	c.mu.Lock()
	active := c.active
	fight := c.fight
	running := c.running
	c.mu.Unlock()
	if !running || active == nil {
		return nil
	}
	target := nextTarget(active, fight)
	return active.Update(ctx, target)
}

// Pause suspends the active module's rotation. The encounter stays active
// and control is kept.
func (c *Controller) Pause(ctx context.Context) error {
	return c.setPaused(ctx, true)
}

// Resume turns the active module's rotation back on.
func (c *Controller) Resume(ctx context.Context) error {
	return c.setPaused(ctx, false)
}

func (c *Controller) setPaused(ctx context.Context, paused bool) error {
	c.mu.Lock()
	active := c.active
	running := c.running
	c.mu.Unlock()
	if !running || active == nil {
		return apperrors.New(apperrors.CodeCombatInactive, "no combat encounter is active")
	}
	pauser, ok := active.(Pauser)
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeCombatNotPausable, "combat module cannot pause", map[string]string{
			"module": active.Name(),
		})
	}
	if paused {
		ok = pauser.Pause(ctx)
	} else {
		ok = pauser.Resume(ctx)
	}
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeEngineUnavailable, "combat engine rejected the rotation change", map[string]string{
			"module": active.Name(),
		})
	}
	c.logf("combat rotation changed: module=%s paused=%t", active.Name(), paused)
	return nil
}

// Paused reports whether the active module's rotation is suspended.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	pauser, ok := active.(Pauser)
	return ok && pauser.Paused()
}

// ModuleName returns the active module name, or "" when idle.
func (c *Controller) ModuleName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ""
	}
	return c.active.Name()
}

func nextTarget(module Module, fight controller.Fight) Target {
	for _, id := range fight.Enemies {
		if target := (Target{ID: id}); module.CanAttack(target) {
			return target
		}
	}
	return Target{}
}
