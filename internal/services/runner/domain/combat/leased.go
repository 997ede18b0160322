package combat

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/louisbranch/questrunner/internal/platform/errors"
	"github.com/louisbranch/questrunner/internal/platform/timeouts"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/controller"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/task"
)

// DefaultCallbackChannel is the channel the engine uses to revoke a lease.
const DefaultCallbackChannel = "Questionable$Wrath"

// LeaseEngine is the external automation engine's lease protocol.
// Commands with a stale lease fail with an apperrors.CodeLeaseUnknown error.
type LeaseEngine interface {
	// Test fails when the engine is not present.
	Test(ctx context.Context) error
	// RegisterForLeaseWithCallback returns ok=false when no lease was granted.
	RegisterForLeaseWithCallback(ctx context.Context, callerID, callerName, channel string) (lease uuid.UUID, ok bool, err error)
	SetAutoRotationState(ctx context.Context, lease uuid.UUID, enabled bool) error
	SetCurrentJobAutoRotationReady(ctx context.Context, lease uuid.UUID) error
	ReleaseControl(ctx context.Context, lease uuid.UUID) error
}

// LeaseState is the observable state of the leased rotation.
type LeaseState string

const (
	LeaseIdle      LeaseState = "idle"
	LeaseRequested LeaseState = "lease_requested"
	LeaseActive    LeaseState = "active"
	LeasePaused    LeaseState = "paused"
)

// ErrLeaseCleared is wrapped in the control-lost error returned by Update
// once the lease is gone.
var ErrLeaseCleared = errors.New("combat engine lease is cancelled")

// LeasedConfig configures a LeasedRotation.
type LeasedConfig struct {
	Settings   Settings
	Engine     LeaseEngine
	CallerID   string
	CallerName string
	Channel    string
	// CallTimeout caps each command; ProbeTimeout caps the liveness probe.
	CallTimeout  time.Duration
	ProbeTimeout time.Duration
	Logf         func(string, ...any)
}

// LeasedRotation hands combat decisions to an external engine for as long as
// it holds a lease. The engine may revoke the lease at any time from another
// goroutine through HandleRevocation.
type LeasedRotation struct {
	cfg LeasedConfig

	lease      atomic.Pointer[uuid.UUID]
	requesting atomic.Bool
	paused     atomic.Bool

	// revocations counts revocation callbacks. A lease granted while the
	// count moved is never installed.
	revocations atomic.Uint64

	closeOnce  sync.Once
	unregister atomic.Pointer[func()]
}

// NewLeasedRotation builds the leased rotation.
func NewLeasedRotation(cfg LeasedConfig) *LeasedRotation {
	if cfg.CallerID == "" {
		cfg.CallerID = "questrunner"
	}
	if cfg.CallerName == "" {
		cfg.CallerName = cfg.CallerID
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultCallbackChannel
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = timeouts.EngineCall
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = timeouts.EngineProbe
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	return &LeasedRotation{cfg: cfg}
}

func (m *LeasedRotation) Name() string { return string(KindLeased) }

// Channel returns the revocation callback channel.
func (m *LeasedRotation) Channel() string { return m.cfg.Channel }

// CanHandleFight reports whether the leased module is configured and the
// engine answers its liveness probe.
func (m *LeasedRotation) CanHandleFight(ctx context.Context, _ controller.Fight) bool {
	if m.cfg.Settings.Module != KindLeased || m.cfg.Engine == nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()
	if err := m.cfg.Engine.Test(probeCtx); err != nil {
		m.cfg.Logf("combat engine probe failed: %v", err)
		return false
	}
	return true
}

// Start requests a lease and enables the engine's rotation for the current
// job. A lease obtained before a failing command is released again.
func (m *LeasedRotation) Start(ctx context.Context, _ controller.Fight) bool {
	if m.cfg.Engine == nil {
		return false
	}
	if previous := m.lease.Swap(nil); previous != nil {
		m.release(ctx, *previous)
	}
	m.requesting.Store(true)
	defer m.requesting.Store(false)

	generation := m.revocations.Load()
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	lease, ok, err := m.cfg.Engine.RegisterForLeaseWithCallback(callCtx, m.cfg.CallerID, m.cfg.CallerName, m.cfg.Channel)
	cancel()
	if err != nil {
		m.cfg.Logf("unable to use combat engine for combat: %v", err)
		return false
	}
	if !ok {
		m.cfg.Logf("combat engine did not return a lease")
		return false
	}
	m.paused.Store(false)
	if !m.install(&lease, generation) {
		m.cfg.Logf("combat engine revoked lease %s while it was being granted", lease)
		m.release(ctx, lease)
		return false
	}
	m.cfg.Logf("combat engine lease: %s", lease)

	if err := m.call(ctx, func(ctx context.Context) error {
		return m.cfg.Engine.SetAutoRotationState(ctx, lease, true)
	}); err != nil {
		m.cfg.Logf("unable to enable combat engine rotation: %v", err)
		m.Stop(ctx)
		return false
	}
	if err := m.call(ctx, func(ctx context.Context) error {
		return m.cfg.Engine.SetCurrentJobAutoRotationReady(ctx, lease)
	}); err != nil {
		m.cfg.Logf("unable to ready combat engine job: %v", err)
		m.Stop(ctx)
		return false
	}
	return true
}

// install stores lease unless a revocation arrived since generation was
// read. HandleRevocation bumps the count before clearing the token, so a
// revocation racing the store either is seen here or clears the stored token.
func (m *LeasedRotation) install(lease *uuid.UUID, generation uint64) bool {
	m.lease.Store(lease)
	if m.revocations.Load() == generation {
		return true
	}
	m.lease.CompareAndSwap(lease, nil)
	return false
}

// Stop releases the held lease. It is idempotent, and the token is cleared
// even when the release call fails.
func (m *LeasedRotation) Stop(ctx context.Context) bool {
	lease := m.lease.Swap(nil)
	m.paused.Store(false)
	if lease == nil {
		return true
	}
	return m.release(ctx, *lease)
}

func (m *LeasedRotation) release(ctx context.Context, lease uuid.UUID) bool {
	err := m.call(ctx, func(ctx context.Context) error {
		return m.cfg.Engine.ReleaseControl(ctx, lease)
	})
	if err == nil || apperrors.CodeOf(err) == apperrors.CodeLeaseUnknown {
		return true
	}
	m.cfg.Logf("could not turn off combat engine: %v", err)
	return false
}

// Update fails with a control-lost error once the lease has been cleared.
func (m *LeasedRotation) Update(context.Context, Target) error {
	if m.lease.Load() == nil {
		return task.ControlLost(apperrors.Wrap(apperrors.CodeControlLost, ErrLeaseCleared.Error(), ErrLeaseCleared))
	}
	return nil
}

// CanAttack is always true; the engine picks targets itself.
func (m *LeasedRotation) CanAttack(Target) bool { return true }

// HandleRevocation is the engine's revocation callback. It only clears the
// token and is safe to call from any goroutine.
func (m *LeasedRotation) HandleRevocation(reason int32, info string) {
	m.cfg.Logf("combat engine callback: reason=%d info=%s", reason, info)
	m.revocations.Add(1)
	m.lease.Store(nil)
	m.paused.Store(false)
}

// Pause turns the engine's rotation off while keeping the lease.
func (m *LeasedRotation) Pause(ctx context.Context) bool {
	return m.setRotation(ctx, false)
}

// Resume turns the engine's rotation back on.
func (m *LeasedRotation) Resume(ctx context.Context) bool {
	return m.setRotation(ctx, true)
}

func (m *LeasedRotation) setRotation(ctx context.Context, enabled bool) bool {
	lease := m.lease.Load()
	if lease == nil {
		return false
	}
	if err := m.call(ctx, func(ctx context.Context) error {
		return m.cfg.Engine.SetAutoRotationState(ctx, *lease, enabled)
	}); err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeLeaseUnknown {
			m.lease.CompareAndSwap(lease, nil)
		}
		m.cfg.Logf("could not set combat engine rotation state: enabled=%t err=%v", enabled, err)
		return false
	}
	m.paused.Store(!enabled)
	return true
}

// Paused reports whether the engine's rotation is turned off under a held
// lease.
func (m *LeasedRotation) Paused() bool { return m.State() == LeasePaused }

// Lease returns the held lease token.
func (m *LeasedRotation) Lease() (uuid.UUID, bool) {
	lease := m.lease.Load()
	if lease == nil {
		return uuid.Nil, false
	}
	return *lease, true
}

// State reports the current lease state.
func (m *LeasedRotation) State() LeaseState {
	switch {
	case m.lease.Load() != nil && m.paused.Load():
		return LeasePaused
	case m.lease.Load() != nil:
		return LeaseActive
	case m.requesting.Load():
		return LeaseRequested
	default:
		return LeaseIdle
	}
}

// OnClose registers the function that unsubscribes from revocation callbacks.
func (m *LeasedRotation) OnClose(unregister func()) {
	m.unregister.Store(&unregister)
}

// Close stops the module and unsubscribes from revocation callbacks.
func (m *LeasedRotation) Close() error {
	m.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.CallTimeout)
		defer cancel()
		m.Stop(ctx)
		if unregister := m.unregister.Swap(nil); unregister != nil && *unregister != nil {
			(*unregister)()
		}
	})
	return nil
}

func (m *LeasedRotation) call(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	defer cancel()
	return fn(callCtx)
}
