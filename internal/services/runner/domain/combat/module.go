// Package combat selects and drives the combat rotation for an encounter.
// A rotation is either the built-in local one or an external automation
// engine holding a revocable lease.
package combat

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/controller"
)

// Kind names a combat module variant in configuration.
type Kind string

const (
	KindLocal  Kind = "local"
	KindLeased Kind = "leased"
)

// ParseKind decodes a configured module name.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindLocal:
		return KindLocal, nil
	case KindLeased:
		return KindLeased, nil
	default:
		return "", fmt.Errorf("unknown combat module %q", value)
	}
}

// Settings selects the combat module.
type Settings struct {
	Module Kind
	// FallbackLocal lets the local rotation take encounters the configured
	// module declined.
	FallbackLocal bool
}

// Target is the enemy the rotation should act on next.
type Target struct {
	ID uint32
}

// Module is one combat rotation variant.
type Module interface {
	Name() string
	// CanHandleFight is a side-effect free applicability probe.
	CanHandleFight(ctx context.Context, fight controller.Fight) bool
	// Start takes over the encounter and reports success.
	Start(ctx context.Context, fight controller.Fight) bool
	// Stop releases anything held and reports whether the release was clean.
	Stop(ctx context.Context) bool
	// Update runs once per tick while the encounter is active.
	Update(ctx context.Context, target Target) error
	CanAttack(target Target) bool
}

// Pauser is a module whose rotation can be suspended mid-encounter without
// giving up control.
type Pauser interface {
	Pause(ctx context.Context) bool
	Resume(ctx context.Context) bool
	Paused() bool
}

// LocalRotation is the built-in rotation. It holds no external state.
type LocalRotation struct {
	settings Settings
}

// NewLocalRotation builds the built-in rotation.
func NewLocalRotation(settings Settings) *LocalRotation {
	return &LocalRotation{settings: settings}
}

func (m *LocalRotation) Name() string { return string(KindLocal) }

func (m *LocalRotation) CanHandleFight(context.Context, controller.Fight) bool {
	return m.settings.Module == KindLocal || m.settings.FallbackLocal
}

func (m *LocalRotation) Start(context.Context, controller.Fight) bool { return true }

func (m *LocalRotation) Stop(context.Context) bool { return true }

func (m *LocalRotation) Update(context.Context, Target) error { return nil }

func (m *LocalRotation) CanAttack(Target) bool { return true }
