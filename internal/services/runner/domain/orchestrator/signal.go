package orchestrator

import (
	"context"
	"fmt"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/task"
	"go.opentelemetry.io/otel/attribute"
)

// Signal is an external notification about the game state.
type Signal string

const (
	// SignalMovementArrived reports that the character reached its destination.
	SignalMovementArrived Signal = "movement_arrived"
	// SignalGatheringDone reports that the gathering request finished.
	SignalGatheringDone Signal = "gathering_done"
	// SignalCombatDone reports that the encounter ended.
	SignalCombatDone Signal = "combat_done"
	// SignalStepCompleted acknowledges a manual or interaction task.
	SignalStepCompleted Signal = "step_completed"
	// SignalInterrupted reports that the player was interrupted.
	SignalInterrupted Signal = "interrupted"
	// SignalManualSkip drops the rest of the current step.
	SignalManualSkip Signal = "manual_skip"
)

// Signals lists every known signal.
var Signals = []Signal{
	SignalMovementArrived,
	SignalGatheringDone,
	SignalCombatDone,
	SignalStepCompleted,
	SignalInterrupted,
	SignalManualSkip,
}

// ParseSignal decodes a signal name.
func ParseSignal(value string) (Signal, error) {
	for _, s := range Signals {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown signal %q", value)
}

// Signal applies an external notification and reports whether it had any
// effect.
func (o *Orchestrator) Signal(ctx context.Context, signal Signal) (handled bool) {
	ctx, span := o.span(ctx, "Signal", attribute.String("signal", string(signal)))
	defer func() {
		span.SetAttributes(attribute.Bool("handled", handled))
		span.End()
	}()

	o.mu.Lock()
	defer o.mu.Unlock()
	switch signal {
	case SignalMovementArrived:
		return o.movement.Complete()
	case SignalGatheringDone:
		return o.gathering.Complete()
	case SignalCombatDone:
		return o.combat.Complete()
	case SignalStepCompleted:
		if ack, ok := o.current.(task.Acknowledger); ok {
			ack.Acknowledge()
			return true
		}
		return false
	case SignalManualSkip:
		if !o.running {
			return false
		}
		o.stopCurrentLocked("manual skip")
		o.queue.SkipToNextBoundary()
		o.record(ctx, o.active, EntrySkip, "manual skip")
		return true
	case SignalInterrupted:
		return o.interruptLocked(ctx)
	default:
		return false
	}
}

// interruptLocked restarts an interruptible step from its first task and
// stops everything else.
func (o *Orchestrator) interruptLocked(ctx context.Context) bool {
	if !o.running {
		return false
	}
	if o.active == TrackStarted && o.isInterruptibleLocked() {
		o.logf("step interrupted, restarting: cursor=%s", o.tracks[TrackStarted])
		o.stopCurrentLocked("interrupted")
		o.movement.Stop("interrupted")
		o.loadStepLocked()
		return true
	}
	track := o.active
	o.haltLocked("interrupted")
	o.record(ctx, track, EntryStop, "interrupted")
	return true
}
