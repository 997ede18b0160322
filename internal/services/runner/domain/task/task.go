// Package task holds the atomic units of work derived from a quest step and
// the queue the orchestrator drains one tick at a time.
package task

import (
	"context"
	"errors"
)

// Result is the outcome of one task update.
type Result uint8

const (
	// StillRunning asks to be updated again on the next tick.
	StillRunning Result = iota
	// Complete moves the queue on to the next task.
	Complete
	// SkipRemainingForStep drops the rest of the step's tasks and advances.
	SkipRemainingForStep
)

// String returns the result label.
func (r Result) String() string {
	switch r {
	case StillRunning:
		return "still_running"
	case Complete:
		return "complete"
	case SkipRemainingForStep:
		return "skip_remaining_for_step"
	default:
		return "unknown"
	}
}

// Task is one atomic unit of work. Start is called once when the task is
// dispatched; Update is called every tick until it stops returning
// StillRunning or returns an error.
type Task interface {
	Name() string
	Start(ctx context.Context) error
	Update(ctx context.Context) (Result, error)
}

// Acknowledger is implemented by tasks that finish on an external
// "step completed" signal.
type Acknowledger interface {
	Acknowledge()
}

// Stopper is implemented by tasks that hold a subsystem and must release it
// when the orchestrator stops.
type Stopper interface {
	Stop(reason string)
}

// controlLostError marks an error as a loss of delegated control. The
// orchestrator treats it as a hard abort instead of a halt at the step.
type controlLostError struct {
	err error
}

func (e *controlLostError) Error() string { return e.err.Error() }
func (e *controlLostError) Unwrap() error { return e.err }

// ControlLost returns true from IsControlLost checks.
func (e *controlLostError) ControlLost() bool { return true }

// ControlLost marks err as a loss of control.
func ControlLost(err error) error {
	if err == nil {
		return nil
	}
	return &controlLostError{err: err}
}

// IsControlLost reports whether err, or any error in its chain, signals that
// delegated control was revoked.
func IsControlLost(err error) bool {
	var target interface{ ControlLost() bool }
	if errors.As(err, &target) {
		return target.ControlLost()
	}
	return false
}
