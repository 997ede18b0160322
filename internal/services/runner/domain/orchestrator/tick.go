package orchestrator

import (
	"context"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/progress"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/task"
)

// Tick runs one orchestration step: it dispatches the next task, updates
// the running task once, or advances the cursor when the step is exhausted.
// It never blocks on a subsystem.
func (o *Orchestrator) Tick(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return
	}
	track := o.active

	if o.current == nil {
		if o.queue.ConsumeBoundary() {
			o.advanceLocked(ctx, track)
			return
		}
		next, ok := o.queue.Dequeue()
		if !ok {
			o.advanceLocked(ctx, track)
			return
		}
		if err := next.Start(ctx); err != nil {
			o.failLocked(ctx, next, err)
			return
		}
		o.current = next
	}

	result, err := o.current.Update(ctx)
	if err != nil {
		o.failLocked(ctx, o.current, err)
		return
	}
	switch result {
	case task.StillRunning:
		return
	case task.SkipRemainingForStep:
		o.current = nil
		o.queue.SkipToNextBoundary()
	default:
		o.current = nil
	}

	if o.singleStep {
		o.running = false
		o.singleStep = false
		o.stopReason = "single step"
		o.record(ctx, track, EntryStop, "single step")
	}
}

// advanceLocked moves a track past its current step, completing the quest
// once the last sequence is done.
func (o *Orchestrator) advanceLocked(ctx context.Context, track Track) {
	next, done := progress.Advance(o.tracks[track])
	if done {
		o.completeLocked(ctx, track)
		return
	}
	o.moveLocked(ctx, track, next)
	o.record(ctx, track, EntryAdvance, "")
}

func (o *Orchestrator) completeLocked(ctx context.Context, track Track) {
	cursor := o.tracks[track]
	o.record(ctx, track, EntryComplete, "quest complete")
	o.logf("quest complete: track=%s quest=%s", track, cursor.ID())
	if track == TrackStarted && cursor.Valid() {
		o.completed[cursor.ID()] = true
	}
	o.tracks[track] = progress.Cursor{}
	o.persistTrack(ctx, track)

	if o.active != track {
		return
	}
	o.unloadLocked(track, "quest complete")
	if !o.running {
		return
	}
	if track == TrackStarted {
		if q := o.pickNextLocked(); q != nil {
			o.tracks[TrackStarted] = progress.New(q)
			o.persistTrack(ctx, TrackStarted)
			o.record(ctx, TrackStarted, EntryStart, "next quest")
			o.loadStepLocked()
			return
		}
	}
	o.haltLocked("quest complete")
}

// failLocked halts on a task error. A control-lost error additionally marks
// the halt as a loss of delegated combat control.
func (o *Orchestrator) failLocked(ctx context.Context, failed task.Task, err error) {
	track := o.active
	reason := "task failed: " + failed.Name()
	if task.IsControlLost(err) {
		reason = "control lost: " + failed.Name()
	}
	o.logf("orchestrator halted: track=%s cursor=%s reason=%s err=%v", track, o.tracks[track], reason, err)
	o.current = failed
	o.haltLocked(reason)
	o.lastError = err.Error()
	o.record(ctx, track, EntryStop, reason)
}

func (o *Orchestrator) loadStepLocked() {
	o.queue.Clear()
	o.queue.ConsumeBoundary()
	o.loaded = true
	step, ok := o.tracks[o.active].CurrentStep()
	if !ok {
		return
	}
	o.queue.Enqueue(task.Build(step, o.subsystems)...)
}
