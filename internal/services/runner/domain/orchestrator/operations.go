package orchestrator

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/questrunner/internal/platform/errors"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/progress"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/task"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (o *Orchestrator) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, "orchestrator."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o *Orchestrator) resolve(id quest.ElementID) (*quest.Quest, error) {
	q, ok := o.catalog.Get(id)
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodeQuestNotFound, fmt.Sprintf("quest %s not found", id), map[string]string{
			"quest_id": id.String(),
		})
	}
	if q.Root.Disabled {
		return nil, apperrors.WithMetadata(apperrors.CodeQuestDisabled, fmt.Sprintf("quest %s is disabled", id), map[string]string{
			"quest_id": id.String(),
		})
	}
	return q, nil
}

// StartQuest makes id the started quest. Re-selecting the current quest
// keeps its cursor.
func (o *Orchestrator) StartQuest(ctx context.Context, id quest.ElementID) (err error) {
	ctx, span := o.span(ctx, "StartQuest", attribute.String("quest.id", id.String()))
	defer func() { endSpan(span, err) }()

	q, err := o.resolve(id)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.setStartedLocked(ctx, q)
	return nil
}

func (o *Orchestrator) setStartedLocked(ctx context.Context, q *quest.Quest) {
	if o.tracks[TrackStarted].Valid() && o.tracks[TrackStarted].ID() == q.ID {
		return
	}
	if o.running && o.active == TrackStarted {
		o.haltLocked("quest changed")
	}
	delete(o.completed, q.ID)
	o.tracks[TrackStarted] = progress.New(q)
	o.unloadLocked(TrackStarted, "quest changed")
	o.persistTrack(ctx, TrackStarted)
	o.record(ctx, TrackStarted, EntryStart, "quest selected")
}

// SetNextQuest sets the quest to pick up once the started quest completes.
// The zero id clears the hint.
func (o *Orchestrator) SetNextQuest(ctx context.Context, id quest.ElementID) (err error) {
	_, span := o.span(ctx, "SetNextQuest", attribute.String("quest.id", id.String()))
	defer func() { endSpan(span, err) }()

	if id == (quest.ElementID{}) {
		o.mu.Lock()
		o.nextQuest = nil
		o.mu.Unlock()
		return nil
	}
	q, err := o.resolve(id)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.nextQuest = q
	o.mu.Unlock()
	return nil
}

// Start executes tasks until stopped.
func (o *Orchestrator) Start(ctx context.Context, reason string) error {
	return o.start(ctx, "Start", reason, false)
}

// StartSingleStep executes exactly one task and halts.
func (o *Orchestrator) StartSingleStep(ctx context.Context, reason string) error {
	return o.start(ctx, "StartSingleStep", reason, true)
}

func (o *Orchestrator) start(ctx context.Context, op, reason string, single bool) (err error) {
	ctx, span := o.span(ctx, op, attribute.String("reason", reason))
	defer func() { endSpan(span, err) }()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		if single && o.singleStep {
			return nil
		}
		return apperrors.New(apperrors.CodeAlreadyRunning, "orchestrator is already running")
	}

	track, ok := o.selectTrackLocked(ctx)
	if !ok {
		return apperrors.New(apperrors.CodeNoActiveQuest, "no quest to run")
	}
	o.running = true
	o.singleStep = single
	o.stopReason = ""
	o.lastError = ""
	if !o.loaded || o.active != track {
		o.active = track
		o.loadStepLocked()
	}
	o.record(ctx, track, EntryStart, reason)
	o.logf("orchestrator started: track=%s cursor=%s single=%t reason=%s", track, o.tracks[track], single, reason)
	return nil
}

func (o *Orchestrator) selectTrackLocked(ctx context.Context) (Track, bool) {
	for _, track := range []Track{TrackSimulated, TrackGathering, TrackStarted} {
		if o.tracks[track].Valid() {
			return track, true
		}
	}
	if q := o.pickNextLocked(); q != nil {
		o.setStartedLocked(ctx, q)
		return TrackStarted, true
	}
	return 0, false
}

// pickNextLocked chooses the next quest: the explicit hint first, then the
// manual priority list, skipping anything completed or disabled.
func (o *Orchestrator) pickNextLocked() *quest.Quest {
	if q := o.nextQuest; q != nil && !o.completed[q.ID] && !q.Root.Disabled {
		o.nextQuest = nil
		return q
	}
	for _, q := range o.priority.Quests() {
		if !o.completed[q.ID] && !q.Root.Disabled {
			return q
		}
	}
	return nil
}

// Stop halts task execution and releases every subsystem. The cursor is
// left where it is.
func (o *Orchestrator) Stop(ctx context.Context, reason string) {
	ctx, span := o.span(ctx, "Stop", attribute.String("reason", reason))
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()
	wasRunning := o.running
	track := o.active
	o.haltLocked(reason)
	if wasRunning {
		o.record(ctx, track, EntryStop, reason)
	}
}

// haltLocked stops execution, drops the queue, and stops every controller.
func (o *Orchestrator) haltLocked(reason string) {
	if o.running {
		o.logf("orchestrator stopped: track=%s cursor=%s reason=%s", o.active, o.tracks[o.active], reason)
	}
	o.running = false
	o.singleStep = false
	o.stopReason = reason
	o.stopCurrentLocked(reason)
	o.queue.Clear()
	o.queue.ConsumeBoundary()
	o.loaded = false
	o.movement.Stop(reason)
	o.gathering.Stop(reason)
	o.combat.Stop(reason)
}

func (o *Orchestrator) stopCurrentLocked(reason string) {
	if o.current == nil {
		return
	}
	if stopper, ok := o.current.(task.Stopper); ok {
		stopper.Stop(reason)
	}
	o.current = nil
}

// Skip moves every track on quest id and sequence to the next sequence.
// Anything else is a no-op.
func (o *Orchestrator) Skip(ctx context.Context, id quest.ElementID, sequence int) (skipped bool) {
	ctx, span := o.span(ctx, "Skip",
		attribute.String("quest.id", id.String()),
		attribute.Int("quest.sequence", sequence))
	defer func() {
		span.SetAttributes(attribute.Bool("skipped", skipped))
		span.End()
	}()

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, track := range []Track{TrackStarted, TrackSimulated, TrackGathering} {
		cursor := o.tracks[track]
		if !cursor.Valid() || cursor.ID() != id || cursor.Sequence != sequence {
			continue
		}
		skipped = true
		o.record(ctx, track, EntrySkip, "manual skip")
		o.tracks[track].Step = quest.StepEnd
		o.advanceLocked(ctx, track)
	}
	return skipped
}

// SimulateQuest starts simulating id from its first step. The zero id
// clears the simulation.
func (o *Orchestrator) SimulateQuest(ctx context.Context, id quest.ElementID) (err error) {
	ctx, span := o.span(ctx, "SimulateQuest", attribute.String("quest.id", id.String()))
	defer func() { endSpan(span, err) }()

	var q *quest.Quest
	if id != (quest.ElementID{}) {
		if q, err = o.resolve(id); err != nil {
			return err
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running && o.active == TrackSimulated {
		o.haltLocked("simulation changed")
	}
	if q == nil {
		o.tracks[TrackSimulated] = progress.Cursor{}
	} else {
		o.tracks[TrackSimulated] = progress.New(q)
	}
	o.unloadLocked(TrackSimulated, "simulation changed")
	o.persistTrack(ctx, TrackSimulated)
	return nil
}

// SimulatedSequenceStep moves the simulated cursor by delta sequences,
// landing on a present sequence and stopping at either end.
func (o *Orchestrator) SimulatedSequenceStep(ctx context.Context, delta int) (cursor progress.Cursor, err error) {
	ctx, span := o.span(ctx, "SimulatedSequenceStep", attribute.Int("delta", delta))
	defer func() { endSpan(span, err) }()

	o.mu.Lock()
	defer o.mu.Unlock()
	current := o.tracks[TrackSimulated]
	if !current.Valid() {
		return current, apperrors.New(apperrors.CodeSimulationInactive, "no quest is simulated")
	}
	o.moveLocked(ctx, TrackSimulated, progress.SetSequence(current, current.Sequence+delta))
	return o.tracks[TrackSimulated], nil
}

// SimulatedStepStep moves the simulated cursor by delta steps within the
// sequence. Moving back from past the last step lands on the last step.
func (o *Orchestrator) SimulatedStepStep(ctx context.Context, delta int) (cursor progress.Cursor, err error) {
	ctx, span := o.span(ctx, "SimulatedStepStep", attribute.Int("delta", delta))
	defer func() { endSpan(span, err) }()

	o.mu.Lock()
	defer o.mu.Unlock()
	current := o.tracks[TrackSimulated]
	if !current.Valid() {
		return current, apperrors.New(apperrors.CodeSimulationInactive, "no quest is simulated")
	}
	n := current.Step + delta
	if delta < 0 {
		count := 0
		if seq, ok := current.CurrentSequence(); ok {
			count = len(seq.Steps)
		}
		n = min(n, count-1)
	}
	o.moveLocked(ctx, TrackSimulated, progress.SetStep(current, n))
	return o.tracks[TrackSimulated], nil
}

// SkipSimulatedTask drops the task the simulation would run next.
func (o *Orchestrator) SkipSimulatedTask(ctx context.Context) (name string, err error) {
	_, span := o.span(ctx, "SkipSimulatedTask")
	defer func() { endSpan(span, err) }()

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.tracks[TrackSimulated].Valid() {
		return "", apperrors.New(apperrors.CodeSimulationInactive, "no quest is simulated")
	}
	if o.current != nil && o.active == TrackSimulated {
		name = o.current.Name()
		o.stopCurrentLocked("task skipped")
		return name, nil
	}
	if next, ok := o.queue.Dequeue(); ok {
		return next.Name(), nil
	}
	return "", nil
}

// StartGathering runs the gathering quest id on its own track.
func (o *Orchestrator) StartGathering(ctx context.Context, id quest.ElementID) (err error) {
	ctx, span := o.span(ctx, "StartGathering", attribute.String("quest.id", id.String()))
	defer func() { endSpan(span, err) }()

	q, err := o.resolve(id)
	if err != nil {
		return err
	}
	o.mu.Lock()
	if o.running {
		o.haltLocked("gathering started")
	}
	o.tracks[TrackGathering] = progress.New(q)
	o.unloadLocked(TrackGathering, "gathering started")
	o.persistTrack(ctx, TrackGathering)
	o.mu.Unlock()
	return o.Start(ctx, "gathering")
}

// PauseCombat suspends the combat rotation of the running encounter while
// keeping control of it.
func (o *Orchestrator) PauseCombat(ctx context.Context) (err error) {
	ctx, span := o.span(ctx, "PauseCombat")
	defer func() { endSpan(span, err) }()
	return o.combat.Pause(ctx)
}

// ResumeCombat turns the combat rotation back on.
func (o *Orchestrator) ResumeCombat(ctx context.Context) (err error) {
	ctx, span := o.span(ctx, "ResumeCombat")
	defer func() { endSpan(span, err) }()
	return o.combat.Resume(ctx)
}

// ClearTrack drops a track's cursor, halting it first when it is running.
func (o *Orchestrator) ClearTrack(ctx context.Context, track Track) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if track >= trackCount {
		return
	}
	if o.running && o.active == track {
		o.haltLocked("track cleared")
	}
	o.tracks[track] = progress.Cursor{}
	o.unloadLocked(track, "track cleared")
	o.persistTrack(ctx, track)
}

// Restore positions a track from persisted state without journaling it.
func (o *Orchestrator) Restore(state TrackState) error {
	if state.Track >= trackCount {
		return fmt.Errorf("unknown track %d", state.Track)
	}
	q, err := o.resolve(state.QuestID)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	cursor := progress.At(q, state.Sequence, state.Step)
	if _, ok := q.FindSequence(state.Sequence); !ok {
		cursor = progress.New(q)
	}
	o.tracks[state.Track] = cursor
	o.unloadLocked(state.Track, "track restored")
	return nil
}

// moveLocked replaces a track's cursor. The queue is rebuilt when that track
// is the one running.
func (o *Orchestrator) moveLocked(ctx context.Context, track Track, cursor progress.Cursor) {
	o.tracks[track] = cursor
	o.persistTrack(ctx, track)
	if o.active != track {
		return
	}
	o.unloadLocked(track, "cursor moved")
	if o.running {
		o.loadStepLocked()
	}
}

// unloadLocked drops the queue built for track so the next start rebuilds it
// from the track's current step.
func (o *Orchestrator) unloadLocked(track Track, reason string) {
	if o.active != track {
		return
	}
	o.stopCurrentLocked(reason)
	o.queue.Clear()
	o.queue.ConsumeBoundary()
	o.loaded = false
}
