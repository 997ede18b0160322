// Package orchestrator drives quest progress. It owns the three progress
// tracks, rebuilds the task queue from the current step, and runs one task
// update per tick. Every tick and every manual operation is serialized by a
// single lock.
package orchestrator

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/combat"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/controller"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/priority"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/progress"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/task"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/questrunner/internal/services/runner/domain/orchestrator"

// Track names one of the independent progress cursors.
type Track uint8

const (
	TrackStarted Track = iota
	TrackSimulated
	TrackGathering
	trackCount
)

// String returns the track label.
func (t Track) String() string {
	switch t {
	case TrackStarted:
		return "started"
	case TrackSimulated:
		return "simulated"
	case TrackGathering:
		return "gathering"
	default:
		return "unknown"
	}
}

// ParseTrack decodes a track label.
func ParseTrack(value string) (Track, error) {
	for t := TrackStarted; t < trackCount; t++ {
		if t.String() == value {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown track %q", value)
}

// Config wires the orchestrator to its collaborators.
type Config struct {
	Catalog    priority.Resolver
	Priority   *priority.Store
	Movement   *controller.Signaled[controller.Destination]
	Gathering  *controller.Signaled[controller.GatherRequest]
	Combat     *combat.Controller
	Interactor task.Interactor
	Journal    Journal
	// Settle is the pause after each automatic step.
	Settle time.Duration
	Now    func() time.Time
	Logf   func(string, ...any)
	Tracer trace.Tracer
}

// Orchestrator is the quest progress state machine.
type Orchestrator struct {
	catalog    priority.Resolver
	priority   *priority.Store
	movement   *controller.Signaled[controller.Destination]
	gathering  *controller.Signaled[controller.GatherRequest]
	combat     *combat.Controller
	subsystems task.Subsystems
	journal    Journal
	now        func() time.Time
	logf       func(string, ...any)
	tracer     trace.Tracer

	mu         sync.Mutex
	tracks     [trackCount]progress.Cursor
	active     Track
	running    bool
	singleStep bool
	queue      task.Queue
	loaded     bool
	current    task.Task
	nextQuest  *quest.Quest
	completed  map[quest.ElementID]bool
	stopReason string
	lastError  string
}

// New builds an orchestrator. Catalog and Priority are required.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("quest catalog is required")
	}
	if cfg.Priority == nil {
		return nil, fmt.Errorf("priority store is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	if cfg.Movement == nil {
		cfg.Movement = controller.NewMovement(cfg.Logf)
	}
	if cfg.Gathering == nil {
		cfg.Gathering = controller.NewGathering(cfg.Logf)
	}
	if cfg.Combat == nil {
		cfg.Combat = combat.NewController(cfg.Logf, combat.NewLocalRotation(combat.Settings{Module: combat.KindLocal}))
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}
	return &Orchestrator{
		catalog:   cfg.Catalog,
		priority:  cfg.Priority,
		movement:  cfg.Movement,
		gathering: cfg.Gathering,
		combat:    cfg.Combat,
		subsystems: task.Subsystems{
			Movement:   cfg.Movement,
			Gathering:  cfg.Gathering,
			Combat:     cfg.Combat,
			Interactor: cfg.Interactor,
			Settle:     cfg.Settle,
			Now:        cfg.Now,
		},
		journal:   cfg.Journal,
		now:       cfg.Now,
		logf:      cfg.Logf,
		tracer:    cfg.Tracer,
		completed: make(map[quest.ElementID]bool),
	}, nil
}

// Status is a snapshot of the orchestrator for display. LastStep is set on
// the final step of a sequence; Movement and Gather are the in-flight
// requests the external client should act on.
type Status struct {
	Running       bool
	SingleStep    bool
	Track         Track
	QuestID       quest.ElementID
	QuestName     string
	Sequence      int
	Step          int
	HasQuest      bool
	LastStep      bool
	CurrentTask   string
	QueuedTasks   []string
	CombatModule  string
	CombatPaused  bool
	Movement      *controller.Destination
	Gather        *controller.GatherRequest
	NextQuest     string
	Simulating    bool
	Gathering     bool
	Interruptible bool
	StopReason    string
	LastError     string
}

// Status returns a snapshot of the authoritative track and the task queue.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	track := o.authoritativeLocked()
	cursor := o.tracks[track]
	s := Status{
		Running:       o.running,
		SingleStep:    o.singleStep,
		Track:         track,
		QueuedTasks:   o.queue.Names(),
		CombatModule:  o.combat.ModuleName(),
		Simulating:    o.tracks[TrackSimulated].Valid(),
		Gathering:     o.tracks[TrackGathering].Valid(),
		Interruptible: o.isInterruptibleLocked(),
		CombatPaused:  o.combat.Paused(),
		StopReason:    o.stopReason,
		LastError:     o.lastError,
	}
	if dest, ok := o.movement.Request(); ok {
		s.Movement = &dest
	}
	if req, ok := o.gathering.Request(); ok {
		s.Gather = &req
	}
	if cursor.Valid() {
		s.HasQuest = true
		s.QuestID = cursor.ID()
		s.QuestName = cursor.Quest.Info.Name
		s.Sequence = cursor.Sequence
		s.Step = cursor.Step
		s.LastStep = progress.IsLastStep(cursor)
	}
	if o.current != nil {
		s.CurrentTask = o.current.Name()
	}
	if o.nextQuest != nil {
		s.NextQuest = o.nextQuest.ID.String()
	}
	return s
}

// CurrentDetails returns the authoritative cursor and its track. The
// simulated track wins over gathering, which wins over the started quest;
// while running, the running track is authoritative.
func (o *Orchestrator) CurrentDetails() (progress.Cursor, Track, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	track := o.authoritativeLocked()
	cursor := o.tracks[track]
	return cursor, track, cursor.Valid()
}

// TrackCursor returns the cursor of one track.
func (o *Orchestrator) TrackCursor(track Track) (progress.Cursor, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if track >= trackCount {
		return progress.Cursor{}, false
	}
	return o.tracks[track], o.tracks[track].Valid()
}

// IsInterruptible reports whether the started quest sits on a step that may
// be restarted after an interruption.
func (o *Orchestrator) IsInterruptible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.isInterruptibleLocked()
}

// IsRunning reports whether tasks are being executed.
func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// IsComplete reports whether id was completed during this process lifetime.
func (o *Orchestrator) IsComplete(id quest.ElementID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completed[id]
}

func (o *Orchestrator) isInterruptibleLocked() bool {
	started := o.tracks[TrackStarted]
	return started.Valid() && progress.IsInterruptible(started)
}

func (o *Orchestrator) authoritativeLocked() Track {
	if o.running {
		return o.active
	}
	for _, track := range []Track{TrackSimulated, TrackGathering, TrackStarted} {
		if o.tracks[track].Valid() {
			return track
		}
	}
	return TrackStarted
}
