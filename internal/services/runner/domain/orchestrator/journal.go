package orchestrator

import (
	"context"
	"time"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
	"go.opentelemetry.io/otel/trace"
)

// EntryKind classifies a journal entry.
type EntryKind string

const (
	EntryStart    EntryKind = "start"
	EntryStop     EntryKind = "stop"
	EntryAdvance  EntryKind = "advance"
	EntrySkip     EntryKind = "skip"
	EntryComplete EntryKind = "complete"
)

// Entry is one recorded progress event.
type Entry struct {
	Track    Track
	QuestID  quest.ElementID
	Sequence int
	Step     int
	Kind     EntryKind
	Reason   string
	TraceID  string
	SpanID   string
	At       time.Time
}

// TrackState is the persisted cursor of one track.
type TrackState struct {
	Track    Track
	QuestID  quest.ElementID
	Sequence int
	Step     int
}

// Journal persists progress events and track cursors. Implementations must
// be safe to call from the orchestrator while it holds its lock.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
	SaveTrack(ctx context.Context, state TrackState) error
	ClearTrack(ctx context.Context, track Track) error
}

func (o *Orchestrator) record(ctx context.Context, track Track, kind EntryKind, reason string) {
	if o.journal == nil {
		return
	}
	cursor := o.tracks[track]
	entry := Entry{
		Track:    track,
		QuestID:  cursor.ID(),
		Sequence: cursor.Sequence,
		Step:     cursor.Step,
		Kind:     kind,
		Reason:   reason,
		At:       o.now().UTC(),
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		entry.TraceID = sc.TraceID().String()
		entry.SpanID = sc.SpanID().String()
	}
	if err := o.journal.Record(ctx, entry); err != nil {
		o.logf("journal record %s: %v", kind, err)
	}
}

func (o *Orchestrator) persistTrack(ctx context.Context, track Track) {
	if o.journal == nil {
		return
	}
	cursor := o.tracks[track]
	var err error
	if cursor.Valid() {
		err = o.journal.SaveTrack(ctx, TrackState{
			Track:    track,
			QuestID:  cursor.ID(),
			Sequence: cursor.Sequence,
			Step:     cursor.Step,
		})
	} else {
		err = o.journal.ClearTrack(ctx, track)
	}
	if err != nil {
		o.logf("journal persist track %s: %v", track, err)
	}
}
