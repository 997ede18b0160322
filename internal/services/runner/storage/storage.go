package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/orchestrator"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// PriorityStore persists the manual priority list in order.
type PriorityStore interface {
	LoadPriority(ctx context.Context) ([]quest.ElementID, error)
	SavePriority(ctx context.Context, ids []quest.ElementID) error
}

// TrackStore persists one cursor per progress track.
type TrackStore interface {
	SaveTrack(ctx context.Context, state orchestrator.TrackState) error
	ClearTrack(ctx context.Context, track orchestrator.Track) error
	GetTrack(ctx context.Context, track orchestrator.Track) (orchestrator.TrackState, error)
	ListTracks(ctx context.Context) ([]orchestrator.TrackState, error)
}

// JournalStore appends progress events and lists the latest ones.
type JournalStore interface {
	Record(ctx context.Context, entry orchestrator.Entry) error
	ListEntries(ctx context.Context, limit int) ([]orchestrator.Entry, error)
}

// Store is the full runner persistence surface.
type Store interface {
	PriorityStore
	TrackStore
	JournalStore
	Close() error
}
