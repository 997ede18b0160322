// Package sqlite provides the SQLite-backed runner storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlitemigrate "github.com/louisbranch/questrunner/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/orchestrator"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
	"github.com/louisbranch/questrunner/internal/services/runner/storage"
	"github.com/louisbranch/questrunner/internal/services/runner/storage/sqlite/migrations"
)

const defaultJournalLimit = 50

// Store persists runner state in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ storage.Store = (*Store)(nil)
var _ orchestrator.Journal = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite runner store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sqlitemigrate.Open(ctx, path, migrations.FS)
	if err != nil {
		return nil, err
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// LoadPriority returns the saved priority list in order. Rows whose
// identifier no longer parses are dropped.
func (s *Store) LoadPriority(ctx context.Context) ([]quest.ElementID, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT element_id FROM priority_quests ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query priority quests: %w", err)
	}
	defer rows.Close()

	var ids []quest.ElementID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan priority quest: %w", err)
		}
		id, err := quest.ParseElementID(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate priority quests: %w", err)
	}
	return ids, nil
}

// SavePriority replaces the saved priority list.
func (s *Store) SavePriority(ctx context.Context, ids []quest.ElementID) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin priority write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback priority write: %v", cause, rollbackErr)
		}
		return cause
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM priority_quests`); err != nil {
		return rollbackWith(fmt.Errorf("clear priority quests: %w", err))
	}
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO priority_quests (position, element_id) VALUES (?, ?)`,
			i, id.String(),
		); err != nil {
			return rollbackWith(fmt.Errorf("insert priority quest %s: %w", id, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit priority write: %w", err)
	}
	return nil
}

// SaveTrack upserts the cursor of one track.
func (s *Store) SaveTrack(ctx context.Context, state orchestrator.TrackState) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO tracks (track, element_id, sequence, step, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(track) DO UPDATE SET
    element_id = excluded.element_id,
    sequence = excluded.sequence,
    step = excluded.step,
    updated_at = excluded.updated_at`,
		state.Track.String(), state.QuestID.String(), state.Sequence, state.Step, toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("save track %s: %w", state.Track, err)
	}
	return nil
}

// ClearTrack removes the cursor of one track.
func (s *Store) ClearTrack(ctx context.Context, track orchestrator.Track) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tracks WHERE track = ?`, track.String()); err != nil {
		return fmt.Errorf("clear track %s: %w", track, err)
	}
	return nil
}

// GetTrack returns the cursor of one track or storage.ErrNotFound.
func (s *Store) GetTrack(ctx context.Context, track orchestrator.Track) (orchestrator.TrackState, error) {
	if err := s.ready(ctx); err != nil {
		return orchestrator.TrackState{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT track, element_id, sequence, step FROM tracks WHERE track = ?`, track.String())
	state, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return orchestrator.TrackState{}, storage.ErrNotFound
	}
	if err != nil {
		return orchestrator.TrackState{}, fmt.Errorf("get track %s: %w", track, err)
	}
	return state, nil
}

// ListTracks returns every saved cursor.
func (s *Store) ListTracks(ctx context.Context) ([]orchestrator.TrackState, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT track, element_id, sequence, step FROM tracks ORDER BY track`)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var states []orchestrator.TrackState
	for rows.Next() {
		state, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return states, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner) (orchestrator.TrackState, error) {
	var (
		trackLabel string
		rawID      string
		state      orchestrator.TrackState
	)
	if err := row.Scan(&trackLabel, &rawID, &state.Sequence, &state.Step); err != nil {
		return orchestrator.TrackState{}, err
	}
	track, err := orchestrator.ParseTrack(trackLabel)
	if err != nil {
		return orchestrator.TrackState{}, err
	}
	id, err := quest.ParseElementID(rawID)
	if err != nil {
		return orchestrator.TrackState{}, err
	}
	state.Track = track
	state.QuestID = id
	return state, nil
}

// Record appends one journal entry.
func (s *Store) Record(ctx context.Context, entry orchestrator.Entry) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	at := entry.At
	if at.IsZero() {
		at = s.now()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO progress_journal (track, element_id, sequence, step, kind, reason, trace_id, span_id, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Track.String(), entry.QuestID.String(), entry.Sequence, entry.Step,
		string(entry.Kind), entry.Reason, entry.TraceID, entry.SpanID, toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("record journal entry: %w", err)
	}
	return nil
}

// ListEntries returns the latest journal entries, newest first.
func (s *Store) ListEntries(ctx context.Context, limit int) ([]orchestrator.Entry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultJournalLimit
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT track, element_id, sequence, step, kind, reason, trace_id, span_id, recorded_at
FROM progress_journal
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []orchestrator.Entry
	for rows.Next() {
		var (
			trackLabel string
			rawID      string
			kind       string
			recordedAt int64
			entry      orchestrator.Entry
		)
		if err := rows.Scan(&trackLabel, &rawID, &entry.Sequence, &entry.Step, &kind,
			&entry.Reason, &entry.TraceID, &entry.SpanID, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		track, err := orchestrator.ParseTrack(trackLabel)
		if err != nil {
			continue
		}
		id, err := quest.ParseElementID(rawID)
		if err != nil {
			continue
		}
		entry.Track = track
		entry.QuestID = id
		entry.Kind = orchestrator.EntryKind(kind)
		entry.At = fromMillis(recordedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}
