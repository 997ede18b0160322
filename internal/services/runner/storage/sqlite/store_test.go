package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/orchestrator"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
	"github.com/louisbranch/questrunner/internal/services/runner/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "runner.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPriorityRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	want := []quest.ElementID{
		quest.QuestID(1001),
		quest.LeveID(7),
		quest.AlliedSocietyDailyID(3, 2),
		quest.SatisfactionSupplyID(4),
	}
	if err := store.SavePriority(ctx, want); err != nil {
		t.Fatalf("save priority: %v", err)
	}
	got, err := store.LoadPriority(ctx)
	if err != nil {
		t.Fatalf("load priority: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("priority[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if err := store.SavePriority(ctx, want[2:3]); err != nil {
		t.Fatalf("save shorter priority: %v", err)
	}
	got, err = store.LoadPriority(ctx)
	if err != nil {
		t.Fatalf("reload priority: %v", err)
	}
	if len(got) != 1 || got[0] != want[2] {
		t.Fatalf("priority = %v, want [%s]", got, want[2])
	}
}

func TestPriorityRejectsDuplicates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.SavePriority(ctx, []quest.ElementID{quest.QuestID(1)}); err != nil {
		t.Fatalf("save priority: %v", err)
	}
	err := store.SavePriority(ctx, []quest.ElementID{quest.QuestID(2), quest.QuestID(2)})
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	got, err := store.LoadPriority(ctx)
	if err != nil {
		t.Fatalf("load priority: %v", err)
	}
	if len(got) != 1 || got[0] != quest.QuestID(1) {
		t.Fatalf("priority = %v, want previous list kept", got)
	}
}

func TestTrackUpsertAndClear(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	if _, err := store.GetTrack(ctx, orchestrator.TrackStarted); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing track error = %v, want %v", err, storage.ErrNotFound)
	}

	state := orchestrator.TrackState{
		Track:    orchestrator.TrackStarted,
		QuestID:  quest.QuestID(66),
		Sequence: 2,
		Step:     1,
	}
	if err := store.SaveTrack(ctx, state); err != nil {
		t.Fatalf("save track: %v", err)
	}
	state.Step = 255
	if err := store.SaveTrack(ctx, state); err != nil {
		t.Fatalf("update track: %v", err)
	}
	if err := store.SaveTrack(ctx, orchestrator.TrackState{
		Track:   orchestrator.TrackGathering,
		QuestID: quest.LeveID(9),
	}); err != nil {
		t.Fatalf("save gathering track: %v", err)
	}

	got, err := store.GetTrack(ctx, orchestrator.TrackStarted)
	if err != nil {
		t.Fatalf("get track: %v", err)
	}
	if got != state {
		t.Fatalf("track = %+v, want %+v", got, state)
	}

	states, err := store.ListTracks(ctx)
	if err != nil {
		t.Fatalf("list tracks: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("tracks = %d, want 2", len(states))
	}

	if err := store.ClearTrack(ctx, orchestrator.TrackStarted); err != nil {
		t.Fatalf("clear track: %v", err)
	}
	if _, err := store.GetTrack(ctx, orchestrator.TrackStarted); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get cleared track error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestJournalNewestFirst(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	entries := []orchestrator.Entry{
		{Track: orchestrator.TrackStarted, QuestID: quest.QuestID(5), Kind: orchestrator.EntryStart, Reason: "start", At: base},
		{Track: orchestrator.TrackStarted, QuestID: quest.QuestID(5), Sequence: 1, Kind: orchestrator.EntryAdvance, At: base.Add(time.Second)},
		{Track: orchestrator.TrackStarted, QuestID: quest.QuestID(5), Sequence: 1, Step: 2, Kind: orchestrator.EntryStop, Reason: "control lost: combat(7)", TraceID: "abc", SpanID: "def", At: base.Add(2 * time.Second)},
	}
	for _, entry := range entries {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := store.ListEntries(ctx, 2)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if !got[0].At.Equal(entries[2].At) {
		t.Fatalf("entries[0].At = %v, want %v", got[0].At, entries[2].At)
	}
	got[0].At = entries[2].At
	if got[0] != entries[2] {
		t.Fatalf("entries[0] = %+v, want %+v", got[0], entries[2])
	}
	if got[1].Kind != orchestrator.EntryAdvance {
		t.Fatalf("entries[1].Kind = %q, want %q", got[1].Kind, orchestrator.EntryAdvance)
	}
}

func TestStoreReopenKeepsState(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runner.db")
	ctx := context.Background()
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.SavePriority(ctx, []quest.ElementID{quest.QuestID(12)}); err != nil {
		t.Fatalf("save priority: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.LoadPriority(ctx)
	if err != nil {
		t.Fatalf("load priority: %v", err)
	}
	if len(got) != 1 || got[0] != quest.QuestID(12) {
		t.Fatalf("priority = %v, want [12]", got)
	}
}
