package quest

import (
	"errors"
	"testing"
	"testing/fstest"

	apperrors "github.com/louisbranch/questrunner/internal/platform/errors"
)

func TestRegistryUserOverrideWins(t *testing.T) {
	reg := NewRegistry()
	user := &Quest{ID: QuestID(7), Info: Info{Name: "User"}, Source: SourceUserDirectory}
	shipped := &Quest{ID: QuestID(7), Info: Info{Name: "Shipped"}, Source: SourceShipped}

	if !reg.Add(user) {
		t.Fatal("expected user quest to be added")
	}
	if reg.Add(shipped) {
		t.Fatal("expected shipped quest not to replace user override")
	}
	got, ok := reg.Get(QuestID(7))
	if !ok || got.Info.Name != "User" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	if reg.Count() != 1 {
		t.Fatalf("Count = %d, want 1", reg.Count())
	}
}

func TestRegistryShippedReplacedByUser(t *testing.T) {
	reg := NewRegistry()
	reg.Add(&Quest{ID: LeveID(1), Info: Info{Name: "Shipped"}})
	reg.Add(&Quest{ID: LeveID(1), Info: Info{Name: "User"}, Source: SourceUserDirectory})
	got, _ := reg.Get(LeveID(1))
	if got.Info.Name != "User" {
		t.Fatalf("name = %q, want User", got.Info.Name)
	}
}

func TestRegistrySearchFoldsCase(t *testing.T) {
	reg := NewRegistry()
	reg.Add(&Quest{ID: QuestID(2), Info: Info{Name: "Coming to Gridania"}})
	reg.Add(&Quest{ID: QuestID(1), Info: Info{Name: "Close to Home"}})
	reg.Add(&Quest{ID: LeveID(3), Info: Info{Name: "HOME Delivery"}})
	reg.Add(&Quest{ID: SatisfactionSupplyID(4), Info: Info{Name: "Home supply"}})

	found := reg.Search("home")
	if len(found) != 2 {
		t.Fatalf("Search(home) = %d results, want 2", len(found))
	}
	if found[0].ID != QuestID(1) || found[1].ID != LeveID(3) {
		t.Fatalf("Search order = %v, %v", found[0].ID, found[1].ID)
	}
	if got := reg.Search("   "); got != nil {
		t.Fatalf("blank search = %v, want nil", got)
	}
}

func TestLoadCatalog(t *testing.T) {
	fsys := fstest.MapFS{
		"main/1_close_to_home.json": {Data: []byte(`{"id":"1","info":{"name":"Close to Home"},"root":{"sequences":[{"sequence":0,"steps":[{"interaction_type":"accept_quest"}]}]}}`)},
		"leves/L5.json":             {Data: []byte(`{"id":"L5","info":{"name":"Leve"},"root":{"sequences":[]}}`)},
		"broken.json":               {Data: []byte(`{"id":`)},
		"notes.txt":                 {Data: []byte(`ignored`)},
	}
	reg := NewRegistry()
	result, err := Load(reg, fsys, SourceShipped)
	if err == nil {
		t.Fatal("expected error for broken file")
	}
	if !errors.Is(err, apperrors.New(apperrors.CodeQuestCatalogLoad, "")) {
		t.Fatalf("error code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeQuestCatalogLoad)
	}
	if result.Loaded != 2 || result.Skipped != 1 {
		t.Fatalf("result = %+v, want 2 loaded 1 skipped", result)
	}
	q, ok := reg.Get(QuestID(1))
	if !ok {
		t.Fatal("expected quest 1")
	}
	if q.Source != SourceShipped {
		t.Fatalf("source = %v", q.Source)
	}
	if step, ok := q.Root.Sequences[0].FindStep(0); !ok || step.InteractionType != InteractionAcceptQuest {
		t.Fatalf("step = %+v", step)
	}
}

func TestLoadRejectsOutOfRangeSequence(t *testing.T) {
	fsys := fstest.MapFS{
		"q.json": {Data: []byte(`{"id":"9","info":{"name":"Bad"},"root":{"sequences":[{"sequence":256}]}}`)},
	}
	reg := NewRegistry()
	if _, err := Load(reg, fsys, SourceUserDirectory); err == nil {
		t.Fatal("expected error")
	}
	if reg.Count() != 0 {
		t.Fatalf("Count = %d, want 0", reg.Count())
	}
}
