package priority

import (
	"encoding/base64"
	"slices"
	"testing"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
)

func TestExportFormat(t *testing.T) {
	got := Export([]quest.ElementID{idA, idB, idD})
	want := "qst:v1:" + base64.StdEncoding.EncodeToString([]byte("1;L2;A4x2"))
	if got != want {
		t.Fatalf("Export = %q, want %q", got, want)
	}
}

func TestClipboardRoundTrip(t *testing.T) {
	source, reg := filled(t, idA, idB, idC)
	text := Export(source.IDs())

	target := NewStore()
	added := target.ImportClipboard(text, reg)
	want := []quest.ElementID{idA, idB, idC}
	if !slices.Equal(added, want) || !slices.Equal(target.IDs(), want) {
		t.Fatalf("added = %v ids = %v, want %v", added, target.IDs(), want)
	}
}

func TestImportSkipsPresentAndUnknown(t *testing.T) {
	s, reg := filled(t, idB)
	text := Export([]quest.ElementID{idA, idB, quest.QuestID(999), idC})
	added := s.ImportClipboard(text, reg)
	if !slices.Equal(added, []quest.ElementID{idA, idC}) {
		t.Fatalf("added = %v", added)
	}
	if got := s.IDs(); !slices.Equal(got, []quest.ElementID{idB, idA, idC}) {
		t.Fatalf("ids = %v", got)
	}
}

func TestParseClipboardMalformed(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString([]byte("1;2"))
	tests := map[string]string{
		"wrong prefix":    "qst:v2:" + valid,
		"no prefix":       valid,
		"not base64":      "qst:v1:!!not-base64!!",
		"bad identifier":  "qst:v1:" + base64.StdEncoding.EncodeToString([]byte("1;X9;3")),
		"empty payload":   "qst:v1:",
		"trailing joiner": "qst:v1:" + base64.StdEncoding.EncodeToString([]byte("1;2;")),
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ParseClipboard(text); got != nil {
				t.Fatalf("ParseClipboard = %v, want nil", got)
			}
			s, reg := filled(t)
			if added := s.ImportClipboard(text, reg); len(added) != 0 || s.Len() != 0 {
				t.Fatalf("imported %v", added)
			}
		})
	}
}
