package quest

import (
	"encoding/json"
	"testing"
)

func TestElementIDStringRoundTrip(t *testing.T) {
	tests := []struct {
		id   ElementID
		want string
	}{
		{QuestID(123), "123"},
		{LeveID(123), "L123"},
		{SatisfactionSupplyID(1021), "S1021"},
		{AlliedSocietyDailyID(3, 0), "A3"},
		{AlliedSocietyDailyID(3, 2), "A3x2"},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want {
			t.Fatalf("String() = %q, want %q", got, tt.want)
		}
		parsed, err := ParseElementID(tt.want)
		if err != nil {
			t.Fatalf("ParseElementID(%q): %v", tt.want, err)
		}
		if parsed != tt.id {
			t.Fatalf("ParseElementID(%q) = %+v, want %+v", tt.want, parsed, tt.id)
		}
	}
}

func TestElementIDKindsNeverEqual(t *testing.T) {
	if QuestID(5) == LeveID(5) {
		t.Fatal("expected quest 5 and leve 5 to differ")
	}
	if SatisfactionSupplyID(5) == AlliedSocietyDailyID(5, 0) {
		t.Fatal("expected satisfaction supply 5 and allied society 5 to differ")
	}
}

func TestParseElementIDRejectsMalformed(t *testing.T) {
	for _, value := range []string{"", "L", "Lx", "abc", "A3x", "A3xz", "70000", "-1", "S-2"} {
		if _, err := ParseElementID(value); err == nil {
			t.Fatalf("ParseElementID(%q) expected error", value)
		}
	}
}

func TestElementIDJSON(t *testing.T) {
	data, err := json.Marshal(map[string]ElementID{"id": LeveID(9)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"id":"L9"}` {
		t.Fatalf("marshal = %s", data)
	}
	var decoded struct {
		ID ElementID `json:"id"`
	}
	if err := json.Unmarshal([]byte(`{"id":"A2x4"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID != AlliedSocietyDailyID(2, 4) {
		t.Fatalf("unmarshal = %+v", decoded.ID)
	}
}
