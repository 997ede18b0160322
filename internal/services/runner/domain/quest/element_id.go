package quest

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes the families of quest-like items. Identifiers of
// different kinds never compare equal even when their numbers match.
type Kind uint8

const (
	KindQuest Kind = iota
	KindLeve
	KindAlliedSocietyDaily
	KindSatisfactionSupply
)

// String returns a readable kind label.
func (k Kind) String() string {
	switch k {
	case KindQuest:
		return "quest"
	case KindLeve:
		return "leve"
	case KindAlliedSocietyDaily:
		return "allied_society_daily"
	case KindSatisfactionSupply:
		return "satisfaction_supply"
	default:
		return "unknown"
	}
}

// ElementID identifies a quest-like item. The zero Rank means "any rank" for
// allied society dailies and is unused by every other kind.
type ElementID struct {
	Kind  Kind
	Value uint16
	Rank  uint8
}

// QuestID returns the identifier of a normal quest.
func QuestID(value uint16) ElementID { return ElementID{Kind: KindQuest, Value: value} }

// LeveID returns the identifier of a leve.
func LeveID(value uint16) ElementID { return ElementID{Kind: KindLeve, Value: value} }

// SatisfactionSupplyID returns the identifier of a satisfaction supply NPC.
func SatisfactionSupplyID(value uint16) ElementID {
	return ElementID{Kind: KindSatisfactionSupply, Value: value}
}

// AlliedSocietyDailyID returns the identifier of an allied society daily.
func AlliedSocietyDailyID(society uint16, rank uint8) ElementID {
	return ElementID{Kind: KindAlliedSocietyDaily, Value: society, Rank: rank}
}

// String encodes the identifier in its compact exchange form.
func (id ElementID) String() string {
	switch id.Kind {
	case KindLeve:
		return "L" + strconv.Itoa(int(id.Value))
	case KindSatisfactionSupply:
		return "S" + strconv.Itoa(int(id.Value))
	case KindAlliedSocietyDaily:
		if id.Rank == 0 {
			return "A" + strconv.Itoa(int(id.Value))
		}
		return "A" + strconv.Itoa(int(id.Value)) + "x" + strconv.Itoa(int(id.Rank))
	default:
		return strconv.Itoa(int(id.Value))
	}
}

// ParseElementID decodes the compact form produced by String.
func ParseElementID(value string) (ElementID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return ElementID{}, fmt.Errorf("element id is empty")
	}
	switch value[0] {
	case 'L':
		n, err := parseNumber(value[1:])
		if err != nil {
			return ElementID{}, fmt.Errorf("parse leve id %q: %w", value, err)
		}
		return LeveID(n), nil
	case 'S':
		n, err := parseNumber(value[1:])
		if err != nil {
			return ElementID{}, fmt.Errorf("parse satisfaction supply id %q: %w", value, err)
		}
		return SatisfactionSupplyID(n), nil
	case 'A':
		society, rank, hasRank := strings.Cut(value[1:], "x")
		n, err := parseNumber(society)
		if err != nil {
			return ElementID{}, fmt.Errorf("parse allied society id %q: %w", value, err)
		}
		if !hasRank {
			return AlliedSocietyDailyID(n, 0), nil
		}
		r, err := strconv.ParseUint(rank, 10, 8)
		if err != nil {
			return ElementID{}, fmt.Errorf("parse allied society rank %q: %w", value, err)
		}
		return AlliedSocietyDailyID(n, uint8(r)), nil
	default:
		n, err := parseNumber(value)
		if err != nil {
			return ElementID{}, fmt.Errorf("parse quest id %q: %w", value, err)
		}
		return QuestID(n), nil
	}
}

// MarshalText implements encoding.TextMarshaler.
func (id ElementID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ElementID) UnmarshalText(text []byte) error {
	parsed, err := ParseElementID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseNumber(value string) (uint16, error) {
	n, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}
