package priority

import (
	"encoding/base64"
	"strings"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
)

const (
	// ClipboardPrefix marks an exported priority list.
	ClipboardPrefix = "qst:v1:"
	// ClipboardSeparator joins identifiers inside the payload.
	ClipboardSeparator = ";"
)

// Export encodes ids for the clipboard.
func Export(ids []quest.ElementID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	payload := strings.Join(parts, ClipboardSeparator)
	return ClipboardPrefix + base64.StdEncoding.EncodeToString([]byte(payload))
}

// ParseClipboard decodes an exported list. Any defect yields nil; a partial
// result is never returned.
func ParseClipboard(text string) []quest.ElementID {
	encoded, ok := strings.CutPrefix(text, ClipboardPrefix)
	if !ok {
		return nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil
	}
	parts := strings.Split(string(decoded), ClipboardSeparator)
	ids := make([]quest.ElementID, 0, len(parts))
	for _, part := range parts {
		id, err := quest.ParseElementID(part)
		if err != nil {
			return nil
		}
		ids = append(ids, id)
	}
	return ids
}

// Import appends the quests behind ids in order, skipping ids that are
// already listed or unknown to resolver. It returns the ids added.
func (s *Store) Import(ids []quest.ElementID, resolver Resolver) []quest.ElementID {
	var added []quest.ElementID
	s.mu.Lock()
	for _, id := range ids {
		if s.indexLocked(id) >= 0 {
			continue
		}
		q, ok := resolver.Get(id)
		if !ok {
			continue
		}
		s.quests = append(s.quests, q)
		added = append(added, id)
	}
	s.mu.Unlock()
	if len(added) > 0 {
		s.notify()
	}
	return added
}

// ImportClipboard parses text and imports the result.
func (s *Store) ImportClipboard(text string, resolver Resolver) []quest.ElementID {
	return s.Import(ParseClipboard(text), resolver)
}
