package quest

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Registry resolves element identifiers to quest definitions. A definition
// loaded from the user directory is never replaced by a shipped one.
type Registry struct {
	mu     sync.RWMutex
	quests map[ElementID]*Quest
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		quests: make(map[ElementID]*Quest),
	}
}

// Add registers q and reports whether it is now the active definition.
func (r *Registry) Add(q *Quest) bool {
	if q == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.quests[q.ID]; ok && existing.Source == SourceUserDirectory && q.Source != SourceUserDirectory {
		return false
	}
	r.quests[q.ID] = q
	return true
}

// Get returns the active definition for id.
func (r *Registry) Get(id ElementID) (*Quest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quests[id]
	return q, ok
}

// Count returns the number of registered quests.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.quests)
}

// All returns every quest ordered by kind then number.
func (r *Registry) All() []*Quest {
	r.mu.RLock()
	all := make([]*Quest, 0, len(r.quests))
	for _, q := range r.quests {
		all = append(all, q)
	}
	r.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return lessID(all[i].ID, all[j].ID) })
	return all
}

// Search returns quests whose name contains query, ignoring case.
// Satisfaction supply and allied society entries are not searchable since
// they are not picked by name.
func (r *Registry) Search(query string) []*Quest {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	// A Caser carries state, so each search gets its own.
	folder := cases.Fold()
	needle := folder.String(query)

	var found []*Quest
	for _, q := range r.All() {
		if q.ID.Kind == KindSatisfactionSupply || q.ID.Kind == KindAlliedSocietyDaily {
			continue
		}
		if strings.Contains(folder.String(q.Info.Name), needle) {
			found = append(found, q)
		}
	}
	return found
}

func lessID(a, b ElementID) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return a.Rank < b.Rank
}
