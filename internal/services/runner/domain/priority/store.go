// Package priority keeps the user's manual quest ordering: quests listed here
// are attempted ahead of the default selection policy, first to last.
package priority

import (
	"fmt"
	"slices"
	"sync"

	apperrors "github.com/louisbranch/questrunner/internal/platform/errors"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
)

// Resolver looks up quests by identifier.
type Resolver interface {
	Get(id quest.ElementID) (*quest.Quest, bool)
}

// Store is an ordered, duplicate-free list of quests. The store applies no
// filtering of its own.
type Store struct {
	mu       sync.Mutex
	quests   []*quest.Quest
	onChange func([]quest.ElementID)
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// OnChange registers fn to receive the new ordering after every mutation.
// fn runs without the store lock held.
func (s *Store) OnChange(fn func([]quest.ElementID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Restore replaces the contents without notifying the change hook. Unknown
// or repeated ids are dropped.
func (s *Store) Restore(ids []quest.ElementID, resolver Resolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quests = s.quests[:0]
	for _, id := range ids {
		q, ok := resolver.Get(id)
		if !ok || s.indexLocked(id) >= 0 {
			continue
		}
		s.quests = append(s.quests, q)
	}
}

// Add appends q. Adding a listed quest fails.
func (s *Store) Add(q *quest.Quest) error {
	if q == nil {
		return apperrors.New(apperrors.CodeQuestNotFound, "quest is required")
	}
	s.mu.Lock()
	if s.indexLocked(q.ID) >= 0 {
		s.mu.Unlock()
		return apperrors.WithMetadata(apperrors.CodePriorityDuplicate, fmt.Sprintf("quest %s is already prioritized", q.ID), map[string]string{
			"quest_id": q.ID.String(),
		})
	}
	s.quests = append(s.quests, q)
	s.mu.Unlock()
	s.notify()
	return nil
}

// Remove drops the quest with id and reports whether it was listed.
func (s *Store) Remove(id quest.ElementID) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.quests = slices.Delete(s.quests, i, i+1)
	s.mu.Unlock()
	s.notify()
	return true
}

// Reorder moves the quest with id to newIndex, clamped to the list bounds.
// All other quests keep their relative order.
func (s *Store) Reorder(id quest.ElementID, newIndex int) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return apperrors.WithMetadata(apperrors.CodePriorityNotListed, fmt.Sprintf("quest %s is not prioritized", id), map[string]string{
			"quest_id": id.String(),
		})
	}
	moved := s.quests[i]
	s.quests = slices.Delete(s.quests, i, i+1)
	newIndex = max(0, min(newIndex, len(s.quests)))
	s.quests = slices.Insert(s.quests, newIndex, moved)
	changed := i != newIndex
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return nil
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	wasEmpty := len(s.quests) == 0
	s.quests = nil
	s.mu.Unlock()
	if !wasEmpty {
		s.notify()
	}
}

// RemoveWhere drops every quest matching pred and returns how many went.
func (s *Store) RemoveWhere(pred func(*quest.Quest) bool) int {
	s.mu.Lock()
	before := len(s.quests)
	s.quests = slices.DeleteFunc(s.quests, pred)
	removed := before - len(s.quests)
	s.mu.Unlock()
	if removed > 0 {
		s.notify()
	}
	return removed
}

// Quests returns the ordered quests.
func (s *Store) Quests() []*quest.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.quests)
}

// IDs returns the ordered identifiers.
func (s *Store) IDs() []quest.ElementID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idsLocked()
}

// Contains reports whether id is listed.
func (s *Store) Contains(id quest.ElementID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(id) >= 0
}

// Len returns the number of listed quests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.quests)
}

func (s *Store) indexLocked(id quest.ElementID) int {
	return slices.IndexFunc(s.quests, func(q *quest.Quest) bool { return q.ID == id })
}

func (s *Store) idsLocked() []quest.ElementID {
	ids := make([]quest.ElementID, 0, len(s.quests))
	for _, q := range s.quests {
		ids = append(ids, q.ID)
	}
	return ids
}

func (s *Store) notify() {
	s.mu.Lock()
	fn := s.onChange
	ids := s.idsLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(ids)
	}
}
