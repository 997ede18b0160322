// Package progress navigates a cursor through a quest's sequences and steps.
// Every function is pure: it takes a cursor value and returns a new one, so
// the same rules serve the real, simulated, and gathering tracks.
package progress

import (
	"fmt"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
)

// Cursor is a position inside a quest. Step is quest.StepEnd once the
// sequence's steps are exhausted.
type Cursor struct {
	Quest    *quest.Quest
	Sequence int
	Step     int
}

// New returns a cursor at the start of q.
func New(q *quest.Quest) Cursor {
	return Cursor{Quest: q}
}

// At returns a cursor at an explicit position.
func At(q *quest.Quest, sequence, step int) Cursor {
	return Cursor{Quest: q, Sequence: sequence, Step: step}
}

// Valid reports whether the cursor references a quest.
func (c Cursor) Valid() bool { return c.Quest != nil }

// ID returns the quest identifier, or the zero id for an empty cursor.
func (c Cursor) ID() quest.ElementID {
	if c.Quest == nil {
		return quest.ElementID{}
	}
	return c.Quest.ID
}

// CurrentSequence returns the sequence the cursor is in.
func (c Cursor) CurrentSequence() (*quest.Sequence, bool) {
	return c.Quest.FindSequence(c.Sequence)
}

// CurrentStep returns the step the cursor points at.
func (c Cursor) CurrentStep() (*quest.Step, bool) {
	seq, ok := c.CurrentSequence()
	if !ok {
		return nil, false
	}
	return seq.FindStep(c.Step)
}

// String renders the cursor for logs and status.
func (c Cursor) String() string {
	if c.Quest == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s seq=%d step=%d", c.Quest.ID, c.Sequence, c.Step)
}

// Advance moves to the next step, or to the first step of the next present
// sequence. It reports done once the last sequence is exhausted.
func Advance(c Cursor) (next Cursor, done bool) {
	if c.Quest == nil {
		return c, true
	}
	if seq, ok := c.CurrentSequence(); ok && c.Step != quest.StepEnd && c.Step+1 < len(seq.Steps) {
		c.Step++
		return c, false
	}
	following := NextSequence(c)
	if following.Sequence == c.Sequence {
		return c, true
	}
	return following, false
}

// NextSequence moves to the first step of the next present sequence, staying
// put at the last one.
func NextSequence(c Cursor) Cursor {
	following, ok := nextPresent(c.Quest, c.Sequence)
	if !ok {
		return c
	}
	return Cursor{Quest: c.Quest, Sequence: following}
}

// SetSequence moves to sequence n, or to the nearest present sequence beyond
// n in the direction of travel. Past either end it stops at the boundary.
// The step resets to 0.
func SetSequence(c Cursor, n int) Cursor {
	numbers := c.Quest.SequenceNumbers()
	if len(numbers) == 0 {
		return c
	}
	target := n
	switch {
	case n > c.Sequence:
		target = numbers[len(numbers)-1]
		for _, candidate := range numbers {
			if candidate >= n {
				target = candidate
				break
			}
		}
	case n < c.Sequence:
		target = numbers[0]
		for i := len(numbers) - 1; i >= 0; i-- {
			if numbers[i] <= n {
				target = numbers[i]
				break
			}
		}
	default:
		if _, ok := c.Quest.FindSequence(n); !ok {
			return c
		}
	}
	return Cursor{Quest: c.Quest, Sequence: target}
}

// SetStep clamps n to [0, count-1], or quest.StepEnd when n is past the
// last step.
func SetStep(c Cursor, n int) Cursor {
	seq, ok := c.CurrentSequence()
	count := 0
	if ok {
		count = len(seq.Steps)
	}
	switch {
	case n < 0:
		c.Step = 0
	case n < count:
		c.Step = n
	default:
		c.Step = quest.StepEnd
	}
	return c
}

// IsLastStep reports whether the cursor is on the final step of its sequence.
func IsLastStep(c Cursor) bool {
	seq, ok := c.CurrentSequence()
	if !ok {
		return false
	}
	return len(seq.Steps) > 0 && c.Step == len(seq.Steps)-1
}

// IsInterruptible reports whether the cursor is at step 0 of a sequence whose
// first step starts with a teleport.
func IsInterruptible(c Cursor) bool {
	if c.Step != 0 {
		return false
	}
	seq, ok := c.CurrentSequence()
	if !ok {
		return false
	}
	first, ok := seq.FindStep(0)
	return ok && first.Teleport != ""
}

func nextPresent(q *quest.Quest, current int) (int, bool) {
	for _, n := range q.SequenceNumbers() {
		if n > current {
			return n, true
		}
	}
	return 0, false
}
