// Package validation checks quest definitions for authoring defects. Issues
// are diagnostics only; a quest with issues is still loaded and runnable.
package validation

import (
	"iter"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
)

// Severity grades a validation issue.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the severity label.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue describes one authoring defect in a quest.
type Issue struct {
	QuestID     quest.ElementID
	Sequence    int
	Step        *int
	Severity    Severity
	Description string
}

const (
	descMissingStart       = "Missing quest start"
	descInstantHasSequence = "Instant quest should not have any sequences after the start"
	descMissingSequence    = "Missing sequence"
	descDuplicateSequence  = "Duplicate sequence"
)

// Validate yields the sequence numbering issues of q. The result is lazy and
// may be ranged over any number of times.
func Validate(q *quest.Quest) iter.Seq[Issue] {
	return func(yield func(Issue) bool) {
		if q == nil {
			return
		}
		sequences := q.Root.Sequences
		start := -1
		for i := range sequences {
			if sequences[i].Sequence == 0 {
				start = i
				break
			}
		}
		if start < 0 {
			yield(sequenceIssue(q, 0, descMissingStart))
			return
		}

		if q.Info.CompletesInstantly {
			for i := range sequences {
				if i == start {
					continue
				}
				if !yield(sequenceIssue(q, sequences[i].Sequence, descInstantHasSequence)) {
					return
				}
			}
			return
		}

		maxSequence := 0
		for _, seq := range sequences {
			if seq.Sequence != quest.TerminalSequence && seq.Sequence > maxSequence {
				maxSequence = seq.Sequence
			}
		}
		for i := 0; i < maxSequence; i++ {
			if issue, ok := checkCount(q, i); ok && !yield(issue) {
				return
			}
		}
		if issue, ok := checkCount(q, quest.TerminalSequence); ok {
			yield(issue)
		}
	}
}

// checkCount flags a sequence number with no definition or with exactly two.
// Three or more definitions are not reported.
func checkCount(q *quest.Quest, n int) (Issue, bool) {
	count := 0
	for _, seq := range q.Root.Sequences {
		if seq.Sequence == n {
			count++
		}
	}
	switch count {
	case 0:
		return sequenceIssue(q, n, descMissingSequence), true
	case 2:
		return sequenceIssue(q, n, descDuplicateSequence), true
	default:
		return Issue{}, false
	}
}

func sequenceIssue(q *quest.Quest, n int, description string) Issue {
	return Issue{
		QuestID:     q.ID,
		Sequence:    n,
		Severity:    SeverityError,
		Description: description,
	}
}

// ValidateAll collects the issues of every quest in order.
func ValidateAll(quests []*quest.Quest) []Issue {
	var issues []Issue
	for _, q := range quests {
		for issue := range Validate(q) {
			issues = append(issues, issue)
		}
	}
	return issues
}

// Summary counts issues by severity.
type Summary struct {
	Errors   int
	Warnings int
}

// Summarize counts issues by severity.
func Summarize(issues []Issue) Summary {
	var s Summary
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			s.Errors++
		} else {
			s.Warnings++
		}
	}
	return s
}
