package quest

// TerminalSequence is the optional final sequence number of a quest.
const TerminalSequence = 255

// StepEnd is the step index meaning "past the last step of the sequence".
const StepEnd = 255

// Source records where a quest definition was loaded from.
type Source uint8

const (
	SourceShipped Source = iota
	SourceUserDirectory
)

// String returns the source label.
func (s Source) String() string {
	if s == SourceUserDirectory {
		return "user_directory"
	}
	return "shipped"
}

// AlliedSociety names the allied society a quest belongs to; zero is none.
type AlliedSociety uint8

// InteractionType tags what a step asks the player to do.
type InteractionType string

const (
	InteractionInstruction           InteractionType = "instruction"
	InteractionWaitForManualProgress InteractionType = "wait_for_manual_progress"
	InteractionInteract              InteractionType = "interact"
	InteractionCombat                InteractionType = "combat"
	InteractionGather                InteractionType = "gather"
	InteractionWalkTo                InteractionType = "walk_to"
	InteractionAcceptQuest           InteractionType = "accept_quest"
	InteractionCompleteQuest         InteractionType = "complete_quest"
)

// Manual reports whether the step can only be finished by the player.
func (t InteractionType) Manual() bool {
	return t == InteractionInstruction || t == InteractionWaitForManualProgress
}

// Quest is an immutable quest definition.
type Quest struct {
	ID     ElementID `json:"id"`
	Info   Info      `json:"info"`
	Root   Root      `json:"root"`
	Source Source    `json:"-"`
}

// Info holds the display and classification data of a quest.
type Info struct {
	Name               string        `json:"name"`
	IsMainScenario     bool          `json:"is_main_scenario,omitempty"`
	IsSeasonalEvent    bool          `json:"is_seasonal_event,omitempty"`
	CompletesInstantly bool          `json:"completes_instantly,omitempty"`
	AlliedSociety      AlliedSociety `json:"allied_society,omitempty"`
}

// Root holds the sequences of a quest in authoring order.
type Root struct {
	Disabled  bool       `json:"disabled,omitempty"`
	Comment   string     `json:"comment,omitempty"`
	Sequences []Sequence `json:"sequences"`
}

// Sequence is one ordered stage of a quest.
type Sequence struct {
	Sequence int    `json:"sequence"`
	Comment  string `json:"comment,omitempty"`
	Steps    []Step `json:"steps"`
}

// Step is one unit of work inside a sequence. The payload fields are all
// optional; which ones matter depends on InteractionType.
type Step struct {
	InteractionType InteractionType `json:"interaction_type"`
	Comment         string          `json:"comment,omitempty"`
	Teleport        string          `json:"teleport,omitempty"`
	Position        *Position       `json:"position,omitempty"`
	DataID          uint32          `json:"data_id,omitempty"`
	Enemies         []uint32        `json:"enemies,omitempty"`
	Items           []uint32        `json:"items,omitempty"`
}

// Position is a world-space destination.
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// FindSequence returns the first sequence numbered n.
func (q *Quest) FindSequence(n int) (*Sequence, bool) {
	if q == nil {
		return nil, false
	}
	for i := range q.Root.Sequences {
		if q.Root.Sequences[i].Sequence == n {
			return &q.Root.Sequences[i], true
		}
	}
	return nil, false
}

// SequenceNumbers returns the distinct sequence numbers in ascending order.
func (q *Quest) SequenceNumbers() []int {
	if q == nil {
		return nil
	}
	var present [TerminalSequence + 1]bool
	for _, seq := range q.Root.Sequences {
		if seq.Sequence >= 0 && seq.Sequence <= TerminalSequence {
			present[seq.Sequence] = true
		}
	}
	numbers := make([]int, 0, len(q.Root.Sequences))
	for n, ok := range present {
		if ok {
			numbers = append(numbers, n)
		}
	}
	return numbers
}

// FindStep returns the step at index i.
func (s *Sequence) FindStep(i int) (*Step, bool) {
	if s == nil || i < 0 || i >= len(s.Steps) {
		return nil, false
	}
	return &s.Steps[i], true
}

// LastStep returns the final step of the sequence.
func (s *Sequence) LastStep() (*Step, bool) {
	if s == nil || len(s.Steps) == 0 {
		return nil, false
	}
	return &s.Steps[len(s.Steps)-1], true
}
