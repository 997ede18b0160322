package task

import (
	"time"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/controller"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
)

// Subsystems are the collaborators tasks dispatch to.
type Subsystems struct {
	Movement   controller.Controller[controller.Destination]
	Gathering  controller.Controller[controller.GatherRequest]
	Combat     FightRunner
	Interactor Interactor
	// Settle is the pause appended after automatic steps; zero disables it.
	Settle time.Duration
	Now    func() time.Time
}

// Build derives the tasks for one step in execution order: teleport, travel,
// then the step's own interaction.
func Build(step *quest.Step, subsystems Subsystems) []Task {
	if step == nil {
		return nil
	}
	var tasks []Task
	if step.Teleport != "" {
		tasks = append(tasks, Teleport(subsystems.Movement, step.Teleport))
	}
	if step.Position != nil {
		pos := *step.Position
		tasks = append(tasks, MoveTo(subsystems.Movement, controller.Destination{Position: &pos}))
	}

	switch step.InteractionType {
	case quest.InteractionInteract, quest.InteractionAcceptQuest, quest.InteractionCompleteQuest:
		tasks = append(tasks, Interact(subsystems.Interactor, step.DataID))
	case quest.InteractionCombat:
		tasks = append(tasks, Combat(subsystems.Combat, controller.Fight{
			DataID:  step.DataID,
			Enemies: append([]uint32(nil), step.Enemies...),
		}))
	case quest.InteractionGather:
		tasks = append(tasks, Gather(subsystems.Gathering, controller.GatherRequest{
			DataID: step.DataID,
			Items:  append([]uint32(nil), step.Items...),
		}))
	case quest.InteractionInstruction, quest.InteractionWaitForManualProgress:
		return append(tasks, WaitForManualProgress(step.Comment))
	case quest.InteractionWalkTo:
	}

	if subsystems.Settle > 0 {
		tasks = append(tasks, WaitNextStep(subsystems.Settle, subsystems.Now))
	}
	return tasks
}
