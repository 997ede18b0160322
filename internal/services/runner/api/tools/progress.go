package tools

import (
	"context"
	"fmt"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/orchestrator"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/progress"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusInput is empty; status takes no arguments.
type StatusInput struct{}

// StatusResult describes the authoritative track and the task queue.
type StatusResult struct {
	Running       bool            `json:"running" jsonschema:"whether tasks are being executed"`
	SingleStep    bool            `json:"single_step,omitempty" jsonschema:"whether the run stops after one task"`
	Track         string          `json:"track" jsonschema:"authoritative track (started, simulated, gathering)"`
	QuestID       string          `json:"quest_id,omitempty" jsonschema:"quest on the authoritative track"`
	QuestName     string          `json:"quest_name,omitempty" jsonschema:"quest name"`
	Sequence      int             `json:"sequence" jsonschema:"current sequence number"`
	Step          int             `json:"step" jsonschema:"current step index (255 past the last step)"`
	LastStep      bool            `json:"last_step,omitempty" jsonschema:"whether the cursor is on the final step of its sequence"`
	CurrentTask   string          `json:"current_task,omitempty" jsonschema:"task being updated"`
	QueuedTasks   []string        `json:"queued_tasks,omitempty" jsonschema:"tasks waiting in the queue"`
	CombatModule  string          `json:"combat_module,omitempty" jsonschema:"combat module handling the encounter"`
	CombatPaused  bool            `json:"combat_paused,omitempty" jsonschema:"whether the combat rotation is paused"`
	Movement      *MovementResult `json:"movement,omitempty" jsonschema:"destination the game client should move to"`
	Gather        *GatherResult   `json:"gather,omitempty" jsonschema:"node the game client should gather from"`
	NextQuest     string          `json:"next_quest,omitempty" jsonschema:"quest picked after the current one"`
	Simulating    bool            `json:"simulating,omitempty" jsonschema:"whether a quest is simulated"`
	Gathering     bool            `json:"gathering,omitempty" jsonschema:"whether a gathering quest is active"`
	Interruptible bool            `json:"interruptible,omitempty" jsonschema:"whether the started quest may restart its step after an interruption"`
	StopReason    string          `json:"stop_reason,omitempty" jsonschema:"why the last run stopped"`
	LastError     string          `json:"last_error,omitempty" jsonschema:"last task failure"`
}

// MovementResult is an in-flight movement request.
type MovementResult struct {
	Aetheryte string          `json:"aetheryte,omitempty" jsonschema:"aetheryte to teleport to first"`
	Position  *quest.Position `json:"position,omitempty" jsonschema:"destination coordinates"`
}

// GatherResult is an in-flight gathering request.
type GatherResult struct {
	DataID uint32   `json:"data_id" jsonschema:"gathering node"`
	Items  []uint32 `json:"items,omitempty" jsonschema:"items to gather"`
}


func statusResult(s orchestrator.Status) StatusResult {
	result := StatusResult{
		Running:       s.Running,
		SingleStep:    s.SingleStep,
		Track:         s.Track.String(),
		CurrentTask:   s.CurrentTask,
		QueuedTasks:   s.QueuedTasks,
		CombatModule:  s.CombatModule,
		NextQuest:     s.NextQuest,
		Simulating:    s.Simulating,
		Gathering:     s.Gathering,
		Interruptible: s.Interruptible,
		CombatPaused:  s.CombatPaused,
		StopReason:    s.StopReason,
		LastError:     s.LastError,
	}
	if s.Movement != nil {
		result.Movement = &MovementResult{Aetheryte: s.Movement.Aetheryte, Position: s.Movement.Position}
	}
	if s.Gather != nil {
		result.Gather = &GatherResult{DataID: s.Gather.DataID, Items: s.Gather.Items}
	}
	if s.HasQuest {
		result.QuestID = s.QuestID.String()
		result.QuestName = s.QuestName
		result.Sequence = s.Sequence
		result.Step = s.Step
		result.LastStep = s.LastStep
	}
	return result
}

// StatusTool defines the MCP tool schema for reading runner status.
func StatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "status",
		Description: "Returns the authoritative quest cursor, the running task and the queued tasks.",
	}
}

// StatusHandler reads the orchestrator status.
func StatusHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[StatusInput, StatusResult] {
	return func(context.Context, *mcp.CallToolRequest, StatusInput) (*mcp.CallToolResult, StatusResult, error) {
		return nil, statusResult(o.Status()), nil
	}
}

// StartInput represents the MCP tool input for starting automation.
type StartInput struct {
	QuestID    string `json:"quest_id,omitempty" jsonschema:"quest to start; defaults to the current or next prioritized quest"`
	SingleStep bool   `json:"single_step,omitempty" jsonschema:"stop after one task completes"`
}

// StartTool defines the MCP tool schema for starting automation.
func StartTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "start",
		Description: "Starts automatic quest progression, optionally for a single task.",
	}
}

// StartHandler starts the orchestrator.
func StartHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[StartInput, StatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StartInput) (*mcp.CallToolResult, StatusResult, error) {
		id, err := parseOptionalQuestID(input.QuestID)
		if err != nil {
			return nil, StatusResult{}, err
		}
		if input.QuestID != "" {
			if err := o.StartQuest(ctx, id); err != nil {
				return nil, StatusResult{}, fmt.Errorf("start quest %s: %w", id, err)
			}
		}
		if input.SingleStep {
			err = o.StartSingleStep(ctx, "mcp step")
		} else {
			err = o.Start(ctx, "mcp start")
		}
		if err != nil {
			return nil, StatusResult{}, fmt.Errorf("start failed: %w", err)
		}
		return nil, statusResult(o.Status()), nil
	}
}

// StopInput represents the MCP tool input for stopping automation.
type StopInput struct {
	Reason string `json:"reason,omitempty" jsonschema:"reason recorded in the journal"`
}

// StopTool defines the MCP tool schema for stopping automation.
func StopTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "stop",
		Description: "Stops automation. The cursor stays on the current step.",
	}
}

// StopHandler stops the orchestrator.
func StopHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[StopInput, StatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StopInput) (*mcp.CallToolResult, StatusResult, error) {
		reason := input.Reason
		if reason == "" {
			reason = "mcp stop"
		}
		o.Stop(ctx, reason)
		return nil, statusResult(o.Status()), nil
	}
}

// SkipInput represents the MCP tool input for skipping a sequence.
type SkipInput struct {
	QuestID  string `json:"quest_id" jsonschema:"quest the cursor must be on"`
	Sequence int    `json:"sequence" jsonschema:"sequence the cursor must be on"`
}

// SkipResult reports whether any track moved.
type SkipResult struct {
	Skipped bool `json:"skipped" jsonschema:"whether a track was on the given quest and sequence"`
}

// SkipTool defines the MCP tool schema for skipping a sequence.
func SkipTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "skip",
		Description: "Moves every track on the given quest and sequence to the next sequence.",
	}
}

// SkipHandler skips the current sequence.
func SkipHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[SkipInput, SkipResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SkipInput) (*mcp.CallToolResult, SkipResult, error) {
		id, err := parseQuestID(input.QuestID)
		if err != nil {
			return nil, SkipResult{}, err
		}
		return nil, SkipResult{Skipped: o.Skip(ctx, id, input.Sequence)}, nil
	}
}

// QuestInput names one quest; a blank id clears where the tool allows it.
type QuestInput struct {
	QuestID string `json:"quest_id,omitempty" jsonschema:"quest identifier (123, L123, S123, A3x2)"`
}

// NextQuestTool defines the MCP tool schema for choosing the next quest.
func NextQuestTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "next_quest",
		Description: "Sets the quest picked once the current one completes. A blank id clears it.",
	}
}

// NextQuestHandler sets the next quest hint.
func NextQuestHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[QuestInput, StatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QuestInput) (*mcp.CallToolResult, StatusResult, error) {
		id, err := parseOptionalQuestID(input.QuestID)
		if err != nil {
			return nil, StatusResult{}, err
		}
		if err := o.SetNextQuest(ctx, id); err != nil {
			return nil, StatusResult{}, fmt.Errorf("set next quest: %w", err)
		}
		return nil, statusResult(o.Status()), nil
	}
}

// GatherTool defines the MCP tool schema for running a gathering quest.
func GatherTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "gather",
		Description: "Runs a gathering quest on its own track and starts automation.",
	}
}

// GatherHandler starts the gathering track.
func GatherHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[QuestInput, StatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QuestInput) (*mcp.CallToolResult, StatusResult, error) {
		id, err := parseQuestID(input.QuestID)
		if err != nil {
			return nil, StatusResult{}, err
		}
		if err := o.StartGathering(ctx, id); err != nil {
			return nil, StatusResult{}, fmt.Errorf("start gathering %s: %w", id, err)
		}
		return nil, statusResult(o.Status()), nil
	}
}

// SignalInput represents an external game notification.
type SignalInput struct {
	Signal string `json:"signal" jsonschema:"movement_arrived, gathering_done, combat_done, step_completed, interrupted or manual_skip"`
}

// SignalResult reports whether the signal changed anything.
type SignalResult struct {
	Handled bool `json:"handled" jsonschema:"whether the signal had an effect"`
}

// SignalTool defines the MCP tool schema for delivering external signals.
func SignalTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "signal",
		Description: "Delivers an external game notification such as step completion or an interruption.",
	}
}

// SignalHandler delivers a signal to the orchestrator.
func SignalHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[SignalInput, SignalResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SignalInput) (*mcp.CallToolResult, SignalResult, error) {
		signal, err := orchestrator.ParseSignal(input.Signal)
		if err != nil {
			return nil, SignalResult{}, err
		}
		return nil, SignalResult{Handled: o.Signal(ctx, signal)}, nil
	}
}

// CursorResult describes one track cursor.
type CursorResult struct {
	Active   bool   `json:"active" jsonschema:"whether the track holds a quest"`
	QuestID  string `json:"quest_id,omitempty" jsonschema:"quest on the track"`
	Sequence int    `json:"sequence" jsonschema:"sequence number"`
	Step     int    `json:"step" jsonschema:"step index (255 past the last step)"`
	Comment  string `json:"comment,omitempty" jsonschema:"comment of the current step"`
}

func cursorResult(c progress.Cursor) CursorResult {
	if !c.Valid() {
		return CursorResult{}
	}
	result := CursorResult{
		Active:   true,
		QuestID:  c.ID().String(),
		Sequence: c.Sequence,
		Step:     c.Step,
	}
	if step, ok := c.CurrentStep(); ok {
		result.Comment = step.Comment
	}
	return result
}

// SimulateTool defines the MCP tool schema for simulating a quest.
func SimulateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "simulate",
		Description: "Simulates a quest from its first step. A blank id ends the simulation.",
	}
}

// SimulateHandler positions the simulated track.
func SimulateHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[QuestInput, CursorResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QuestInput) (*mcp.CallToolResult, CursorResult, error) {
		id, err := parseOptionalQuestID(input.QuestID)
		if err != nil {
			return nil, CursorResult{}, err
		}
		if err := o.SimulateQuest(ctx, id); err != nil {
			return nil, CursorResult{}, fmt.Errorf("simulate %s: %w", id, err)
		}
		cursor, _ := o.TrackCursor(orchestrator.TrackSimulated)
		return nil, cursorResult(cursor), nil
	}
}

// SimulateMoveInput moves the simulated cursor.
type SimulateMoveInput struct {
	Unit  string `json:"unit" jsonschema:"sequence or step"`
	Delta int    `json:"delta" jsonschema:"signed number of sequences or steps to move"`
}

// SimulateMoveTool defines the MCP tool schema for moving the simulation.
func SimulateMoveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "simulate_move",
		Description: "Moves the simulated cursor forward or back by sequences or steps.",
	}
}

// SimulateMoveHandler moves the simulated cursor.
func SimulateMoveHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[SimulateMoveInput, CursorResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SimulateMoveInput) (*mcp.CallToolResult, CursorResult, error) {
		var (
			cursor progress.Cursor
			err    error
		)
		switch input.Unit {
		case "sequence":
			cursor, err = o.SimulatedSequenceStep(ctx, input.Delta)
		case "step":
			cursor, err = o.SimulatedStepStep(ctx, input.Delta)
		default:
			return nil, CursorResult{}, fmt.Errorf("unit must be sequence or step, got %q", input.Unit)
		}
		if err != nil {
			return nil, CursorResult{}, err
		}
		return nil, cursorResult(cursor), nil
	}
}

// SimulateSkipTaskInput is empty.
type SimulateSkipTaskInput struct{}

// SimulateSkipTaskResult names the dropped task.
type SimulateSkipTaskResult struct {
	Skipped string `json:"skipped,omitempty" jsonschema:"name of the dropped task"`
}

// SimulateSkipTaskTool defines the MCP tool schema for skipping a simulated task.
func SimulateSkipTaskTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "simulate_skip_task",
		Description: "Drops the task the simulation would run next.",
	}
}

// SimulateSkipTaskHandler drops the next simulated task.
func SimulateSkipTaskHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[SimulateSkipTaskInput, SimulateSkipTaskResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ SimulateSkipTaskInput) (*mcp.CallToolResult, SimulateSkipTaskResult, error) {
		name, err := o.SkipSimulatedTask(ctx)
		if err != nil {
			return nil, SimulateSkipTaskResult{}, err
		}
		return nil, SimulateSkipTaskResult{Skipped: name}, nil
	}
}
