package tools

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/questrunner/internal/platform/errors"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/orchestrator"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/priority"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PriorityListInput is empty.
type PriorityListInput struct{}

// PriorityListResult is the ordered priority list.
type PriorityListResult struct {
	Quests []QuestSummary `json:"quests" jsonschema:"prioritized quests in order"`
}

func priorityList(store *priority.Store, o *orchestrator.Orchestrator) PriorityListResult {
	quests := store.Quests()
	result := PriorityListResult{Quests: make([]QuestSummary, 0, len(quests))}
	for _, q := range quests {
		summary := summarize(q)
		if o != nil {
			summary.Completed = o.IsComplete(q.ID)
		}
		result.Quests = append(result.Quests, summary)
	}
	return result
}

// PriorityListTool defines the MCP tool schema for listing priority quests.
func PriorityListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "priority_list",
		Description: "Lists the manually prioritized quests in order.",
	}
}

// PriorityListHandler lists the priority quests.
func PriorityListHandler(store *priority.Store, o *orchestrator.Orchestrator) mcp.ToolHandlerFor[PriorityListInput, PriorityListResult] {
	return func(context.Context, *mcp.CallToolRequest, PriorityListInput) (*mcp.CallToolResult, PriorityListResult, error) {
		return nil, priorityList(store, o), nil
	}
}

// PriorityAddTool defines the MCP tool schema for prioritizing a quest.
func PriorityAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "priority_add",
		Description: "Appends a quest to the priority list. Quests already listed are rejected.",
	}
}

// PriorityAddHandler appends a quest to the priority list.
func PriorityAddHandler(store *priority.Store, catalog *quest.Registry) mcp.ToolHandlerFor[QuestInput, PriorityListResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input QuestInput) (*mcp.CallToolResult, PriorityListResult, error) {
		id, err := parseQuestID(input.QuestID)
		if err != nil {
			return nil, PriorityListResult{}, err
		}
		q, ok := catalog.Get(id)
		if !ok {
			return nil, PriorityListResult{}, apperrors.New(apperrors.CodeQuestNotFound, fmt.Sprintf("quest %s is not in the catalog", id))
		}
		if err := store.Add(q); err != nil {
			return nil, PriorityListResult{}, err
		}
		return nil, priorityList(store, nil), nil
	}
}

// PriorityRemoveResult reports whether the quest was listed.
type PriorityRemoveResult struct {
	Removed bool `json:"removed" jsonschema:"whether the quest was in the list"`
}

// PriorityRemoveTool defines the MCP tool schema for removing a priority quest.
func PriorityRemoveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "priority_remove",
		Description: "Removes a quest from the priority list.",
	}
}

// PriorityRemoveHandler removes one quest.
func PriorityRemoveHandler(store *priority.Store) mcp.ToolHandlerFor[QuestInput, PriorityRemoveResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input QuestInput) (*mcp.CallToolResult, PriorityRemoveResult, error) {
		id, err := parseQuestID(input.QuestID)
		if err != nil {
			return nil, PriorityRemoveResult{}, err
		}
		return nil, PriorityRemoveResult{Removed: store.Remove(id)}, nil
	}
}

// PriorityMoveInput moves one quest within the list.
type PriorityMoveInput struct {
	QuestID string `json:"quest_id" jsonschema:"quest to move"`
	Index   int    `json:"index" jsonschema:"new zero-based position, clamped to the list"`
}

// PriorityMoveTool defines the MCP tool schema for reordering the list.
func PriorityMoveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "priority_move",
		Description: "Moves a prioritized quest to a new position.",
	}
}

// PriorityMoveHandler reorders the list.
func PriorityMoveHandler(store *priority.Store) mcp.ToolHandlerFor[PriorityMoveInput, PriorityListResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input PriorityMoveInput) (*mcp.CallToolResult, PriorityListResult, error) {
		id, err := parseQuestID(input.QuestID)
		if err != nil {
			return nil, PriorityListResult{}, err
		}
		if err := store.Reorder(id, input.Index); err != nil {
			return nil, PriorityListResult{}, err
		}
		return nil, priorityList(store, nil), nil
	}
}

// PriorityClearInput is empty.
type PriorityClearInput struct{}

// PriorityCountResult reports how many quests were removed.
type PriorityCountResult struct {
	Removed int `json:"removed" jsonschema:"number of quests removed"`
}

// PriorityClearTool defines the MCP tool schema for clearing the list.
func PriorityClearTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "priority_clear",
		Description: "Removes every quest from the priority list.",
	}
}

// PriorityClearHandler empties the list.
func PriorityClearHandler(store *priority.Store) mcp.ToolHandlerFor[PriorityClearInput, PriorityCountResult] {
	return func(context.Context, *mcp.CallToolRequest, PriorityClearInput) (*mcp.CallToolResult, PriorityCountResult, error) {
		removed := store.Len()
		store.Clear()
		return nil, PriorityCountResult{Removed: removed}, nil
	}
}

// PriorityRemoveFinishedTool defines the MCP tool schema for pruning
// completed quests.
func PriorityRemoveFinishedTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "priority_remove_finished",
		Description: "Removes quests completed in this session from the priority list.",
	}
}

// PriorityRemoveFinishedHandler prunes completed quests.
func PriorityRemoveFinishedHandler(store *priority.Store, o *orchestrator.Orchestrator) mcp.ToolHandlerFor[PriorityClearInput, PriorityCountResult] {
	return func(context.Context, *mcp.CallToolRequest, PriorityClearInput) (*mcp.CallToolResult, PriorityCountResult, error) {
		removed := store.RemoveWhere(func(q *quest.Quest) bool {
			return o.IsComplete(q.ID)
		})
		return nil, PriorityCountResult{Removed: removed}, nil
	}
}

// PriorityExportInput is empty.
type PriorityExportInput struct{}

// PriorityExportResult carries the clipboard text.
type PriorityExportResult struct {
	Text  string `json:"text" jsonschema:"clipboard text for priority_import"`
	Count int    `json:"count" jsonschema:"number of exported quests"`
}

// PriorityExportTool defines the MCP tool schema for exporting the list.
func PriorityExportTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "priority_export",
		Description: "Encodes the priority list as clipboard text.",
	}
}

// PriorityExportHandler encodes the list.
func PriorityExportHandler(store *priority.Store) mcp.ToolHandlerFor[PriorityExportInput, PriorityExportResult] {
	return func(context.Context, *mcp.CallToolRequest, PriorityExportInput) (*mcp.CallToolResult, PriorityExportResult, error) {
		ids := store.IDs()
		return nil, PriorityExportResult{Text: priority.Export(ids), Count: len(ids)}, nil
	}
}

// PriorityImportInput carries clipboard text.
type PriorityImportInput struct {
	Text string `json:"text" jsonschema:"clipboard text produced by priority_export"`
}

// PriorityImportResult lists the quests that were appended.
type PriorityImportResult struct {
	Imported []string `json:"imported" jsonschema:"identifiers appended to the list"`
}

// PriorityImportTool defines the MCP tool schema for importing the list.
func PriorityImportTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "priority_import",
		Description: "Appends quests from clipboard text. Malformed text imports nothing; unknown and listed quests are skipped.",
	}
}

// PriorityImportHandler decodes clipboard text into the list.
func PriorityImportHandler(store *priority.Store, catalog *quest.Registry) mcp.ToolHandlerFor[PriorityImportInput, PriorityImportResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input PriorityImportInput) (*mcp.CallToolResult, PriorityImportResult, error) {
		added := store.ImportClipboard(input.Text, catalog)
		result := PriorityImportResult{Imported: make([]string, 0, len(added))}
		for _, id := range added {
			result.Imported = append(result.Imported, id.String())
		}
		return nil, result, nil
	}
}
