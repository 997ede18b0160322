package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/orchestrator"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/priority"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "questrunner"
	serverVersion = "0.1.0"
)

// JournalReader lists recent progress journal entries.
type JournalReader interface {
	ListEntries(ctx context.Context, limit int) ([]orchestrator.Entry, error)
}

// Deps are the runner components the tools operate on.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Catalog      *quest.Registry
	Priority     *priority.Store
	// Journal is optional; the journal tool is only registered with it.
	Journal JournalReader
}

// NewServer returns an MCP server with every runner tool registered.
func NewServer(deps Deps) (*mcp.Server, error) {
	if deps.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("quest catalog is required")
	}
	if deps.Priority == nil {
		return nil, fmt.Errorf("priority store is required")
	}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	Register(server, deps)
	return server, nil
}

// Register adds the runner tools to server.
func Register(server *mcp.Server, deps Deps) {
	o := deps.Orchestrator
	mcp.AddTool(server, StatusTool(), StatusHandler(o))
	mcp.AddTool(server, StartTool(), StartHandler(o))
	mcp.AddTool(server, StopTool(), StopHandler(o))
	mcp.AddTool(server, SkipTool(), SkipHandler(o))
	mcp.AddTool(server, NextQuestTool(), NextQuestHandler(o))
	mcp.AddTool(server, GatherTool(), GatherHandler(o))
	mcp.AddTool(server, SignalTool(), SignalHandler(o))
	mcp.AddTool(server, SimulateTool(), SimulateHandler(o))
	mcp.AddTool(server, SimulateMoveTool(), SimulateMoveHandler(o))
	mcp.AddTool(server, SimulateSkipTaskTool(), SimulateSkipTaskHandler(o))
	mcp.AddTool(server, CombatPauseTool(), CombatPauseHandler(o))
	mcp.AddTool(server, CombatResumeTool(), CombatResumeHandler(o))

	mcp.AddTool(server, PriorityListTool(), PriorityListHandler(deps.Priority, o))
	mcp.AddTool(server, PriorityAddTool(), PriorityAddHandler(deps.Priority, deps.Catalog))
	mcp.AddTool(server, PriorityRemoveTool(), PriorityRemoveHandler(deps.Priority))
	mcp.AddTool(server, PriorityMoveTool(), PriorityMoveHandler(deps.Priority))
	mcp.AddTool(server, PriorityClearTool(), PriorityClearHandler(deps.Priority))
	mcp.AddTool(server, PriorityRemoveFinishedTool(), PriorityRemoveFinishedHandler(deps.Priority, o))
	mcp.AddTool(server, PriorityExportTool(), PriorityExportHandler(deps.Priority))
	mcp.AddTool(server, PriorityImportTool(), PriorityImportHandler(deps.Priority, deps.Catalog))

	mcp.AddTool(server, QuestSearchTool(), QuestSearchHandler(deps.Catalog, deps.Priority))
	mcp.AddTool(server, ValidationReportTool(), ValidationReportHandler(deps.Catalog))
	if deps.Journal != nil {
		mcp.AddTool(server, JournalTool(), JournalHandler(deps.Journal))
	}
}

// QuestSummary is the compact view of a quest returned by several tools.
type QuestSummary struct {
	ID             string `json:"id" jsonschema:"quest identifier (123, L123, S123, A3x2)"`
	Name           string `json:"name" jsonschema:"quest name"`
	IsMainScenario bool   `json:"is_main_scenario,omitempty" jsonschema:"whether the quest is part of the main scenario"`
	Disabled       bool   `json:"disabled,omitempty" jsonschema:"whether the quest definition is disabled"`
	Completed      bool   `json:"completed,omitempty" jsonschema:"whether the quest was completed in this session"`
}

func summarize(q *quest.Quest) QuestSummary {
	return QuestSummary{
		ID:             q.ID.String(),
		Name:           q.Info.Name,
		IsMainScenario: q.Info.IsMainScenario,
		Disabled:       q.Root.Disabled,
	}
}

func parseQuestID(value string) (quest.ElementID, error) {
	id, err := quest.ParseElementID(value)
	if err != nil {
		return quest.ElementID{}, fmt.Errorf("quest_id: %w", err)
	}
	return id, nil
}

// parseOptionalQuestID treats a blank value as the zero identifier.
func parseOptionalQuestID(value string) (quest.ElementID, error) {
	if strings.TrimSpace(value) == "" {
		return quest.ElementID{}, nil
	}
	return parseQuestID(value)
}
