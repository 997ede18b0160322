package tools

import (
	"context"
	"fmt"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/orchestrator"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CombatInput is empty.
type CombatInput struct{}

// CombatPauseTool defines the MCP tool schema for pausing the combat rotation.
func CombatPauseTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "combat_pause",
		Description: "Pauses the combat rotation of the running encounter. The external engine keeps its lease.",
	}
}

// CombatPauseHandler pauses the combat rotation.
func CombatPauseHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[CombatInput, StatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ CombatInput) (*mcp.CallToolResult, StatusResult, error) {
		if err := o.PauseCombat(ctx); err != nil {
			return nil, StatusResult{}, fmt.Errorf("pause combat: %w", err)
		}
		return nil, statusResult(o.Status()), nil
	}
}

// CombatResumeTool defines the MCP tool schema for resuming the combat rotation.
func CombatResumeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "combat_resume",
		Description: "Turns a paused combat rotation back on.",
	}
}

// CombatResumeHandler resumes the combat rotation.
func CombatResumeHandler(o *orchestrator.Orchestrator) mcp.ToolHandlerFor[CombatInput, StatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ CombatInput) (*mcp.CallToolResult, StatusResult, error) {
		if err := o.ResumeCombat(ctx); err != nil {
			return nil, StatusResult{}, fmt.Errorf("resume combat: %w", err)
		}
		return nil, statusResult(o.Status()), nil
	}
}
