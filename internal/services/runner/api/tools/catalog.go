package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/priority"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
	"github.com/louisbranch/questrunner/internal/services/runner/domain/validation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	searchLimit         = 25
	defaultJournalLimit = 20
)

// QuestSearchInput filters quests by name.
type QuestSearchInput struct {
	Query string `json:"query" jsonschema:"case-insensitive part of the quest name"`
}

// QuestSearchResult lists matching quests.
type QuestSearchResult struct {
	Quests    []QuestSummary `json:"quests" jsonschema:"matching quests that can be prioritized"`
	Truncated bool           `json:"truncated,omitempty" jsonschema:"whether more quests matched than were returned"`
}

// QuestSearchTool defines the MCP tool schema for searching the catalog.
func QuestSearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "quest_search",
		Description: "Searches the quest catalog by name. Main scenario quests and quests already prioritized are left out.",
	}
}

// QuestSearchHandler searches the catalog for quests to prioritize.
func QuestSearchHandler(catalog *quest.Registry, store *priority.Store) mcp.ToolHandlerFor[QuestSearchInput, QuestSearchResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input QuestSearchInput) (*mcp.CallToolResult, QuestSearchResult, error) {
		result := QuestSearchResult{Quests: []QuestSummary{}}
		for _, q := range catalog.Search(input.Query) {
			if q.Info.IsMainScenario || store.Contains(q.ID) {
				continue
			}
			if len(result.Quests) == searchLimit {
				result.Truncated = true
				break
			}
			result.Quests = append(result.Quests, summarize(q))
		}
		return nil, result, nil
	}
}

// ValidationReportInput optionally narrows the report to one quest.
type ValidationReportInput struct {
	QuestID string `json:"quest_id,omitempty" jsonschema:"quest to validate; defaults to the whole catalog"`
}

// ValidationIssue is one reported authoring defect.
type ValidationIssue struct {
	QuestID     string `json:"quest_id" jsonschema:"quest with the defect"`
	Sequence    int    `json:"sequence" jsonschema:"affected sequence"`
	Step        *int   `json:"step,omitempty" jsonschema:"affected step, when known"`
	Severity    string `json:"severity" jsonschema:"error or warning"`
	Description string `json:"description" jsonschema:"what is wrong"`
}

// ValidationReportResult lists issues with their counts.
type ValidationReportResult struct {
	Quests   int               `json:"quests" jsonschema:"number of quests checked"`
	Errors   int               `json:"errors" jsonschema:"number of errors"`
	Warnings int               `json:"warnings" jsonschema:"number of warnings"`
	Issues   []ValidationIssue `json:"issues" jsonschema:"issues in catalog order"`
}

// ValidationReportTool defines the MCP tool schema for the validation report.
func ValidationReportTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "validation_report",
		Description: "Checks quest sequence numbering and lists the issues found.",
	}
}

// ValidationReportHandler validates the catalog or one quest.
func ValidationReportHandler(catalog *quest.Registry) mcp.ToolHandlerFor[ValidationReportInput, ValidationReportResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ValidationReportInput) (*mcp.CallToolResult, ValidationReportResult, error) {
		var quests []*quest.Quest
		if input.QuestID == "" {
			quests = catalog.All()
		} else {
			id, err := parseQuestID(input.QuestID)
			if err != nil {
				return nil, ValidationReportResult{}, err
			}
			q, ok := catalog.Get(id)
			if !ok {
				return nil, ValidationReportResult{}, fmt.Errorf("quest %s is not in the catalog", id)
			}
			quests = []*quest.Quest{q}
		}

		issues := validation.ValidateAll(quests)
		summary := validation.Summarize(issues)
		result := ValidationReportResult{
			Quests:   len(quests),
			Errors:   summary.Errors,
			Warnings: summary.Warnings,
			Issues:   make([]ValidationIssue, 0, len(issues)),
		}
		for _, issue := range issues {
			result.Issues = append(result.Issues, ValidationIssue{
				QuestID:     issue.QuestID.String(),
				Sequence:    issue.Sequence,
				Step:        issue.Step,
				Severity:    issue.Severity.String(),
				Description: issue.Description,
			})
		}
		return nil, result, nil
	}
}

// JournalInput limits the journal listing.
type JournalInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum entries to return (default 20)"`
}

// JournalEntry is one progress event.
type JournalEntry struct {
	Track    string `json:"track" jsonschema:"progress track"`
	QuestID  string `json:"quest_id" jsonschema:"quest identifier"`
	Sequence int    `json:"sequence" jsonschema:"sequence number"`
	Step     int    `json:"step" jsonschema:"step index"`
	Kind     string `json:"kind" jsonschema:"start, stop, advance, skip or complete"`
	Reason   string `json:"reason,omitempty" jsonschema:"recorded reason"`
	TraceID  string `json:"trace_id,omitempty" jsonschema:"trace of the operation"`
	At       string `json:"at" jsonschema:"RFC3339 timestamp"`
}

// JournalResult lists recent progress events, newest first.
type JournalResult struct {
	Entries []JournalEntry `json:"entries" jsonschema:"journal entries, newest first"`
}

// JournalTool defines the MCP tool schema for reading the progress journal.
func JournalTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "journal",
		Description: "Lists recent progress events such as starts, stops with their reasons, advances and skips.",
	}
}

// JournalHandler reads the journal.
func JournalHandler(journal JournalReader) mcp.ToolHandlerFor[JournalInput, JournalResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input JournalInput) (*mcp.CallToolResult, JournalResult, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = defaultJournalLimit
		}
		entries, err := journal.ListEntries(ctx, limit)
		if err != nil {
			return nil, JournalResult{}, fmt.Errorf("list journal: %w", err)
		}
		result := JournalResult{Entries: make([]JournalEntry, 0, len(entries))}
		for _, entry := range entries {
			result.Entries = append(result.Entries, JournalEntry{
				Track:    entry.Track.String(),
				QuestID:  entry.QuestID.String(),
				Sequence: entry.Sequence,
				Step:     entry.Step,
				Kind:     string(entry.Kind),
				Reason:   entry.Reason,
				TraceID:  entry.TraceID,
				At:       entry.At.Format(time.RFC3339),
			})
		}
		return nil, result, nil
	}
}
