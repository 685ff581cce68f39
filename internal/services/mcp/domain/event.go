package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
)

// EventsQueryInput is a filtered journal read.
type EventsQueryInput struct {
	Filter   string `json:"filter,omitempty" jsonschema:"AIP-160 filter over type, source, entity_type, entity_id, and ts, for example: type = \"comment.added\" AND ts >= timestamp(\"2026-01-01T00:00:00Z\")"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"maximum events to return, defaults to 50, capped at 200"`
	AfterSeq int64  `json:"after_seq,omitempty" jsonschema:"return only events with journal sequence greater than this, pass the last seq of a page to fetch the next"`
}

// EventResult is one journal event as MCP tool output.
type EventResult struct {
	ID         string `json:"id" jsonschema:"event identifier"`
	Seq        int64  `json:"seq" jsonschema:"journal insertion sequence"`
	Type       string `json:"type" jsonschema:"event type, such as comment.added or aircraft.position_updated"`
	Source     string `json:"source" jsonschema:"what produced the event"`
	EntityType string `json:"entity_type" jsonschema:"aggregate stream type"`
	EntityID   string `json:"entity_id" jsonschema:"aggregate stream identifier"`
	OccurredAt string `json:"occurred_at" jsonschema:"RFC3339 timestamp of when the fact happened"`
	Payload    string `json:"payload,omitempty" jsonschema:"event-specific data as JSON text"`
}

// EventsQueryResult is one page of matching journal events.
type EventsQueryResult struct {
	Events      []EventResult `json:"events" jsonschema:"matching events in occurred-at order"`
	TotalCount  int           `json:"total_count" jsonschema:"events matching the filter across all pages"`
	HasNextPage bool          `json:"has_next_page" jsonschema:"whether more events match beyond this page"`
}

// EventsQueryTool defines the MCP tool schema for journal queries.
func EventsQueryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "events_query",
		Description: "Queries the append-only event journal with an optional AIP-160 filter expression",
	}
}

// EventsQueryHandler runs a filtered journal read.
func EventsQueryHandler(reader EventReader) mcp.ToolHandlerFor[EventsQueryInput, EventsQueryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventsQueryInput) (*mcp.CallToolResult, EventsQueryResult, error) {
		if reader == nil {
			return nil, EventsQueryResult{}, fmt.Errorf("event reader is not configured")
		}

		runCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		page, err := reader.QueryEvents(runCtx, input.Filter, input.PageSize, input.AfterSeq)
		if err != nil {
			return nil, EventsQueryResult{}, fmt.Errorf("events query failed: %w", err)
		}

		result := EventsQueryResult{
			Events:      make([]EventResult, 0, len(page.Events)),
			TotalCount:  page.TotalCount,
			HasNextPage: page.HasNextPage,
		}
		for _, evt := range page.Events {
			result.Events = append(result.Events, eventResult(evt))
		}
		return nil, result, nil
	}
}

func eventResult(evt event.Event) EventResult {
	return EventResult{
		ID:         evt.ID,
		Seq:        evt.Seq,
		Type:       string(evt.Type),
		Source:     string(evt.Source),
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		OccurredAt: formatTimestamp(evt.OccurredAt),
		Payload:    string(evt.PayloadJSON),
	}
}
