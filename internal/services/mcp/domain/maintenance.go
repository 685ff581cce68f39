package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// TrackerStatsInput optionally bounds the counting window.
type TrackerStatsInput struct {
	Since string `json:"since,omitempty" jsonschema:"RFC3339 instant to count events from, defaults to the whole journal"`
}

// TrackerStatsResult reports journal and read-model counts.
type TrackerStatsResult struct {
	EventCount           int64 `json:"event_count" jsonschema:"journal events, within the window when since is set"`
	CommentCount         int64 `json:"comment_count" jsonschema:"active comments in the read model"`
	FavouriteCount       int64 `json:"favourite_count" jsonschema:"favourited entities in the read model"`
	AircraftCount        int64 `json:"aircraft_count" jsonschema:"aircraft ever tracked"`
	PresentAircraftCount int64 `json:"present_aircraft_count" jsonschema:"aircraft currently tracked"`
}

// TrackerStatsTool defines the MCP tool schema for tracker statistics.
func TrackerStatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "tracker_stats",
		Description: "Reports journal and read-model counts, optionally windowed from an instant",
	}
}

// TrackerStatsHandler reads tracker statistics.
func TrackerStatsHandler(reader StatsReader) mcp.ToolHandlerFor[TrackerStatsInput, TrackerStatsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TrackerStatsInput) (*mcp.CallToolResult, TrackerStatsResult, error) {
		if reader == nil {
			return nil, TrackerStatsResult{}, fmt.Errorf("stats reader is not configured")
		}

		var since *time.Time
		if input.Since != "" {
			at, err := parseInstant("since", input.Since)
			if err != nil {
				return nil, TrackerStatsResult{}, err
			}
			since = &at
		}

		runCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		stats, err := reader.Statistics(runCtx, since)
		if err != nil {
			return nil, TrackerStatsResult{}, fmt.Errorf("tracker stats failed: %w", err)
		}
		return nil, trackerStatsResult(stats), nil
	}
}

// ProjectionsRebuildInput carries no parameters; the rebuild always covers
// every registered projection.
type ProjectionsRebuildInput struct{}

// ProjectionsRebuildResult reports the rebuilt read-model counts.
type ProjectionsRebuildResult struct {
	RebuiltAt  string             `json:"rebuilt_at" jsonschema:"RFC3339 timestamp when the rebuild finished"`
	Statistics TrackerStatsResult `json:"statistics" jsonschema:"journal and read-model counts after the rebuild"`
}

// ProjectionsRebuildTool defines the MCP tool schema for rebuilding read models.
func ProjectionsRebuildTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "projections_rebuild",
		Description: "Clears every read model and replays the full journal to rebuild them. The journal itself is never modified.",
	}
}

// ProjectionsRebuildHandler replays the journal into fresh read models. This
// is the only mutating tool; it rewrites derived state, never recorded facts.
func ProjectionsRebuildHandler(rebuilder Rebuilder, stats StatsReader) mcp.ToolHandlerFor[ProjectionsRebuildInput, ProjectionsRebuildResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ProjectionsRebuildInput) (*mcp.CallToolResult, ProjectionsRebuildResult, error) {
		if rebuilder == nil {
			return nil, ProjectionsRebuildResult{}, fmt.Errorf("rebuilder is not configured")
		}

		runCtx, cancel := context.WithTimeout(ctx, replayTimeout)
		defer cancel()

		if err := rebuilder.RebuildAll(runCtx); err != nil {
			return nil, ProjectionsRebuildResult{}, fmt.Errorf("projections rebuild failed: %w", err)
		}

		result := ProjectionsRebuildResult{RebuiltAt: formatTimestamp(time.Now().UTC())}
		if stats != nil {
			counts, err := stats.Statistics(runCtx, nil)
			if err != nil {
				return nil, ProjectionsRebuildResult{}, fmt.Errorf("read statistics after rebuild: %w", err)
			}
			result.Statistics = trackerStatsResult(counts)
		}
		return nil, result, nil
	}
}

func trackerStatsResult(stats storage.TrackerStatistics) TrackerStatsResult {
	return TrackerStatsResult{
		EventCount:           stats.EventCount,
		CommentCount:         stats.CommentCount,
		FavouriteCount:       stats.FavouriteCount,
		AircraftCount:        stats.AircraftCount,
		PresentAircraftCount: stats.PresentAircraftCount,
	}
}
