package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SnapshotAtInput names the instant to reconstruct.
type SnapshotAtInput struct {
	At string `json:"at" jsonschema:"RFC3339 instant to reconstruct the sky at"`
}

// SnapshotAtResult is a reconstructed point-in-time view of every aircraft.
type SnapshotAtResult struct {
	At             string                `json:"at" jsonschema:"RFC3339 instant the snapshot reconstructs"`
	Total          int                   `json:"total" jsonschema:"number of aircraft in the snapshot"`
	WithPosition   int                   `json:"with_position" jsonschema:"aircraft carrying usable coordinates"`
	EventsReplayed int                   `json:"events_replayed" jsonschema:"journal events folded to build the snapshot"`
	Aircraft       []AircraftStateResult `json:"aircraft" jsonschema:"per-aircraft states sorted by transponder address, departed aircraft included with present false"`
}

// SnapshotAtTool defines the MCP tool schema for temporal reconstruction.
func SnapshotAtTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "snapshot_at",
		Description: "Reconstructs the state of every aircraft at a past instant by replaying the journal",
	}
}

// SnapshotAtHandler replays the journal up to the requested instant.
func SnapshotAtHandler(reader SnapshotReader) mcp.ToolHandlerFor[SnapshotAtInput, SnapshotAtResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SnapshotAtInput) (*mcp.CallToolResult, SnapshotAtResult, error) {
		if reader == nil {
			return nil, SnapshotAtResult{}, fmt.Errorf("snapshot reader is not configured")
		}
		at, err := parseInstant("at", input.At)
		if err != nil {
			return nil, SnapshotAtResult{}, err
		}

		runCtx, cancel := context.WithTimeout(ctx, replayTimeout)
		defer cancel()

		snap, err := reader.SnapshotAt(runCtx, at)
		if err != nil {
			return nil, SnapshotAtResult{}, fmt.Errorf("snapshot at failed: %w", err)
		}

		result := SnapshotAtResult{
			At:             formatTimestamp(snap.At),
			Total:          snap.Total,
			WithPosition:   snap.WithPosition,
			EventsReplayed: snap.EventsReplayed,
			Aircraft:       make([]AircraftStateResult, 0, len(snap.Aircraft)),
		}
		for _, state := range snap.Aircraft {
			result.Aircraft = append(result.Aircraft, replayedStateResult(state))
		}
		return nil, result, nil
	}
}

// AircraftFindNearInput is a spatial query against a reconstructed instant.
type AircraftFindNearInput struct {
	Lat      float64 `json:"lat" jsonschema:"query latitude in decimal degrees"`
	Lon      float64 `json:"lon" jsonschema:"query longitude in decimal degrees"`
	RadiusKm float64 `json:"radius_km" jsonschema:"search radius in kilometres, must be positive"`
	At       string  `json:"at,omitempty" jsonschema:"RFC3339 instant to search at, defaults to now"`
}

// NearbyAircraftResult is one aircraft inside the query radius.
type NearbyAircraftResult struct {
	Aircraft   AircraftStateResult `json:"aircraft" jsonschema:"reconstructed state at the query instant"`
	DistanceKm float64             `json:"distance_km" jsonschema:"great-circle distance from the query point in kilometres"`
}

// AircraftFindNearResult lists aircraft near a point, nearest first.
type AircraftFindNearResult struct {
	At       string                 `json:"at" jsonschema:"RFC3339 instant the search reconstructs"`
	Total    int                    `json:"total" jsonschema:"number of aircraft found inside the radius"`
	Aircraft []NearbyAircraftResult `json:"aircraft" jsonschema:"matches ordered nearest first"`
}

// AircraftFindNearTool defines the MCP tool schema for spatial queries.
func AircraftFindNearTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "aircraft_find_near",
		Description: "Finds aircraft within a radius of a point at a given instant, nearest first",
	}
}

// AircraftFindNearHandler runs a spatial query over a reconstructed snapshot.
func AircraftFindNearHandler(reader SnapshotReader) mcp.ToolHandlerFor[AircraftFindNearInput, AircraftFindNearResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AircraftFindNearInput) (*mcp.CallToolResult, AircraftFindNearResult, error) {
		if reader == nil {
			return nil, AircraftFindNearResult{}, fmt.Errorf("snapshot reader is not configured")
		}
		at, err := parseOptionalInstant("at", input.At, time.Now().UTC())
		if err != nil {
			return nil, AircraftFindNearResult{}, err
		}

		runCtx, cancel := context.WithTimeout(ctx, replayTimeout)
		defer cancel()

		found, err := reader.FindAircraftAtLocation(runCtx, input.Lat, input.Lon, input.RadiusKm, at)
		if err != nil {
			return nil, AircraftFindNearResult{}, fmt.Errorf("aircraft find near failed: %w", err)
		}

		result := AircraftFindNearResult{
			At:       formatTimestamp(at),
			Total:    len(found),
			Aircraft: make([]NearbyAircraftResult, 0, len(found)),
		}
		for _, nearby := range found {
			result.Aircraft = append(result.Aircraft, NearbyAircraftResult{
				Aircraft:   replayedStateResult(nearby.State),
				DistanceKm: nearby.DistanceKm,
			})
		}
		return nil, result, nil
	}
}

// SnapshotCompareInput names two instants to diff.
type SnapshotCompareInput struct {
	Before      string  `json:"before" jsonschema:"RFC3339 instant of the earlier snapshot"`
	After       string  `json:"after" jsonschema:"RFC3339 instant of the later snapshot"`
	ThresholdKm float64 `json:"threshold_km,omitempty" jsonschema:"minimum great-circle distance in kilometres for movement to count, defaults to 0"`
}

// MovementResult is one aircraft whose position changed between snapshots.
type MovementResult struct {
	ICAO24     string  `json:"icao24" jsonschema:"transponder address"`
	FromLat    float64 `json:"from_lat" jsonschema:"latitude in the earlier snapshot"`
	FromLon    float64 `json:"from_lon" jsonschema:"longitude in the earlier snapshot"`
	ToLat      float64 `json:"to_lat" jsonschema:"latitude in the later snapshot"`
	ToLon      float64 `json:"to_lon" jsonschema:"longitude in the later snapshot"`
	DistanceKm float64 `json:"distance_km" jsonschema:"great-circle distance moved in kilometres"`
}

// SnapshotCompareResult summarizes how the sky changed between two instants.
type SnapshotCompareResult struct {
	Before      string           `json:"before" jsonschema:"RFC3339 instant of the earlier snapshot"`
	After       string           `json:"after" jsonschema:"RFC3339 instant of the later snapshot"`
	Appeared    []string         `json:"appeared,omitempty" jsonschema:"aircraft present only in the later snapshot"`
	Disappeared []string         `json:"disappeared,omitempty" jsonschema:"aircraft present only in the earlier snapshot"`
	Moved       []MovementResult `json:"moved,omitempty" jsonschema:"aircraft present in both whose position changed beyond the threshold"`
	Unchanged   int              `json:"unchanged" jsonschema:"aircraft present in both without qualifying movement"`
}

// SnapshotCompareTool defines the MCP tool schema for diffing two instants.
func SnapshotCompareTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "snapshot_compare",
		Description: "Compares the sky at two instants and reports appeared, disappeared, and moved aircraft",
	}
}

// SnapshotCompareHandler reconstructs two instants and diffs them.
func SnapshotCompareHandler(reader SnapshotReader) mcp.ToolHandlerFor[SnapshotCompareInput, SnapshotCompareResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SnapshotCompareInput) (*mcp.CallToolResult, SnapshotCompareResult, error) {
		if reader == nil {
			return nil, SnapshotCompareResult{}, fmt.Errorf("snapshot reader is not configured")
		}
		before, err := parseInstant("before", input.Before)
		if err != nil {
			return nil, SnapshotCompareResult{}, err
		}
		after, err := parseInstant("after", input.After)
		if err != nil {
			return nil, SnapshotCompareResult{}, err
		}

		runCtx, cancel := context.WithTimeout(ctx, replayTimeout)
		defer cancel()

		diff, err := reader.CompareSnapshots(runCtx, before, after, input.ThresholdKm)
		if err != nil {
			return nil, SnapshotCompareResult{}, fmt.Errorf("snapshot compare failed: %w", err)
		}

		result := SnapshotCompareResult{
			Before:      formatTimestamp(before),
			After:       formatTimestamp(after),
			Appeared:    diff.Appeared,
			Disappeared: diff.Disappeared,
			Unchanged:   diff.Unchanged,
		}
		for _, moved := range diff.Moved {
			result.Moved = append(result.Moved, MovementResult{
				ICAO24:     moved.ICAO24,
				FromLat:    moved.FromLat,
				FromLon:    moved.FromLon,
				ToLat:      moved.ToLat,
				ToLon:      moved.ToLon,
				DistanceKm: moved.DistanceKm,
			})
		}
		return nil, result, nil
	}
}
