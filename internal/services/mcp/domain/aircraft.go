package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AircraftStateGetInput identifies one tracked aircraft.
type AircraftStateGetInput struct {
	ICAO24 string `json:"icao24" jsonschema:"transponder address of the aircraft, case-insensitive"`
}

// AircraftStateGetTool defines the MCP tool schema for reading one aircraft.
func AircraftStateGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "aircraft_state_get",
		Description: "Reads the live tracked state of one aircraft by its transponder address",
	}
}

// AircraftStateGetHandler reads one row from the aircraft read model.
func AircraftStateGetHandler(reader AircraftReader) mcp.ToolHandlerFor[AircraftStateGetInput, AircraftStateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AircraftStateGetInput) (*mcp.CallToolResult, AircraftStateResult, error) {
		if reader == nil {
			return nil, AircraftStateResult{}, fmt.Errorf("aircraft reader is not configured")
		}
		icao := strings.TrimSpace(input.ICAO24)
		if icao == "" {
			return nil, AircraftStateResult{}, fmt.Errorf("icao24 is required")
		}

		runCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		rec, err := reader.AircraftState(runCtx, icao)
		if err != nil {
			return nil, AircraftStateResult{}, fmt.Errorf("aircraft state get failed: %w", err)
		}
		return nil, aircraftStateResult(rec), nil
	}
}

// AircraftListInput selects which aircraft rows to list.
type AircraftListInput struct {
	OnlyPresent bool `json:"only_present,omitempty" jsonschema:"restrict the listing to aircraft currently tracked"`
}

// AircraftListResult is the aircraft read model as MCP tool output.
type AircraftListResult struct {
	Total    int                   `json:"total" jsonschema:"number of aircraft returned"`
	Aircraft []AircraftStateResult `json:"aircraft" jsonschema:"aircraft rows sorted by transponder address"`
}

// AircraftListTool defines the MCP tool schema for listing aircraft.
func AircraftListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "aircraft_list",
		Description: "Lists tracked aircraft from the live read model, optionally only those currently present",
	}
}

// AircraftListHandler lists the aircraft read model.
func AircraftListHandler(reader AircraftReader) mcp.ToolHandlerFor[AircraftListInput, AircraftListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AircraftListInput) (*mcp.CallToolResult, AircraftListResult, error) {
		if reader == nil {
			return nil, AircraftListResult{}, fmt.Errorf("aircraft reader is not configured")
		}

		runCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		records, err := reader.ListAircraft(runCtx, input.OnlyPresent)
		if err != nil {
			return nil, AircraftListResult{}, fmt.Errorf("aircraft list failed: %w", err)
		}

		result := AircraftListResult{
			Total:    len(records),
			Aircraft: make([]AircraftStateResult, 0, len(records)),
		}
		for _, rec := range records {
			result.Aircraft = append(result.Aircraft, aircraftStateResult(rec))
		}
		return nil, result, nil
	}
}
