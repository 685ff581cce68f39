package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FavouritesListInput carries no parameters; the favourites listing is global.
type FavouritesListInput struct{}

// FavouriteResult is one favourite presence row as MCP tool output.
type FavouriteResult struct {
	EntityType string `json:"entity_type" jsonschema:"kind of the favourited entity"`
	EntityID   string `json:"entity_id" jsonschema:"identifier of the favourited entity within its kind"`
	Note       string `json:"note,omitempty" jsonschema:"free-form note attached when favouriting"`
	CreatedAt  string `json:"created_at" jsonschema:"RFC3339 timestamp when the entity was first favourited"`
	UpdatedAt  string `json:"updated_at" jsonschema:"RFC3339 timestamp when the favourite was last refreshed"`
}

// FavouritesListResult lists every favourited entity.
type FavouritesListResult struct {
	Total      int               `json:"total" jsonschema:"number of favourited entities"`
	Favourites []FavouriteResult `json:"favourites" jsonschema:"presence rows ordered oldest first"`
}

// FavouritesListTool defines the MCP tool schema for listing favourites.
func FavouritesListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "favourites_list",
		Description: "Lists every favourited entity with its note",
	}
}

// FavouritesListHandler lists the favourite read model.
func FavouritesListHandler(reader FavouriteReader) mcp.ToolHandlerFor[FavouritesListInput, FavouritesListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ FavouritesListInput) (*mcp.CallToolResult, FavouritesListResult, error) {
		if reader == nil {
			return nil, FavouritesListResult{}, fmt.Errorf("favourite reader is not configured")
		}

		runCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		records, err := reader.Favourites(runCtx)
		if err != nil {
			return nil, FavouritesListResult{}, fmt.Errorf("favourites list failed: %w", err)
		}

		result := FavouritesListResult{
			Total:      len(records),
			Favourites: make([]FavouriteResult, 0, len(records)),
		}
		for _, rec := range records {
			result.Favourites = append(result.Favourites, FavouriteResult{
				EntityType: rec.EntityType,
				EntityID:   rec.EntityID,
				Note:       rec.Note,
				CreatedAt:  formatTimestamp(rec.CreatedAt),
				UpdatedAt:  formatTimestamp(rec.UpdatedAt),
			})
		}
		return nil, result, nil
	}
}
