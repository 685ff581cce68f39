package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// defaultCommentEntityType is assumed when a tool call omits the entity kind.
const defaultCommentEntityType = "aircraft"

// CommentsListInput scopes the listing to one commented entity.
type CommentsListInput struct {
	EntityType     string `json:"entity_type,omitempty" jsonschema:"kind of entity the comments attach to, defaults to aircraft"`
	EntityID       string `json:"entity_id" jsonschema:"identifier of the entity within its kind, such as a transponder address"`
	IncludeDeleted bool   `json:"include_deleted,omitempty" jsonschema:"include soft-deleted comments in the listing"`
}

// CommentResult is one comment as MCP tool output.
type CommentResult struct {
	ID        string `json:"id" jsonschema:"comment identifier"`
	Author    string `json:"author,omitempty" jsonschema:"author the comment is attributed to"`
	Text      string `json:"text" jsonschema:"comment text, empty once deleted"`
	IsDeleted bool   `json:"is_deleted" jsonschema:"whether the comment was soft-deleted"`
	CreatedAt string `json:"created_at" jsonschema:"RFC3339 timestamp when the comment was added"`
	UpdatedAt string `json:"updated_at" jsonschema:"RFC3339 timestamp when the comment was last changed"`
	DeletedAt string `json:"deleted_at,omitempty" jsonschema:"RFC3339 timestamp when the comment was deleted"`
}

// CommentsListResult lists the comments attached to one entity.
type CommentsListResult struct {
	EntityType string          `json:"entity_type" jsonschema:"kind of entity the comments attach to"`
	EntityID   string          `json:"entity_id" jsonschema:"identifier of the entity within its kind"`
	Total      int             `json:"total" jsonschema:"number of comments returned"`
	Comments   []CommentResult `json:"comments" jsonschema:"comments ordered oldest first"`
}

// CommentsListTool defines the MCP tool schema for listing comments.
func CommentsListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "comments_list",
		Description: "Lists the comments attached to an entity, optionally including soft-deleted ones",
	}
}

// CommentsListHandler lists the comment read model for one entity.
func CommentsListHandler(reader CommentReader) mcp.ToolHandlerFor[CommentsListInput, CommentsListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CommentsListInput) (*mcp.CallToolResult, CommentsListResult, error) {
		if reader == nil {
			return nil, CommentsListResult{}, fmt.Errorf("comment reader is not configured")
		}
		entityType := strings.TrimSpace(input.EntityType)
		if entityType == "" {
			entityType = defaultCommentEntityType
		}
		entityID := strings.TrimSpace(input.EntityID)
		if entityID == "" {
			return nil, CommentsListResult{}, fmt.Errorf("entity_id is required")
		}

		runCtx, cancel := context.WithTimeout(ctx, queryTimeout)
		defer cancel()

		records, err := reader.CommentsForEntity(runCtx, entityType, entityID, input.IncludeDeleted)
		if err != nil {
			return nil, CommentsListResult{}, fmt.Errorf("comments list failed: %w", err)
		}

		result := CommentsListResult{
			EntityType: entityType,
			EntityID:   entityID,
			Total:      len(records),
			Comments:   make([]CommentResult, 0, len(records)),
		}
		for _, rec := range records {
			result.Comments = append(result.Comments, commentResult(rec))
		}
		return nil, result, nil
	}
}

func commentResult(rec storage.CommentRecord) CommentResult {
	return CommentResult{
		ID:        rec.ID,
		Author:    rec.Author,
		Text:      rec.Text,
		IsDeleted: rec.IsDeleted,
		CreatedAt: formatTimestamp(rec.CreatedAt),
		UpdatedAt: formatTimestamp(rec.UpdatedAt),
		DeletedAt: formatTimestampPtr(rec.DeletedAt),
	}
}
