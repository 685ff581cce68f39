package aggregate

import (
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/skylog-dev/skylog/internal/platform/errors"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
)

// Comment is the aggregate for one comment stream. It enforces the comment
// lifecycle: a comment is added once, may be edited while it is live, and
// is deleted at most once. Deletion is terminal for writes; the read side
// keeps the record as a soft delete.
type Comment struct {
	Root

	targetEntityType string
	targetEntityID   string
	author           string
	text             string
	exists           bool
	deleted          bool

	now func() time.Time
}

// NewComment builds an empty comment aggregate for the given comment id.
// A nil clock defaults to time.Now.
func NewComment(commentID string, now func() time.Time) *Comment {
	if now == nil {
		now = time.Now
	}
	c := &Comment{now: now}
	c.Root = NewRoot(commentID, c.applyEvent)
	return c
}

// Exists reports whether the comment has been added.
func (c *Comment) Exists() bool { return c.exists }

// Deleted reports whether the comment has been deleted.
func (c *Comment) Deleted() bool { return c.deleted }

// Text returns the current comment text.
func (c *Comment) Text() string { return c.text }

// Author returns the comment author recorded at add time.
func (c *Comment) Author() string { return c.author }

// Target returns the entity the comment is attached to.
func (c *Comment) Target() (entityType, entityID string) {
	return c.targetEntityType, c.targetEntityID
}

// Add records the comment against a target entity. It rejects a second add
// on the same stream and requires a target and non-empty text.
func (c *Comment) Add(entityType, entityID, author, text string) error {
	if c.exists {
		return apperrors.WithMetadata(apperrors.CodeCommentAlreadyExists, "comment already exists",
			map[string]string{"comment_id": c.ID()})
	}
	entityType = strings.TrimSpace(entityType)
	entityID = strings.TrimSpace(entityID)
	if entityType == "" || entityID == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "comment target entity is required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "comment text is required")
	}

	payload := event.CommentAddedPayload{
		CommentID:  c.ID(),
		EntityType: entityType,
		EntityID:   entityID,
		Author:     strings.TrimSpace(author),
		Text:       text,
	}
	payloadJSON, _ := json.Marshal(payload)
	return c.Record(event.Event{
		Type:        event.TypeCommentAdded,
		OccurredAt:  c.now().UTC(),
		Source:      event.SourceUser,
		EntityType:  event.EntityTypeComment,
		EntityID:    c.ID(),
		PayloadJSON: payloadJSON,
	})
}

// Edit replaces the comment text. Editing a comment that was never added
// or has been deleted is a business rule violation.
func (c *Comment) Edit(text string) error {
	if !c.exists {
		return apperrors.WithMetadata(apperrors.CodeCommentMissing, "comment does not exist",
			map[string]string{"comment_id": c.ID()})
	}
	if c.deleted {
		return apperrors.WithMetadata(apperrors.CodeCommentDeleted, "cannot edit a deleted comment",
			map[string]string{"comment_id": c.ID()})
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "comment text is required")
	}

	payloadJSON, _ := json.Marshal(event.CommentEditedPayload{CommentID: c.ID(), Text: text})
	return c.Record(event.Event{
		Type:        event.TypeCommentEdited,
		OccurredAt:  c.now().UTC(),
		Source:      event.SourceUser,
		EntityType:  event.EntityTypeComment,
		EntityID:    c.ID(),
		PayloadJSON: payloadJSON,
	})
}

// Delete marks the comment deleted. Deleting twice or deleting a comment
// that was never added is a business rule violation.
func (c *Comment) Delete() error {
	if !c.exists {
		return apperrors.WithMetadata(apperrors.CodeCommentMissing, "comment does not exist",
			map[string]string{"comment_id": c.ID()})
	}
	if c.deleted {
		return apperrors.WithMetadata(apperrors.CodeCommentDeleted, "comment already deleted",
			map[string]string{"comment_id": c.ID()})
	}

	payloadJSON, _ := json.Marshal(event.CommentDeletedPayload{CommentID: c.ID()})
	return c.Record(event.Event{
		Type:        event.TypeCommentDeleted,
		OccurredAt:  c.now().UTC(),
		Source:      event.SourceUser,
		EntityType:  event.EntityTypeComment,
		EntityID:    c.ID(),
		PayloadJSON: payloadJSON,
	})
}

func (c *Comment) applyEvent(evt event.Event) error {
	switch evt.Type {
	case event.TypeCommentAdded:
		var payload event.CommentAddedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return apperrors.Wrap(apperrors.CodeDataCorruption, "decode comment.added payload", err)
		}
		c.exists = true
		c.deleted = false
		c.targetEntityType = payload.EntityType
		c.targetEntityID = payload.EntityID
		c.author = payload.Author
		c.text = payload.Text
	case event.TypeCommentEdited:
		var payload event.CommentEditedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return apperrors.Wrap(apperrors.CodeDataCorruption, "decode comment.edited payload", err)
		}
		c.text = payload.Text
	case event.TypeCommentDeleted:
		c.deleted = true
	}
	return nil
}
