package projection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/replay"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// commentEventTypes are the journal types the comment projection consumes.
var commentEventTypes = []event.Type{
	event.TypeCommentAdded,
	event.TypeCommentEdited,
	event.TypeCommentDeleted,
}

// CommentProjection maintains the comment read model. Deletes are soft: the
// row survives with IsDeleted set, and active queries filter it out.
type CommentProjection struct {
	mu       sync.Mutex
	events   storage.EventStore
	comments storage.CommentStore
}

// NewCommentProjection creates a comment projection over the given stores.
func NewCommentProjection(events storage.EventStore, comments storage.CommentStore) *CommentProjection {
	return &CommentProjection{events: events, comments: comments}
}

// Name identifies this projection in dispatch results and checkpoints.
func (p *CommentProjection) Name() string { return "comments" }

// ApplyEvent folds one journal event into the read model. Non-comment
// events are reported unhandled. Stale events, and edits or deletes for ids
// the read model never saw, are tolerated so replay from any starting state
// converges.
func (p *CommentProjection) ApplyEvent(ctx context.Context, evt event.Event) (bool, error) {
	switch evt.Type {
	case event.TypeCommentAdded, event.TypeCommentEdited, event.TypeCommentDeleted:
	default:
		return false, nil
	}
	if p.comments == nil {
		return true, fmt.Errorf("comment store is not configured")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch evt.Type {
	case event.TypeCommentAdded:
		return true, p.applyAdded(ctx, evt)
	case event.TypeCommentEdited:
		return true, p.applyEdited(ctx, evt)
	default:
		return true, p.applyDeleted(ctx, evt)
	}
}

func (p *CommentProjection) applyAdded(ctx context.Context, evt event.Event) error {
	var payload event.CommentAddedPayload
	if err := decodePayload(evt.PayloadJSON, &payload, "comment.added"); err != nil {
		return err
	}
	commentID := commentIDFor(payload.CommentID, evt)
	if commentID == "" {
		return fmt.Errorf("comment id is required")
	}
	existing, err := p.comments.GetComment(ctx, commentID)
	if err == nil && stale(existing.LastEventAt, existing.LastEventSeq, evt) {
		return nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("get comment: %w", err)
	}
	return p.comments.PutComment(ctx, storage.CommentRecord{
		ID:           commentID,
		EntityType:   payload.EntityType,
		EntityID:     payload.EntityID,
		Author:       payload.Author,
		Text:         payload.Text,
		CreatedAt:    evt.OccurredAt,
		UpdatedAt:    evt.OccurredAt,
		LastEventSeq: evt.Seq,
		LastEventAt:  evt.OccurredAt,
	})
}

func (p *CommentProjection) applyEdited(ctx context.Context, evt event.Event) error {
	var payload event.CommentEditedPayload
	if err := decodePayload(evt.PayloadJSON, &payload, "comment.edited"); err != nil {
		return err
	}
	commentID := commentIDFor(payload.CommentID, evt)
	if commentID == "" {
		return fmt.Errorf("comment id is required")
	}
	rec, err := p.comments.GetComment(ctx, commentID)
	if errors.Is(err, storage.ErrNotFound) {
		// The journal, not the read model, is truth. An edit for an unknown
		// id is logged and the event stays consumed.
		log.Printf("comment projection: edit for unknown comment id=%s event=%s", commentID, evt.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}
	if stale(rec.LastEventAt, rec.LastEventSeq, evt) {
		return nil
	}
	rec.Text = payload.Text
	rec.UpdatedAt = evt.OccurredAt
	rec.LastEventSeq = evt.Seq
	rec.LastEventAt = evt.OccurredAt
	return p.comments.PutComment(ctx, rec)
}

func (p *CommentProjection) applyDeleted(ctx context.Context, evt event.Event) error {
	var payload event.CommentDeletedPayload
	if err := decodePayload(evt.PayloadJSON, &payload, "comment.deleted"); err != nil {
		return err
	}
	commentID := commentIDFor(payload.CommentID, evt)
	if commentID == "" {
		return fmt.Errorf("comment id is required")
	}
	rec, err := p.comments.GetComment(ctx, commentID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Printf("comment projection: delete for unknown comment id=%s event=%s", commentID, evt.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}
	if stale(rec.LastEventAt, rec.LastEventSeq, evt) {
		return nil
	}
	deletedAt := evt.OccurredAt
	rec.IsDeleted = true
	rec.DeletedAt = &deletedAt
	rec.UpdatedAt = evt.OccurredAt
	rec.LastEventSeq = evt.Seq
	rec.LastEventAt = evt.OccurredAt
	return p.comments.PutComment(ctx, rec)
}

// Rebuild clears the read model and replays every comment event from the
// journal in insertion order, the same order live dispatch used.
func (p *CommentProjection) Rebuild(ctx context.Context) (replay.Result, error) {
	if p.events == nil {
		return replay.Result{}, fmt.Errorf("event store is not configured")
	}
	if p.comments == nil {
		return replay.Result{}, fmt.Errorf("comment store is not configured")
	}
	if err := p.comments.DeleteAllComments(ctx); err != nil {
		return replay.Result{}, fmt.Errorf("clear comment read model: %w", err)
	}
	return replay.Replay(ctx, p.events, replay.Options{Types: commentEventTypes}, p.applyReplayed)
}

// RebuildForEntity clears and rebuilds the comments attached to one target
// entity. Comment events stream under the comment id, not the target, so
// the pass replays every comment event; rows outside the target are left in
// place because their replayed events are stale against the stored
// positions.
func (p *CommentProjection) RebuildForEntity(ctx context.Context, entityType, entityID string) (replay.Result, error) {
	if p.events == nil {
		return replay.Result{}, fmt.Errorf("event store is not configured")
	}
	if p.comments == nil {
		return replay.Result{}, fmt.Errorf("comment store is not configured")
	}
	entityType = strings.TrimSpace(entityType)
	entityID = strings.TrimSpace(entityID)
	if entityType == "" || entityID == "" {
		return replay.Result{}, fmt.Errorf("entity type and id are required")
	}
	if err := p.comments.DeleteCommentsByEntity(ctx, entityType, entityID); err != nil {
		return replay.Result{}, fmt.Errorf("clear comment read model: %w", err)
	}
	return replay.Replay(ctx, p.events, replay.Options{Types: commentEventTypes}, p.applyReplayed)
}

func (p *CommentProjection) applyReplayed(ctx context.Context, evt event.Event) error {
	_, err := p.ApplyEvent(ctx, evt)
	return err
}

// commentIDFor resolves the comment id from the payload, falling back to the
// envelope stream id.
func commentIDFor(payloadID string, evt event.Event) string {
	if id := strings.TrimSpace(payloadID); id != "" {
		return id
	}
	return strings.TrimSpace(evt.EntityID)
}
