package aggregate

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "github.com/skylog-dev/skylog/internal/platform/errors"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
)

func TestCommentAdd_EmitsCommentAddedEvent(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	comment := NewComment("com-1", fixedClock(now))

	if err := comment.Add("aircraft", "abc123", "louis", "  first sighting over the lake  "); err != nil {
		t.Fatalf("add: %v", err)
	}

	uncommitted := comment.UncommittedEvents()
	if len(uncommitted) != 1 {
		t.Fatalf("expected 1 uncommitted event, got %d", len(uncommitted))
	}
	evt := uncommitted[0]
	if evt.Type != event.TypeCommentAdded {
		t.Fatalf("expected %s, got %s", event.TypeCommentAdded, evt.Type)
	}
	if evt.EntityType != event.EntityTypeComment || evt.EntityID != "com-1" {
		t.Fatalf("expected comment stream addressing, got %s/%s", evt.EntityType, evt.EntityID)
	}
	if evt.Source != event.SourceUser {
		t.Fatalf("expected user source, got %s", evt.Source)
	}
	if !evt.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred-at %v, got %v", now, evt.OccurredAt)
	}

	var payload event.CommentAddedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.EntityType != "aircraft" || payload.EntityID != "abc123" {
		t.Fatalf("expected target aircraft/abc123, got %s/%s", payload.EntityType, payload.EntityID)
	}
	if payload.Text != "first sighting over the lake" {
		t.Fatalf("expected trimmed text, got %q", payload.Text)
	}

	if !comment.Exists() || comment.Deleted() {
		t.Fatalf("expected live comment state, got exists=%v deleted=%v", comment.Exists(), comment.Deleted())
	}
	if comment.Text() != "first sighting over the lake" {
		t.Fatalf("expected state to reflect emitted event, got %q", comment.Text())
	}
}

func TestCommentLifecycle_AddEditDelete(t *testing.T) {
	comment := NewComment("com-1", fixedClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	if err := comment.Add("aircraft", "abc123", "louis", "first"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := comment.Edit("second"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := comment.Delete(); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if comment.Version() != 3 {
		t.Fatalf("expected version 3, got %d", comment.Version())
	}
	uncommitted := comment.UncommittedEvents()
	if len(uncommitted) != 3 {
		t.Fatalf("expected 3 uncommitted events, got %d", len(uncommitted))
	}
	wantTypes := []event.Type{event.TypeCommentAdded, event.TypeCommentEdited, event.TypeCommentDeleted}
	for i, want := range wantTypes {
		if uncommitted[i].Type != want {
			t.Fatalf("expected event %d to be %s, got %s", i, want, uncommitted[i].Type)
		}
	}
	if comment.Text() != "second" {
		t.Fatalf("expected text from edit, got %q", comment.Text())
	}
	if !comment.Deleted() {
		t.Fatal("expected comment deleted")
	}
}

func TestCommentAdd_SecondAddRejected(t *testing.T) {
	comment := NewComment("com-1", nil)
	if err := comment.Add("aircraft", "abc123", "louis", "first"); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := comment.Add("aircraft", "abc123", "louis", "again")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, apperrors.New(apperrors.CodeCommentAlreadyExists, "")) {
		t.Fatalf("expected COMMENT_ALREADY_EXISTS, got %v", err)
	}
	if apperrors.CategoryOf(err) != apperrors.CategoryBusinessRule {
		t.Fatalf("expected business rule category, got %v", apperrors.CategoryOf(err))
	}
	if got := len(comment.UncommittedEvents()); got != 1 {
		t.Fatalf("expected rejected command to emit nothing, got %d events", got)
	}
}

func TestCommentEdit_BeforeAddRejected(t *testing.T) {
	comment := NewComment("com-1", nil)

	err := comment.Edit("text")
	if !errors.Is(err, apperrors.New(apperrors.CodeCommentMissing, "")) {
		t.Fatalf("expected COMMENT_MISSING, got %v", err)
	}
}

func TestCommentEdit_AfterDeleteRejected(t *testing.T) {
	comment := NewComment("com-1", nil)
	if err := comment.Add("aircraft", "abc123", "louis", "first"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := comment.Delete(); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err := comment.Edit("again")
	if !errors.Is(err, apperrors.New(apperrors.CodeCommentDeleted, "")) {
		t.Fatalf("expected COMMENT_DELETED, got %v", err)
	}
}

func TestCommentDelete_TwiceRejected(t *testing.T) {
	comment := NewComment("com-1", nil)
	if err := comment.Add("aircraft", "abc123", "louis", "first"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := comment.Delete(); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err := comment.Delete()
	if !errors.Is(err, apperrors.New(apperrors.CodeCommentDeleted, "")) {
		t.Fatalf("expected COMMENT_DELETED, got %v", err)
	}
}

func TestCommentAdd_RequiresTargetAndText(t *testing.T) {
	comment := NewComment("com-1", nil)

	if err := comment.Add("", "", "louis", "text"); !errors.Is(err, apperrors.New(apperrors.CodeInvalidArgument, "")) {
		t.Fatalf("expected INVALID_ARGUMENT for missing target, got %v", err)
	}
	if err := comment.Add("aircraft", "abc123", "louis", "   "); !errors.Is(err, apperrors.New(apperrors.CodeInvalidArgument, "")) {
		t.Fatalf("expected INVALID_ARGUMENT for blank text, got %v", err)
	}
}

func TestCommentLoadFromHistory_HydratesState(t *testing.T) {
	addPayload, _ := json.Marshal(event.CommentAddedPayload{
		CommentID: "com-1", EntityType: "aircraft", EntityID: "abc123", Author: "louis", Text: "first",
	})
	editPayload, _ := json.Marshal(event.CommentEditedPayload{CommentID: "com-1", Text: "revised"})
	history := []event.Event{
		{Type: event.TypeCommentAdded, Seq: 1, EntityType: event.EntityTypeComment, EntityID: "com-1", PayloadJSON: addPayload},
		{Type: event.TypeCommentEdited, Seq: 2, EntityType: event.EntityTypeComment, EntityID: "com-1", PayloadJSON: editPayload},
	}

	comment := NewComment("com-1", nil)
	if err := comment.LoadFromHistory(history); err != nil {
		t.Fatalf("load history: %v", err)
	}

	if comment.Version() != 2 {
		t.Fatalf("expected version 2, got %d", comment.Version())
	}
	if got := len(comment.UncommittedEvents()); got != 0 {
		t.Fatalf("expected nothing uncommitted, got %d", got)
	}
	if comment.Text() != "revised" {
		t.Fatalf("expected hydrated text, got %q", comment.Text())
	}

	err := comment.Add("aircraft", "abc123", "louis", "again")
	if !errors.Is(err, apperrors.New(apperrors.CodeCommentAlreadyExists, "")) {
		t.Fatalf("expected hydrated state to reject re-add, got %v", err)
	}
}

func TestCommentLoadFromHistory_CorruptPayloadFails(t *testing.T) {
	comment := NewComment("com-1", nil)
	err := comment.LoadFromHistory([]event.Event{
		{Type: event.TypeCommentAdded, Seq: 1, PayloadJSON: []byte("{broken")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.CategoryOf(err) != apperrors.CategoryDataCorruption {
		t.Fatalf("expected data corruption category, got %v", apperrors.CategoryOf(err))
	}
}
