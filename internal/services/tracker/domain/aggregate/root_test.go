package aggregate

import (
	"testing"
	"time"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestRootLoadFromHistory_SetsVersionWithNothingUncommitted(t *testing.T) {
	root := NewRoot("stream-1", nil)

	history := []event.Event{
		{Type: event.TypeCommentAdded, Seq: 1},
		{Type: event.TypeCommentEdited, Seq: 2},
		{Type: event.TypeCommentDeleted, Seq: 3},
	}
	if err := root.LoadFromHistory(history); err != nil {
		t.Fatalf("load history: %v", err)
	}
	if root.Version() != 3 {
		t.Fatalf("expected version 3 after hydration, got %d", root.Version())
	}
	if got := len(root.UncommittedEvents()); got != 0 {
		t.Fatalf("expected no uncommitted events after hydration, got %d", got)
	}
}

func TestRootRecord_QueuesUntilMarkedCommitted(t *testing.T) {
	root := NewRoot("stream-1", nil)

	if err := root.Record(event.Event{Type: event.TypeCommentAdded}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := root.Record(event.Event{Type: event.TypeCommentEdited}); err != nil {
		t.Fatalf("record: %v", err)
	}

	uncommitted := root.UncommittedEvents()
	if len(uncommitted) != 2 {
		t.Fatalf("expected 2 uncommitted events, got %d", len(uncommitted))
	}
	if uncommitted[0].Type != event.TypeCommentAdded || uncommitted[1].Type != event.TypeCommentEdited {
		t.Fatalf("expected emission order preserved, got %v then %v", uncommitted[0].Type, uncommitted[1].Type)
	}
	if root.Version() != 2 {
		t.Fatalf("expected version 2, got %d", root.Version())
	}

	root.MarkEventsAsCommitted()
	if got := len(root.UncommittedEvents()); got != 0 {
		t.Fatalf("expected uncommitted list cleared, got %d", got)
	}
	if root.Version() != 2 {
		t.Fatalf("expected version unchanged by commit, got %d", root.Version())
	}
}

func TestRootUncommittedEvents_ReturnsCopy(t *testing.T) {
	root := NewRoot("stream-1", nil)
	if err := root.Record(event.Event{Type: event.TypeCommentAdded}); err != nil {
		t.Fatalf("record: %v", err)
	}

	got := root.UncommittedEvents()
	got[0].Type = event.TypeCommentDeleted

	if root.UncommittedEvents()[0].Type != event.TypeCommentAdded {
		t.Fatal("expected internal uncommitted list to be unaffected by caller mutation")
	}
}
