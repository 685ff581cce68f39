package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.sqlite")
	store, err := Open(context.Background(), path, event.NewRegistry())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func marshalPayload(t *testing.T, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func appendTestEvent(t *testing.T, store *Store, eventType event.Type, entityType, entityID string, occurredAt time.Time, payload any) event.Event {
	t.Helper()
	stored, err := store.AppendEvent(context.Background(), event.Event{
		Type:        eventType,
		OccurredAt:  occurredAt,
		Source:      event.SourceSystem,
		EntityType:  entityType,
		EntityID:    entityID,
		PayloadJSON: marshalPayload(t, payload),
	})
	if err != nil {
		t.Fatalf("append %s: %v", eventType, err)
	}
	return stored
}
