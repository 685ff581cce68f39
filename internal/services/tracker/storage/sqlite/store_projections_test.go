package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

func TestCommentRoundTripAndSoftDeleteFiltering(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	live := storage.CommentRecord{
		ID:           "com-1",
		EntityType:   "aircraft",
		EntityID:     "abc123",
		Author:       "louis",
		Text:         "first sighting",
		CreatedAt:    now,
		UpdatedAt:    now,
		LastEventSeq: 1,
		LastEventAt:  now,
	}
	if err := store.PutComment(context.Background(), live); err != nil {
		t.Fatalf("put comment: %v", err)
	}

	deletedAt := now.Add(time.Minute)
	deleted := storage.CommentRecord{
		ID:           "com-2",
		EntityType:   "aircraft",
		EntityID:     "abc123",
		Text:         "gone",
		IsDeleted:    true,
		CreatedAt:    now,
		UpdatedAt:    deletedAt,
		DeletedAt:    &deletedAt,
		LastEventSeq: 2,
		LastEventAt:  deletedAt,
	}
	if err := store.PutComment(context.Background(), deleted); err != nil {
		t.Fatalf("put deleted comment: %v", err)
	}

	got, err := store.GetComment(context.Background(), "com-2")
	if err != nil {
		t.Fatalf("get comment: %v", err)
	}
	if !got.IsDeleted || got.DeletedAt == nil || !got.DeletedAt.Equal(deletedAt) {
		t.Fatalf("expected soft-deleted record, got %+v", got)
	}

	active, err := store.ListComments(context.Background(), "aircraft", "abc123", false)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != "com-1" {
		t.Fatalf("expected only live comment, got %+v", active)
	}

	all, err := store.ListComments(context.Background(), "aircraft", "abc123", true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both comments, got %d", len(all))
	}
}

func TestCommentUpsertReplacesExistingRow(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := storage.CommentRecord{
		ID: "com-1", EntityType: "aircraft", EntityID: "abc123",
		Text: "first", CreatedAt: now, UpdatedAt: now, LastEventSeq: 1, LastEventAt: now,
	}
	if err := store.PutComment(context.Background(), rec); err != nil {
		t.Fatalf("put comment: %v", err)
	}

	rec.Text = "edited"
	rec.UpdatedAt = now.Add(time.Minute)
	rec.LastEventSeq = 2
	rec.LastEventAt = rec.UpdatedAt
	if err := store.PutComment(context.Background(), rec); err != nil {
		t.Fatalf("upsert comment: %v", err)
	}

	got, err := store.GetComment(context.Background(), "com-1")
	if err != nil {
		t.Fatalf("get comment: %v", err)
	}
	if got.Text != "edited" || got.LastEventSeq != 2 {
		t.Fatalf("expected upserted row, got %+v", got)
	}

	all, err := store.ListAllComments(context.Background(), true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one row after upsert, got %d", len(all))
	}
}

func TestCommentDeleteScopes(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, rec := range []storage.CommentRecord{
		{ID: "com-1", EntityType: "aircraft", EntityID: "abc123", Text: "a", CreatedAt: now, UpdatedAt: now},
		{ID: "com-2", EntityType: "aircraft", EntityID: "def456", Text: "b", CreatedAt: now, UpdatedAt: now},
	} {
		if err := store.PutComment(context.Background(), rec); err != nil {
			t.Fatalf("put comment: %v", err)
		}
	}

	if err := store.DeleteCommentsByEntity(context.Background(), "aircraft", "abc123"); err != nil {
		t.Fatalf("delete by entity: %v", err)
	}
	remaining, err := store.ListAllComments(context.Background(), true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "com-2" {
		t.Fatalf("expected only com-2 left, got %+v", remaining)
	}

	if err := store.DeleteAllComments(context.Background()); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	empty, err := store.ListAllComments(context.Background(), true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty read model, got %d rows", len(empty))
	}
}

func TestFavouritePresenceRowLifecycle(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := storage.FavouriteRecord{
		EntityType: "aircraft", EntityID: "abc123", Note: "night flight",
		CreatedAt: now, UpdatedAt: now, LastEventSeq: 1, LastEventAt: now,
	}
	if err := store.PutFavourite(context.Background(), rec); err != nil {
		t.Fatalf("put favourite: %v", err)
	}

	// A second put for the same entity must keep one row.
	rec.Note = "updated note"
	rec.UpdatedAt = now.Add(time.Minute)
	rec.LastEventSeq = 2
	if err := store.PutFavourite(context.Background(), rec); err != nil {
		t.Fatalf("upsert favourite: %v", err)
	}

	listed, err := store.ListFavourites(context.Background())
	if err != nil {
		t.Fatalf("list favourites: %v", err)
	}
	if len(listed) != 1 || listed[0].Note != "updated note" {
		t.Fatalf("expected one deduplicated row, got %+v", listed)
	}

	if err := store.DeleteFavourite(context.Background(), "aircraft", "abc123"); err != nil {
		t.Fatalf("delete favourite: %v", err)
	}
	if _, err := store.GetFavourite(context.Background(), "aircraft", "abc123"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting an absent row stays quiet.
	if err := store.DeleteFavourite(context.Background(), "aircraft", "abc123"); err != nil {
		t.Fatalf("delete absent favourite: %v", err)
	}
}

func TestAircraftStateRoundTripPreservesNullableFields(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	lat, lon, alt := 43.67, -79.63, 11000.0
	onGround := false
	positionAt := now.Add(time.Minute)
	full := storage.AircraftStateRecord{
		ICAO24:         "abc123",
		Callsign:       "SKY001",
		OriginCountry:  "Canada",
		Lat:            &lat,
		Lon:            &lon,
		AltitudeM:      &alt,
		OnGround:       &onGround,
		Present:        true,
		FirstSeenAt:    now,
		LastSeenAt:     positionAt,
		LastPositionAt: &positionAt,
		UpdateCount:    3,
		LastEventSeq:   4,
		LastEventAt:    positionAt,
	}
	if err := store.PutAircraftState(context.Background(), full); err != nil {
		t.Fatalf("put aircraft state: %v", err)
	}

	sparse := storage.AircraftStateRecord{
		ICAO24:      "def456",
		Present:     false,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
	if err := store.PutAircraftState(context.Background(), sparse); err != nil {
		t.Fatalf("put sparse aircraft state: %v", err)
	}

	gotFull, err := store.GetAircraftState(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("get aircraft state: %v", err)
	}
	if gotFull.Lat == nil || *gotFull.Lat != lat || gotFull.OnGround == nil || *gotFull.OnGround {
		t.Fatalf("expected kinematics preserved, got %+v", gotFull)
	}
	if gotFull.LastPositionAt == nil || !gotFull.LastPositionAt.Equal(positionAt) {
		t.Fatalf("expected last position at %v, got %v", positionAt, gotFull.LastPositionAt)
	}

	gotSparse, err := store.GetAircraftState(context.Background(), "def456")
	if err != nil {
		t.Fatalf("get sparse aircraft state: %v", err)
	}
	if gotSparse.Lat != nil || gotSparse.OnGround != nil || gotSparse.LastPositionAt != nil {
		t.Fatalf("expected nil optional fields, got %+v", gotSparse)
	}

	present, err := store.ListAircraftStates(context.Background(), true)
	if err != nil {
		t.Fatalf("list present: %v", err)
	}
	if len(present) != 1 || present[0].ICAO24 != "abc123" {
		t.Fatalf("expected only present aircraft, got %+v", present)
	}

	all, err := store.ListAircraftStates(context.Background(), false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both aircraft, got %d", len(all))
	}
}

func TestCheckpointDefaultsToZeroAndPersists(t *testing.T) {
	store := openTestStore(t)

	fresh, err := store.GetCheckpoint(context.Background(), "aircraft_state")
	if err != nil {
		t.Fatalf("get fresh checkpoint: %v", err)
	}
	if fresh.LastSeq != 0 {
		t.Fatalf("expected zero position for fresh checkpoint, got %d", fresh.LastSeq)
	}

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.PutCheckpoint(context.Background(), storage.CheckpointRecord{
		Name: "aircraft_state", LastSeq: 42, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("put checkpoint: %v", err)
	}

	got, err := store.GetCheckpoint(context.Background(), "aircraft_state")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if got.LastSeq != 42 || !got.UpdatedAt.Equal(now) {
		t.Fatalf("expected persisted checkpoint, got %+v", got)
	}
}

func TestGetTrackerStatisticsCounts(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.PutComment(context.Background(), storage.CommentRecord{
		ID: "com-1", EntityType: "aircraft", EntityID: "abc123", Text: "a", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("put comment: %v", err)
	}
	if err := store.PutComment(context.Background(), storage.CommentRecord{
		ID: "com-2", EntityType: "aircraft", EntityID: "abc123", Text: "b", IsDeleted: true, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("put deleted comment: %v", err)
	}
	if err := store.PutFavourite(context.Background(), storage.FavouriteRecord{
		EntityType: "aircraft", EntityID: "abc123", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("put favourite: %v", err)
	}
	if err := store.PutAircraftState(context.Background(), storage.AircraftStateRecord{
		ICAO24: "abc123", Present: true, FirstSeenAt: now, LastSeenAt: now,
	}); err != nil {
		t.Fatalf("put aircraft: %v", err)
	}
	if err := store.PutAircraftState(context.Background(), storage.AircraftStateRecord{
		ICAO24: "def456", Present: false, FirstSeenAt: now, LastSeenAt: now,
	}); err != nil {
		t.Fatalf("put absent aircraft: %v", err)
	}

	stats, err := store.GetTrackerStatistics(context.Background(), nil)
	if err != nil {
		t.Fatalf("get statistics: %v", err)
	}
	if stats.CommentCount != 1 {
		t.Fatalf("expected deleted comments excluded, got %d", stats.CommentCount)
	}
	if stats.FavouriteCount != 1 || stats.AircraftCount != 2 || stats.PresentAircraftCount != 1 {
		t.Fatalf("unexpected statistics %+v", stats)
	}
}
