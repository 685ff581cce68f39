package projection

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

type fakeEventStore struct {
	events []event.Event
}

func (s *fakeEventStore) AppendEvent(context.Context, event.Event) (event.Event, error) {
	return event.Event{}, nil
}

func (s *fakeEventStore) AppendEvents(context.Context, []event.Event) ([]event.Event, error) {
	return nil, nil
}

func (s *fakeEventStore) GetEventByID(context.Context, string) (event.Event, error) {
	return event.Event{}, storage.ErrNotFound
}

func (s *fakeEventStore) GetEventBySeq(context.Context, int64) (event.Event, error) {
	return event.Event{}, storage.ErrNotFound
}

func (s *fakeEventStore) ListEvents(_ context.Context, afterSeq int64, limit int) ([]event.Event, error) {
	results := make([]event.Event, 0, limit)
	for _, evt := range s.events {
		if evt.Seq <= afterSeq {
			continue
		}
		results = append(results, evt)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (s *fakeEventStore) ListEventsByType(_ context.Context, eventType event.Type, afterSeq int64, limit int) ([]event.Event, error) {
	results := make([]event.Event, 0, limit)
	for _, evt := range s.events {
		if evt.Type != eventType || evt.Seq <= afterSeq {
			continue
		}
		results = append(results, evt)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (s *fakeEventStore) ListEventsByEntity(_ context.Context, entityType, entityID string, afterSeq int64, limit int) ([]event.Event, error) {
	results := make([]event.Event, 0, limit)
	for _, evt := range s.events {
		if evt.EntityType != entityType || evt.EntityID != entityID || evt.Seq <= afterSeq {
			continue
		}
		results = append(results, evt)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (s *fakeEventStore) ListEventsPage(context.Context, storage.EventPageRequest) (storage.EventPageResult, error) {
	return storage.EventPageResult{}, nil
}

func (s *fakeEventStore) LatestEventSeq(context.Context) (int64, error) {
	var max int64
	for _, evt := range s.events {
		if evt.Seq > max {
			max = evt.Seq
		}
	}
	return max, nil
}

type fakeCommentStore struct {
	comments map[string]storage.CommentRecord
	clears   int
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]storage.CommentRecord)}
}

func (s *fakeCommentStore) PutComment(_ context.Context, rec storage.CommentRecord) error {
	s.comments[rec.ID] = rec
	return nil
}

func (s *fakeCommentStore) GetComment(_ context.Context, id string) (storage.CommentRecord, error) {
	rec, ok := s.comments[id]
	if !ok {
		return storage.CommentRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (s *fakeCommentStore) ListComments(_ context.Context, entityType, entityID string, includeDeleted bool) ([]storage.CommentRecord, error) {
	var results []storage.CommentRecord
	for _, rec := range s.comments {
		if rec.EntityType != entityType || rec.EntityID != entityID {
			continue
		}
		if rec.IsDeleted && !includeDeleted {
			continue
		}
		results = append(results, rec)
	}
	sortCommentRecords(results)
	return results, nil
}

func (s *fakeCommentStore) ListAllComments(_ context.Context, includeDeleted bool) ([]storage.CommentRecord, error) {
	var results []storage.CommentRecord
	for _, rec := range s.comments {
		if rec.IsDeleted && !includeDeleted {
			continue
		}
		results = append(results, rec)
	}
	sortCommentRecords(results)
	return results, nil
}

func (s *fakeCommentStore) DeleteCommentsByEntity(_ context.Context, entityType, entityID string) error {
	for id, rec := range s.comments {
		if rec.EntityType == entityType && rec.EntityID == entityID {
			delete(s.comments, id)
		}
	}
	return nil
}

func (s *fakeCommentStore) DeleteAllComments(context.Context) error {
	s.comments = make(map[string]storage.CommentRecord)
	s.clears++
	return nil
}

func sortCommentRecords(records []storage.CommentRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}

type fakeFavouriteStore struct {
	favourites map[string]storage.FavouriteRecord
	clears     int
}

func newFakeFavouriteStore() *fakeFavouriteStore {
	return &fakeFavouriteStore{favourites: make(map[string]storage.FavouriteRecord)}
}

func favouriteStoreKey(entityType, entityID string) string {
	return entityType + ":" + entityID
}

func (s *fakeFavouriteStore) PutFavourite(_ context.Context, rec storage.FavouriteRecord) error {
	s.favourites[favouriteStoreKey(rec.EntityType, rec.EntityID)] = rec
	return nil
}

func (s *fakeFavouriteStore) GetFavourite(_ context.Context, entityType, entityID string) (storage.FavouriteRecord, error) {
	rec, ok := s.favourites[favouriteStoreKey(entityType, entityID)]
	if !ok {
		return storage.FavouriteRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (s *fakeFavouriteStore) DeleteFavourite(_ context.Context, entityType, entityID string) error {
	delete(s.favourites, favouriteStoreKey(entityType, entityID))
	return nil
}

func (s *fakeFavouriteStore) ListFavourites(context.Context) ([]storage.FavouriteRecord, error) {
	var results []storage.FavouriteRecord
	for _, rec := range s.favourites {
		results = append(results, rec)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].EntityID < results[j].EntityID
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

func (s *fakeFavouriteStore) DeleteAllFavourites(context.Context) error {
	s.favourites = make(map[string]storage.FavouriteRecord)
	s.clears++
	return nil
}

type fakeAircraftStateStore struct {
	states map[string]storage.AircraftStateRecord
	clears int
}

func newFakeAircraftStateStore() *fakeAircraftStateStore {
	return &fakeAircraftStateStore{states: make(map[string]storage.AircraftStateRecord)}
}

func (s *fakeAircraftStateStore) PutAircraftState(_ context.Context, rec storage.AircraftStateRecord) error {
	s.states[rec.ICAO24] = rec
	return nil
}

func (s *fakeAircraftStateStore) GetAircraftState(_ context.Context, icao24 string) (storage.AircraftStateRecord, error) {
	rec, ok := s.states[icao24]
	if !ok {
		return storage.AircraftStateRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (s *fakeAircraftStateStore) ListAircraftStates(_ context.Context, onlyPresent bool) ([]storage.AircraftStateRecord, error) {
	var results []storage.AircraftStateRecord
	for _, rec := range s.states {
		if onlyPresent && !rec.Present {
			continue
		}
		results = append(results, rec)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ICAO24 < results[j].ICAO24
	})
	return results, nil
}

func (s *fakeAircraftStateStore) DeleteAircraftState(_ context.Context, icao24 string) error {
	delete(s.states, icao24)
	return nil
}

func (s *fakeAircraftStateStore) DeleteAllAircraftStates(context.Context) error {
	s.states = make(map[string]storage.AircraftStateRecord)
	s.clears++
	return nil
}

type fakeCheckpointStore struct {
	checkpoints map[string]storage.CheckpointRecord
	puts        int
}

func newFakeCheckpointStore() *fakeCheckpointStore {
	return &fakeCheckpointStore{checkpoints: make(map[string]storage.CheckpointRecord)}
}

func (s *fakeCheckpointStore) GetCheckpoint(_ context.Context, name string) (storage.CheckpointRecord, error) {
	rec, ok := s.checkpoints[name]
	if !ok {
		return storage.CheckpointRecord{Name: name}, nil
	}
	return rec, nil
}

func (s *fakeCheckpointStore) PutCheckpoint(_ context.Context, rec storage.CheckpointRecord) error {
	s.checkpoints[rec.Name] = rec
	s.puts++
	return nil
}

func eventID(seq int64) string {
	return "evt-" + strconv.FormatInt(seq, 10)
}

func commentAddedEvent(seq int64, commentID, targetType, targetID, author, text string, occurredAt time.Time) event.Event {
	data, _ := json.Marshal(event.CommentAddedPayload{
		CommentID:  commentID,
		EntityType: targetType,
		EntityID:   targetID,
		Author:     author,
		Text:       text,
	})
	return event.Event{
		ID:          eventID(seq),
		Seq:         seq,
		Type:        event.TypeCommentAdded,
		OccurredAt:  occurredAt,
		Source:      event.SourceUser,
		EntityType:  event.EntityTypeComment,
		EntityID:    commentID,
		PayloadJSON: data,
	}
}

func commentEditedEvent(seq int64, commentID, text string, occurredAt time.Time) event.Event {
	data, _ := json.Marshal(event.CommentEditedPayload{CommentID: commentID, Text: text})
	return event.Event{
		ID:          eventID(seq),
		Seq:         seq,
		Type:        event.TypeCommentEdited,
		OccurredAt:  occurredAt,
		Source:      event.SourceUser,
		EntityType:  event.EntityTypeComment,
		EntityID:    commentID,
		PayloadJSON: data,
	}
}

func commentDeletedEvent(seq int64, commentID string, occurredAt time.Time) event.Event {
	data, _ := json.Marshal(event.CommentDeletedPayload{CommentID: commentID})
	return event.Event{
		ID:          eventID(seq),
		Seq:         seq,
		Type:        event.TypeCommentDeleted,
		OccurredAt:  occurredAt,
		Source:      event.SourceUser,
		EntityType:  event.EntityTypeComment,
		EntityID:    commentID,
		PayloadJSON: data,
	}
}

func favouritedEvent(seq int64, targetType, targetID, note string, occurredAt time.Time) event.Event {
	data, _ := json.Marshal(event.AircraftFavouritedPayload{
		EntityType: targetType,
		EntityID:   targetID,
		Note:       note,
	})
	return event.Event{
		ID:          eventID(seq),
		Seq:         seq,
		Type:        event.TypeAircraftFavourited,
		OccurredAt:  occurredAt,
		Source:      event.SourceUser,
		EntityType:  event.EntityTypeFavourite,
		EntityID:    event.FavouriteKey(targetType, targetID),
		PayloadJSON: data,
	}
}

func unfavouritedEvent(seq int64, targetType, targetID string, occurredAt time.Time) event.Event {
	data, _ := json.Marshal(event.AircraftUnfavouritedPayload{
		EntityType: targetType,
		EntityID:   targetID,
	})
	return event.Event{
		ID:          eventID(seq),
		Seq:         seq,
		Type:        event.TypeAircraftUnfavourited,
		OccurredAt:  occurredAt,
		Source:      event.SourceUser,
		EntityType:  event.EntityTypeFavourite,
		EntityID:    event.FavouriteKey(targetType, targetID),
		PayloadJSON: data,
	}
}

func firstSeenEvent(seq int64, icao24, callsign, originCountry string, lat, lon *float64, occurredAt time.Time) event.Event {
	data, _ := json.Marshal(event.AircraftFirstSeenPayload{
		ICAO24:        icao24,
		Callsign:      callsign,
		OriginCountry: originCountry,
		Lat:           lat,
		Lon:           lon,
	})
	return event.Event{
		ID:          eventID(seq),
		Seq:         seq,
		Type:        event.TypeAircraftFirstSeen,
		OccurredAt:  occurredAt,
		Source:      event.SourceIngest,
		EntityType:  event.EntityTypeAircraft,
		EntityID:    icao24,
		PayloadJSON: data,
	}
}

func positionUpdatedEvent(seq int64, icao24 string, lat, lon, altitudeM *float64, occurredAt time.Time) event.Event {
	data, _ := json.Marshal(event.AircraftPositionUpdatedPayload{
		ICAO24:    icao24,
		Lat:       lat,
		Lon:       lon,
		AltitudeM: altitudeM,
	})
	return event.Event{
		ID:          eventID(seq),
		Seq:         seq,
		Type:        event.TypeAircraftPositionUpdated,
		OccurredAt:  occurredAt,
		Source:      event.SourceIngest,
		EntityType:  event.EntityTypeAircraft,
		EntityID:    icao24,
		PayloadJSON: data,
	}
}

func identityUpdatedEvent(seq int64, icao24, callsign, registration string, occurredAt time.Time) event.Event {
	data, _ := json.Marshal(event.AircraftIdentityUpdatedPayload{
		ICAO24:       icao24,
		Callsign:     callsign,
		Registration: registration,
	})
	return event.Event{
		ID:          eventID(seq),
		Seq:         seq,
		Type:        event.TypeAircraftIdentityUpdated,
		OccurredAt:  occurredAt,
		Source:      event.SourceIngest,
		EntityType:  event.EntityTypeAircraft,
		EntityID:    icao24,
		PayloadJSON: data,
	}
}

func lastSeenEvent(seq int64, icao24 string, lat, lon *float64, occurredAt time.Time) event.Event {
	data, _ := json.Marshal(event.AircraftLastSeenPayload{
		ICAO24: icao24,
		Lat:    lat,
		Lon:    lon,
	})
	return event.Event{
		ID:          eventID(seq),
		Seq:         seq,
		Type:        event.TypeAircraftLastSeen,
		OccurredAt:  occurredAt,
		Source:      event.SourceIngest,
		EntityType:  event.EntityTypeAircraft,
		EntityID:    icao24,
		PayloadJSON: data,
	}
}

func floatPtr(v float64) *float64 { return &v }
