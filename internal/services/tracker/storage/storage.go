package storage

import (
	"context"
	"time"

	apperrors "github.com/skylog-dev/skylog/internal/platform/errors"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// CommentRecord is the read-model row for one comment. Deletes are soft:
// the row survives with IsDeleted set so history stays inspectable.
type CommentRecord struct {
	ID           string
	EntityType   string
	EntityID     string
	Author       string
	Text         string
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
	LastEventSeq int64
	LastEventAt  time.Time
}

// FavouriteRecord is a presence row keyed by the favourited entity. There is
// at most one row per entity; unfavouriting removes it.
type FavouriteRecord struct {
	EntityType   string
	EntityID     string
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastEventSeq int64
	LastEventAt  time.Time
}

// AircraftStateRecord is the live read-model row for one tracked aircraft,
// mirroring the replayed aircraft state.
type AircraftStateRecord struct {
	ICAO24         string
	Callsign       string
	Registration   string
	Model          string
	OriginCountry  string
	Operator       string
	Lat            *float64
	Lon            *float64
	AltitudeM      *float64
	VelocityMS     *float64
	HeadingDeg     *float64
	VerticalRateMS *float64
	OnGround       *bool
	Present        bool
	FirstSeenAt    time.Time
	LastSeenAt     time.Time
	LastPositionAt *time.Time
	UpdateCount    int
	LastEventSeq   int64
	LastEventAt    time.Time
}

// CheckpointRecord tracks how far a projection has consumed the journal so
// catch-up after a restart can resume instead of rebuilding.
type CheckpointRecord struct {
	Name      string
	LastSeq   int64
	UpdatedAt time.Time
}

// TrackerStatistics contains aggregate counters used by status tooling.
type TrackerStatistics struct {
	EventCount           int64
	CommentCount         int64
	FavouriteCount       int64
	AircraftCount        int64
	PresentAircraftCount int64
}

// EventPageRequest describes a filtered journal read. Zero values mean
// "no constraint" for each field.
type EventPageRequest struct {
	// Types restricts results to the given event types.
	Types []event.Type
	// EntityType and EntityID scope results to one stream.
	EntityType string
	EntityID   string
	// From and To bound the occurred-at window (inclusive).
	From *time.Time
	To   *time.Time
	// AfterSeq returns only events with seq greater than this value.
	AfterSeq int64
	// PageSize is the maximum number of events to return (default 50, max 200).
	PageSize int
	// Descending orders by occurred-at desc (newest first) when true.
	Descending bool
	// FilterClause is an optional SQL WHERE fragment produced by the
	// filter translator; FilterParams are its positional parameters.
	FilterClause string
	FilterParams []any
}

// EventPageResult contains one page of matching journal events.
type EventPageResult struct {
	Events      []event.Event
	HasNextPage bool
	TotalCount  int
}

// EventStore owns the append-only journal that drives replay and command
// rehydration; this is the source of truth for state reconstruction.
type EventStore interface {
	// AppendEvent atomically appends one event and returns it with its id,
	// sequence, and normalized occurred-at set. Re-appending an event with
	// an id already in the journal returns the stored event unchanged.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// AppendEvents appends a batch atomically in order. Either every event
	// is durable or none are.
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
	// GetEventByID retrieves an event by its id.
	GetEventByID(ctx context.Context, id string) (event.Event, error)
	// GetEventBySeq retrieves an event by its journal sequence.
	GetEventBySeq(ctx context.Context, seq int64) (event.Event, error)
	// ListEvents returns events in journal order (seq ascending), starting
	// after the given seq. Journal order is the dispatch order; callers
	// needing the occurred-at total order sort collected pages themselves.
	ListEvents(ctx context.Context, afterSeq int64, limit int) ([]event.Event, error)
	// ListEventsByType restricts ListEvents to one event type.
	ListEventsByType(ctx context.Context, eventType event.Type, afterSeq int64, limit int) ([]event.Event, error)
	// ListEventsByEntity restricts ListEvents to one stream.
	ListEventsByEntity(ctx context.Context, entityType, entityID string, afterSeq int64, limit int) ([]event.Event, error)
	// ListEventsPage returns a filtered, paginated journal read.
	ListEventsPage(ctx context.Context, req EventPageRequest) (EventPageResult, error)
	// LatestEventSeq returns the highest sequence in the journal, 0 when empty.
	LatestEventSeq(ctx context.Context) (int64, error)
}

// CommentStore owns the comment read model.
type CommentStore interface {
	PutComment(ctx context.Context, rec CommentRecord) error
	GetComment(ctx context.Context, id string) (CommentRecord, error)
	// ListComments returns comments for one target entity, oldest first.
	// Soft-deleted rows are excluded unless includeDeleted is set.
	ListComments(ctx context.Context, entityType, entityID string, includeDeleted bool) ([]CommentRecord, error)
	// ListAllComments returns every comment row, oldest first.
	ListAllComments(ctx context.Context, includeDeleted bool) ([]CommentRecord, error)
	// DeleteCommentsByEntity removes rows for one target entity ahead of a
	// scoped rebuild.
	DeleteCommentsByEntity(ctx context.Context, entityType, entityID string) error
	// DeleteAllComments clears the read model ahead of a full rebuild.
	DeleteAllComments(ctx context.Context) error
}

// FavouriteStore owns the favourite presence rows.
type FavouriteStore interface {
	PutFavourite(ctx context.Context, rec FavouriteRecord) error
	GetFavourite(ctx context.Context, entityType, entityID string) (FavouriteRecord, error)
	DeleteFavourite(ctx context.Context, entityType, entityID string) error
	// ListFavourites returns all presence rows, oldest first.
	ListFavourites(ctx context.Context) ([]FavouriteRecord, error)
	// DeleteAllFavourites clears the read model ahead of a full rebuild.
	DeleteAllFavourites(ctx context.Context) error
}

// AircraftStateStore owns the live aircraft read model.
type AircraftStateStore interface {
	PutAircraftState(ctx context.Context, rec AircraftStateRecord) error
	GetAircraftState(ctx context.Context, icao24 string) (AircraftStateRecord, error)
	// ListAircraftStates returns aircraft rows ordered by id. When
	// onlyPresent is set, rows past their last-seen are excluded.
	ListAircraftStates(ctx context.Context, onlyPresent bool) ([]AircraftStateRecord, error)
	// DeleteAircraftState removes one row ahead of a scoped rebuild.
	DeleteAircraftState(ctx context.Context, icao24 string) error
	// DeleteAllAircraftStates clears the read model ahead of a full rebuild.
	DeleteAllAircraftStates(ctx context.Context) error
}

// CheckpointStore tracks per-projection journal positions.
type CheckpointStore interface {
	GetCheckpoint(ctx context.Context, name string) (CheckpointRecord, error)
	PutCheckpoint(ctx context.Context, rec CheckpointRecord) error
}

// StatisticsStore centralizes aggregate count queries for status tooling.
type StatisticsStore interface {
	// GetTrackerStatistics returns aggregate counts. When since is nil,
	// counts are for all time.
	GetTrackerStatistics(ctx context.Context, since *time.Time) (TrackerStatistics, error)
}
