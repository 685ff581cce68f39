package event

import (
	"strings"
	"time"
)

// Type identifies the type of a tracker event.
type Type string

// Comment events.
const (
	// TypeCommentAdded records a new comment on a tracked entity.
	TypeCommentAdded Type = "comment.added"
	// TypeCommentEdited records a text change on an existing comment.
	TypeCommentEdited Type = "comment.edited"
	// TypeCommentDeleted records a comment being soft-deleted.
	TypeCommentDeleted Type = "comment.deleted"
)

// Favourite events.
const (
	// TypeAircraftFavourited records an entity being marked as a favourite.
	TypeAircraftFavourited Type = "aircraft.favourited"
	// TypeAircraftUnfavourited records a favourite mark being removed.
	TypeAircraftUnfavourited Type = "aircraft.unfavourited"
)

// Aircraft observation events, emitted by the ingestion differ.
// Events represent observed facts, not commands/requests.
const (
	// TypeAircraftFirstSeen records the first observation of an aircraft.
	TypeAircraftFirstSeen Type = "aircraft.first_seen"
	// TypeAircraftPositionUpdated records a kinematic change.
	TypeAircraftPositionUpdated Type = "aircraft.position_updated"
	// TypeAircraftIdentityUpdated records newly learned identity fields.
	TypeAircraftIdentityUpdated Type = "aircraft.identity_updated"
	// TypeAircraftLastSeen records an aircraft leaving feed coverage.
	TypeAircraftLastSeen Type = "aircraft.last_seen"
)

// Source identifies what produced an event.
type Source string

const (
	// SourceUser indicates the event was produced by a user command.
	SourceUser Source = "user"
	// SourceIngest indicates the event was produced by the feed differ.
	SourceIngest Source = "ingest"
	// SourceSystem indicates the event was produced by internal machinery.
	SourceSystem Source = "system"
)

// Aggregate addressing entity types used in the envelope.
const (
	// EntityTypeComment addresses a comment aggregate stream.
	EntityTypeComment = "comment"
	// EntityTypeFavourite addresses a favourite aggregate stream.
	EntityTypeFavourite = "favourite"
	// EntityTypeAircraft addresses an observed aircraft stream.
	EntityTypeAircraft = "aircraft"
)

// Event represents an immutable event in the unified journal.
type Event struct {
	// ID is the globally unique event identifier.
	ID string
	// Seq is the global insertion sequence (starts at 1). Assigned by
	// storage on append; it is the deterministic tie-break for events
	// sharing an occurred-at instant.
	Seq int64
	// Type identifies the kind of event.
	Type Type
	// OccurredAt is when the recorded fact happened. It is the
	// authoritative ordering key, stored UTC at millisecond precision.
	OccurredAt time.Time
	// Source identifies what produced the event.
	Source Source
	// EntityType is the aggregate stream type this event belongs to
	// (comment, favourite, aircraft).
	EntityType string
	// EntityID is the aggregate stream identifier: the comment id, the
	// favourite composite key, or the aircraft icao24.
	EntityID string
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the event type (e.g., "comment",
// "aircraft").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}

// FavouriteKey builds the composite favourite stream key for a target entity.
func FavouriteKey(entityType, entityID string) string {
	return entityType + "_" + entityID
}
