package aggregate

import (
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/skylog-dev/skylog/internal/platform/errors"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
)

// Favourite is the aggregate for one favourite stream, keyed by the
// composite entity key. It deliberately skips existence checks: favouriting
// twice or unfavouriting something never favourited still emits the event,
// and the read side resolves both to the same final presence row.
type Favourite struct {
	Root

	entityType string
	entityID   string
	favourited bool

	now func() time.Time
}

// NewFavourite builds a favourite aggregate for the target entity. The
// stream id is the composite key derived from the entity addressing. A nil
// clock defaults to time.Now.
func NewFavourite(entityType, entityID string, now func() time.Time) *Favourite {
	if now == nil {
		now = time.Now
	}
	f := &Favourite{
		entityType: strings.TrimSpace(entityType),
		entityID:   strings.TrimSpace(entityID),
		now:        now,
	}
	f.Root = NewRoot(event.FavouriteKey(f.entityType, f.entityID), f.applyEvent)
	return f
}

// Favourited reports whether the entity is currently favourited.
func (f *Favourite) Favourited() bool { return f.favourited }

// Favourite records the entity as a favourite with an optional note.
func (f *Favourite) Favourite(note string) error {
	if f.entityType == "" || f.entityID == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "favourite target entity is required")
	}

	payloadJSON, _ := json.Marshal(event.AircraftFavouritedPayload{
		EntityType: f.entityType,
		EntityID:   f.entityID,
		Note:       strings.TrimSpace(note),
	})
	return f.Record(event.Event{
		Type:        event.TypeAircraftFavourited,
		OccurredAt:  f.now().UTC(),
		Source:      event.SourceUser,
		EntityType:  event.EntityTypeFavourite,
		EntityID:    f.ID(),
		PayloadJSON: payloadJSON,
	})
}

// Unfavourite removes the favourite mark from the entity.
func (f *Favourite) Unfavourite() error {
	if f.entityType == "" || f.entityID == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "favourite target entity is required")
	}

	payloadJSON, _ := json.Marshal(event.AircraftUnfavouritedPayload{
		EntityType: f.entityType,
		EntityID:   f.entityID,
	})
	return f.Record(event.Event{
		Type:        event.TypeAircraftUnfavourited,
		OccurredAt:  f.now().UTC(),
		Source:      event.SourceUser,
		EntityType:  event.EntityTypeFavourite,
		EntityID:    f.ID(),
		PayloadJSON: payloadJSON,
	})
}

func (f *Favourite) applyEvent(evt event.Event) error {
	switch evt.Type {
	case event.TypeAircraftFavourited:
		f.favourited = true
	case event.TypeAircraftUnfavourited:
		f.favourited = false
	}
	return nil
}
