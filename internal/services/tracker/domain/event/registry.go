package event

import (
	"encoding/json"
	"errors"
	"sort"
	"time"
)

// Validation errors returned by ValidateForAppend.
var (
	// ErrTypeRequired is returned when the event carries no type.
	ErrTypeRequired = errors.New("event type required")
	// ErrTypeUnknown is returned when the event type is not registered.
	ErrTypeUnknown = errors.New("event type not registered")
	// ErrEntityTypeRequired is returned when the entity type is missing.
	ErrEntityTypeRequired = errors.New("entity type required")
	// ErrEntityTypeMismatch is returned when the entity type does not match
	// the registered definition for the event type.
	ErrEntityTypeMismatch = errors.New("entity type does not match event type")
	// ErrEntityIDRequired is returned when the entity id is missing.
	ErrEntityIDRequired = errors.New("entity id required")
	// ErrSourceUnknown is returned when the source is set to an
	// unrecognized value.
	ErrSourceUnknown = errors.New("event source unknown")
	// ErrPayloadInvalid is returned when the payload is not valid JSON.
	ErrPayloadInvalid = errors.New("event payload is not valid JSON")
)

// IsValidationError reports whether err is one of the append validation
// rejections. Callers use it to tell a malformed event apart from a
// storage fault.
func IsValidationError(err error) bool {
	for _, sentinel := range []error{
		ErrTypeRequired,
		ErrTypeUnknown,
		ErrEntityTypeRequired,
		ErrEntityTypeMismatch,
		ErrEntityIDRequired,
		ErrSourceUnknown,
		ErrPayloadInvalid,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Definition describes a registered event type and the entity type its
// events must be addressed to.
type Definition struct {
	Type       Type
	EntityType string
}

// Registry holds the set of event types the store accepts. Register during
// startup; lookups after that are read-only.
type Registry struct {
	defs map[Type]Definition
}

// NewRegistry returns a registry pre-loaded with the core event types.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[Type]Definition)}
	for _, def := range []Definition{
		{Type: TypeCommentAdded, EntityType: EntityTypeComment},
		{Type: TypeCommentEdited, EntityType: EntityTypeComment},
		{Type: TypeCommentDeleted, EntityType: EntityTypeComment},
		{Type: TypeAircraftFavourited, EntityType: EntityTypeFavourite},
		{Type: TypeAircraftUnfavourited, EntityType: EntityTypeFavourite},
		{Type: TypeAircraftFirstSeen, EntityType: EntityTypeAircraft},
		{Type: TypeAircraftPositionUpdated, EntityType: EntityTypeAircraft},
		{Type: TypeAircraftIdentityUpdated, EntityType: EntityTypeAircraft},
		{Type: TypeAircraftLastSeen, EntityType: EntityTypeAircraft},
	} {
		r.defs[def.Type] = def
	}
	return r
}

// Register adds a definition to the registry, replacing any existing one
// for the same type.
func (r *Registry) Register(def Definition) error {
	if def.Type == "" {
		return ErrTypeRequired
	}
	if def.EntityType == "" {
		return ErrEntityTypeRequired
	}
	r.defs[def.Type] = def
	return nil
}

// Definition looks up the definition for an event type.
func (r *Registry) Definition(t Type) (Definition, bool) {
	def, ok := r.defs[t]
	return def, ok
}

// Types returns the registered event types in sorted order.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.defs))
	for t := range r.defs {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ValidateForAppend checks an event against the registry and returns a
// normalized copy ready for the store. It defaults the source to system,
// the payload to an empty JSON object, and truncates the occurred-at
// timestamp to millisecond precision in UTC.
func (r *Registry) ValidateForAppend(evt Event) (Event, error) {
	if evt.Type == "" {
		return Event{}, ErrTypeRequired
	}
	def, ok := r.defs[evt.Type]
	if !ok {
		return Event{}, ErrTypeUnknown
	}
	if evt.EntityType == "" {
		return Event{}, ErrEntityTypeRequired
	}
	if evt.EntityType != def.EntityType {
		return Event{}, ErrEntityTypeMismatch
	}
	if evt.EntityID == "" {
		return Event{}, ErrEntityIDRequired
	}
	switch evt.Source {
	case "":
		evt.Source = SourceSystem
	case SourceUser, SourceIngest, SourceSystem:
	default:
		return Event{}, ErrSourceUnknown
	}
	if len(evt.PayloadJSON) == 0 {
		evt.PayloadJSON = []byte("{}")
	} else if !json.Valid(evt.PayloadJSON) {
		return Event{}, ErrPayloadInvalid
	}
	if !evt.OccurredAt.IsZero() {
		evt.OccurredAt = evt.OccurredAt.UTC().Truncate(time.Millisecond)
	}
	return evt, nil
}
