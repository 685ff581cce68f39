package event

import (
	"errors"
	"testing"
	"time"
)

func TestNewRegistry_PreRegistersCoreTypes(t *testing.T) {
	registry := NewRegistry()

	cases := []struct {
		eventType  Type
		entityType string
	}{
		{TypeCommentAdded, EntityTypeComment},
		{TypeCommentEdited, EntityTypeComment},
		{TypeCommentDeleted, EntityTypeComment},
		{TypeAircraftFavourited, EntityTypeFavourite},
		{TypeAircraftUnfavourited, EntityTypeFavourite},
		{TypeAircraftFirstSeen, EntityTypeAircraft},
		{TypeAircraftPositionUpdated, EntityTypeAircraft},
		{TypeAircraftIdentityUpdated, EntityTypeAircraft},
		{TypeAircraftLastSeen, EntityTypeAircraft},
	}
	for _, tc := range cases {
		def, ok := registry.Definition(tc.eventType)
		if !ok {
			t.Fatalf("expected %s to be registered", tc.eventType)
		}
		if def.EntityType != tc.entityType {
			t.Fatalf("expected entity type %s for %s, got %s", tc.entityType, tc.eventType, def.EntityType)
		}
	}
	if got := len(registry.Types()); got != len(cases) {
		t.Fatalf("expected %d registered types, got %d", len(cases), got)
	}
}

func TestRegistryValidateForAppend_RejectsUnknownType(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.ValidateForAppend(Event{
		Type:       Type("aircraft.teleported"),
		EntityType: EntityTypeAircraft,
		EntityID:   "abc123",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrTypeUnknown) {
		t.Fatalf("expected ErrTypeUnknown, got %v", err)
	}
}

func TestRegistryValidateForAppend_RequiresEntityAddressing(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.ValidateForAppend(Event{Type: TypeCommentAdded})
	if !errors.Is(err, ErrEntityTypeRequired) {
		t.Fatalf("expected ErrEntityTypeRequired, got %v", err)
	}

	_, err = registry.ValidateForAppend(Event{
		Type:       TypeCommentAdded,
		EntityType: EntityTypeComment,
	})
	if !errors.Is(err, ErrEntityIDRequired) {
		t.Fatalf("expected ErrEntityIDRequired, got %v", err)
	}
}

func TestRegistryValidateForAppend_RejectsEntityTypeMismatch(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.ValidateForAppend(Event{
		Type:       TypeAircraftPositionUpdated,
		EntityType: EntityTypeComment,
		EntityID:   "abc123",
	})
	if !errors.Is(err, ErrEntityTypeMismatch) {
		t.Fatalf("expected ErrEntityTypeMismatch, got %v", err)
	}
}

func TestRegistryValidateForAppend_RejectsUnknownSource(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.ValidateForAppend(Event{
		Type:       TypeAircraftFirstSeen,
		EntityType: EntityTypeAircraft,
		EntityID:   "abc123",
		Source:     Source("carrier-pigeon"),
	})
	if !errors.Is(err, ErrSourceUnknown) {
		t.Fatalf("expected ErrSourceUnknown, got %v", err)
	}
}

func TestRegistryValidateForAppend_RejectsInvalidPayload(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.ValidateForAppend(Event{
		Type:        TypeCommentAdded,
		EntityType:  EntityTypeComment,
		EntityID:    "com-1",
		PayloadJSON: []byte("{not json"),
	})
	if !errors.Is(err, ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}
}

func TestRegistryValidateForAppend_NormalizesDefaults(t *testing.T) {
	registry := NewRegistry()

	occurred := time.Date(2024, 3, 1, 12, 30, 45, 123456789, time.FixedZone("CET", 3600))
	validated, err := registry.ValidateForAppend(Event{
		Type:       TypeAircraftFirstSeen,
		EntityType: EntityTypeAircraft,
		EntityID:   "abc123",
		OccurredAt: occurred,
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validated.Source != SourceSystem {
		t.Fatalf("expected default source %s, got %s", SourceSystem, validated.Source)
	}
	if string(validated.PayloadJSON) != "{}" {
		t.Fatalf("expected empty object payload, got %s", validated.PayloadJSON)
	}
	want := occurred.UTC().Truncate(time.Millisecond)
	if !validated.OccurredAt.Equal(want) {
		t.Fatalf("expected occurred-at %v, got %v", want, validated.OccurredAt)
	}
	if validated.OccurredAt.Location() != time.UTC {
		t.Fatalf("expected UTC occurred-at, got %v", validated.OccurredAt.Location())
	}
}

func TestRegistryRegister_RequiresTypeAndEntityType(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(Definition{EntityType: EntityTypeAircraft}); !errors.Is(err, ErrTypeRequired) {
		t.Fatalf("expected ErrTypeRequired, got %v", err)
	}
	if err := registry.Register(Definition{Type: Type("aircraft.custom")}); !errors.Is(err, ErrEntityTypeRequired) {
		t.Fatalf("expected ErrEntityTypeRequired, got %v", err)
	}
	if err := registry.Register(Definition{Type: Type("aircraft.custom"), EntityType: EntityTypeAircraft}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := registry.Definition(Type("aircraft.custom")); !ok {
		t.Fatal("expected custom type to be registered")
	}
}
