package event

import "testing"

func TestTypeIsValid(t *testing.T) {
	for _, eventType := range []Type{
		TypeCommentAdded,
		TypeCommentEdited,
		TypeCommentDeleted,
		TypeAircraftFavourited,
		TypeAircraftUnfavourited,
		TypeAircraftFirstSeen,
		TypeAircraftPositionUpdated,
		TypeAircraftIdentityUpdated,
		TypeAircraftLastSeen,
	} {
		if !eventType.IsValid() {
			t.Fatalf("expected %s to be valid", eventType)
		}
	}
	if Type("   ").IsValid() {
		t.Fatal("expected blank type to be invalid")
	}
}

func TestTypeDomain(t *testing.T) {
	cases := []struct {
		eventType Type
		domain    string
	}{
		{TypeCommentAdded, "comment"},
		{TypeAircraftFavourited, "aircraft"},
		{TypeAircraftPositionUpdated, "aircraft"},
		{Type("weird"), "weird"},
	}
	for _, tc := range cases {
		if got := tc.eventType.Domain(); got != tc.domain {
			t.Fatalf("expected domain %s for %s, got %s", tc.domain, tc.eventType, got)
		}
	}
}

func TestFavouriteKey(t *testing.T) {
	if got := FavouriteKey("aircraft", "abc123"); got != "aircraft_abc123" {
		t.Fatalf("expected aircraft_abc123, got %s", got)
	}
}
