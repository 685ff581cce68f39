// Package ingest turns feed observations into tracking events. A Source
// reports what the feed sees right now; Diff compares that against what the
// poller already knows and emits only the change events, so the journal
// records state transitions rather than raw feed frames.
package ingest

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
)

// Sighting is one aircraft observation from a feed source.
type Sighting struct {
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
	// ObservedAt is when the feed saw the aircraft. Zero means "now".
	ObservedAt time.Time
}

// HasPosition reports whether the sighting carries usable coordinates.
func (s Sighting) HasPosition() bool {
	return s.Lat != nil && s.Lon != nil
}

// Source produces the current set of aircraft sightings. Implementations
// wrap the external feed; everything past Fetch is feed-agnostic.
type Source interface {
	Fetch(ctx context.Context) ([]Sighting, error)
}

// Observed is what the poller remembers about one tracked aircraft between
// cycles: the merged view of every sighting so far plus when the feed last
// included it.
type Observed struct {
	Sighting   Sighting
	LastSeenAt time.Time
}

// Diff compares the current sightings against the known aircraft and
// returns the change events to dispatch plus the next known set. known is
// never mutated.
//
// An unseen transponder address becomes a first-seen event. A known
// aircraft whose kinematics changed becomes a position update; identity
// fields newly reported or changed become an identity update, and one
// sighting can produce both. A known aircraft missing from the feed for
// longer than staleAfter becomes a last-seen event and is forgotten;
// shorter dropouts are tolerated silently.
func Diff(known map[string]Observed, sightings []Sighting, now time.Time, staleAfter time.Duration) ([]event.Event, map[string]Observed) {
	next := make(map[string]Observed, len(known))
	seen := make(map[string]bool, len(sightings))
	var events []event.Event

	for _, s := range sightings {
		icao := normalizeICAO(s.ICAO24)
		if icao == "" || seen[icao] {
			continue
		}
		seen[icao] = true
		at := s.ObservedAt
		if at.IsZero() {
			at = now
		}

		obs, ok := known[icao]
		if !ok {
			events = append(events, firstSeenEvent(icao, s, at))
			next[icao] = mergeObservation(Observed{}, s, at)
			continue
		}
		if identityChanged(obs.Sighting, s) {
			events = append(events, identityEvent(icao, s, at))
		}
		if s.HasPosition() && kinematicsChanged(obs.Sighting, s) {
			events = append(events, positionEvent(icao, s, at))
		}
		next[icao] = mergeObservation(obs, s, at)
	}

	// Sweep for departures in a stable order.
	var missing []string
	for icao := range known {
		if !seen[icao] {
			missing = append(missing, icao)
		}
	}
	sort.Strings(missing)
	for _, icao := range missing {
		obs := known[icao]
		if now.Sub(obs.LastSeenAt) > staleAfter {
			events = append(events, lastSeenEvent(icao, obs))
			continue
		}
		next[icao] = obs
	}
	return events, next
}

// mergeObservation folds a sighting into the remembered view. Identity
// fields fill only when reported so a sparse frame never erases what an
// earlier one taught us; kinematics replace wholesale when the frame
// carries a position.
func mergeObservation(prev Observed, s Sighting, at time.Time) Observed {
	merged := prev.Sighting
	merged.ICAO24 = normalizeICAO(s.ICAO24)
	if s.Callsign != "" {
		merged.Callsign = s.Callsign
	}
	if s.Registration != "" {
		merged.Registration = s.Registration
	}
	if s.Model != "" {
		merged.Model = s.Model
	}
	if s.OriginCountry != "" {
		merged.OriginCountry = s.OriginCountry
	}
	if s.Operator != "" {
		merged.Operator = s.Operator
	}
	if s.HasPosition() {
		merged.Lat = s.Lat
		merged.Lon = s.Lon
		merged.AltitudeM = s.AltitudeM
		merged.VelocityMS = s.VelocityMS
		merged.HeadingDeg = s.HeadingDeg
		merged.VerticalRateMS = s.VerticalRateMS
		merged.OnGround = s.OnGround
	}
	merged.ObservedAt = at
	return Observed{Sighting: merged, LastSeenAt: at}
}

func identityChanged(obs, s Sighting) bool {
	return reported(s.Callsign, obs.Callsign) ||
		reported(s.Registration, obs.Registration) ||
		reported(s.Model, obs.Model) ||
		reported(s.OriginCountry, obs.OriginCountry) ||
		reported(s.Operator, obs.Operator)
}

// reported is true when the incoming value is present and differs from the
// known one. An empty incoming field means "not reported", never "cleared".
func reported(incoming, knownValue string) bool {
	return incoming != "" && incoming != knownValue
}

func kinematicsChanged(obs, s Sighting) bool {
	return !floatEqual(obs.Lat, s.Lat) ||
		!floatEqual(obs.Lon, s.Lon) ||
		!floatEqual(obs.AltitudeM, s.AltitudeM) ||
		!floatEqual(obs.VelocityMS, s.VelocityMS) ||
		!floatEqual(obs.HeadingDeg, s.HeadingDeg) ||
		!floatEqual(obs.VerticalRateMS, s.VerticalRateMS) ||
		!boolEqual(obs.OnGround, s.OnGround)
}

func floatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func boolEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func normalizeICAO(icao24 string) string {
	return strings.ToLower(strings.TrimSpace(icao24))
}

func firstSeenEvent(icao string, s Sighting, at time.Time) event.Event {
	return trackingEvent(event.TypeAircraftFirstSeen, icao, at, event.AircraftFirstSeenPayload{
		ICAO24:         icao,
		Callsign:       s.Callsign,
		Registration:   s.Registration,
		Model:          s.Model,
		OriginCountry:  s.OriginCountry,
		Operator:       s.Operator,
		Lat:            s.Lat,
		Lon:            s.Lon,
		AltitudeM:      s.AltitudeM,
		VelocityMS:     s.VelocityMS,
		HeadingDeg:     s.HeadingDeg,
		VerticalRateMS: s.VerticalRateMS,
		OnGround:       s.OnGround,
	})
}

func positionEvent(icao string, s Sighting, at time.Time) event.Event {
	return trackingEvent(event.TypeAircraftPositionUpdated, icao, at, event.AircraftPositionUpdatedPayload{
		ICAO24:         icao,
		Lat:            s.Lat,
		Lon:            s.Lon,
		AltitudeM:      s.AltitudeM,
		VelocityMS:     s.VelocityMS,
		HeadingDeg:     s.HeadingDeg,
		VerticalRateMS: s.VerticalRateMS,
		OnGround:       s.OnGround,
	})
}

func identityEvent(icao string, s Sighting, at time.Time) event.Event {
	return trackingEvent(event.TypeAircraftIdentityUpdated, icao, at, event.AircraftIdentityUpdatedPayload{
		ICAO24:        icao,
		Callsign:      s.Callsign,
		Registration:  s.Registration,
		Model:         s.Model,
		OriginCountry: s.OriginCountry,
		Operator:      s.Operator,
	})
}

// lastSeenEvent is stamped with the final observation time, not the sweep
// time, so temporal queries place the departure where it happened.
func lastSeenEvent(icao string, obs Observed) event.Event {
	return trackingEvent(event.TypeAircraftLastSeen, icao, obs.LastSeenAt, event.AircraftLastSeenPayload{
		ICAO24:    icao,
		Lat:       obs.Sighting.Lat,
		Lon:       obs.Sighting.Lon,
		AltitudeM: obs.Sighting.AltitudeM,
	})
}

func trackingEvent(eventType event.Type, icao string, at time.Time, payload any) event.Event {
	// Payload structs hold only scalars; marshalling cannot fail.
	raw, _ := json.Marshal(payload)
	return event.Event{
		Type:        eventType,
		EntityType:  event.EntityTypeAircraft,
		EntityID:    icao,
		Source:      event.SourceIngest,
		OccurredAt:  at,
		PayloadJSON: raw,
	}
}
