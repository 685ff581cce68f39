package aircraft

import (
	"encoding/json"
	"fmt"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
)

// FoldHandledTypes returns the event types the aircraft fold consumes.
func FoldHandledTypes() []event.Type {
	return []event.Type{
		event.TypeAircraftFirstSeen,
		event.TypeAircraftPositionUpdated,
		event.TypeAircraftIdentityUpdated,
		event.TypeAircraftLastSeen,
	}
}

// Fold applies one tracking event to aircraft state and returns the updated
// copy. Unrecognized event types leave the state unchanged. A recognized
// event with an undecodable payload returns an error so callers can surface
// corruption instead of silently folding garbage.
//
// Merge rules: first-seen seeds identity and any initial position the feed
// carried; position-updated replaces the kinematic fields wholesale;
// identity-updated fills only non-empty incoming fields; last-seen records
// the final position and ends the presence episode.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case event.TypeAircraftFirstSeen:
		var payload event.AircraftFirstSeenPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("aircraft fold %s: %w", evt.Type, err)
		}
		if state.ICAO24 == "" {
			state.ICAO24 = payload.ICAO24
		}
		state = fillIdentity(state, payload.Callsign, payload.Registration, payload.Model, payload.OriginCountry, payload.Operator)
		if payload.Lat != nil {
			state.Lat = payload.Lat
		}
		if payload.Lon != nil {
			state.Lon = payload.Lon
		}
		if payload.AltitudeM != nil {
			state.AltitudeM = payload.AltitudeM
		}
		if payload.VelocityMS != nil {
			state.VelocityMS = payload.VelocityMS
		}
		if payload.HeadingDeg != nil {
			state.HeadingDeg = payload.HeadingDeg
		}
		if payload.VerticalRateMS != nil {
			state.VerticalRateMS = payload.VerticalRateMS
		}
		if payload.OnGround != nil {
			state.OnGround = payload.OnGround
		}
		if payload.Lat != nil && payload.Lon != nil {
			at := evt.OccurredAt
			state.LastPositionAt = &at
		}
		state.Present = true
		state.FirstSeenAt = evt.OccurredAt
		state.LastSeenAt = evt.OccurredAt
	case event.TypeAircraftPositionUpdated:
		var payload event.AircraftPositionUpdatedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("aircraft fold %s: %w", evt.Type, err)
		}
		if state.ICAO24 == "" {
			state.ICAO24 = payload.ICAO24
		}
		state.Lat = payload.Lat
		state.Lon = payload.Lon
		state.AltitudeM = payload.AltitudeM
		state.VelocityMS = payload.VelocityMS
		state.HeadingDeg = payload.HeadingDeg
		state.VerticalRateMS = payload.VerticalRateMS
		state.OnGround = payload.OnGround
		at := evt.OccurredAt
		state.LastPositionAt = &at
		state.UpdateCount++
		state.Present = true
		if state.FirstSeenAt.IsZero() {
			state.FirstSeenAt = evt.OccurredAt
		}
		state.LastSeenAt = evt.OccurredAt
	case event.TypeAircraftIdentityUpdated:
		var payload event.AircraftIdentityUpdatedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("aircraft fold %s: %w", evt.Type, err)
		}
		if state.ICAO24 == "" {
			state.ICAO24 = payload.ICAO24
		}
		state = fillIdentity(state, payload.Callsign, payload.Registration, payload.Model, payload.OriginCountry, payload.Operator)
		state.Present = true
		if state.FirstSeenAt.IsZero() {
			state.FirstSeenAt = evt.OccurredAt
		}
		state.LastSeenAt = evt.OccurredAt
	case event.TypeAircraftLastSeen:
		var payload event.AircraftLastSeenPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("aircraft fold %s: %w", evt.Type, err)
		}
		if state.ICAO24 == "" {
			state.ICAO24 = payload.ICAO24
		}
		if payload.Lat != nil {
			state.Lat = payload.Lat
		}
		if payload.Lon != nil {
			state.Lon = payload.Lon
		}
		if payload.AltitudeM != nil {
			state.AltitudeM = payload.AltitudeM
		}
		if payload.Lat != nil && payload.Lon != nil {
			at := evt.OccurredAt
			state.LastPositionAt = &at
		}
		state.Present = false
		if state.FirstSeenAt.IsZero() {
			state.FirstSeenAt = evt.OccurredAt
		}
		state.LastSeenAt = evt.OccurredAt
	}
	return state, nil
}

// fillIdentity copies only the non-empty incoming identity fields so a
// sparse update never erases values learned earlier.
func fillIdentity(state State, callsign, registration, model, originCountry, operator string) State {
	if callsign != "" {
		state.Callsign = callsign
	}
	if registration != "" {
		state.Registration = registration
	}
	if model != "" {
		state.Model = model
	}
	if originCountry != "" {
		state.OriginCountry = originCountry
	}
	if operator != "" {
		state.Operator = operator
	}
	return state
}
