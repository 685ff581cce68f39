package aircraft

import "time"

// State is the replayed view of one tracked aircraft.
//
// Kinematic fields are pointers because the feed omits them freely; nil
// means "not reported", which spatial queries treat as no known position.
type State struct {
	// ICAO24 is the transponder address the aircraft is keyed by.
	ICAO24 string
	// Callsign is the most recently reported flight callsign.
	Callsign string
	// Registration is the airframe registration, when known.
	Registration string
	// Model is the airframe model designation, when known.
	Model string
	// OriginCountry is the country the transponder address is allocated to.
	OriginCountry string
	// Operator is the operating airline or owner, when known.
	Operator string
	// Lat is the last reported latitude in decimal degrees.
	Lat *float64
	// Lon is the last reported longitude in decimal degrees.
	Lon *float64
	// AltitudeM is the last reported altitude in metres.
	AltitudeM *float64
	// VelocityMS is the last reported ground speed in metres per second.
	VelocityMS *float64
	// HeadingDeg is the last reported true track in degrees.
	HeadingDeg *float64
	// VerticalRateMS is the last reported climb rate in metres per second.
	VerticalRateMS *float64
	// OnGround reports whether the aircraft last reported surface status.
	OnGround *bool
	// Present is true between a first-seen and the matching last-seen.
	Present bool
	// FirstSeenAt is when the current presence episode began.
	FirstSeenAt time.Time
	// LastSeenAt is the occurred-at of the most recent event for this aircraft.
	LastSeenAt time.Time
	// LastPositionAt is when the kinematic fields were last replaced.
	LastPositionAt *time.Time
	// UpdateCount counts position updates applied to this state.
	UpdateCount int
}

// HasPosition reports whether the state carries usable coordinates.
func (s State) HasPosition() bool {
	return s.Lat != nil && s.Lon != nil
}
