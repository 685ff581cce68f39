package event

// CommentAddedPayload is the payload for comment.added. EntityType and
// EntityID name the commented-on entity, not the comment aggregate.
type CommentAddedPayload struct {
	CommentID  string `json:"comment_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Author     string `json:"author,omitempty"`
	Text       string `json:"text"`
}

// CommentEditedPayload is the payload for comment.edited.
type CommentEditedPayload struct {
	CommentID string `json:"comment_id"`
	Text      string `json:"text"`
}

// CommentDeletedPayload is the payload for comment.deleted.
type CommentDeletedPayload struct {
	CommentID string `json:"comment_id"`
}

// AircraftFavouritedPayload is the payload for aircraft.favourited.
type AircraftFavouritedPayload struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Note       string `json:"note,omitempty"`
}

// AircraftUnfavouritedPayload is the payload for aircraft.unfavourited.
type AircraftUnfavouritedPayload struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

// AircraftFirstSeenPayload is the payload for aircraft.first_seen. It seeds
// identity and, when the feed carried them, the initial kinematics.
type AircraftFirstSeenPayload struct {
	ICAO24         string   `json:"icao24"`
	Callsign       string   `json:"callsign,omitempty"`
	Registration   string   `json:"registration,omitempty"`
	Model          string   `json:"model,omitempty"`
	OriginCountry  string   `json:"origin_country,omitempty"`
	Operator       string   `json:"operator,omitempty"`
	Lat            *float64 `json:"lat,omitempty"`
	Lon            *float64 `json:"lon,omitempty"`
	AltitudeM      *float64 `json:"altitude_m,omitempty"`
	VelocityMS     *float64 `json:"velocity_ms,omitempty"`
	HeadingDeg     *float64 `json:"heading_deg,omitempty"`
	VerticalRateMS *float64 `json:"vertical_rate_ms,omitempty"`
	OnGround       *bool    `json:"on_ground,omitempty"`
}

// AircraftPositionUpdatedPayload is the payload for aircraft.position_updated.
// It replaces the kinematic fields of the aircraft state wholesale.
type AircraftPositionUpdatedPayload struct {
	ICAO24         string   `json:"icao24"`
	Lat            *float64 `json:"lat,omitempty"`
	Lon            *float64 `json:"lon,omitempty"`
	AltitudeM      *float64 `json:"altitude_m,omitempty"`
	VelocityMS     *float64 `json:"velocity_ms,omitempty"`
	HeadingDeg     *float64 `json:"heading_deg,omitempty"`
	VerticalRateMS *float64 `json:"vertical_rate_ms,omitempty"`
	OnGround       *bool    `json:"on_ground,omitempty"`
}

// AircraftIdentityUpdatedPayload is the payload for aircraft.identity_updated.
// Empty fields mean "still unknown" and never overwrite learned values.
type AircraftIdentityUpdatedPayload struct {
	ICAO24        string `json:"icao24"`
	Callsign      string `json:"callsign,omitempty"`
	Registration  string `json:"registration,omitempty"`
	Model         string `json:"model,omitempty"`
	OriginCountry string `json:"origin_country,omitempty"`
	Operator      string `json:"operator,omitempty"`
}

// AircraftLastSeenPayload is the payload for aircraft.last_seen. It records
// the final known position before the aircraft left feed coverage.
type AircraftLastSeenPayload struct {
	ICAO24    string   `json:"icao24"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	AltitudeM *float64 `json:"altitude_m,omitempty"`
}
