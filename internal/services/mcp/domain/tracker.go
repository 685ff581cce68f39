package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/aircraft"
	"github.com/skylog-dev/skylog/internal/services/tracker/snapshot"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// queryTimeout caps the time for a single read-model query from an MCP tool
// handler.
const queryTimeout = 5 * time.Second

// replayTimeout caps the time for operations that replay the journal, such
// as snapshot reconstruction and projection rebuilds.
const replayTimeout = 30 * time.Second

// AircraftReader is the slice of the tracker facade the aircraft tools
// read from.
type AircraftReader interface {
	AircraftState(ctx context.Context, icao24 string) (storage.AircraftStateRecord, error)
	ListAircraft(ctx context.Context, onlyPresent bool) ([]storage.AircraftStateRecord, error)
}

// SnapshotReader answers point-in-time and spatial queries over the journal.
type SnapshotReader interface {
	SnapshotAt(ctx context.Context, at time.Time) (*snapshot.Snapshot, error)
	FindAircraftAtLocation(ctx context.Context, lat, lon, radiusKm float64, at time.Time) ([]snapshot.Nearby, error)
	CompareSnapshots(ctx context.Context, beforeAt, afterAt time.Time, thresholdKm float64) (snapshot.Diff, error)
}

// CommentReader lists comments attached to an entity.
type CommentReader interface {
	CommentsForEntity(ctx context.Context, entityType, entityID string, includeDeleted bool) ([]storage.CommentRecord, error)
}

// FavouriteReader lists the favourite presence rows.
type FavouriteReader interface {
	Favourites(ctx context.Context) ([]storage.FavouriteRecord, error)
}

// EventReader runs filtered journal queries.
type EventReader interface {
	QueryEvents(ctx context.Context, filterExpr string, pageSize int, afterSeq int64) (storage.EventPageResult, error)
}

// StatsReader reports journal and read-model counts.
type StatsReader interface {
	Statistics(ctx context.Context, since *time.Time) (storage.TrackerStatistics, error)
}

// Rebuilder replays the journal into fresh read models.
type Rebuilder interface {
	RebuildAll(ctx context.Context) error
}

// AircraftStateResult describes one aircraft as MCP tool output. The same
// shape serves live read-model rows and replayed point-in-time states.
type AircraftStateResult struct {
	ICAO24         string   `json:"icao24" jsonschema:"transponder address in lowercase hex"`
	Callsign       string   `json:"callsign,omitempty" jsonschema:"most recently reported callsign"`
	Registration   string   `json:"registration,omitempty" jsonschema:"airframe registration"`
	Model          string   `json:"model,omitempty" jsonschema:"airframe model designation"`
	OriginCountry  string   `json:"origin_country,omitempty" jsonschema:"country the transponder address is allocated to"`
	Operator       string   `json:"operator,omitempty" jsonschema:"operating airline or owner"`
	Lat            *float64 `json:"lat,omitempty" jsonschema:"last reported latitude in decimal degrees"`
	Lon            *float64 `json:"lon,omitempty" jsonschema:"last reported longitude in decimal degrees"`
	AltitudeM      *float64 `json:"altitude_m,omitempty" jsonschema:"last reported altitude in metres"`
	VelocityMS     *float64 `json:"velocity_ms,omitempty" jsonschema:"last reported ground speed in metres per second"`
	HeadingDeg     *float64 `json:"heading_deg,omitempty" jsonschema:"last reported true track in degrees"`
	VerticalRateMS *float64 `json:"vertical_rate_ms,omitempty" jsonschema:"last reported climb rate in metres per second"`
	OnGround       *bool    `json:"on_ground,omitempty" jsonschema:"whether the aircraft last reported surface status"`
	Present        bool     `json:"present" jsonschema:"whether the aircraft is currently tracked"`
	FirstSeenAt    string   `json:"first_seen_at" jsonschema:"RFC3339 timestamp when the current presence episode began"`
	LastSeenAt     string   `json:"last_seen_at" jsonschema:"RFC3339 timestamp of the most recent event for this aircraft"`
	LastPositionAt string   `json:"last_position_at,omitempty" jsonschema:"RFC3339 timestamp when kinematics were last replaced"`
	UpdateCount    int      `json:"update_count" jsonschema:"number of position updates applied"`
}

// aircraftStateResult maps a live read-model row into tool output.
func aircraftStateResult(rec storage.AircraftStateRecord) AircraftStateResult {
	return AircraftStateResult{
		ICAO24:         rec.ICAO24,
		Callsign:       rec.Callsign,
		Registration:   rec.Registration,
		Model:          rec.Model,
		OriginCountry:  rec.OriginCountry,
		Operator:       rec.Operator,
		Lat:            rec.Lat,
		Lon:            rec.Lon,
		AltitudeM:      rec.AltitudeM,
		VelocityMS:     rec.VelocityMS,
		HeadingDeg:     rec.HeadingDeg,
		VerticalRateMS: rec.VerticalRateMS,
		OnGround:       rec.OnGround,
		Present:        rec.Present,
		FirstSeenAt:    formatTimestamp(rec.FirstSeenAt),
		LastSeenAt:     formatTimestamp(rec.LastSeenAt),
		LastPositionAt: formatTimestampPtr(rec.LastPositionAt),
		UpdateCount:    rec.UpdateCount,
	}
}

// replayedStateResult maps a reconstructed per-aircraft state into tool output.
func replayedStateResult(state aircraft.State) AircraftStateResult {
	return AircraftStateResult{
		ICAO24:         state.ICAO24,
		Callsign:       state.Callsign,
		Registration:   state.Registration,
		Model:          state.Model,
		OriginCountry:  state.OriginCountry,
		Operator:       state.Operator,
		Lat:            state.Lat,
		Lon:            state.Lon,
		AltitudeM:      state.AltitudeM,
		VelocityMS:     state.VelocityMS,
		HeadingDeg:     state.HeadingDeg,
		VerticalRateMS: state.VerticalRateMS,
		OnGround:       state.OnGround,
		Present:        state.Present,
		FirstSeenAt:    formatTimestamp(state.FirstSeenAt),
		LastSeenAt:     formatTimestamp(state.LastSeenAt),
		LastPositionAt: formatTimestampPtr(state.LastPositionAt),
		UpdateCount:    state.UpdateCount,
	}
}

// formatTimestamp returns an RFC3339 timestamp or empty string.
// Empty values are treated as missing fields for compact tool responses.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimestampPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTimestamp(*t)
}

// parseInstant parses a required RFC3339 tool input.
func parseInstant(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s as RFC3339: %w", field, err)
	}
	return at, nil
}

// parseOptionalInstant parses an RFC3339 tool input, falling back when blank.
func parseOptionalInstant(field, value string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return parseInstant(field, value)
}
