package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// AircraftStateStore methods

const aircraftColumns = "icao24, callsign, registration, model, origin_country, operator, lat, lon, altitude_m, velocity_ms, heading_deg, vertical_rate_ms, on_ground, present, first_seen_at, last_seen_at, last_position_at, update_count, last_event_seq, last_event_at"

// PutAircraftState upserts the live read-model row for one aircraft.
func (s *Store) PutAircraftState(ctx context.Context, rec storage.AircraftStateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.ICAO24) == "" {
		return fmt.Errorf("icao24 is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO aircraft_state (icao24, callsign, registration, model, origin_country, operator, lat, lon, altitude_m, velocity_ms, heading_deg, vertical_rate_ms, on_ground, present, first_seen_at, last_seen_at, last_position_at, update_count, last_event_seq, last_event_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(icao24) DO UPDATE SET
    callsign = excluded.callsign,
    registration = excluded.registration,
    model = excluded.model,
    origin_country = excluded.origin_country,
    operator = excluded.operator,
    lat = excluded.lat,
    lon = excluded.lon,
    altitude_m = excluded.altitude_m,
    velocity_ms = excluded.velocity_ms,
    heading_deg = excluded.heading_deg,
    vertical_rate_ms = excluded.vertical_rate_ms,
    on_ground = excluded.on_ground,
    present = excluded.present,
    first_seen_at = excluded.first_seen_at,
    last_seen_at = excluded.last_seen_at,
    last_position_at = excluded.last_position_at,
    update_count = excluded.update_count,
    last_event_seq = excluded.last_event_seq,
    last_event_at = excluded.last_event_at`,
		rec.ICAO24,
		rec.Callsign,
		rec.Registration,
		rec.Model,
		rec.OriginCountry,
		rec.Operator,
		toNullFloat(rec.Lat),
		toNullFloat(rec.Lon),
		toNullFloat(rec.AltitudeM),
		toNullFloat(rec.VelocityMS),
		toNullFloat(rec.HeadingDeg),
		toNullFloat(rec.VerticalRateMS),
		toNullBool(rec.OnGround),
		rec.Present,
		toMillis(rec.FirstSeenAt),
		toMillis(rec.LastSeenAt),
		toNullMillis(rec.LastPositionAt),
		rec.UpdateCount,
		rec.LastEventSeq,
		toMillis(rec.LastEventAt),
	)
	if err != nil {
		return fmt.Errorf("put aircraft state: %w", err)
	}
	return nil
}

// GetAircraftState retrieves the live row for one aircraft.
func (s *Store) GetAircraftState(ctx context.Context, icao24 string) (storage.AircraftStateRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AircraftStateRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AircraftStateRecord{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(icao24) == "" {
		return storage.AircraftStateRecord{}, fmt.Errorf("icao24 is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+aircraftColumns+" FROM aircraft_state WHERE icao24 = ?", icao24)
	rec, err := scanAircraftRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AircraftStateRecord{}, storage.ErrNotFound
		}
		return storage.AircraftStateRecord{}, fmt.Errorf("get aircraft state: %w", err)
	}
	return rec, nil
}

// ListAircraftStates returns aircraft rows ordered by id.
func (s *Store) ListAircraftStates(ctx context.Context, onlyPresent bool) ([]storage.AircraftStateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := "SELECT " + aircraftColumns + " FROM aircraft_state"
	if onlyPresent {
		query += " WHERE present = 1"
	}
	query += " ORDER BY icao24 ASC"

	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list aircraft states: %w", err)
	}
	defer rows.Close()

	var records []storage.AircraftStateRecord
	for rows.Next() {
		rec, err := scanAircraftRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aircraft state: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aircraft states: %w", err)
	}
	return records, nil
}

// DeleteAircraftState removes one row ahead of a scoped rebuild. Removing a
// row that does not exist is not an error.
func (s *Store) DeleteAircraftState(ctx context.Context, icao24 string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(icao24) == "" {
		return fmt.Errorf("icao24 is required")
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM aircraft_state WHERE icao24 = ?", icao24); err != nil {
		return fmt.Errorf("delete aircraft state: %w", err)
	}
	return nil
}

// DeleteAllAircraftStates clears the aircraft read model ahead of a full rebuild.
func (s *Store) DeleteAllAircraftStates(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM aircraft_state"); err != nil {
		return fmt.Errorf("delete all aircraft states: %w", err)
	}
	return nil
}

func scanAircraftRow(scanner rowScanner) (storage.AircraftStateRecord, error) {
	var rec storage.AircraftStateRecord
	var lat, lon, altitude, velocity, heading, verticalRate sql.NullFloat64
	var onGround sql.NullBool
	var present int
	var firstSeenAt, lastSeenAt, lastEventAt int64
	var lastPositionAt sql.NullInt64
	if err := scanner.Scan(
		&rec.ICAO24,
		&rec.Callsign,
		&rec.Registration,
		&rec.Model,
		&rec.OriginCountry,
		&rec.Operator,
		&lat,
		&lon,
		&altitude,
		&velocity,
		&heading,
		&verticalRate,
		&onGround,
		&present,
		&firstSeenAt,
		&lastSeenAt,
		&lastPositionAt,
		&rec.UpdateCount,
		&rec.LastEventSeq,
		&lastEventAt,
	); err != nil {
		return storage.AircraftStateRecord{}, err
	}
	rec.Lat = fromNullFloat(lat)
	rec.Lon = fromNullFloat(lon)
	rec.AltitudeM = fromNullFloat(altitude)
	rec.VelocityMS = fromNullFloat(velocity)
	rec.HeadingDeg = fromNullFloat(heading)
	rec.VerticalRateMS = fromNullFloat(verticalRate)
	rec.OnGround = fromNullBool(onGround)
	rec.Present = present != 0
	rec.FirstSeenAt = fromMillis(firstSeenAt)
	rec.LastSeenAt = fromMillis(lastSeenAt)
	rec.LastPositionAt = fromNullMillis(lastPositionAt)
	rec.LastEventAt = fromMillis(lastEventAt)
	return rec, nil
}
