// Package snapshot reconstructs aircraft state at arbitrary points in time
// by replaying the journal. Nothing here is persisted; every query folds
// the relevant events into a transient map and discards it, so a snapshot
// is always exactly what the journal says, never what a read model cached.
package snapshot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/skylog-dev/skylog/internal/platform/errors"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/aircraft"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/replay"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// maxSeriesSteps bounds how many snapshots one series request may build.
const maxSeriesSteps = 1000

// Snapshot is the reconstructed sky at one instant.
type Snapshot struct {
	// At is the instant the snapshot reconstructs.
	At time.Time
	// Aircraft holds every aircraft with at least one event at or before
	// At, sorted by transponder address. Departed aircraft stay in the
	// slice with Present false.
	Aircraft []aircraft.State
	// Total is the number of aircraft in the snapshot.
	Total int
	// WithPosition counts aircraft carrying usable coordinates.
	WithPosition int
	// EventsReplayed counts journal events folded to build the snapshot.
	EventsReplayed int
}

// Nearby is one aircraft inside a spatial query radius.
type Nearby struct {
	State aircraft.State
	// DistanceKm is the great-circle distance from the query point.
	DistanceKm float64
}

// Projection answers point-in-time queries against the event journal. It
// reads the journal directly and is never registered with the dispatcher;
// there is no stored state to fall behind or rebuild.
type Projection struct {
	events storage.EventStore
}

// NewProjection returns a snapshot projection over the given journal.
func NewProjection(events storage.EventStore) *Projection {
	return &Projection{events: events}
}

// SnapshotAt reconstructs the state of every aircraft as of at, inclusive.
// Events are folded in occurred-at order with journal sequence breaking
// ties, so backfilled history lands in its proper place.
func (p *Projection) SnapshotAt(ctx context.Context, at time.Time) (*Snapshot, error) {
	if p.events == nil {
		return nil, fmt.Errorf("event store is not configured")
	}
	if at.IsZero() {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "snapshot time is required")
	}
	events, err := p.collectUntil(ctx, at, replay.Options{Types: aircraft.FoldHandledTypes()})
	if err != nil {
		return nil, err
	}
	states := make(map[string]aircraft.State)
	for _, evt := range events {
		if err := foldInto(states, evt); err != nil {
			return nil, err
		}
	}
	return buildSnapshot(at, states, len(events)), nil
}

// AircraftStateAt reconstructs one aircraft as of at, inclusive, by
// replaying only its stream. It returns storage.ErrNotFound when the
// aircraft has no events at or before the requested time.
func (p *Projection) AircraftStateAt(ctx context.Context, icao24 string, at time.Time) (aircraft.State, error) {
	if p.events == nil {
		return aircraft.State{}, fmt.Errorf("event store is not configured")
	}
	icao24 = strings.TrimSpace(icao24)
	if icao24 == "" {
		return aircraft.State{}, apperrors.New(apperrors.CodeInvalidArgument, "icao24 is required")
	}
	if at.IsZero() {
		return aircraft.State{}, apperrors.New(apperrors.CodeInvalidArgument, "snapshot time is required")
	}
	events, err := p.collectUntil(ctx, at, replay.Options{
		EntityType: event.EntityTypeAircraft,
		EntityID:   icao24,
	})
	if err != nil {
		return aircraft.State{}, err
	}
	if len(events) == 0 {
		return aircraft.State{}, storage.ErrNotFound
	}
	states := make(map[string]aircraft.State)
	for _, evt := range events {
		if err := foldInto(states, evt); err != nil {
			return aircraft.State{}, err
		}
	}
	return states[icao24], nil
}

// SnapshotSeries reconstructs the sky at fixed steps from start to end,
// inclusive of start and of any step landing exactly on end. One pass over
// the journal serves every step; each snapshot matches what SnapshotAt at
// that instant would return. Series longer than maxSeriesSteps steps are
// refused.
func (p *Projection) SnapshotSeries(ctx context.Context, start, end time.Time, interval time.Duration) ([]*Snapshot, error) {
	if p.events == nil {
		return nil, fmt.Errorf("event store is not configured")
	}
	if start.IsZero() || end.IsZero() {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "series bounds are required")
	}
	if interval <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "series interval must be positive")
	}
	if end.Before(start) {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "series end precedes start")
	}
	if steps := end.Sub(start)/interval + 1; steps > maxSeriesSteps {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidArgument,
			"series has too many steps", map[string]string{
				"steps": fmt.Sprintf("%d", steps),
				"max":   fmt.Sprintf("%d", maxSeriesSteps),
			})
	}

	events, err := p.collectUntil(ctx, end, replay.Options{Types: aircraft.FoldHandledTypes()})
	if err != nil {
		return nil, err
	}
	states := make(map[string]aircraft.State)
	var series []*Snapshot
	idx := 0
	for at := start; !at.After(end); at = at.Add(interval) {
		for idx < len(events) && !events[idx].OccurredAt.After(at) {
			if err := foldInto(states, events[idx]); err != nil {
				return nil, err
			}
			idx++
		}
		series = append(series, buildSnapshot(at, states, idx))
	}
	return series, nil
}

// FindAircraftAtLocation reconstructs the sky at at and returns the
// aircraft within radiusKm of the given point, nearest first. Aircraft
// without a known position are excluded.
func (p *Projection) FindAircraftAtLocation(ctx context.Context, lat, lon, radiusKm float64, at time.Time) ([]Nearby, error) {
	if lat < -90 || lat > 90 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "longitude must be between -180 and 180")
	}
	if radiusKm <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "search radius must be positive")
	}
	snap, err := p.SnapshotAt(ctx, at)
	if err != nil {
		return nil, err
	}
	var found []Nearby
	for _, state := range snap.Aircraft {
		if !state.HasPosition() {
			continue
		}
		dist := HaversineKm(lat, lon, *state.Lat, *state.Lon)
		if dist <= radiusKm {
			found = append(found, Nearby{State: state, DistanceKm: dist})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].DistanceKm == found[j].DistanceKm {
			return found[i].State.ICAO24 < found[j].State.ICAO24
		}
		return found[i].DistanceKm < found[j].DistanceKm
	})
	return found, nil
}

// collectUntil gathers matching events with occurred-at up to and including
// until, sorted into the occurred-at total order.
func (p *Projection) collectUntil(ctx context.Context, until time.Time, opts replay.Options) ([]event.Event, error) {
	to := until
	opts.To = &to
	events, _, err := replay.Collect(ctx, p.events, opts)
	if err != nil {
		return nil, fmt.Errorf("collect tracking events: %w", err)
	}
	return events, nil
}

func foldInto(states map[string]aircraft.State, evt event.Event) error {
	icao := strings.TrimSpace(evt.EntityID)
	if icao == "" {
		return apperrors.WithMetadata(apperrors.CodeDataCorruption,
			"tracking event has no aircraft id", map[string]string{"event_id": evt.ID})
	}
	next, err := aircraft.Fold(states[icao], evt)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDataCorruption,
			fmt.Sprintf("replay event %s", evt.ID), err)
	}
	if next.ICAO24 == "" {
		next.ICAO24 = icao
	}
	states[icao] = next
	return nil
}

func buildSnapshot(at time.Time, states map[string]aircraft.State, replayed int) *Snapshot {
	snap := &Snapshot{
		At:             at,
		Aircraft:       make([]aircraft.State, 0, len(states)),
		EventsReplayed: replayed,
	}
	for _, state := range states {
		snap.Aircraft = append(snap.Aircraft, state)
		if state.HasPosition() {
			snap.WithPosition++
		}
	}
	sort.Slice(snap.Aircraft, func(i, j int) bool {
		return snap.Aircraft[i].ICAO24 < snap.Aircraft[j].ICAO24
	})
	snap.Total = len(snap.Aircraft)
	return snap
}
