package projection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/aircraft"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/replay"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// AircraftStateProjection maintains the live aircraft read model by folding
// tracking events through the same fold the snapshot reconstruction uses,
// so the two views can never disagree on merge behavior.
type AircraftStateProjection struct {
	mu     sync.Mutex
	events storage.EventStore
	states storage.AircraftStateStore
}

// NewAircraftStateProjection creates an aircraft projection over the given
// stores.
func NewAircraftStateProjection(events storage.EventStore, states storage.AircraftStateStore) *AircraftStateProjection {
	return &AircraftStateProjection{events: events, states: states}
}

// Name identifies this projection in dispatch results and checkpoints.
func (p *AircraftStateProjection) Name() string { return "aircraft_state" }

// ApplyEvent folds one tracking event into the stored state for its
// aircraft. A last-seen for an aircraft with no row still creates one, so
// the departure is recorded even when earlier events were lost.
func (p *AircraftStateProjection) ApplyEvent(ctx context.Context, evt event.Event) (bool, error) {
	switch evt.Type {
	case event.TypeAircraftFirstSeen, event.TypeAircraftPositionUpdated,
		event.TypeAircraftIdentityUpdated, event.TypeAircraftLastSeen:
	default:
		return false, nil
	}
	if p.states == nil {
		return true, fmt.Errorf("aircraft state store is not configured")
	}
	icao24 := strings.TrimSpace(evt.EntityID)
	if icao24 == "" {
		return true, fmt.Errorf("aircraft id is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var state aircraft.State
	rec, err := p.states.GetAircraftState(ctx, icao24)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return true, fmt.Errorf("get aircraft state: %w", err)
	default:
		if stale(rec.LastEventAt, rec.LastEventSeq, evt) {
			return true, nil
		}
		state = recordToState(rec)
	}

	next, err := aircraft.Fold(state, evt)
	if err != nil {
		return true, err
	}
	if next.ICAO24 == "" {
		next.ICAO24 = icao24
	}
	out := stateToRecord(next)
	out.LastEventSeq = evt.Seq
	out.LastEventAt = evt.OccurredAt
	return true, p.states.PutAircraftState(ctx, out)
}

// Rebuild clears the read model and replays every tracking event from the
// journal in insertion order.
func (p *AircraftStateProjection) Rebuild(ctx context.Context) (replay.Result, error) {
	if p.events == nil {
		return replay.Result{}, fmt.Errorf("event store is not configured")
	}
	if p.states == nil {
		return replay.Result{}, fmt.Errorf("aircraft state store is not configured")
	}
	if err := p.states.DeleteAllAircraftStates(ctx); err != nil {
		return replay.Result{}, fmt.Errorf("clear aircraft read model: %w", err)
	}
	return replay.Replay(ctx, p.events, replay.Options{Types: aircraft.FoldHandledTypes()}, p.applyReplayed)
}

// RebuildAircraft rebuilds the row for one aircraft by replaying its stream.
func (p *AircraftStateProjection) RebuildAircraft(ctx context.Context, icao24 string) (replay.Result, error) {
	if p.events == nil {
		return replay.Result{}, fmt.Errorf("event store is not configured")
	}
	if p.states == nil {
		return replay.Result{}, fmt.Errorf("aircraft state store is not configured")
	}
	icao24 = strings.TrimSpace(icao24)
	if icao24 == "" {
		return replay.Result{}, fmt.Errorf("aircraft id is required")
	}
	if err := p.states.DeleteAircraftState(ctx, icao24); err != nil {
		return replay.Result{}, fmt.Errorf("clear aircraft read model: %w", err)
	}
	return replay.Replay(ctx, p.events, replay.Options{
		EntityType: event.EntityTypeAircraft,
		EntityID:   icao24,
	}, p.applyReplayed)
}

func (p *AircraftStateProjection) applyReplayed(ctx context.Context, evt event.Event) error {
	_, err := p.ApplyEvent(ctx, evt)
	return err
}

func recordToState(rec storage.AircraftStateRecord) aircraft.State {
	return aircraft.State{
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
		FirstSeenAt:    rec.FirstSeenAt,
		LastSeenAt:     rec.LastSeenAt,
		LastPositionAt: rec.LastPositionAt,
		UpdateCount:    rec.UpdateCount,
	}
}

func stateToRecord(state aircraft.State) storage.AircraftStateRecord {
	return storage.AircraftStateRecord{
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
		FirstSeenAt:    state.FirstSeenAt,
		LastSeenAt:     state.LastSeenAt,
		LastPositionAt: state.LastPositionAt,
		UpdateCount:    state.UpdateCount,
	}
}
