package projection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/replay"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// favouriteEventTypes are the journal types the favourite projection consumes.
var favouriteEventTypes = []event.Type{
	event.TypeAircraftFavourited,
	event.TypeAircraftUnfavourited,
}

// FavouriteProjection maintains favourite presence rows keyed by the target
// entity. Favouriting twice folds into one row and unfavouriting removes it,
// so listing current favourites is a plain table read.
type FavouriteProjection struct {
	mu         sync.Mutex
	events     storage.EventStore
	favourites storage.FavouriteStore
}

// NewFavouriteProjection creates a favourite projection over the given stores.
func NewFavouriteProjection(events storage.EventStore, favourites storage.FavouriteStore) *FavouriteProjection {
	return &FavouriteProjection{events: events, favourites: favourites}
}

// Name identifies this projection in dispatch results and checkpoints.
func (p *FavouriteProjection) Name() string { return "favourites" }

// ApplyEvent folds one journal event into the presence rows. Unfavouriting
// a target that has no row is a no-op, which is what makes the write side's
// check-free favourite commands safe.
func (p *FavouriteProjection) ApplyEvent(ctx context.Context, evt event.Event) (bool, error) {
	switch evt.Type {
	case event.TypeAircraftFavourited, event.TypeAircraftUnfavourited:
	default:
		return false, nil
	}
	if p.favourites == nil {
		return true, fmt.Errorf("favourite store is not configured")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if evt.Type == event.TypeAircraftFavourited {
		return true, p.applyFavourited(ctx, evt)
	}
	return true, p.applyUnfavourited(ctx, evt)
}

func (p *FavouriteProjection) applyFavourited(ctx context.Context, evt event.Event) error {
	var payload event.AircraftFavouritedPayload
	if err := decodePayload(evt.PayloadJSON, &payload, "aircraft.favourited"); err != nil {
		return err
	}
	if payload.EntityType == "" || payload.EntityID == "" {
		return fmt.Errorf("favourite target is required")
	}
	existing, err := p.favourites.GetFavourite(ctx, payload.EntityType, payload.EntityID)
	if err == nil {
		if stale(existing.LastEventAt, existing.LastEventSeq, evt) {
			return nil
		}
		existing.Note = payload.Note
		existing.UpdatedAt = evt.OccurredAt
		existing.LastEventSeq = evt.Seq
		existing.LastEventAt = evt.OccurredAt
		return p.favourites.PutFavourite(ctx, existing)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("get favourite: %w", err)
	}
	return p.favourites.PutFavourite(ctx, storage.FavouriteRecord{
		EntityType:   payload.EntityType,
		EntityID:     payload.EntityID,
		Note:         payload.Note,
		CreatedAt:    evt.OccurredAt,
		UpdatedAt:    evt.OccurredAt,
		LastEventSeq: evt.Seq,
		LastEventAt:  evt.OccurredAt,
	})
}

func (p *FavouriteProjection) applyUnfavourited(ctx context.Context, evt event.Event) error {
	var payload event.AircraftUnfavouritedPayload
	if err := decodePayload(evt.PayloadJSON, &payload, "aircraft.unfavourited"); err != nil {
		return err
	}
	if payload.EntityType == "" || payload.EntityID == "" {
		return fmt.Errorf("favourite target is required")
	}
	existing, err := p.favourites.GetFavourite(ctx, payload.EntityType, payload.EntityID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get favourite: %w", err)
	}
	if stale(existing.LastEventAt, existing.LastEventSeq, evt) {
		return nil
	}
	return p.favourites.DeleteFavourite(ctx, payload.EntityType, payload.EntityID)
}

// Rebuild clears the presence rows and replays every favourite event from
// the journal in insertion order.
func (p *FavouriteProjection) Rebuild(ctx context.Context) (replay.Result, error) {
	if p.events == nil {
		return replay.Result{}, fmt.Errorf("event store is not configured")
	}
	if p.favourites == nil {
		return replay.Result{}, fmt.Errorf("favourite store is not configured")
	}
	if err := p.favourites.DeleteAllFavourites(ctx); err != nil {
		return replay.Result{}, fmt.Errorf("clear favourite read model: %w", err)
	}
	return replay.Replay(ctx, p.events, replay.Options{Types: favouriteEventTypes}, p.applyReplayed)
}

// RebuildForEntity rebuilds the presence row for one target entity by
// replaying its favourite stream.
func (p *FavouriteProjection) RebuildForEntity(ctx context.Context, entityType, entityID string) (replay.Result, error) {
	if p.events == nil {
		return replay.Result{}, fmt.Errorf("event store is not configured")
	}
	if p.favourites == nil {
		return replay.Result{}, fmt.Errorf("favourite store is not configured")
	}
	entityType = strings.TrimSpace(entityType)
	entityID = strings.TrimSpace(entityID)
	if entityType == "" || entityID == "" {
		return replay.Result{}, fmt.Errorf("entity type and id are required")
	}
	if err := p.favourites.DeleteFavourite(ctx, entityType, entityID); err != nil {
		return replay.Result{}, fmt.Errorf("clear favourite read model: %w", err)
	}
	return replay.Replay(ctx, p.events, replay.Options{
		EntityType: event.EntityTypeFavourite,
		EntityID:   event.FavouriteKey(entityType, entityID),
	}, p.applyReplayed)
}

func (p *FavouriteProjection) applyReplayed(ctx context.Context, evt event.Event) error {
	_, err := p.ApplyEvent(ctx, evt)
	return err
}
