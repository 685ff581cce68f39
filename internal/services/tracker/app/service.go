// Package app assembles the tracker's write and read sides behind one
// facade. Commands hydrate an aggregate from the journal, run the business
// operation, and hand the resulting events to the dispatcher; queries read
// the projection stores and the snapshot replayer. The facade is the only
// place the two sides meet.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/skylog-dev/skylog/internal/platform/errors"
	"github.com/skylog-dev/skylog/internal/platform/id"
	"github.com/skylog-dev/skylog/internal/services/tracker/core/filter"
	"github.com/skylog-dev/skylog/internal/services/tracker/dispatch"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/aggregate"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/aircraft"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/projection"
	"github.com/skylog-dev/skylog/internal/services/tracker/replay"
	"github.com/skylog-dev/skylog/internal/services/tracker/snapshot"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// Stores bundles the persistence interfaces the service consumes. One
// sqlite store satisfies all of them.
type Stores struct {
	Events      storage.EventStore
	Comments    storage.CommentStore
	Favourites  storage.FavouriteStore
	Aircraft    storage.AircraftStateStore
	Checkpoints storage.CheckpointStore
	Statistics  storage.StatisticsStore
}

// Service is the application facade over the tracker. Commands serialize
// through a single mutex so each load-decide-append section sees the
// journal it is about to extend.
type Service struct {
	stores     Stores
	dispatcher *dispatch.Dispatcher
	comments   *projection.CommentProjection
	favourites *projection.FavouriteProjection
	aircraft   *projection.AircraftStateProjection
	snapshots  *snapshot.Projection
	now        func() time.Time

	commandMu sync.Mutex
}

// NewService wires the projections, the dispatcher, and the snapshot
// replayer over the given stores. A nil clock defaults to time.Now.
func NewService(stores Stores, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	comments := projection.NewCommentProjection(stores.Events, stores.Comments)
	favourites := projection.NewFavouriteProjection(stores.Events, stores.Favourites)
	aircraft := projection.NewAircraftStateProjection(stores.Events, stores.Aircraft)
	return &Service{
		stores: stores,
		dispatcher: &dispatch.Dispatcher{
			Events:      stores.Events,
			Projections: []projection.Projection{comments, favourites, aircraft},
			Checkpoints: stores.Checkpoints,
		},
		comments:   comments,
		favourites: favourites,
		aircraft:   aircraft,
		snapshots:  snapshot.NewProjection(stores.Events),
		now:        now,
	}
}

// Dispatcher exposes the append-then-fan-out pipeline for ingestion wiring.
func (s *Service) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }

// AddComment records a new comment against an entity and returns the
// generated comment id.
func (s *Service) AddComment(ctx context.Context, entityType, entityID, author, text string) (string, error) {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()

	commentID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate comment id: %w", err)
	}
	c := aggregate.NewComment(commentID, s.now)
	if err := c.Add(entityType, entityID, author, text); err != nil {
		return "", err
	}
	if err := s.commit(ctx, &c.Root); err != nil {
		return "", err
	}
	return commentID, nil
}

// EditComment replaces the text of an existing comment.
func (s *Service) EditComment(ctx context.Context, commentID, text string) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()

	c, err := s.loadComment(ctx, commentID)
	if err != nil {
		return err
	}
	if err := c.Edit(text); err != nil {
		return err
	}
	return s.commit(ctx, &c.Root)
}

// DeleteComment soft-deletes a comment. The read model keeps the record
// with its deleted flag set.
func (s *Service) DeleteComment(ctx context.Context, commentID string) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()

	c, err := s.loadComment(ctx, commentID)
	if err != nil {
		return err
	}
	if err := c.Delete(); err != nil {
		return err
	}
	return s.commit(ctx, &c.Root)
}

// FavouriteAircraft marks an entity as a favourite with an optional note.
func (s *Service) FavouriteAircraft(ctx context.Context, entityType, entityID, note string) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()

	f, err := s.loadFavourite(ctx, entityType, entityID)
	if err != nil {
		return err
	}
	if err := f.Favourite(note); err != nil {
		return err
	}
	return s.commit(ctx, &f.Root)
}

// UnfavouriteAircraft removes the favourite mark from an entity.
func (s *Service) UnfavouriteAircraft(ctx context.Context, entityType, entityID string) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()

	f, err := s.loadFavourite(ctx, entityType, entityID)
	if err != nil {
		return err
	}
	if err := f.Unfavourite(); err != nil {
		return err
	}
	return s.commit(ctx, &f.Root)
}

// commit makes the aggregate's pending events durable and fans them out.
// Events are only marked committed after the journal confirms the append;
// projection apply failures do not undo a recorded fact.
func (s *Service) commit(ctx context.Context, root *aggregate.Root) error {
	events := root.UncommittedEvents()
	if len(events) == 0 {
		return nil
	}
	if _, err := s.dispatcher.DispatchAll(ctx, events); err != nil {
		return err
	}
	root.MarkEventsAsCommitted()
	return nil
}

func (s *Service) loadComment(ctx context.Context, commentID string) (*aggregate.Comment, error) {
	commentID = strings.TrimSpace(commentID)
	if commentID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "comment id is required")
	}
	history, _, err := replay.Collect(ctx, s.stores.Events, replay.Options{
		EntityType: event.EntityTypeComment,
		EntityID:   commentID,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceFailure, "load comment stream", err)
	}
	c := aggregate.NewComment(commentID, s.now)
	if err := c.LoadFromHistory(history); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) loadFavourite(ctx context.Context, entityType, entityID string) (*aggregate.Favourite, error) {
	f := aggregate.NewFavourite(entityType, entityID, s.now)
	history, _, err := replay.Collect(ctx, s.stores.Events, replay.Options{
		EntityType: event.EntityTypeFavourite,
		EntityID:   f.ID(),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceFailure, "load favourite stream", err)
	}
	if err := f.LoadFromHistory(history); err != nil {
		return nil, err
	}
	return f, nil
}

// Comment returns one comment record, deleted or not.
func (s *Service) Comment(ctx context.Context, commentID string) (storage.CommentRecord, error) {
	return s.stores.Comments.GetComment(ctx, commentID)
}

// ActiveCommentsForEntity returns the live comments on an entity, oldest
// first. Soft-deleted comments are excluded.
func (s *Service) ActiveCommentsForEntity(ctx context.Context, entityType, entityID string) ([]storage.CommentRecord, error) {
	return s.stores.Comments.ListComments(ctx, entityType, entityID, false)
}

// CommentsForEntity returns the comments on an entity, optionally including
// soft-deleted records.
func (s *Service) CommentsForEntity(ctx context.Context, entityType, entityID string, includeDeleted bool) ([]storage.CommentRecord, error) {
	return s.stores.Comments.ListComments(ctx, entityType, entityID, includeDeleted)
}

// Favourites returns every favourite presence row, oldest first.
func (s *Service) Favourites(ctx context.Context) ([]storage.FavouriteRecord, error) {
	return s.stores.Favourites.ListFavourites(ctx)
}

// IsFavourite reports whether an entity currently has a presence row.
func (s *Service) IsFavourite(ctx context.Context, entityType, entityID string) (bool, error) {
	_, err := s.stores.Favourites.GetFavourite(ctx, entityType, entityID)
	if err != nil {
		if apperrors.CategoryOf(err) == apperrors.CategoryNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AircraftState returns the live read-model row for one aircraft.
func (s *Service) AircraftState(ctx context.Context, icao24 string) (storage.AircraftStateRecord, error) {
	return s.stores.Aircraft.GetAircraftState(ctx, normalizeICAO(icao24))
}

// ListAircraft returns aircraft rows ordered by transponder address.
func (s *Service) ListAircraft(ctx context.Context, onlyPresent bool) ([]storage.AircraftStateRecord, error) {
	return s.stores.Aircraft.ListAircraftStates(ctx, onlyPresent)
}

// SnapshotAt reconstructs the tracked sky at a past instant from the journal.
func (s *Service) SnapshotAt(ctx context.Context, at time.Time) (*snapshot.Snapshot, error) {
	return s.snapshots.SnapshotAt(ctx, at)
}

// AircraftStateAt replays one aircraft's stream up to a past instant.
func (s *Service) AircraftStateAt(ctx context.Context, icao24 string, at time.Time) (aircraft.State, error) {
	return s.snapshots.AircraftStateAt(ctx, icao24, at)
}

// SnapshotSeries reconstructs snapshots at fixed intervals across a window.
func (s *Service) SnapshotSeries(ctx context.Context, start, end time.Time, interval time.Duration) ([]*snapshot.Snapshot, error) {
	return s.snapshots.SnapshotSeries(ctx, start, end, interval)
}

// FindAircraftAtLocation returns the aircraft within radiusKm of a point at
// a past instant, nearest first.
func (s *Service) FindAircraftAtLocation(ctx context.Context, lat, lon, radiusKm float64, at time.Time) ([]snapshot.Nearby, error) {
	return s.snapshots.FindAircraftAtLocation(ctx, lat, lon, radiusKm, at)
}

// CompareSnapshots reconstructs the sky at two instants and reports what
// appeared or disappeared between them, plus aircraft that moved more than
// thresholdKm.
func (s *Service) CompareSnapshots(ctx context.Context, beforeAt, afterAt time.Time, thresholdKm float64) (snapshot.Diff, error) {
	before, err := s.snapshots.SnapshotAt(ctx, beforeAt)
	if err != nil {
		return snapshot.Diff{}, err
	}
	after, err := s.snapshots.SnapshotAt(ctx, afterAt)
	if err != nil {
		return snapshot.Diff{}, err
	}
	return snapshot.Compare(before, after, thresholdKm), nil
}

// QueryEvents returns one page of journal events matching an AIP-160 filter
// expression such as `type = "comment.added" AND ts >= timestamp("...")`.
// An empty filter matches everything.
func (s *Service) QueryEvents(ctx context.Context, filterExpr string, pageSize int, afterSeq int64) (storage.EventPageResult, error) {
	cond, err := filter.ParseEventFilter(filterExpr)
	if err != nil {
		return storage.EventPageResult{}, err
	}
	return s.stores.Events.ListEventsPage(ctx, storage.EventPageRequest{
		AfterSeq:     afterSeq,
		PageSize:     pageSize,
		FilterClause: cond.Clause,
		FilterParams: cond.Params,
	})
}

// Events is a passthrough for callers that build their own page request.
func (s *Service) Events(ctx context.Context, req storage.EventPageRequest) (storage.EventPageResult, error) {
	return s.stores.Events.ListEventsPage(ctx, req)
}

// Statistics returns aggregate counters, optionally bounded to events at or
// after since.
func (s *Service) Statistics(ctx context.Context, since *time.Time) (storage.TrackerStatistics, error) {
	return s.stores.Statistics.GetTrackerStatistics(ctx, since)
}

// RebuildAll wipes and replays every projection. This is the sanctioned
// recovery path for a corrupted or lagging read model.
func (s *Service) RebuildAll(ctx context.Context) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()
	return projection.RebuildAll(ctx, s.stores.Checkpoints, s.comments, s.favourites, s.aircraft)
}

// CatchUp replays journal events past each projection's checkpoint, bringing
// the read models current after a restart.
func (s *Service) CatchUp(ctx context.Context) error {
	return projection.CatchUp(ctx, s.stores.Events, s.stores.Checkpoints, s.comments, s.favourites, s.aircraft)
}

func normalizeICAO(icao24 string) string {
	return strings.ToLower(strings.TrimSpace(icao24))
}
