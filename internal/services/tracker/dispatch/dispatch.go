// Package dispatch couples durable event appends to projection fan-out.
//
// Dispatch appends an event to the journal first and only then hands the
// stored event to each projection in order. A failed append means nothing
// happened anywhere. A failed projection apply is recorded per projection
// and never rolls back the append or blocks the remaining projections;
// the failed read model catches up on the next rebuild.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	apperrors "github.com/skylog-dev/skylog/internal/platform/errors"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/projection"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// ErrEventStoreRequired is returned when the dispatcher has no journal to
// append to.
var ErrEventStoreRequired = errors.New("event store is required")

// ProjectionResult records the outcome of one projection apply during a
// dispatch.
type ProjectionResult struct {
	// Name is the projection's registered name.
	Name string
	// Handled reports whether the projection recognized the event type.
	Handled bool
	// Duration is how long the apply took.
	Duration time.Duration
	// Err is the apply failure, nil on success.
	Err error
}

// Result is the outcome of dispatching one event: the stored event with
// its assigned sequence, plus one entry per configured projection.
type Result struct {
	Event       event.Event
	Projections []ProjectionResult
}

// Succeeded reports whether every projection applied cleanly. The event is
// durable either way; a false return means at least one read model is
// behind the journal.
func (r Result) Succeeded() bool {
	for _, pr := range r.Projections {
		if pr.Err != nil {
			return false
		}
	}
	return true
}

// Failures returns the projection results that carry an error.
func (r Result) Failures() []ProjectionResult {
	var failed []ProjectionResult
	for _, pr := range r.Projections {
		if pr.Err != nil {
			failed = append(failed, pr)
		}
	}
	return failed
}

// Dispatcher appends events and fans them out to projections. Configure it
// with struct literals; only Events is required.
type Dispatcher struct {
	// Events is the journal every dispatched event is appended to.
	Events storage.EventStore
	// Projections receive each stored event in slice order.
	Projections []projection.Projection
	// Checkpoints, when set, records each projection's position after a
	// successful apply so startup catch-up can skip already-applied events.
	Checkpoints storage.CheckpointStore
}

// Dispatch appends evt to the journal and applies the stored event to each
// projection in order. The returned error is non-nil only when the append
// itself failed; projection failures live in the result.
func (d *Dispatcher) Dispatch(ctx context.Context, evt event.Event) (Result, error) {
	if d.Events == nil {
		return Result{}, ErrEventStoreRequired
	}
	stored, err := d.Events.AppendEvent(ctx, evt)
	if err != nil {
		return Result{}, appendError("append event", err)
	}
	return d.fanOut(ctx, stored), nil
}

// DispatchAll appends events as one atomic batch and then fans out each
// stored event in order. A failed append stores nothing and reaches no
// projection; projection failures are recorded per event and never stop
// the batch.
func (d *Dispatcher) DispatchAll(ctx context.Context, events []event.Event) ([]Result, error) {
	if d.Events == nil {
		return nil, ErrEventStoreRequired
	}
	if len(events) == 0 {
		return nil, nil
	}
	stored, err := d.Events.AppendEvents(ctx, events)
	if err != nil {
		return nil, appendError("append events", err)
	}
	results := make([]Result, 0, len(stored))
	for _, evt := range stored {
		results = append(results, d.fanOut(ctx, evt))
	}
	return results, nil
}

func (d *Dispatcher) fanOut(ctx context.Context, stored event.Event) Result {
	res := Result{
		Event:       stored,
		Projections: make([]ProjectionResult, 0, len(d.Projections)),
	}
	for _, p := range d.Projections {
		if p == nil {
			continue
		}
		start := time.Now()
		handled, err := p.ApplyEvent(ctx, stored)
		pr := ProjectionResult{
			Name:     p.Name(),
			Handled:  handled,
			Duration: time.Since(start),
		}
		if err != nil {
			pr.Err = apperrors.WrapWithMetadata(
				apperrors.CodeProjectionApplyFailure,
				fmt.Sprintf("apply %s projection", p.Name()),
				map[string]string{
					"event_id":   stored.ID,
					"event_type": string(stored.Type),
				},
				err,
			)
			log.Printf("dispatch: projection %s failed for event id=%s type=%s: %v", p.Name(), stored.ID, stored.Type, err)
			res.Projections = append(res.Projections, pr)
			continue
		}
		// The checkpoint advances past unhandled events too; the
		// projection is consistent through this seq either way.
		if d.Checkpoints != nil {
			cp := storage.CheckpointRecord{
				Name:      p.Name(),
				LastSeq:   stored.Seq,
				UpdatedAt: time.Now().UTC(),
			}
			if cpErr := d.Checkpoints.PutCheckpoint(ctx, cp); cpErr != nil {
				// Catch-up re-applies from the stale position; applies
				// are idempotent, so losing a checkpoint write costs a
				// replay, not correctness.
				log.Printf("dispatch: checkpoint %s at seq %d failed: %v", p.Name(), stored.Seq, cpErr)
			}
		}
		res.Projections = append(res.Projections, pr)
	}
	return res
}

// appendError codes an append failure. Registry rejections keep their
// invalid-event classification; everything else is a storage fault and the
// caller may retry the whole operation.
func appendError(msg string, err error) error {
	if event.IsValidationError(err) {
		return apperrors.Wrap(apperrors.CodeEventInvalid, msg, err)
	}
	return apperrors.Wrap(apperrors.CodePersistenceFailure, msg, err)
}
