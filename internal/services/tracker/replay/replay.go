// Package replay pages through the event journal and hands events to
// consumers, either streaming in insertion order or collected into the
// occurred-at total order.
package replay

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	apperrors "github.com/skylog-dev/skylog/internal/platform/errors"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

const defaultPageSize = 200

// Options bounds and filters one replay pass. Zero values mean "no
// constraint".
type Options struct {
	// AfterSeq starts the pass after this journal position.
	AfterSeq int64
	// UntilSeq stops the pass before any event beyond this position.
	UntilSeq int64
	// EntityType and EntityID scope the pass to one aggregate stream.
	EntityType string
	EntityID   string
	// Types restricts applied events to the listed types. Events outside
	// the list still advance LastSeq but count as skipped.
	Types []event.Type
	// From and To bound the applied occurred-at window (inclusive).
	From *time.Time
	To   *time.Time
	// Filter further restricts applied events when set.
	Filter func(event.Event) bool
	// PageSize overrides the journal read size.
	PageSize int
}

// Result reports how far a replay pass advanced.
type Result struct {
	// LastSeq is the journal position of the last event visited, including
	// skipped events and an event whose apply failed.
	LastSeq int64
	// Applied counts events handed to the apply function.
	Applied int
	// Skipped counts events visited but filtered out by Options.
	Skipped int
}

// ApplyFunc consumes one replayed event.
type ApplyFunc func(ctx context.Context, evt event.Event) error

// Replay pages through the journal in insertion order and hands every event
// matching opts to apply. Insertion order is the order live dispatch used, so
// a consumer that converged online converges again here. The pass stops on
// the first apply error, with Result reporting the position reached.
func Replay(ctx context.Context, store storage.EventStore, opts Options, apply ApplyFunc) (Result, error) {
	if store == nil {
		return Result{}, fmt.Errorf("event store is not configured")
	}
	if apply == nil {
		return Result{}, fmt.Errorf("apply function is required")
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	res := Result{LastSeq: opts.AfterSeq}
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		events, err := listPage(ctx, store, opts, res.LastSeq, pageSize)
		if err != nil {
			return res, fmt.Errorf("list events after seq %d: %w", res.LastSeq, err)
		}
		if len(events) == 0 {
			return res, nil
		}
		for _, evt := range events {
			if opts.UntilSeq > 0 && evt.Seq > opts.UntilSeq {
				return res, nil
			}
			if evt.Seq <= res.LastSeq {
				return res, apperrors.WithMetadata(apperrors.CodeDataCorruption,
					"journal sequence regressed", map[string]string{
						"seq":      strconv.FormatInt(evt.Seq, 10),
						"after":    strconv.FormatInt(res.LastSeq, 10),
						"event_id": evt.ID,
					})
			}
			res.LastSeq = evt.Seq
			if !matches(opts, evt) {
				res.Skipped++
				continue
			}
			if err := apply(ctx, evt); err != nil {
				return res, err
			}
			res.Applied++
		}
	}
}

// Collect gathers every event matching opts into memory and returns them in
// occurred-at order with ties broken by seq. Bounded replays that need the
// strict temporal order, such as snapshot reconstruction, use this instead
// of streaming.
func Collect(ctx context.Context, store storage.EventStore, opts Options) ([]event.Event, Result, error) {
	var events []event.Event
	res, err := Replay(ctx, store, opts, func(_ context.Context, evt event.Event) error {
		events = append(events, evt)
		return nil
	})
	if err != nil {
		return nil, res, err
	}
	SortByOccurrence(events)
	return events, res, nil
}

// SortByOccurrence orders events by occurred-at ascending, breaking ties by
// insertion sequence.
func SortByOccurrence(events []event.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].Seq < events[j].Seq
		}
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
}

func listPage(ctx context.Context, store storage.EventStore, opts Options, afterSeq int64, limit int) ([]event.Event, error) {
	if opts.EntityType != "" || opts.EntityID != "" {
		return store.ListEventsByEntity(ctx, opts.EntityType, opts.EntityID, afterSeq, limit)
	}
	return store.ListEvents(ctx, afterSeq, limit)
}

func matches(opts Options, evt event.Event) bool {
	if len(opts.Types) > 0 && !containsType(opts.Types, evt.Type) {
		return false
	}
	if opts.From != nil && evt.OccurredAt.Before(*opts.From) {
		return false
	}
	if opts.To != nil && evt.OccurredAt.After(*opts.To) {
		return false
	}
	if opts.Filter != nil && !opts.Filter(evt) {
		return false
	}
	return true
}

func containsType(types []event.Type, t event.Type) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
