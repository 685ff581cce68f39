package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/skylog-dev/skylog/internal/platform/errors"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/replay"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// Projection consumes journal events into a read model. ApplyEvent reports
// whether the event type is one the projection handles.
type Projection interface {
	Name() string
	ApplyEvent(ctx context.Context, evt event.Event) (bool, error)
}

// Rebuildable is a projection that can discard its read model and
// reconstruct it from the journal.
type Rebuildable interface {
	Projection
	Rebuild(ctx context.Context) (replay.Result, error)
}

// RebuildAll rebuilds every projection in the given order. This is the
// sanctioned recovery path for a corrupted or lagging read model. The
// checkpoint store is optional; when present, each checkpoint is zeroed
// before its rebuild so a crash mid-rebuild leaves catch-up replaying from
// the start instead of trusting a stale position.
func RebuildAll(ctx context.Context, checkpoints storage.CheckpointStore, projections ...Rebuildable) error {
	for _, p := range projections {
		if p == nil {
			continue
		}
		if checkpoints != nil {
			if err := checkpoints.PutCheckpoint(ctx, storage.CheckpointRecord{Name: p.Name()}); err != nil {
				return fmt.Errorf("reset %s checkpoint: %w", p.Name(), err)
			}
		}
		res, err := p.Rebuild(ctx)
		if err != nil {
			return fmt.Errorf("rebuild %s: %w", p.Name(), err)
		}
		if checkpoints != nil {
			if err := checkpoints.PutCheckpoint(ctx, storage.CheckpointRecord{
				Name:      p.Name(),
				LastSeq:   res.LastSeq,
				UpdatedAt: time.Now().UTC(),
			}); err != nil {
				return fmt.Errorf("save %s checkpoint: %w", p.Name(), err)
			}
		}
	}
	return nil
}

// CatchUp replays journal events recorded after each projection's
// checkpoint, bringing read models current after a restart without a full
// rebuild. The checkpoint advances after every applied event, so an
// interrupted pass resumes where it stopped.
func CatchUp(ctx context.Context, events storage.EventStore, checkpoints storage.CheckpointStore, projections ...Projection) error {
	if events == nil {
		return fmt.Errorf("event store is not configured")
	}
	if checkpoints == nil {
		return fmt.Errorf("checkpoint store is not configured")
	}
	for _, p := range projections {
		if p == nil {
			continue
		}
		cp, err := checkpoints.GetCheckpoint(ctx, p.Name())
		if err != nil {
			return fmt.Errorf("get %s checkpoint: %w", p.Name(), err)
		}
		res, err := replay.Replay(ctx, events, replay.Options{AfterSeq: cp.LastSeq},
			func(ctx context.Context, evt event.Event) error {
				if _, err := p.ApplyEvent(ctx, evt); err != nil {
					return err
				}
				return checkpoints.PutCheckpoint(ctx, storage.CheckpointRecord{
					Name:      p.Name(),
					LastSeq:   evt.Seq,
					UpdatedAt: time.Now().UTC(),
				})
			})
		if err != nil {
			return fmt.Errorf("catch up %s at seq %d: %w", p.Name(), res.LastSeq, err)
		}
	}
	return nil
}

// stale reports whether evt is not newer than the state already folded into
// a record. Later occurred-at wins; equal instants fall back to the
// insertion sequence.
func stale(lastAt time.Time, lastSeq int64, evt event.Event) bool {
	if evt.OccurredAt.Before(lastAt) {
		return true
	}
	if evt.OccurredAt.Equal(lastAt) {
		return evt.Seq <= lastSeq
	}
	return false
}

// decodePayload unmarshals an event payload into target, reporting a
// malformed payload as data corruption under the given name.
func decodePayload(payload []byte, target any, name string) error {
	if err := json.Unmarshal(payload, target); err != nil {
		return apperrors.Wrap(apperrors.CodeDataCorruption,
			fmt.Sprintf("decode %s payload", name), err)
	}
	return nil
}
