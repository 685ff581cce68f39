package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/skylog-dev/skylog/internal/services/tracker/dispatch"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

const (
	// DefaultInterval is how often the poller fetches when unconfigured.
	DefaultInterval = 15 * time.Second
	// DefaultStaleAfter is how long an aircraft may miss from the feed
	// before it is declared departed.
	DefaultStaleAfter = 90 * time.Second
)

var (
	// ErrSourceRequired is returned when the poller has no feed source.
	ErrSourceRequired = errors.New("feed source is required")
	// ErrDispatcherRequired is returned when the poller has no dispatcher.
	ErrDispatcherRequired = errors.New("dispatcher is required")
	// ErrCycleRunning reports a poll cycle already in flight.
	ErrCycleRunning = errors.New("ingest cycle already running")
)

// Poller drives periodic ingestion: fetch the feed, diff against the known
// aircraft, dispatch the change events. Cycles never overlap; a tick that
// arrives while a cycle is still running is skipped.
//
// Configure the exported fields before calling Run or RunOnce. Seed, when
// used, must also happen before polling starts.
type Poller struct {
	Source     Source
	Dispatcher *dispatch.Dispatcher
	// Interval between cycles. Zero means DefaultInterval.
	Interval time.Duration
	// StaleAfter is the feed absence after which an aircraft is declared
	// departed. Zero means DefaultStaleAfter.
	StaleAfter time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time

	busy  atomic.Bool
	known map[string]Observed
}

// Seed primes the known set from the live read model so a restart does not
// re-announce every aircraft already being tracked.
func (p *Poller) Seed(ctx context.Context, states storage.AircraftStateStore) error {
	if states == nil {
		return fmt.Errorf("aircraft state store is required")
	}
	records, err := states.ListAircraftStates(ctx, true)
	if err != nil {
		return fmt.Errorf("list aircraft states: %w", err)
	}
	known := make(map[string]Observed, len(records))
	for _, rec := range records {
		known[rec.ICAO24] = Observed{
			Sighting: Sighting{
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
				ObservedAt:     rec.LastSeenAt,
			},
			LastSeenAt: rec.LastSeenAt,
		}
	}
	p.known = known
	log.Printf("ingest: seeded %d tracked aircraft", len(known))
	return nil
}

// Run polls the source until ctx is cancelled. The first cycle starts
// immediately; later cycles fire on the interval. Cancellation stops
// future cycles but lets the in-flight one finish.
func (p *Poller) Run(ctx context.Context) error {
	if p.Source == nil {
		return ErrSourceRequired
	}
	if p.Dispatcher == nil {
		return ErrDispatcherRequired
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log.Printf("ingest: polling every %s", interval)

	p.runGuarded(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.runGuarded(ctx)
		}
	}
}

// RunOnce executes a single fetch-diff-dispatch cycle. Only one cycle runs
// at a time; a call that would overlap returns ErrCycleRunning.
func (p *Poller) RunOnce(ctx context.Context) error {
	if p.Source == nil {
		return ErrSourceRequired
	}
	if p.Dispatcher == nil {
		return ErrDispatcherRequired
	}
	if !p.busy.CompareAndSwap(false, true) {
		return ErrCycleRunning
	}
	defer p.busy.Store(false)
	return p.cycle(ctx)
}

func (p *Poller) runGuarded(ctx context.Context) {
	switch err := p.RunOnce(ctx); {
	case errors.Is(err, ErrCycleRunning):
		log.Printf("ingest: previous cycle still running, tick skipped")
	case err != nil:
		log.Printf("ingest: cycle failed: %v", err)
	}
}

func (p *Poller) cycle(ctx context.Context) error {
	now := p.clock()
	start := time.Now()

	// The fetch stays cancellable; aborting it leaves nothing half-done.
	sightings, err := p.Source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch sightings: %w", err)
	}

	staleAfter := p.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	events, next := Diff(p.known, sightings, now, staleAfter)

	// Dispatches run to completion even when shutdown begins mid-cycle;
	// an event must never be abandoned between the journal and its
	// projections.
	dispatchCtx := context.WithoutCancel(ctx)
	applyFailures := 0
	for i, evt := range events {
		res, err := p.Dispatcher.Dispatch(dispatchCtx, evt)
		if err != nil {
			// The known set stays unchanged, so the next cycle recomputes
			// and re-emits the remaining changes.
			return fmt.Errorf("dispatch event %d of %d: %w", i+1, len(events), err)
		}
		applyFailures += len(res.Failures())
	}
	p.known = next

	log.Printf("ingest: cycle complete sightings=%d tracked=%d events=%d projection_failures=%d elapsed=%s",
		len(sightings), len(next), len(events), applyFailures, time.Since(start).Round(time.Millisecond))
	return nil
}

func (p *Poller) clock() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}
