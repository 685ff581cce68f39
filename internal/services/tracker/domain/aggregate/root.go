package aggregate

import (
	"fmt"

	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
)

// Root carries the bookkeeping every aggregate shares: the stream id, the
// count of events applied, and the events generated but not yet persisted.
//
// Concrete aggregates embed Root and hand it their apply function so that
// replayed history and freshly emitted events flow through the same fold.
type Root struct {
	id          string
	version     int
	uncommitted []event.Event
	apply       func(event.Event) error
}

// NewRoot builds the shared aggregate core. The apply function folds one
// event into the concrete aggregate's state.
func NewRoot(id string, apply func(event.Event) error) Root {
	return Root{id: id, apply: apply}
}

// ID returns the aggregate stream id.
func (r *Root) ID() string { return r.id }

// Version returns the number of events applied to this aggregate,
// replayed and uncommitted alike.
func (r *Root) Version() int { return r.version }

// LoadFromHistory hydrates the aggregate by folding each event in order.
// It leaves the uncommitted list untouched, so after hydration the version
// equals the replayed-event count and nothing is pending.
func (r *Root) LoadFromHistory(events []event.Event) error {
	for _, evt := range events {
		if err := r.applyOne(evt); err != nil {
			return fmt.Errorf("load history for %s: %w", r.id, err)
		}
	}
	return nil
}

// Record applies a newly generated event to the aggregate state and queues
// it for persistence. The state reflects the event immediately; the event
// stays in the uncommitted list until MarkEventsAsCommitted.
func (r *Root) Record(evt event.Event) error {
	if err := r.applyOne(evt); err != nil {
		return err
	}
	r.uncommitted = append(r.uncommitted, evt)
	return nil
}

// UncommittedEvents returns a copy of the events generated since the last
// commit, in emission order.
func (r *Root) UncommittedEvents() []event.Event {
	out := make([]event.Event, len(r.uncommitted))
	copy(out, r.uncommitted)
	return out
}

// MarkEventsAsCommitted clears the uncommitted list after the caller has
// durably persisted the events.
func (r *Root) MarkEventsAsCommitted() {
	r.uncommitted = nil
}

func (r *Root) applyOne(evt event.Event) error {
	if r.apply != nil {
		if err := r.apply(evt); err != nil {
			return err
		}
	}
	r.version++
	return nil
}
