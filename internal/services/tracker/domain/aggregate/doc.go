// Package aggregate holds the write-side consistency boundaries. An
// aggregate is hydrated by replaying its event stream, validates commands
// against that replayed state, and emits new events that stay uncommitted
// until the caller persists them and marks them committed. Aggregates are
// transient; only their events are durable.
package aggregate
