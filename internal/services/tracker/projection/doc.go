// Package projection derives the queryable read models from the event
// journal. Projections are disposable: any of them can be cleared and
// rebuilt from the journal alone, and reapplying an already-applied event
// converges to the same state.
package projection
