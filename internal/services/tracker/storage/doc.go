// Package storage declares the persistence boundaries for the tracker: the
// append-only event journal that is the source of truth, and the disposable
// read-model stores the projections write into. Implementations live in
// subpackages; callers depend on these interfaces only.
package storage
