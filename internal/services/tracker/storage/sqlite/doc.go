// Package sqlite implements the tracker persistence contracts for the event
// journal and the projection read models.
//
// Why this package exists:
// - One skylog.db file carries the journal, the read models, and the replay
//   checkpoints, so a single backend owns every table.
// - Sequence assignment and the journal insert must share a transaction,
//   which only the backend can guarantee.
// - The schema ships as embedded migrations applied on open, so a fresh file
//   and an upgraded one go through the same path.
//
// Everything above this package works with domain records; SQL stays inside.
package sqlite
