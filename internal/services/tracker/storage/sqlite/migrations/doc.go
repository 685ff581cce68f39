// Package migrations embeds the SQL migration scripts for the SQLite store.
//
// Why this package exists:
// - The journal schema and the read-model schema version together, next to
//   the store that opens them.
// - Rebuildable tables still need their DDL tracked; a projection table is
//   disposable, its shape is not.
// - Embedding keeps the binary self-contained; no migration files ride
//   alongside the executable.
package migrations
