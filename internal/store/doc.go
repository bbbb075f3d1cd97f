// Package store provides SQLite-backed durable storage for voyages.
//
// Each voyage lives in its own database file under the storage root:
//
//	<root>/<uuid>.sqlite
//
// A voyage database holds six tables:
//   - voyage: the voyage's metadata and lifecycle status
//   - artifacts: content-addressed, zstd-compressed observation payloads
//   - artifact_derivations: edges from reduced artifacts to their summaries
//   - slate: pending observations, exactly one row per target key
//   - logbook: the append-only history of sealed entries
//   - bearing_observations: the slate snapshot committed with each entry
//
// The seal transaction is the one place where slate, logbook, and
// bearing_observations are mutated together: it inserts one logbook entry,
// copies every slate row into bearing_observations against the new entry
// id, and empties the slate — atomically. A reader never observes a
// cleared slate without its bearing, or the reverse.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds, then surface
//     Contention to the caller (the store never retries on its own)
//   - foreign_keys=ON: enforce referential integrity on every connection
//
// The schema version is persisted in PRAGMA user_version at creation and
// checked on every open; a mismatch fails with SchemaVersionMismatch and
// no implicit migration.
//
// Artifact hashes are SHA-256 over the canonical uncompressed payload
// bytes. The hash is a stable reference for the artifact's whole life, but
// a content proof only while its status is stowed — once reduced or
// jettisoned, the bytes the hash once addressed are gone.
package store
