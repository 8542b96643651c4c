// Package store provides SQLite-backed durable storage for engine event logs.
//
// The store is an append-only table of ir.EventRecord rows, one per emitted
// engine event. A Recorder subscribes to a live engine and writes every event
// as it happens; the harness replays a recorded log back into a fresh engine.
//
// # Ordering
//
// All reads order by seq ASC, id ASC COLLATE BINARY. Seq is the engine's
// logical clock; wall-clock time is stored but never used for ordering, so a
// log read back after replay is byte-identical to the original.
//
// # Idempotency
//
// Event IDs are content hashes (see ir.EventID). Writes use
// ON CONFLICT(id) DO NOTHING, so re-recording the same run is harmless.
//
// # Schema
//
// schema.sql is the version 0 layout. Open applies it, then every entry of
// the migrations list newer than PRAGMA user_version, one transaction each.
// The engine_stats view backs ListEngines, LastSeq and EngineSummary.
//
// Connections run in WAL mode with synchronous=NORMAL and a 5 second busy
// timeout, so trace can read a log while run is still recording it.
package store
