// Package sync implements the offline-first reconciliation engine that
// keeps the local store and the remote store convergent.
//
// # Overview
//
// Each syncable entity kind (tasks, sessions, sleep entries) moves
// through three phases per cycle:
//
//	Local Store (sqlite, sync-state tagged)
//	     │ Push    pending/error rows → idempotent remote upsert by natural key
//	     │ Pull    remote rows absent locally → inserted as synced
//	     │ Prune   local synced rows gone remotely → deleted locally
//	     ▼
//	Remote Store (REST API, source of truth)
//
// Push runs before Prune so a local-only record becomes visible
// remotely before anything decides it is safe to delete.
//
// # Safety invariant
//
// A record is only ever deleted automatically while its state is
// synced. Pending and error records hold writes the remote side has
// never seen; Prune skips them unconditionally and Pull never mutates
// an existing local row (local pending wins).
//
// # Failure semantics
//
// Connectivity loss is detected once and aborts the remaining phases of
// the cycle; phases already completed stand. A missing owner aborts
// before any phase. Per-record remote rejections are collected into the
// cycle result and never stop the batch. No cursor or log is kept:
// every cycle re-derives its decisions from current state, so
// overlapping cycles do redundant but harmless work.
package sync
