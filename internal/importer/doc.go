// Package importer implements the bulk import pipeline for catalog items.
//
// # Architecture
//
// The pipeline follows a simple flow:
//
//	Source payload → Parser → ImportSourceRecord → Normalizer → NormalizedItem
//	    → Deduplication → BatchSubmitter → Catalog → ImportResult
//
// Parsers turn a raw payload (JSON, JSONL, CSV, or a newline URL list)
// into source records. The Normalizer applies the quality gate and the
// title/description invariants and stamps provenance tags. The
// BatchSubmitter then drives the records through the Catalog boundary:
// strictly ordered batches for file imports, small concurrent groups
// for bulk-URL imports.
//
// # Runs
//
// A Run is one import execution with an explicit lifecycle
// (Idle → Running → Completed | Failed | Cancelled). Runs execute on a
// goroutine owned by the requesting session and are polled through the
// Registry; cancellation is cooperative, observed at batch, group and
// per-URL checkpoints, and never interrupts work already in flight.
//
// # Catalog boundary
//
// Everything the pipeline needs from the catalog service goes through
// the Catalog interface. Client is the HTTP implementation with
// per-request timeout and bounded retry; single-binary deployments use
// the in-process adapter in internal/catalog.
package importer
