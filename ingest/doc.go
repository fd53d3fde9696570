// Package ingest provides the pipeline that turns raw newline-delimited
// JSON records into canonical stored articles.
//
// The Pipeline type manages the full workflow for each input line:
//   - parsing the line into a raw article (Reader)
//   - deriving the canonical record and its content-addressed hash
//     (Transformer)
//   - evaluating the ordered quality gate (Gate)
//   - idempotently upserting accepted records into the store
//
// Records are processed concurrently using a worker pool. Per-record
// failures are logged and counted but never abort the run; only store
// connectivity failures are fatal.
package ingest
