// Package jobs implements the processing job protocol on top of the shared
// state store: a FIFO queue of identifiers, a per-identifier lock marker,
// and a one-shot error marker.
//
// The lock marker is the only synchronization device between ingestion and
// the transcode workers. While it is present, derived renditions on disk
// must not be trusted even if some files exist; a job may be mid-flight.
// The error marker holds the failure reason of the last failed job and is
// consumed destructively by the first status read.
//
// For any identifier at most one of these holds: lock present (processing),
// error present with lock absent (failed, unreported), neither (done).
package jobs
