// Package kvstore persists the shared coordination state in SQLite: a flat
// key-value table for presence markers and counters, and an ordered list
// table for FIFO work queues.
//
// Ingestion processes and transcode workers share nothing but this store
// and the blob directory, so every exported operation is individually
// atomic. Multi-step protocols (enqueue a job and set its lock marker)
// run inside Update, which scopes the steps to one SQLite transaction.
//
// The database is transient coordination state, not an archive. Schema
// changes bump the version in schema.go; a mismatched database must be
// removed to adopt the new schema.
package kvstore
