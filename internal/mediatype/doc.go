// Package mediatype owns the static knowledge about supported media:
// the extension allow-list, extension/MIME normalization, and the
// processing profile (target renditions, extra renditions, advisory time
// budget) attached to each known content type.
//
// The profile table is the single source of truth consulted by ingestion
// (allow-list), the worker (what to produce), compression accounting
// (what to measure), and the deletion cascade (what to remove).
package mediatype
