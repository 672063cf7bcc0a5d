// Package logging builds the process-wide slog logger.
//
// Two formats are supported: a console handler that renders single-line,
// component-prefixed records for interactive use, and a JSON handler with
// normalized ts/level/msg keys for ingestion into log tooling. Output can
// fan out to stdout/stderr and an append-only log file simultaneously.
package logging
