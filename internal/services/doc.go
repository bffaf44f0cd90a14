// Package services defines shared utilities consumed by the organizer pipeline
// and the daemon surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp operation identifiers, source paths, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent journal statuses.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the daemon and CLI.
package services
