// Package api defines wire-format types, converters, and the HTTP client for
// the daemon API. It translates internal journal and organize models into
// transport-friendly DTOs so consumers never couple to internal types.
//
// # Key Types
//
// HistoryEntry: transport representation of one journal row.
//
// DaemonStatus: daemon running state, watched directories, and journal totals.
//
// Preview: planned library destination for a single source file.
//
// Client: typed HTTP access to every daemon endpoint, used by the CLI.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums (history.Status, organize.Mode)
// are exposed as lowercase strings. Timestamps use RFC3339 with milliseconds.
//
// Client dial failures wrap ErrDaemonUnavailable so callers can distinguish
// "daemon not running" from API-level errors, which surface as *APIError with
// the HTTP status code.
package api
