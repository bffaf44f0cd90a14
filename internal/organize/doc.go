// Package organize moves media files into the canonical library layout.
//
// It matches structured attributes out of filenames, resolves metadata to
// derive filesystem targets, and transfers files under the configured mode
// with idempotent re-runs (an existing destination is success, not an error).
// Every attempt is journaled to the history store and error wrapping follows
// the services conventions so callers can classify failures uniformly.
//
// Extend organization behaviour here whenever library placement changes.
package organize
