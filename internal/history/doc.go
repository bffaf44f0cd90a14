// Package history persists a journal of organize attempts in SQLite. Each
// attempt is one row keyed by a unique operation id, recording the source,
// resolved destination, transfer mode, and a status that distinguishes
// missing sources, metadata misses, and transfer failures. The daemon reads
// the journal back for the status and history surfaces.
package history
