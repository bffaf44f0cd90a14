// Package naming maps resolved media attributes onto canonical Plex-style
// library paths.
//
// Movies land under Movies/{Title (Year)} and episodes under
// TV Shows/{Show}/Season NN, with every user-derived path segment sanitized
// for filesystem safety. Path synthesis is pure and deterministic so the
// organizer can preview destinations without touching the filesystem.
package naming
