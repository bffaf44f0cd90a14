// Package watch turns filesystem events into organize requests. It watches
// the configured source directories recursively via fsnotify, filters by
// extension, and waits for each new file's size to stabilize before handing
// it to the daemon, so partially written downloads are never consumed.
package watch
