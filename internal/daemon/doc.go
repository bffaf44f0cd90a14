// Package daemon coordinates the long-running reshelf process.
//
// It wires configuration, the history journal, the filesystem watcher, and
// the organizer into a single lifecycle with flock-based locking to prevent
// multiple instances, and serves the HTTP API the CLI talks to. Run owns the
// process-level concerns: signal handling, run-scoped log files, the pid
// file, and log retention sweeps.
//
// Keep orchestration logic here: matching, metadata resolution, and transfer
// semantics live in their respective packages while the daemon focuses on
// startup, shutdown, and high level coordination.
package daemon
