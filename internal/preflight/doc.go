// Package preflight provides readiness checks for the directories and
// external services reshelf depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs failures as warnings so a
//     misconfigured watch directory is visible before the first event.
//   - The CLI "reshelf config validate" command prints each result so setup
//     problems surface before the daemon ever starts.
//
// Each check is gated by its config value -- unconfigured features are skipped.
package preflight
