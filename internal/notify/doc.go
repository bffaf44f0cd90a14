// Package notify delivers organize events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the server and topic
// configured in config.toml and gracefully degrades to a no-op when no topic
// is set. The typed methods cover the events worth pushing (a file landing in
// the library, an organize failure, a scan summary) so callers emit consistent
// messages without duplicating HTTP glue.
//
// Extend this package if you need alternative transports; callers depend only
// on the Service interface.
package notify
