// Package metadata resolves parsed filename attributes into canonical
// title/year metadata.
//
// Two resolvers implement the shared Resolver interface: TMDBResolver queries
// the TMDB catalog (direct id lookups, year-scoped title searches, episode
// titles from season details), and Fallback echoes the parsed attributes so
// organizing keeps working when no API key is configured.
package metadata
