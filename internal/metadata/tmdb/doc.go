// Package tmdb provides the minimal TMDB API client used during metadata
// resolution.
//
// It authenticates requests and exposes movie and TV search with optional
// release-year filters, movie/TV detail retrieval by id, and season detail
// lookups for episode titles. Responses are strongly typed so the resolver can
// map them directly. Options allow tests to supply custom HTTP clients without
// modifying production code.
package tmdb
