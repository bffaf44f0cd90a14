package metadata

import (
	"context"

	"reshelf/internal/rules"
)

// Provider names recorded on resolved metadata.
const (
	ProviderTMDB     = "tmdb"
	ProviderFallback = "fallback"
)

// Metadata is the canonical identity of a media item after resolution. Title
// and Year feed path synthesis; TMDBID enables episode-title lookups.
type Metadata struct {
	Provider string
	TMDBID   int64
	Title    string
	Year     string
}

// Query carries the parsed filename attributes a resolver works from.
type Query struct {
	Title  string
	Year   string
	Media  rules.MediaKind
	TMDBID int64
}

// Resolver turns parsed filename attributes into canonical metadata.
//
// Search returns nil when the catalog has no match for the query.
// EpisodeTitle is best-effort; callers treat failures as "no title".
type Resolver interface {
	Search(ctx context.Context, query Query) (*Metadata, error)
	EpisodeTitle(ctx context.Context, showID int64, season, episode int) (string, error)
}
