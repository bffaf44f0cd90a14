package metadata

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fallback resolves metadata without consulting any catalog. It echoes the
// parsed attributes so organizing keeps working when no TMDB API key is
// configured.
type Fallback struct{}

var _ Resolver = (*Fallback)(nil)

// NewFallback creates the offline resolver.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Search echoes the query attributes as resolved metadata. It never fails.
func (f *Fallback) Search(_ context.Context, query Query) (*Metadata, error) {
	year := strings.TrimSpace(query.Year)
	if year == "" {
		year = "Unknown"
	}
	return &Metadata{
		Provider: ProviderFallback,
		TMDBID:   query.TMDBID,
		Title:    displayTitle(query.Title),
		Year:     year,
	}, nil
}

// EpisodeTitle always reports no title; there is no catalog to consult.
func (f *Fallback) EpisodeTitle(context.Context, int64, int, int) (string, error) {
	return "", nil
}

// displayTitle title-cases titles that carry no casing signal of their own
// (all lower or all upper). Mixed-case titles pass through unchanged.
func displayTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return title
	}
	if title != strings.ToLower(title) && title != strings.ToUpper(title) {
		return title
	}
	return cases.Title(language.Und).String(strings.ToLower(title))
}
