package metadata

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"log/slog"

	"reshelf/internal/logging"
	"reshelf/internal/metadata/tmdb"
	"reshelf/internal/rules"
)

// TMDBResolver resolves queries against the TMDB catalog.
type TMDBResolver struct {
	client tmdb.Searcher
	logger *slog.Logger
}

var _ Resolver = (*TMDBResolver)(nil)

// NewTMDBResolver wraps a TMDB client as a Resolver.
func NewTMDBResolver(client tmdb.Searcher, logger *slog.Logger) *TMDBResolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TMDBResolver{client: client, logger: logging.NewComponentLogger(logger, "metadata")}
}

// Search resolves the query against TMDB. A direct id lookup wins when the
// filename embedded one. Title searches are scoped to the parsed year and
// retried once without it when the scoped search comes back empty. A nil
// result with a nil error means the catalog had no match.
func (r *TMDBResolver) Search(ctx context.Context, query Query) (*Metadata, error) {
	if r.client == nil {
		return nil, errors.New("tmdb client unavailable")
	}
	if query.TMDBID > 0 {
		return r.lookupByID(ctx, query.TMDBID, query.Media)
	}

	title := strings.TrimSpace(query.Title)
	if title == "" {
		return nil, errors.New("query title must not be empty")
	}

	opts := tmdb.SearchOptions{Year: parseYear(query.Year)}
	resp, err := r.search(ctx, title, query.Media, opts)
	if err != nil {
		return nil, err
	}
	if (resp == nil || len(resp.Results) == 0) && opts.Year > 0 {
		r.logger.Debug("year-scoped search empty, retrying without year",
			logging.String("title", title),
			logging.Int("year", opts.Year))
		resp, err = r.search(ctx, title, query.Media, tmdb.SearchOptions{})
		if err != nil {
			return nil, err
		}
	}
	if resp == nil || len(resp.Results) == 0 {
		return nil, nil
	}
	meta := resultMetadata(resp.Results[0], query.Media)
	r.logger.Debug("resolved metadata",
		logging.String("title", meta.Title),
		logging.String("year", meta.Year),
		logging.Int64("tmdb_id", meta.TMDBID))
	return meta, nil
}

// EpisodeTitle fetches the episode name from the show's season details.
func (r *TMDBResolver) EpisodeTitle(ctx context.Context, showID int64, season, episode int) (string, error) {
	if r.client == nil {
		return "", errors.New("tmdb client unavailable")
	}
	details, err := r.client.GetSeasonDetails(ctx, showID, season)
	if err != nil {
		return "", err
	}
	if details == nil {
		return "", nil
	}
	for _, ep := range details.Episodes {
		if ep.EpisodeNumber == episode {
			return strings.TrimSpace(ep.Name), nil
		}
	}
	return "", nil
}

func (r *TMDBResolver) search(ctx context.Context, title string, media rules.MediaKind, opts tmdb.SearchOptions) (*tmdb.Response, error) {
	if media == rules.MediaTV {
		return r.client.SearchTV(ctx, title, opts)
	}
	return r.client.SearchMovie(ctx, title, opts)
}

func (r *TMDBResolver) lookupByID(ctx context.Context, id int64, media rules.MediaKind) (*Metadata, error) {
	var (
		result *tmdb.Result
		err    error
	)
	if media == rules.MediaTV {
		result, err = r.client.GetTVDetails(ctx, id)
	} else {
		result, err = r.client.GetMovieDetails(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return resultMetadata(*result, media), nil
}

// resultMetadata maps a TMDB payload onto resolved metadata. Movie payloads
// carry Title/ReleaseDate; TV payloads carry Name/FirstAirDate. The year is
// the leading four digits of the relevant date.
func resultMetadata(result tmdb.Result, media rules.MediaKind) *Metadata {
	title := result.Title
	date := result.ReleaseDate
	if media == rules.MediaTV {
		title = result.Name
		date = result.FirstAirDate
	}
	year := ""
	if len(date) >= 4 {
		year = date[:4]
	}
	return &Metadata{
		Provider: ProviderTMDB,
		TMDBID:   result.ID,
		Title:    strings.TrimSpace(title),
		Year:     year,
	}
}

func parseYear(raw string) int {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || year <= 0 {
		return 0
	}
	return year
}
