package organize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"reshelf/internal/config"
	"reshelf/internal/history"
	"reshelf/internal/logging"
	"reshelf/internal/metadata"
	"reshelf/internal/metadata/tmdb"
	"reshelf/internal/naming"
	"reshelf/internal/notify"
	"reshelf/internal/rules"
	"reshelf/internal/services"
)

// Request describes one file to organize. DestBase, Media, and Mode are
// optional; empty values fall back to the configuration.
type Request struct {
	Source   string
	DestBase string
	Media    string
	Mode     string
}

// Result reports where a file landed (or would land, for Plan).
type Result struct {
	Source      string
	Destination string
	Match       rules.MatchResult
	Meta        *metadata.Metadata
	Mode        Mode
	Transferred bool
}

// DisplayTitle returns the resolved metadata title when present, falling back
// to the title parsed from the filename.
func (r *Result) DisplayTitle() string {
	if r.Meta != nil && strings.TrimSpace(r.Meta.Title) != "" {
		return strings.TrimSpace(r.Meta.Title)
	}
	return r.Match.Title
}

// Organizer moves media files into the canonical library layout.
type Organizer struct {
	cfg      *config.Config
	matcher  *rules.Matcher
	resolver metadata.Resolver
	namer    naming.Namer
	store    *history.Store
	notifier notify.Service
	logger   *slog.Logger
}

// New constructs an organizer using default collaborators: the rule table
// from config, a TMDB resolver when an API key is configured (the offline
// fallback otherwise), and the configured notifier. The history store may be
// nil for callers that do not journal.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger) (*Organizer, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	resolver, err := newResolver(cfg, logger)
	if err != nil {
		return nil, err
	}
	matcher := rules.NewMatcher(logger, rules.FromConfig(cfg)...)
	return NewWithDependencies(cfg, store, logger, matcher, resolver, notify.NewService(cfg)), nil
}

// NewWithDependencies allows injecting collaborators (used in tests).
func NewWithDependencies(cfg *config.Config, store *history.Store, logger *slog.Logger, matcher *rules.Matcher, resolver metadata.Resolver, notifier notify.Service) *Organizer {
	return &Organizer{
		cfg:      cfg,
		matcher:  matcher,
		resolver: resolver,
		namer:    naming.Namer{MoviesDir: cfg.Library.MoviesDir, TVDir: cfg.Library.TVDir},
		store:    store,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "organize"),
	}
}

func newResolver(cfg *config.Config, logger *slog.Logger) (metadata.Resolver, error) {
	if strings.TrimSpace(cfg.TMDB.APIKey) == "" {
		return metadata.NewFallback(), nil
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		return nil, fmt.Errorf("build tmdb client: %w", err)
	}
	return metadata.NewTMDBResolver(client, logger), nil
}

// Organize runs the full pipeline for one file: match, resolve, synthesize
// the destination, and transfer. Every attempt is journaled when a history
// store is attached; failures additionally push a notification.
func (o *Organizer) Organize(ctx context.Context, req Request) (*Result, error) {
	logger := logging.WithContext(ctx, o.logger)

	res, err := o.plan(ctx, req)
	if err != nil {
		o.recordOutcome(ctx, req, nil, err)
		o.notifyFailure(ctx, req.Source, err)
		return nil, err
	}

	logger.Info("organizing file",
		logging.String("source", res.Source),
		logging.String("destination", res.Destination),
		logging.String("mode", string(res.Mode)))

	if _, statErr := os.Lstat(res.Destination); statErr == nil {
		logger.Info("destination already exists, nothing to do",
			logging.String("destination", res.Destination))
		o.recordOutcome(ctx, req, res, nil)
		return res, nil
	}

	if err := os.MkdirAll(filepath.Dir(res.Destination), 0o755); err != nil {
		wrapped := services.Wrap(services.ErrTransfer, "organize", "create destination directory",
			"Failed to create library directory", err)
		o.recordOutcome(ctx, req, res, wrapped)
		o.notifyFailure(ctx, req.Source, wrapped)
		return nil, wrapped
	}

	if err := o.transfer(ctx, res.Mode, res.Source, res.Destination); err != nil {
		o.recordOutcome(ctx, req, res, err)
		o.notifyFailure(ctx, req.Source, err)
		return nil, err
	}
	res.Transferred = true

	logger.Info("organize completed",
		logging.String("title", res.DisplayTitle()),
		logging.String("destination", res.Destination))
	o.recordOutcome(ctx, req, res, nil)
	o.notifyOrganized(ctx, res)
	return res, nil
}

// Plan runs the pipeline through destination synthesis without touching the
// filesystem. It serves preview and dry-run callers.
func (o *Organizer) Plan(ctx context.Context, req Request) (*Result, error) {
	return o.plan(ctx, req)
}

func (o *Organizer) plan(ctx context.Context, req Request) (*Result, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return nil, services.Wrap(services.ErrValidation, "organize", "validate request",
			"Source path is required", nil)
	}
	if _, err := os.Stat(source); err != nil {
		return nil, services.Wrap(services.ErrSourceMissing, "organize", "stat source",
			fmt.Sprintf("Source file does not exist: %s", source), err)
	}

	rawMode := strings.TrimSpace(req.Mode)
	if rawMode == "" {
		rawMode = o.cfg.Transfer.Mode
	}
	mode, err := ParseMode(rawMode)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "organize", "parse transfer mode", "", err)
	}

	base := strings.TrimSpace(req.DestBase)
	if base == "" {
		base = strings.TrimSpace(o.cfg.Library.DefaultDir)
	}
	if base == "" {
		return nil, services.Wrap(services.ErrValidation, "organize", "resolve destination base",
			"No destination base directory; set library.default_dir or pass one explicitly", nil)
	}

	match := o.matcher.Match(source)
	applyMediaOverride(&match, req.Media)

	meta, err := o.resolveMetadata(ctx, match)
	if err != nil {
		return nil, err
	}

	dest := o.destination(ctx, source, base, match, meta)
	return &Result{
		Source:      source,
		Destination: dest,
		Match:       match,
		Meta:        meta,
		Mode:        mode,
	}, nil
}

func (o *Organizer) resolveMetadata(ctx context.Context, match rules.MatchResult) (*metadata.Metadata, error) {
	query := metadata.Query{
		Title:  match.Title,
		Year:   match.Year,
		Media:  match.Media,
		TMDBID: match.TMDBID,
	}
	meta, err := o.resolver.Search(ctx, query)
	if err != nil {
		return nil, services.Wrap(services.ErrMetadataNotFound, "organize", "resolve metadata",
			fmt.Sprintf("No metadata match for %q", match.Title), err)
	}
	if meta == nil {
		return nil, services.Wrap(services.ErrMetadataNotFound, "organize", "resolve metadata",
			fmt.Sprintf("No metadata match for %q", match.Title), nil)
	}
	return meta, nil
}

func (o *Organizer) destination(ctx context.Context, source, base string, match rules.MatchResult, meta *metadata.Metadata) string {
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = match.Title
	}
	year := strings.TrimSpace(meta.Year)
	if year == "" {
		year = match.Year
	}
	ext := filepath.Ext(source)

	if match.IsTV() {
		season := match.Season
		if season <= 0 {
			season = 1
		}
		episode := match.Episode
		if episode <= 0 {
			episode = 1
		}
		episodeTitle := o.episodeTitle(ctx, meta, season, episode)
		return o.namer.EpisodePath(base, title, year, season, episode, episodeTitle, ext)
	}

	if year == "" {
		year = "Unknown"
	}
	version := match.Resolution
	if version == "" {
		version = match.Edition
	}
	return o.namer.MoviePath(base, title, year, version, ext)
}

func (o *Organizer) episodeTitle(ctx context.Context, meta *metadata.Metadata, season, episode int) string {
	if meta.TMDBID <= 0 {
		return ""
	}
	title, err := o.resolver.EpisodeTitle(ctx, meta.TMDBID, season, episode)
	if err != nil {
		logging.WithContext(ctx, o.logger).Debug("episode title lookup failed",
			logging.Int64("show_id", meta.TMDBID),
			logging.Int("season", season),
			logging.Int("episode", episode),
			logging.Error(err))
		return ""
	}
	return title
}

func (o *Organizer) recordOutcome(ctx context.Context, req Request, res *Result, failure error) {
	if o.store == nil {
		return
	}
	entry := &history.Entry{
		Source: strings.TrimSpace(req.Source),
		Mode:   o.modeLabel(req),
		Status: history.StatusSuccess,
	}
	if id, ok := services.OperationIDFromContext(ctx); ok {
		entry.OperationID = id
	}
	if res != nil {
		entry.Source = res.Source
		entry.Destination = res.Destination
		entry.Mode = string(res.Mode)
		entry.Media = string(res.Match.Media)
		entry.Title = res.DisplayTitle()
		if failure == nil && !res.Transferred {
			entry.Detail = "destination already exists"
		}
	}
	if failure != nil {
		entry.Status = history.Status(services.FailureKind(failure))
		entry.Detail = failure.Error()
	}
	if err := o.store.Record(ctx, entry); err != nil {
		logging.WithContext(ctx, o.logger).Warn("failed to journal organize attempt", logging.Error(err))
	}
}

func (o *Organizer) modeLabel(req Request) string {
	if mode := strings.TrimSpace(req.Mode); mode != "" {
		return mode
	}
	return o.cfg.Transfer.Mode
}

func (o *Organizer) notifyOrganized(ctx context.Context, res *Result) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.NotifyFileOrganized(ctx, res.DisplayTitle(), res.Destination); err != nil {
		logging.WithContext(ctx, o.logger).Warn("organize notification failed", logging.Error(err))
	}
}

func (o *Organizer) notifyFailure(ctx context.Context, source string, failure error) {
	if o.notifier == nil {
		return
	}
	name := filepath.Base(strings.TrimSpace(source))
	if err := o.notifier.NotifyOrganizeFailed(ctx, name, failure.Error()); err != nil {
		logging.WithContext(ctx, o.logger).Warn("failure notification failed", logging.Error(err))
	}
}

func applyMediaOverride(match *rules.MatchResult, override string) {
	switch strings.ToLower(strings.TrimSpace(override)) {
	case "movie":
		match.Media = rules.MediaMovie
	case "tv":
		match.Media = rules.MediaTV
	}
}
