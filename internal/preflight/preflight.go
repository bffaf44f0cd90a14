package preflight

import (
	"context"
	"strings"

	"reshelf/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := CheckDirectories(cfg)
	if cfg.TMDB.APIKey != "" {
		results = append(results, CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIKey))
	}

	return results
}

// CheckDirectories probes filesystem access for every configured path. These
// checks are local and cheap, so the daemon health endpoint runs them on
// every request.
func CheckDirectories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))

	if cfg.Library.DefaultDir != "" {
		results = append(results, CheckDirectoryAccess("Library directory", cfg.Library.DefaultDir))
	}

	for _, dir := range cfg.Watch.Directories {
		if !dir.IsEnabled() {
			continue
		}
		results = append(results, CheckDirectoryAccess(watchLabel(dir), dir.Source))
	}

	return results
}

func watchLabel(dir config.WatchDirectory) string {
	if name := strings.TrimSpace(dir.Name); name != "" {
		return "Watch directory " + name
	}
	return "Watch directory " + dir.Source
}
