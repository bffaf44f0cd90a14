// Package testsupport provides shared helpers for constructing test
// configurations and fixture files.
package testsupport

import (
	"path/filepath"
	"testing"

	"reshelf/internal/config"
)

// ConfigOption adjusts the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a configuration rooted in a per-test temp directory,
// with defaults suitable for unit tests. Options customize it further.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Library.DefaultDir = filepath.Join(base, "library")
	cfg.TMDB.APIKey = "test-key"
	cfg.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfg}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithTMDBKey overrides the TMDB API key.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithTransferMode overrides the default transfer mode.
func WithTransferMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transfer.Mode = mode
	}
}

// WithSettleSeconds overrides the watcher settle window.
func WithSettleSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.SettleSeconds = seconds
	}
}

// WithWatchDirectory registers a watch directory named name, sourced from a
// subdirectory of the test base dir and targeting the default library dir.
func WithWatchDirectory(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.Directories = append(b.cfg.Watch.Directories, config.WatchDirectory{
			Name:   name,
			Source: filepath.Join(b.baseDir, name),
			Dest:   b.cfg.Library.DefaultDir,
			Media:  "auto",
		})
	}
}

// BaseDir returns the temp directory a NewConfig configuration is rooted in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
