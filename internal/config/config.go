package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state and log directory configuration.
type Paths struct {
	LogDir  string `toml:"log_dir"`
	DataDir string `toml:"data_dir"`
}

// Library contains configuration for the media library structure.
type Library struct {
	MoviesDir  string `toml:"movies_dir"`
	TVDir      string `toml:"tv_dir"`
	DefaultDir string `toml:"default_dir"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Transfer contains configuration for how files reach the library.
type Transfer struct {
	Mode         string `toml:"mode"`
	VerifyCopies bool   `toml:"verify_copies"`
}

// WatchDirectory describes a single watched source directory.
type WatchDirectory struct {
	Name    string `toml:"name"`
	Source  string `toml:"source"`
	Dest    string `toml:"dest"`
	Media   string `toml:"media"`
	Enabled *bool  `toml:"enabled,omitempty"`
}

// IsEnabled reports whether the directory should be watched. Entries that
// omit the enabled key are active.
func (d WatchDirectory) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Watch contains configuration for daemon directory watching.
type Watch struct {
	SettleSeconds int              `toml:"settle_seconds"`
	Extensions    []string         `toml:"extensions"`
	Directories   []WatchDirectory `toml:"directories"`
}

// RuleConfig describes a user-supplied filename rule.
type RuleConfig struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	Pattern  string `toml:"pattern"`
	Priority int    `toml:"priority"`
	Enabled  *bool  `toml:"enabled,omitempty"`
}

// IsEnabled reports whether the rule should be registered.
func (r RuleConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Rules contains configuration for the filename rule table.
type Rules struct {
	Disabled []string     `toml:"disabled"`
	Extra    []RuleConfig `toml:"extra"`
}

// API contains configuration for the daemon HTTP API.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Notify contains configuration for ntfy push notifications.
type Notify struct {
	NtfyTopic  string `toml:"ntfy_topic"`
	NtfyServer string `toml:"ntfy_server"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for reshelf.
//
// Configuration sections by subsystem:
//   - Paths: log and state directories
//   - Library: output directory structure (movies/tv subdirs, default base)
//   - TMDB: metadata resolution via The Movie Database
//   - Transfer: hardlink/copy/move/symlink placement behavior
//   - Watch: daemon source directories, settle delay, extension filter
//   - Rules: disabled builtin rules and user-supplied extras
//   - API: daemon HTTP bind address and optional bearer token
//   - Notify: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Library  Library  `toml:"library"`
	TMDB     TMDB     `toml:"tmdb"`
	Transfer Transfer `toml:"transfer"`
	Watch    Watch    `toml:"watch"`
	Rules    Rules    `toml:"rules"`
	API      API      `toml:"api"`
	Notify   Notify   `toml:"notify"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reshelf/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/reshelf/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reshelf.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// Watch destinations are created on a best-effort basis so the daemon can run
// when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Library.DefaultDir) != "" {
		// Best-effort to avoid failing config load when storage is offline.
		_ = os.MkdirAll(c.Library.DefaultDir, 0o755)
	}
	for _, dir := range c.Watch.Directories {
		if !dir.IsEnabled() {
			continue
		}
		if strings.TrimSpace(dir.Dest) != "" {
			_ = os.MkdirAll(dir.Dest, 0o755)
		}
	}
	return nil
}

// HistoryDBPath returns the location of the organize history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// FindWatchDirectory returns the watch entry whose source matches the given
// path after expansion.
func (c *Config) FindWatchDirectory(source string) (WatchDirectory, bool) {
	expanded, err := expandPath(source)
	if err != nil {
		return WatchDirectory{}, false
	}
	for _, dir := range c.Watch.Directories {
		if dir.Source == expanded {
			return dir, true
		}
	}
	return WatchDirectory{}, false
}

// AddWatchDirectory appends a watch entry. It reports false when an entry with
// the same source path already exists.
func (c *Config) AddWatchDirectory(dir WatchDirectory) bool {
	expanded, err := expandPath(dir.Source)
	if err == nil {
		dir.Source = expanded
	}
	if _, exists := c.FindWatchDirectory(dir.Source); exists {
		return false
	}
	if expanded, err := expandPath(dir.Dest); err == nil {
		dir.Dest = expanded
	}
	if strings.TrimSpace(dir.Media) == "" {
		dir.Media = "auto"
	}
	c.Watch.Directories = append(c.Watch.Directories, dir)
	return true
}

// RemoveWatchDirectory deletes the watch entry with the given source path. It
// reports false when no entry matches.
func (c *Config) RemoveWatchDirectory(source string) bool {
	expanded, err := expandPath(source)
	if err != nil {
		return false
	}
	for i, dir := range c.Watch.Directories {
		if dir.Source == expanded {
			c.Watch.Directories = append(c.Watch.Directories[:i], c.Watch.Directories[i+1:]...)
			return true
		}
	}
	return false
}

// Save writes the configuration to the given path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
