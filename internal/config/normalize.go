package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeTransfer()
	if err := c.normalizeWatch(); err != nil {
		return err
	}
	c.normalizeRules()
	c.normalizeAPI()
	c.normalizeNotify()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLibrary() error {
	c.Library.MoviesDir = strings.TrimSpace(c.Library.MoviesDir)
	c.Library.TVDir = strings.TrimSpace(c.Library.TVDir)
	c.Library.DefaultDir = strings.TrimSpace(c.Library.DefaultDir)
	if c.Library.DefaultDir != "" {
		var err error
		if c.Library.DefaultDir, err = expandPath(c.Library.DefaultDir); err != nil {
			return fmt.Errorf("library.default_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	if value, ok := os.LookupEnv("TMDB_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.TMDB.APIKey = strings.TrimSpace(value)
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeTransfer() {
	if value, ok := os.LookupEnv("RESHELF_TRANSFER_MODE"); ok && strings.TrimSpace(value) != "" {
		c.Transfer.Mode = strings.TrimSpace(value)
	}
	c.Transfer.Mode = strings.ToLower(strings.TrimSpace(c.Transfer.Mode))
	if c.Transfer.Mode == "" {
		c.Transfer.Mode = defaultTransferMode
	}
}

func (c *Config) normalizeWatch() error {
	if len(c.Watch.Extensions) == 0 {
		c.Watch.Extensions = defaultExtensions()
	} else {
		exts := make([]string, 0, len(c.Watch.Extensions))
		seen := make(map[string]struct{}, len(c.Watch.Extensions))
		for _, ext := range c.Watch.Extensions {
			normalized := strings.ToLower(strings.TrimSpace(ext))
			if normalized == "" {
				continue
			}
			if !strings.HasPrefix(normalized, ".") {
				normalized = "." + normalized
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			exts = append(exts, normalized)
		}
		if len(exts) == 0 {
			exts = defaultExtensions()
		}
		c.Watch.Extensions = exts
	}

	for i := range c.Watch.Directories {
		dir := &c.Watch.Directories[i]
		dir.Name = strings.TrimSpace(dir.Name)
		var err error
		if dir.Source != "" {
			if dir.Source, err = expandPath(dir.Source); err != nil {
				return fmt.Errorf("watch.directories[%d].source: %w", i, err)
			}
		}
		if dir.Dest != "" {
			if dir.Dest, err = expandPath(dir.Dest); err != nil {
				return fmt.Errorf("watch.directories[%d].dest: %w", i, err)
			}
		}
		dir.Media = strings.ToLower(strings.TrimSpace(dir.Media))
		if dir.Media == "" {
			dir.Media = "auto"
		}
	}
	return nil
}

func (c *Config) normalizeRules() {
	if len(c.Rules.Disabled) > 0 {
		names := make([]string, 0, len(c.Rules.Disabled))
		seen := make(map[string]struct{}, len(c.Rules.Disabled))
		for _, name := range c.Rules.Disabled {
			normalized := strings.ToLower(strings.TrimSpace(name))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			names = append(names, normalized)
		}
		c.Rules.Disabled = names
	}
	for i := range c.Rules.Extra {
		rule := &c.Rules.Extra[i]
		rule.Name = strings.ToLower(strings.TrimSpace(rule.Name))
		rule.Kind = strings.ToLower(strings.TrimSpace(rule.Kind))
		rule.Pattern = strings.TrimSpace(rule.Pattern)
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
}

func (c *Config) normalizeNotify() {
	c.Notify.NtfyTopic = strings.TrimSpace(c.Notify.NtfyTopic)
	c.Notify.NtfyServer = strings.TrimSpace(c.Notify.NtfyServer)
	if c.Notify.NtfyServer == "" {
		c.Notify.NtfyServer = defaultNtfyServer
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("RESHELF_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.TrimSpace(value)
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "pretty":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
