package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var transferModes = map[string]struct{}{
	"hardlink": {},
	"copy":     {},
	"move":     {},
	"symlink":  {},
}

var mediaKinds = map[string]struct{}{
	"auto":  {},
	"movie": {},
	"tv":    {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateTransfer(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateRules(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateNotify(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if c.Library.MoviesDir == "" {
		return errors.New("library.movies_dir must be set")
	}
	if c.Library.TVDir == "" {
		return errors.New("library.tv_dir must be set")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.BaseURL == "" {
		return errors.New("tmdb.base_url must be set")
	}
	if lang := c.TMDB.Language; lang != "" {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("tmdb.language %q is not a valid BCP 47 tag: %w", lang, err)
		}
	}
	return nil
}

func (c *Config) validateTransfer() error {
	if _, ok := transferModes[c.Transfer.Mode]; !ok {
		return fmt.Errorf("transfer.mode %q must be one of hardlink, copy, move, symlink", c.Transfer.Mode)
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.SettleSeconds < 0 {
		return errors.New("watch.settle_seconds must be >= 0")
	}
	seen := make(map[string]struct{}, len(c.Watch.Directories))
	for i, dir := range c.Watch.Directories {
		if !dir.IsEnabled() {
			continue
		}
		if strings.TrimSpace(dir.Source) == "" {
			return fmt.Errorf("watch.directories[%d].source must be set", i)
		}
		if strings.TrimSpace(dir.Dest) == "" {
			return fmt.Errorf("watch.directories[%d].dest must be set", i)
		}
		if _, ok := mediaKinds[dir.Media]; !ok {
			return fmt.Errorf("watch.directories[%d].media %q must be one of auto, movie, tv", i, dir.Media)
		}
		if _, exists := seen[dir.Source]; exists {
			return fmt.Errorf("watch.directories[%d].source %q is already watched", i, dir.Source)
		}
		seen[dir.Source] = struct{}{}
	}
	return nil
}

// validateRules checks structural fields only. Pattern compilation and kind
// dispatch happen at matcher construction, where a broken rule is skipped with
// a warning instead of blocking startup.
func (c *Config) validateRules() error {
	for i, rule := range c.Rules.Extra {
		if rule.Name == "" {
			return fmt.Errorf("rules.extra[%d].name must be set", i)
		}
		if rule.Pattern == "" {
			return fmt.Errorf("rules.extra[%d].pattern must be set", i)
		}
		if rule.Priority <= 0 {
			return fmt.Errorf("rules.extra[%d].priority must be positive", i)
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Bind == "" {
		return errors.New("api.bind must be set")
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.NtfyTopic != "" && c.Notify.NtfyServer == "" {
		return errors.New("notify.ntfy_server must be set when notify.ntfy_topic is set")
	}
	return nil
}
