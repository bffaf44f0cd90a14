package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"reshelf/internal/api"
	"reshelf/internal/config"
	"reshelf/internal/history"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// resolvedConfigPath reports where the configuration lives (or would live,
// when no file exists yet).
func (c *commandContext) resolvedConfigPath() string {
	_, _ = c.ensureConfig()
	return c.configPath
}

func (c *commandContext) apiBind() string {
	if c.apiFlag != nil {
		if bind := strings.TrimSpace(*c.apiFlag); bind != "" {
			return bind
		}
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		if bind := strings.TrimSpace(cfg.API.Bind); bind != "" {
			return bind
		}
	}
	return config.Default().API.Bind
}

func (c *commandContext) apiClient() *api.Client {
	token := ""
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		token = cfg.API.Token
	}
	return api.NewClient(c.apiBind(), token)
}

// friendlyAPIError turns an unreachable-daemon error into a hint the user can
// act on. Other errors pass through unchanged.
func (c *commandContext) friendlyAPIError(err error) error {
	if errors.Is(err, api.ErrDaemonUnavailable) {
		return fmt.Errorf("daemon is not reachable at %s; start it with `reshelf daemon start`", c.apiBind())
	}
	return err
}

// withHistory runs fn against the daemon API when one answers, or against the
// journal database directly when none does. Exactly one of client/store is
// non-nil.
func (c *commandContext) withHistory(ctx context.Context, fn func(client *api.Client, store *history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	client := c.apiClient()
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	_, healthErr := client.Health(probeCtx)
	cancel()
	if healthErr == nil {
		return fn(client, nil)
	}
	if !errors.Is(healthErr, api.ErrDaemonUnavailable) {
		return healthErr
	}

	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(nil, store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
