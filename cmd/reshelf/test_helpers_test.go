package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"reshelf/internal/config"
	"reshelf/internal/daemon"
	"reshelf/internal/history"
	"reshelf/internal/logging"
	"reshelf/internal/testsupport"
)

const fixtureSize = 64 * 1024

type cliTestEnv struct {
	cfg        *config.Config
	store      *history.Store
	daemon     *daemon.Daemon
	hub        *logging.StreamHub
	apiAddr    string
	configPath string
}

// offlineConfig writes a config file whose API bind points nowhere, so
// commands fall back to local execution. The TMDB key is cleared to keep the
// organizer on the offline resolver.
func offlineConfig(t *testing.T, opts ...testsupport.ConfigOption) (*config.Config, string) {
	t.Helper()
	t.Setenv("TMDB_API_KEY", "")
	opts = append([]testsupport.ConfigOption{testsupport.WithTMDBKey("")}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return cfg, configPath
}

// setupCLITestEnv starts a real daemon on an ephemeral port and returns the
// pieces commands need to reach it.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	cfg, configPath := offlineConfig(t, opts...)
	store := testsupport.MustOpenHistory(t, cfg)
	hub := logging.NewStreamHub(256)

	d, err := daemon.New(cfg, configPath, store, logging.NewNop(), hub)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		hub:        hub,
		apiAddr:    d.APIAddr(),
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if apiAddr != "" {
		flags = append(flags, "--api", apiAddr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSource(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	path := filepath.Join(testsupport.BaseDir(cfg), "downloads", name)
	testsupport.WriteFile(t, path, fixtureSize)
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
