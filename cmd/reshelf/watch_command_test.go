package main

import (
	"os"
	"path/filepath"
	"testing"

	"reshelf/internal/config"
	"reshelf/internal/testsupport"
)

func TestWatchAddListRemoveOnline(t *testing.T) {
	env := setupCLITestEnv(t)
	drop := filepath.Join(testsupport.BaseDir(env.cfg), "dropzone")
	if err := os.MkdirAll(drop, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"watch", "add", drop, "--name", "dropzone"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("watch add: %v", err)
	}
	requireContains(t, stdout, "Now watching "+drop)

	if _, _, err := runCLI(t, []string{"watch", "add", drop}, env.apiAddr, env.configPath); err == nil {
		t.Fatal("expected duplicate add to fail")
	} else {
		requireContains(t, err.Error(), "already being watched")
	}

	stdout, _, err = runCLI(t, []string{"watch", "list"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("watch list: %v", err)
	}
	requireContains(t, stdout, "dropzone")

	stdout, _, err = runCLI(t, []string{"watch", "remove", drop}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("watch remove: %v", err)
	}
	requireContains(t, stdout, "Stopped watching "+drop)

	if _, _, err := runCLI(t, []string{"watch", "remove", drop}, env.apiAddr, env.configPath); err == nil {
		t.Fatal("expected removing unknown directory to fail")
	} else {
		requireContains(t, err.Error(), "not being watched")
	}
}

func TestWatchAddOfflinePersistsToConfig(t *testing.T) {
	cfg, configPath := offlineConfig(t)
	incoming := filepath.Join(testsupport.BaseDir(cfg), "incoming")

	stdout, _, err := runCLI(t, []string{"watch", "add", incoming, "--name", "incoming", "--media", "movie"}, "", configPath)
	if err != nil {
		t.Fatalf("watch add: %v", err)
	}
	requireContains(t, stdout, "Now watching "+incoming)

	reloaded, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	dir, ok := reloaded.FindWatchDirectory(incoming)
	if !ok {
		t.Fatalf("expected %s in saved config", incoming)
	}
	if dir.Media != "movie" {
		t.Errorf("media = %q, want %q", dir.Media, "movie")
	}

	if _, _, err := runCLI(t, []string{"watch", "remove", incoming}, "", configPath); err != nil {
		t.Fatalf("watch remove: %v", err)
	}
	reloaded, _, _, err = config.Load(configPath)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if _, ok := reloaded.FindWatchDirectory(incoming); ok {
		t.Fatalf("expected %s removed from saved config", incoming)
	}
}

func TestWatchListOfflineReadsConfig(t *testing.T) {
	_, configPath := offlineConfig(t, testsupport.WithWatchDirectory("shelf"))

	stdout, _, err := runCLI(t, []string{"watch", "list"}, "", configPath)
	if err != nil {
		t.Fatalf("watch list: %v", err)
	}
	requireContains(t, stdout, "shelf")
}
