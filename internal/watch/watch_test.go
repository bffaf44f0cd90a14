package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reshelf/internal/config"
	"reshelf/internal/logging"
	"reshelf/internal/testsupport"
	"reshelf/internal/watch"
)

// Settle polling works in whole seconds, so every positive case needs a
// couple of poll intervals before the handler fires.
const handlerWait = 15 * time.Second

func startWatcher(t *testing.T, cfg *config.Config) (*watch.Watcher, <-chan string, context.CancelFunc) {
	t.Helper()

	calls := make(chan string, 16)
	handler := func(_ context.Context, _ config.WatchDirectory, path string) {
		calls <- path
	}
	watcher := watch.New(cfg, handler, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned error: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	// Give Run a moment to arm the initial watches.
	time.Sleep(300 * time.Millisecond)
	return watcher, calls, cancel
}

func waitForCall(t *testing.T, calls <-chan string, want string) {
	t.Helper()
	select {
	case got := <-calls:
		if got != want {
			t.Fatalf("handler got %q, want %q", got, want)
		}
	case <-time.After(handlerWait):
		t.Fatalf("handler never saw %q", want)
	}
}

func TestWatcherOrganizesSettledFile(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSettleSeconds(1),
		testsupport.WithWatchDirectory("incoming"))
	source := cfg.Watch.Directories[0].Source
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}

	_, calls, _ := startWatcher(t, cfg)

	path := filepath.Join(source, "Alpha.2020.mkv")
	testsupport.WriteFile(t, path, 32*1024)
	waitForCall(t, calls, path)
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSettleSeconds(1),
		testsupport.WithWatchDirectory("incoming"))
	source := cfg.Watch.Directories[0].Source
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}

	_, calls, _ := startWatcher(t, cfg)

	testsupport.WriteFile(t, filepath.Join(source, "notes.txt"), 128)
	select {
	case got := <-calls:
		t.Fatalf("handler should not fire for filtered extension, got %q", got)
	case <-time.After(3 * time.Second):
	}
}

func TestWatcherFollowsNewSubdirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSettleSeconds(1),
		testsupport.WithWatchDirectory("incoming"))
	source := cfg.Watch.Directories[0].Source
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatal(err)
	}

	_, calls, _ := startWatcher(t, cfg)

	nested := filepath.Join(source, "Season.Pack")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	path := filepath.Join(nested, "Show.S01E01.mkv")
	testsupport.WriteFile(t, path, 32*1024)
	waitForCall(t, calls, path)
}

func TestWatcherSkipsMissingRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSettleSeconds(1),
		testsupport.WithWatchDirectory("never-created"))

	// Run must come up cleanly even though the source does not exist.
	_, calls, cancel := startWatcher(t, cfg)
	cancel()

	select {
	case got := <-calls:
		t.Fatalf("unexpected handler call: %q", got)
	default:
	}
}

func TestWatcherAddAndRemoveDirectoryLive(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSettleSeconds(1))
	watcher, calls, _ := startWatcher(t, cfg)

	base := testsupport.BaseDir(cfg)
	added := filepath.Join(base, "added")
	if err := os.MkdirAll(added, 0o755); err != nil {
		t.Fatal(err)
	}
	dir := config.WatchDirectory{Name: "added", Source: added, Dest: cfg.Library.DefaultDir}
	if err := watcher.AddDirectory(dir); err != nil {
		t.Fatalf("AddDirectory: %v", err)
	}

	path := filepath.Join(added, "Beta.2019.mkv")
	testsupport.WriteFile(t, path, 32*1024)
	waitForCall(t, calls, path)

	if !watcher.RemoveDirectory(added) {
		t.Fatal("RemoveDirectory should report the root as watched")
	}
	if watcher.RemoveDirectory(added) {
		t.Fatal("second RemoveDirectory should report not watched")
	}

	testsupport.WriteFile(t, filepath.Join(added, "Gamma.2021.mkv"), 32*1024)
	select {
	case got := <-calls:
		t.Fatalf("handler should not fire after removal, got %q", got)
	case <-time.After(3 * time.Second):
	}
}
