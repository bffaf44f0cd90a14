package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"

	"reshelf/internal/config"
	"reshelf/internal/logging"
)

// Handler consumes one settled file from a watched directory.
type Handler func(ctx context.Context, dir config.WatchDirectory, path string)

// Watcher monitors the enabled watch directories recursively and invokes the
// handler once a new file stops growing. Missing roots are skipped with a
// warning so one bad entry never takes the daemon down.
type Watcher struct {
	cfg     *config.Config
	handler Handler
	logger  *slog.Logger
	allowed map[string]bool

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	roots    map[string]config.WatchDirectory
	watched  map[string]string
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// New builds a watcher over the enabled directories in cfg. The handler is
// called from settle goroutines and must tolerate concurrent invocations.
func New(cfg *config.Config, handler Handler, logger *slog.Logger) *Watcher {
	return &Watcher{
		cfg:      cfg,
		handler:  handler,
		logger:   logging.NewComponentLogger(logger, "watch"),
		allowed:  extensionSet(cfg.Watch.Extensions),
		roots:    make(map[string]config.WatchDirectory),
		watched:  make(map[string]string),
		inflight: make(map[string]struct{}),
	}
}

// Run watches until the context is canceled. It returns nil on a clean
// shutdown and is single-use.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	w.mu.Lock()
	w.fsw = fsw
	for _, dir := range w.cfg.Watch.Directories {
		if !dir.IsEnabled() {
			continue
		}
		w.addRootLocked(dir)
	}
	w.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				w.wg.Wait()
				return nil
			}
			w.handleEvent(ctx, event)
		case watchErr, ok := <-fsw.Errors:
			if !ok {
				w.wg.Wait()
				return nil
			}
			w.logger.Warn("watch error", logging.Error(watchErr))
		}
	}
}

// AddDirectory starts watching a directory while the watcher is running.
func (w *Watcher) AddDirectory(dir config.WatchDirectory) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return fmt.Errorf("watcher is not running")
	}
	w.addRootLocked(dir)
	return nil
}

// RemoveDirectory stops watching the root with the given source path and
// reports whether it was watched.
func (w *Watcher) RemoveDirectory(source string) bool {
	source = strings.TrimSpace(source)
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.roots[source]; !ok {
		return false
	}
	delete(w.roots, source)
	for path, root := range w.watched {
		if root != source {
			continue
		}
		if w.fsw != nil {
			_ = w.fsw.Remove(path)
		}
		delete(w.watched, path)
	}
	w.logger.Info("stopped watching", logging.String("path", source))
	return true
}

func (w *Watcher) addRootLocked(dir config.WatchDirectory) {
	source := strings.TrimSpace(dir.Source)
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		w.logger.Warn("skipping missing watch path", logging.String("path", source))
		return
	}
	w.roots[source] = dir
	w.watchTreeLocked(source, source)
	w.logger.Info("watching directory",
		logging.String("path", source),
		logging.String("media", dir.Media))
}

// watchTreeLocked registers every directory under root and returns the
// matching files already present, so files that land before the watch is
// armed are still picked up.
func (w *Watcher) watchTreeLocked(root, source string) []string {
	var files []string
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("cannot watch subtree", logging.String("path", path), logging.Error(err))
			return nil
		}
		if !entry.IsDir() {
			if w.allowed[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.logger.Warn("cannot watch directory", logging.String("path", path), logging.Error(addErr))
			return nil
		}
		w.watched[path] = source
		return nil
	})
	return files
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	name := event.Name

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		delete(w.watched, name)
		w.mu.Unlock()
		return
	}
	if !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(name)
	if err != nil {
		return
	}

	if info.IsDir() {
		w.mu.Lock()
		source, ok := w.watched[filepath.Dir(name)]
		var found []string
		if ok {
			found = w.watchTreeLocked(name, source)
		}
		dir := w.roots[source]
		w.mu.Unlock()
		for _, path := range found {
			w.dispatch(ctx, dir, path)
		}
		return
	}

	w.mu.Lock()
	source, ok := w.watched[filepath.Dir(name)]
	dir := w.roots[source]
	w.mu.Unlock()
	if !ok {
		return
	}
	if !w.allowed[strings.ToLower(filepath.Ext(name))] {
		w.logger.Debug("ignoring file", logging.String("path", name))
		return
	}
	w.dispatch(ctx, dir, name)
}

func (w *Watcher) dispatch(ctx context.Context, dir config.WatchDirectory, path string) {
	w.mu.Lock()
	if _, busy := w.inflight[path]; busy {
		w.mu.Unlock()
		return
	}
	w.inflight[path] = struct{}{}
	w.mu.Unlock()

	w.logger.Info("new file detected", logging.String("path", path))
	w.wg.Add(1)
	go w.settle(ctx, dir, path)
}

// settle polls until two consecutive size checks agree, then hands the file
// to the handler. Files that vanish mid-settle (moved away, deleted) are
// dropped silently.
func (w *Watcher) settle(ctx context.Context, dir config.WatchDirectory, path string) {
	defer w.wg.Done()
	defer func() {
		w.mu.Lock()
		delete(w.inflight, path)
		w.mu.Unlock()
	}()

	interval := time.Duration(w.cfg.Watch.SettleSeconds) * time.Second
	if interval <= 0 {
		interval = time.Second
	}

	const maxPolls = 120
	lastSize := int64(-1)
	for poll := 0; poll < maxPolls; poll++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		info, err := os.Stat(path)
		if err != nil {
			w.logger.Debug("file vanished before settling", logging.String("path", path))
			return
		}
		if info.Size() == lastSize {
			w.handler(ctx, dir, path)
			return
		}
		lastSize = info.Size()
	}
	w.logger.Warn("file never stopped growing", logging.String("path", path))
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}
