package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"reshelf/internal/api"
	"reshelf/internal/config"
	"reshelf/internal/history"
	"reshelf/internal/logging"
	"reshelf/internal/organize"
	"reshelf/internal/watch"
)

// LockFileName is the flock target that enforces one daemon per log directory.
const LockFileName = "reshelfd.lock"

// PIDFileName records the daemon process id next to the lock.
const PIDFileName = "reshelfd.pid"

// ErrDirectoryExists reports a watch-directory add whose source is already configured.
var ErrDirectoryExists = errors.New("watch directory already configured")

// ErrDirectoryNotFound reports a watch-directory removal with an unknown source.
var ErrDirectoryNotFound = errors.New("watch directory not found")

// Daemon coordinates the watcher, organizer, journal, and HTTP API into one
// supervised lifecycle with flock-based single-instance enforcement.
type Daemon struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	store      *history.Store
	organizer  *organize.Organizer
	watcher    *watch.Watcher
	logHub     *logging.StreamHub

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	apiSrv *apiServer
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	StartedAt     time.Time
	HistoryDBPath string
	LockFilePath  string
	TransferMode  string
	Directories   []config.WatchDirectory
	HistoryStats  map[history.Status]int
}

// New constructs a daemon with initialized collaborators. The config path is
// where watch-directory mutations are persisted.
func New(cfg *config.Config, configPath string, store *history.Store, logger *slog.Logger, hub *logging.StreamHub) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	org, err := organize.New(cfg, store, logger)
	if err != nil {
		return nil, fmt.Errorf("create organizer: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, LockFileName)
	d := &Daemon{
		cfg:        cfg,
		configPath: strings.TrimSpace(configPath),
		logger:     logger,
		store:      store,
		organizer:  org,
		logHub:     hub,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.watcher = watch.New(cfg, d.handleDetected, logger)
	return d, nil
}

// Start acquires the daemon lock, begins watching, and serves the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return errors.New("another reshelf daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.startedAt = time.Now().UTC()

	srv, err := newAPIServer(d.cfg, d, d.logger)
	if err == nil && srv != nil {
		err = srv.start(d.ctx)
	}
	if err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		return err
	}
	d.apiSrv = srv

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.watcher.Run(d.ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("watcher stopped", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("reshelf daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop ends background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	d.apiSrv.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("reshelf daemon stopped")
}

// Close releases resources held by the daemon. The history store stays open;
// its lifecycle belongs to the caller.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Done returns a channel closed when the daemon context ends, either from the
// parent context or a shutdown request. Before Start it is already closed.
func (d *Daemon) Done() <-chan struct{} {
	if d.ctx == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return d.ctx.Done()
}

// RequestShutdown asks the daemon to stop without waiting for it. The API
// shutdown handler uses it so the response can flush before the listener
// closes.
func (d *Daemon) RequestShutdown() {
	if d.cancel != nil {
		d.cancel()
	}
}

// Status reports current runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	dirs := slices.Clone(d.cfg.Watch.Directories)
	d.mu.Unlock()

	st := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		StartedAt:     d.startedAt,
		HistoryDBPath: d.cfg.HistoryDBPath(),
		LockFilePath:  d.lockPath,
		TransferMode:  d.cfg.Transfer.Mode,
		Directories:   dirs,
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		st.HistoryStats = stats
	}
	return st
}

// ScanAll organizes every enabled watch directory and reports per-directory
// counters in config order.
func (d *Daemon) ScanAll(ctx context.Context) []api.DirectoryStats {
	d.mu.Lock()
	dirs := slices.Clone(d.cfg.Watch.Directories)
	d.mu.Unlock()

	results := make([]api.DirectoryStats, 0, len(dirs))
	for _, dir := range dirs {
		if !dir.IsEnabled() {
			continue
		}
		stats := d.organizer.ScanDirectory(ctx, organize.ScanRequest{
			Dir:      dir.Source,
			DestBase: dir.Dest,
			Media:    dir.Media,
		})
		results = append(results, api.DirectoryStats{Directory: dir, Stats: stats})
	}
	return results
}

// AddDirectory registers a watch root, persists the config, and starts
// watching it live. It returns the updated directory set.
func (d *Daemon) AddDirectory(dir config.WatchDirectory) ([]config.WatchDirectory, error) {
	if strings.TrimSpace(dir.Source) == "" {
		return nil, errors.New("watch directory source is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	before := slices.Clone(d.cfg.Watch.Directories)
	if !d.cfg.AddWatchDirectory(dir) {
		return nil, ErrDirectoryExists
	}
	added, _ := d.cfg.FindWatchDirectory(dir.Source)

	if err := d.persistConfigLocked(); err != nil {
		d.cfg.Watch.Directories = before
		return nil, err
	}

	if added.IsEnabled() && d.running.Load() {
		if err := d.watcher.AddDirectory(added); err != nil {
			d.logger.Warn("failed to start watching new directory",
				logging.Error(err),
				logging.String(logging.FieldDirectory, added.Source),
			)
		}
	}
	d.logger.Info("watch directory added", logging.String(logging.FieldDirectory, added.Source))
	return slices.Clone(d.cfg.Watch.Directories), nil
}

// RemoveDirectory unregisters the watch root with the given source path,
// persists the config, and stops watching it. It returns the updated set.
func (d *Daemon) RemoveDirectory(source string) ([]config.WatchDirectory, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dir, ok := d.cfg.FindWatchDirectory(source)
	if !ok {
		return nil, ErrDirectoryNotFound
	}

	before := slices.Clone(d.cfg.Watch.Directories)
	d.cfg.RemoveWatchDirectory(dir.Source)
	if err := d.persistConfigLocked(); err != nil {
		d.cfg.Watch.Directories = before
		return nil, err
	}

	if d.running.Load() {
		d.watcher.RemoveDirectory(dir.Source)
	}
	d.logger.Info("watch directory removed", logging.String(logging.FieldDirectory, dir.Source))
	return slices.Clone(d.cfg.Watch.Directories), nil
}

// LogStream exposes the in-memory log hub backing the logs endpoint.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.logHub
}

// APIAddr reports the bound HTTP API address. It is empty before Start and
// when the API is disabled.
func (d *Daemon) APIAddr() string {
	return d.apiSrv.Addr()
}

func (d *Daemon) persistConfigLocked() error {
	path := d.configPath
	if path == "" {
		resolved, err := config.DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
		path = resolved
	}
	if err := d.cfg.Save(path); err != nil {
		return fmt.Errorf("persist config: %w", err)
	}
	return nil
}

func (d *Daemon) handleDetected(ctx context.Context, dir config.WatchDirectory, path string) {
	_, err := d.organizer.Organize(ctx, organize.Request{
		Source:   path,
		DestBase: dir.Dest,
		Media:    dir.Media,
	})
	if err != nil {
		logging.WithContext(ctx, d.logger).Warn("failed to organize detected file",
			logging.Error(err),
			logging.String(logging.FieldSourcePath, path),
		)
	}
}
