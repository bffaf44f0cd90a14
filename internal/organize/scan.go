package organize

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"reshelf/internal/logging"
)

// ScanRequest describes a bulk organize pass over one directory tree.
// Extensions and Media default to the watch configuration when empty.
type ScanRequest struct {
	Dir        string
	DestBase   string
	Extensions []string
	Media      string
	Mode       string
}

// ScanStats summarizes one scan. Total is always Success + Failed.
type ScanStats struct {
	Total   int
	Success int
	Failed  int
}

// ScanDirectory walks the tree once, organizing every file whose extension is
// in the allowed set. One file's failure never aborts the walk; a missing
// root logs a warning and yields zero stats.
func (o *Organizer) ScanDirectory(ctx context.Context, req ScanRequest) ScanStats {
	logger := logging.WithContext(ctx, o.logger)

	var stats ScanStats
	root := strings.TrimSpace(req.Dir)
	if root == "" {
		logger.Warn("scan requested without a directory")
		return stats
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		logger.Warn("scan root missing or not a directory", logging.String("dir", root))
		return stats
	}

	exts := req.Extensions
	if len(exts) == 0 {
		exts = o.cfg.Watch.Extensions
	}
	allowed := extensionSet(exts)

	// Collect before organizing so files landing inside the tree mid-scan
	// are not revisited.
	var files []string
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("scan cannot read entry", logging.String("path", path), logging.Error(err))
			stats.Total++
			stats.Failed++
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		logger.Warn("scan walk stopped early", logging.Error(walkErr))
	}

	for _, path := range files {
		if ctx.Err() != nil {
			logger.Warn("scan interrupted", logging.Int("organized", stats.Success))
			break
		}
		stats.Total++
		_, organizeErr := o.Organize(ctx, Request{
			Source:   path,
			DestBase: req.DestBase,
			Media:    req.Media,
			Mode:     req.Mode,
		})
		if organizeErr != nil {
			stats.Failed++
			logger.Warn("scan organize failed",
				logging.String("source", path),
				logging.Error(organizeErr))
			continue
		}
		stats.Success++
	}

	logger.Info("scan completed",
		logging.String("dir", root),
		logging.Int("total", stats.Total),
		logging.Int("success", stats.Success),
		logging.Int("failed", stats.Failed))

	if stats.Total > 0 && o.notifier != nil {
		if err := o.notifier.NotifyScanCompleted(ctx, stats.Total, stats.Success, stats.Failed); err != nil {
			logger.Warn("scan notification failed", logging.Error(err))
		}
	}
	return stats
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
