package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"reshelf/internal/config"
	"reshelf/internal/history"
)

// collectMediaFiles expands target to the list of files a command operates
// on: the file itself, or every file under a directory whose extension is in
// the allowed set.
func collectMediaFiles(target string, extensions []string) ([]string, error) {
	path, err := config.ExpandPath(target)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspect path %q: %w", target, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimSpace(ext))] = true
	}
	var files []string
	walkErr := filepath.WalkDir(path, func(entry string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if allowed[strings.ToLower(filepath.Ext(entry))] {
			files = append(files, entry)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no media files with configured extensions under %s", path)
	}
	sort.Strings(files)
	return files, nil
}

func parseStatuses(raw []string) ([]history.Status, error) {
	statuses := make([]history.Status, 0, len(raw))
	for _, value := range raw {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if !history.ValidStatus(trimmed) {
			return nil, fmt.Errorf("unknown status %q", trimmed)
		}
		statuses = append(statuses, history.Status(trimmed))
	}
	return statuses, nil
}

// formatStatusLabel turns snake_case status values into display labels
// ("source_missing" becomes "Source Missing").
func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func buildStatsRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}
