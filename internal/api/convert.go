package api

import (
	"strings"
	"time"

	"reshelf/internal/config"
	"reshelf/internal/history"
	"reshelf/internal/logging"
	"reshelf/internal/organize"
	"reshelf/internal/preflight"
)

// FromHistoryEntry converts a journal row to its API representation.
func FromHistoryEntry(entry *history.Entry) HistoryEntry {
	if entry == nil {
		return HistoryEntry{}
	}
	dto := HistoryEntry{
		ID:          entry.ID,
		OperationID: entry.OperationID,
		Source:      entry.Source,
		Destination: entry.Destination,
		Mode:        entry.Mode,
		Media:       entry.Media,
		Title:       entry.Title,
		Status:      string(entry.Status),
		Detail:      entry.Detail,
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromHistoryEntries converts a slice of journal rows into API DTOs.
func FromHistoryEntries(entries []*history.Entry) []HistoryEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromHistoryEntry(entry))
	}
	return out
}

// MergeHistoryStats converts journal stats into a string-keyed map.
func MergeHistoryStats(stats map[history.Status]int) map[string]int {
	if len(stats) == 0 {
		return map[string]int{}
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FromOrganizeResult converts a planned (or applied) organize outcome into a
// preview payload.
func FromOrganizeResult(res *organize.Result) Preview {
	if res == nil {
		return Preview{}
	}
	preview := Preview{
		Source:      res.Source,
		Destination: res.Destination,
		Title:       res.DisplayTitle(),
		Year:        res.Match.Year,
		Media:       string(res.Match.Media),
		Season:      res.Match.Season,
		Episode:     res.Match.Episode,
		Mode:        string(res.Mode),
	}
	if res.Meta != nil {
		preview.Provider = res.Meta.Provider
		preview.TMDBID = res.Meta.TMDBID
		if year := strings.TrimSpace(res.Meta.Year); year != "" {
			preview.Year = year
		}
	}
	return preview
}

// DirectoryStats pairs a watch root with its scan counters.
type DirectoryStats struct {
	Directory config.WatchDirectory
	Stats     organize.ScanStats
}

// FromScanStats converts per-directory scan counters into API payloads and
// accumulates the totals. Order follows the input, which callers keep in
// config order.
func FromScanStats(stats []DirectoryStats) ScanResponse {
	resp := ScanResponse{Directories: make([]DirectoryScan, 0, len(stats))}
	for _, entry := range stats {
		resp.Directories = append(resp.Directories, DirectoryScan{
			Name:      entry.Directory.Name,
			Source:    entry.Directory.Source,
			Total:     entry.Stats.Total,
			Succeeded: entry.Stats.Success,
			Failed:    entry.Stats.Failed,
		})
		resp.Total += entry.Stats.Total
		resp.Succeeded += entry.Stats.Success
		resp.Failed += entry.Stats.Failed
	}
	return resp
}

// FromWatchDirectories converts configured watch roots into status payloads.
func FromWatchDirectories(dirs []config.WatchDirectory) []WatchedDirectory {
	if len(dirs) == 0 {
		return nil
	}
	out := make([]WatchedDirectory, 0, len(dirs))
	for _, dir := range dirs {
		out = append(out, WatchedDirectory{
			Name:        dir.Name,
			Source:      dir.Source,
			Destination: dir.Dest,
			Media:       dir.Media,
			Enabled:     dir.IsEnabled(),
		})
	}
	return out
}

// FromPreflightResults converts environment probes into health payloads.
func FromPreflightResults(results []preflight.Result) []HealthCheck {
	if len(results) == 0 {
		return nil
	}
	out := make([]HealthCheck, 0, len(results))
	for _, res := range results {
		out = append(out, HealthCheck{
			Name:   res.Name,
			Passed: res.Passed,
			Detail: res.Detail,
		})
	}
	return out
}

// FromLogEvents converts hub events into transport payloads.
func FromLogEvents(events []logging.LogEvent) []LogEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		dto := LogEvent{
			Sequence:    evt.Sequence,
			Level:       evt.Level,
			Message:     evt.Message,
			Component:   evt.Component,
			OperationID: evt.OperationID,
			SourcePath:  evt.SourcePath,
			Fields:      evt.Fields,
		}
		if !evt.Timestamp.IsZero() {
			dto.Timestamp = evt.Timestamp.UTC().Format(dateTimeFormat)
		}
		out = append(out, dto)
	}
	return out
}

// FormatTimestamp renders a time for transport payloads.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
