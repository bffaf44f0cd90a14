package api

// dateTimeFormat renders timestamps as RFC3339 with millisecond precision.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// HistoryEntry is the transport representation of one journal row.
type HistoryEntry struct {
	ID          int64  `json:"id"`
	OperationID string `json:"operationId"`
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Media       string `json:"media,omitempty"`
	Title       string `json:"title,omitempty"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// WatchedDirectory describes one configured watch root.
type WatchedDirectory struct {
	Name        string `json:"name,omitempty"`
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Media       string `json:"media,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// HealthCheck is a single readiness probe result.
type HealthCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// HealthStatus reports daemon liveness plus component readiness.
type HealthStatus struct {
	Status string        `json:"status"`
	PID    int           `json:"pid"`
	Checks []HealthCheck `json:"checks,omitempty"`
}

// DaemonStatus aggregates daemon runtime information.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	StartedAt     string             `json:"startedAt,omitempty"`
	UptimeSeconds int64              `json:"uptimeSeconds,omitempty"`
	HistoryDBPath string             `json:"historyDbPath,omitempty"`
	LockFilePath  string             `json:"lockFilePath,omitempty"`
	TransferMode  string             `json:"transferMode,omitempty"`
	Directories   []WatchedDirectory `json:"directories,omitempty"`
	HistoryStats  map[string]int     `json:"historyStats,omitempty"`
}

// DirectoryScan reports organize outcomes for one watch root.
type DirectoryScan struct {
	Name      string `json:"name,omitempty"`
	Source    string `json:"source"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// ScanResponse wraps a bulk scan across every enabled watch root.
type ScanResponse struct {
	Directories []DirectoryScan `json:"directories"`
	Total       int             `json:"total"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
}

// Preview describes the planned library destination for one source file.
type Preview struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Title       string `json:"title"`
	Year        string `json:"year,omitempty"`
	Media       string `json:"media"`
	Season      int    `json:"season,omitempty"`
	Episode     int    `json:"episode,omitempty"`
	Provider    string `json:"provider,omitempty"`
	TMDBID      int64  `json:"tmdbId,omitempty"`
	Mode        string `json:"mode"`
}

// LogEvent is the transport form of a structured daemon log line.
type LogEvent struct {
	Sequence    uint64            `json:"seq"`
	Timestamp   string            `json:"ts,omitempty"`
	Level       string            `json:"level"`
	Message     string            `json:"message"`
	Component   string            `json:"component,omitempty"`
	OperationID string            `json:"operationId,omitempty"`
	SourcePath  string            `json:"sourcePath,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// HistoryListResponse wraps journal queries.
type HistoryListResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// LogsResponse wraps a log stream fetch. Next is the cursor for the
// following request.
type LogsResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}

// DirectoryRequest adds or removes a watch root.
type DirectoryRequest struct {
	Name        string `json:"name,omitempty"`
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Media       string `json:"media,omitempty"`
}

// DirectoriesResponse reports the watch roots after a mutation.
type DirectoriesResponse struct {
	Directories []WatchedDirectory `json:"directories"`
}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}

// ErrorResponse carries a transport-level failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}
