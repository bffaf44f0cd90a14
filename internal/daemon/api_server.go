package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"reshelf/internal/api"
	"reshelf/internal/config"
	"reshelf/internal/history"
	"reshelf/internal/logging"
	"reshelf/internal/organize"
	"reshelf/internal/preflight"
	"reshelf/internal/services"
)

type apiServer struct {
	bind       string
	token      string
	logger     *slog.Logger
	daemon     *Daemon
	historySvc *api.HistoryService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:       bind,
		token:      strings.TrimSpace(cfg.API.Token),
		logger:     logger,
		daemon:     d,
		historySvc: api.NewHistoryService(d.store),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", srv.route(srv.handleHealth))
	mux.HandleFunc("/api/status", srv.route(srv.handleStatus))
	mux.HandleFunc("/api/scan", srv.route(srv.handleScan))
	mux.HandleFunc("/api/history", srv.route(srv.handleHistory))
	mux.HandleFunc("/api/logs", srv.route(srv.handleLogs))
	mux.HandleFunc("/api/preview", srv.route(srv.handlePreview))
	mux.HandleFunc("/api/directories", srv.route(srv.handleDirectories))
	mux.HandleFunc("/api/shutdown", srv.route(srv.handleShutdown))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Scans hold the response open while whole directories are
		// organized, so writes stay unbounded.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return srv, nil
}

// route applies bearer auth and stamps each request with a correlation id so
// organize logs triggered over the API can be tied back to the call.
func (s *apiServer) route(next http.HandlerFunc) http.HandlerFunc {
	tagged := func(w http.ResponseWriter, r *http.Request) {
		ctx := services.WithRequestID(r.Context(), uuid.NewString())
		next(w, r.WithContext(ctx))
	}
	return authMiddleware(s.token, tagged)
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound listen address, which differs from the configured
// bind when the port is 0.
func (s *apiServer) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	// Directory checks only: the TMDB probe is a network call and health is
	// polled during startup.
	results := preflight.CheckDirectories(s.daemon.cfg)
	payload := api.HealthStatus{
		Status: "ok",
		PID:    os.Getpid(),
		Checks: api.FromPreflightResults(results),
	}
	for _, res := range results {
		if !res.Passed {
			payload.Status = "degraded"
			break
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		StartedAt:     api.FormatTimestamp(status.StartedAt),
		HistoryDBPath: status.HistoryDBPath,
		LockFilePath:  status.LockFilePath,
		TransferMode:  status.TransferMode,
		Directories:   api.FromWatchDirectories(status.Directories),
		HistoryStats:  api.MergeHistoryStats(status.HistoryStats),
	}
	if !status.StartedAt.IsZero() {
		payload.UptimeSeconds = int64(time.Since(status.StartedAt).Seconds())
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	results := s.daemon.ScanAll(r.Context())
	s.writeJSON(w, http.StatusOK, api.FromScanStats(results))
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()

	limit := 50
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	var statuses []history.Status
	for _, value := range query["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if !history.ValidStatus(trimmed) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", trimmed))
			return
		}
		statuses = append(statuses, history.Status(trimmed))
	}

	entries, err := s.historySvc.List(r.Context(), limit, statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryListResponse{Entries: entries})
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	hub := s.daemon.LogStream()
	if hub == nil {
		s.writeJSON(w, http.StatusOK, api.LogsResponse{Events: nil, Next: 0})
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 200
	}
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	follow := query.Get("follow") == "1" || strings.EqualFold(query.Get("follow"), "true")

	var (
		events []logging.LogEvent
		next   uint64
	)
	if since == 0 && !follow {
		events, next = hub.Tail(limit)
	} else {
		fetched, cursor, err := hub.Fetch(r.Context(), since, limit, follow)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		events = fetched
		next = cursor
	}

	s.writeJSON(w, http.StatusOK, api.LogsResponse{
		Events: api.FromLogEvents(events),
		Next:   next,
	})
}

func (s *apiServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	path := strings.TrimSpace(query.Get("path"))
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}

	res, err := s.daemon.organizer.Plan(r.Context(), organize.Request{
		Source:   path,
		DestBase: strings.TrimSpace(query.Get("dest")),
	})
	if err != nil {
		s.writeError(w, statusForPlanError(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromOrganizeResult(res))
}

func (s *apiServer) handleDirectories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req api.DirectoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Source) == "" {
			s.writeError(w, http.StatusBadRequest, "source is required")
			return
		}
		dirs, err := s.daemon.AddDirectory(config.WatchDirectory{
			Name:   req.Name,
			Source: req.Source,
			Dest:   req.Destination,
			Media:  req.Media,
		})
		if err != nil {
			if errors.Is(err, ErrDirectoryExists) {
				s.writeError(w, http.StatusConflict, err.Error())
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.DirectoriesResponse{Directories: api.FromWatchDirectories(dirs)})

	case http.MethodDelete:
		source := strings.TrimSpace(r.URL.Query().Get("source"))
		if source == "" {
			s.writeError(w, http.StatusBadRequest, "source query parameter is required")
			return
		}
		dirs, err := s.daemon.RemoveDirectory(source)
		if err != nil {
			if errors.Is(err, ErrDirectoryNotFound) {
				s.writeError(w, http.StatusNotFound, err.Error())
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.DirectoriesResponse{Directories: api.FromWatchDirectories(dirs)})

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ShutdownResponse{Stopping: true})
	s.daemon.RequestShutdown()
}

func statusForPlanError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrSourceMissing):
		return http.StatusNotFound
	case errors.Is(err, services.ErrMetadataNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
