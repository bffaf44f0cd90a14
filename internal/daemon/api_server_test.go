package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reshelf/internal/api"
	"reshelf/internal/config"
	"reshelf/internal/history"
	"reshelf/internal/logging"
	"reshelf/internal/testsupport"
)

func newTestServer(t *testing.T, opts ...testsupport.ConfigOption) (*apiServer, *Daemon, *config.Config) {
	t.Helper()

	opts = append([]testsupport.ConfigOption{testsupport.WithTMDBKey("")}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenHistory(t, cfg)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	d, err := New(cfg, configPath, store, logging.NewNop(), logging.NewStreamHub(64))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv, err := newAPIServer(cfg, d, logging.NewNop())
	if err != nil {
		t.Fatalf("newAPIServer: %v", err)
	}
	if srv == nil {
		t.Fatalf("expected api server for bind %q", cfg.API.Bind)
	}
	return srv, d, cfg
}

func TestAPIServerHandleHistory(t *testing.T) {
	srv, d, _ := newTestServer(t)

	ctx := context.Background()
	for _, entry := range []*history.Entry{
		{Source: "/a.mkv", Mode: "copy", Status: history.StatusSuccess},
		{Source: "/b.mkv", Mode: "copy", Status: history.StatusMetadataNotFound},
		{Source: "/c.mkv", Mode: "copy", Status: history.StatusSuccess},
	} {
		if err := d.store.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/history?status=success&limit=1", nil)
	w := httptest.NewRecorder()
	srv.handleHistory(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.HistoryListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(resp.Entries))
	}
	if resp.Entries[0].Status != "success" {
		t.Fatalf("unexpected status: %q", resp.Entries[0].Status)
	}
}

func TestAPIServerHistoryValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, target := range []string{
		"/api/history?limit=0",
		"/api/history?limit=2000",
		"/api/history?limit=abc",
		"/api/history?status=bogus",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		srv.handleHistory(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestAPIServerHandleStatus(t *testing.T) {
	srv, _, cfg := newTestServer(t, testsupport.WithWatchDirectory("inbox"))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	srv.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Running {
		t.Fatalf("daemon was not started, expected running=false")
	}
	if resp.TransferMode != cfg.Transfer.Mode {
		t.Fatalf("unexpected transfer mode: %q", resp.TransferMode)
	}
	if len(resp.Directories) != 1 || resp.Directories[0].Name != "inbox" {
		t.Fatalf("unexpected directories: %+v", resp.Directories)
	}
	if resp.HistoryDBPath == "" {
		t.Fatalf("expected history db path")
	}
}

func TestAPIServerHandleScan(t *testing.T) {
	srv, _, cfg := newTestServer(t, testsupport.WithWatchDirectory("inbox"))

	inbox := cfg.Watch.Directories[0].Source
	testsupport.WriteFile(t, filepath.Join(inbox, "Heat.1995.1080p.mkv"), 2048)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	w := httptest.NewRecorder()
	srv.handleScan(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.ScanResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 || resp.Succeeded != 1 || resp.Failed != 0 {
		t.Fatalf("unexpected totals: %+v", resp)
	}
	organized := filepath.Join(cfg.Library.DefaultDir, "Movies", "Heat (1995)", "Heat (1995) - 1080P.mkv")
	if _, err := os.Stat(organized); err != nil {
		t.Fatalf("expected organized file: %v", err)
	}
}

func TestAPIServerHandlePreview(t *testing.T) {
	srv, _, cfg := newTestServer(t)

	source := filepath.Join(testsupport.BaseDir(cfg), "downloads", "Inception.2010.1080p.mkv")
	testsupport.WriteFile(t, source, 2048)

	req := httptest.NewRequest(http.MethodGet, "/api/preview?path="+source, nil)
	w := httptest.NewRecorder()
	srv.handlePreview(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.Preview
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Destination, filepath.Join("Movies", "Inception (2010)")) {
		t.Fatalf("unexpected destination: %q", resp.Destination)
	}
	if resp.Mode != cfg.Transfer.Mode {
		t.Fatalf("unexpected mode: %q", resp.Mode)
	}

	if _, err := os.Stat(resp.Destination); !os.IsNotExist(err) {
		t.Fatalf("preview must not create files")
	}
}

func TestAPIServerPreviewErrors(t *testing.T) {
	srv, _, cfg := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/preview", nil)
	w := httptest.NewRecorder()
	srv.handlePreview(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing path: expected 400, got %d", w.Code)
	}

	missing := filepath.Join(testsupport.BaseDir(cfg), "downloads", "nope.mkv")
	req = httptest.NewRequest(http.MethodGet, "/api/preview?path="+missing, nil)
	w = httptest.NewRecorder()
	srv.handlePreview(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing source: expected 404, got %d", w.Code)
	}
}

func TestAPIServerHandleDirectories(t *testing.T) {
	srv, _, cfg := newTestServer(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	inbox := filepath.Join(testsupport.BaseDir(cfg), "inbox")

	body := `{"name":"inbox","source":"` + inbox + `","destination":"` + cfg.Library.DefaultDir + `","media":"auto"}`
	req := httptest.NewRequest(http.MethodPost, "/api/directories", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleDirectories(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("add: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.DirectoriesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Directories) != 1 || resp.Directories[0].Source != inbox {
		t.Fatalf("unexpected directories: %+v", resp.Directories)
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("config not persisted: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/directories", strings.NewReader(body))
	w = httptest.NewRecorder()
	srv.handleDirectories(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate add: expected 409, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/directories?source=/no/such/dir", nil)
	w = httptest.NewRecorder()
	srv.handleDirectories(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown remove: expected 404, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/directories?source="+inbox, nil)
	w = httptest.NewRecorder()
	srv.handleDirectories(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Directories) != 0 {
		t.Fatalf("expected empty directory set, got %+v", resp.Directories)
	}

	reloaded, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if len(reloaded.Watch.Directories) != 0 {
		t.Fatalf("removal not persisted: %+v", reloaded.Watch.Directories)
	}
}

func TestAPIServerShutdown(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/shutdown", nil)
	w := httptest.NewRecorder()
	srv.handleShutdown(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET shutdown: expected 405, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/shutdown", nil)
	w = httptest.NewRecorder()
	srv.handleShutdown(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.ShutdownResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Stopping {
		t.Fatalf("expected stopping acknowledgement")
	}
}

func TestAPIServerLogsFromHub(t *testing.T) {
	srv, d, _ := newTestServer(t)

	hub := d.LogStream()
	hub.Publish(logging.LogEvent{Level: "INFO", Message: "first"})
	hub.Publish(logging.LogEvent{Level: "INFO", Message: "second"})
	hub.Publish(logging.LogEvent{Level: "WARN", Message: "third"})

	req := httptest.NewRequest(http.MethodGet, "/api/logs?limit=2", nil)
	w := httptest.NewRecorder()
	srv.handleLogs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.LogsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(resp.Events))
	}
	if resp.Events[0].Message != "second" || resp.Events[1].Message != "third" {
		t.Fatalf("expected newest tail, got %+v", resp.Events)
	}
	if resp.Next == 0 {
		t.Fatalf("expected a cursor")
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("valid token: expected 204, got %d", w.Code)
	}

	open := authMiddleware("", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w = httptest.NewRecorder()
	open(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("no token configured: expected pass-through, got %d", w.Code)
	}
}
