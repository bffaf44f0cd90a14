package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
)

// ErrDaemonUnavailable indicates the daemon API endpoint did not accept the
// connection.
var ErrDaemonUnavailable = errors.New("daemon is not reachable")

// APIError reports a non-success HTTP response from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("daemon returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("daemon returned status %d: %s", e.StatusCode, e.Message)
}

// Client provides HTTP access to the daemon API.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient constructs a client for the daemon listening at bind. Bind may be
// a bare host:port or a full http:// URL. Requests carry no client-side
// timeout; callers bound slow operations through the context.
func NewClient(bind, token string) *Client {
	base := strings.TrimSpace(bind)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   strings.TrimSpace(token),
		httpc:   &http.Client{},
	}
}

// BaseURL returns the resolved endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health probes daemon liveness and component readiness.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var resp HealthStatus
	if err := c.call(ctx, http.MethodGet, "/api/health", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon runtime snapshot.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var resp DaemonStatus
	if err := c.call(ctx, http.MethodGet, "/api/status", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Scan triggers a bulk scan of every enabled watch directory.
func (c *Client) Scan(ctx context.Context) (*ScanResponse, error) {
	var resp ScanResponse
	if err := c.call(ctx, http.MethodPost, "/api/scan", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns recent journal entries, optionally filtered by status.
func (c *Client) History(ctx context.Context, limit int, statuses []string) (*HistoryListResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	for _, status := range statuses {
		if trimmed := strings.TrimSpace(status); trimmed != "" {
			query.Add("status", trimmed)
		}
	}
	var resp HistoryListResponse
	if err := c.call(ctx, http.MethodGet, "/api/history", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logs returns recent daemon log events.
func (c *Client) Logs(ctx context.Context, limit int) (*LogsResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp LogsResponse
	if err := c.call(ctx, http.MethodGet, "/api/logs", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogsSince returns log events after the given sequence cursor. With follow
// set the daemon holds the request open until new events arrive or the
// context ends.
func (c *Client) LogsSince(ctx context.Context, since uint64, limit int, follow bool) (*LogsResponse, error) {
	query := url.Values{}
	query.Set("since", strconv.FormatUint(since, 10))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if follow {
		query.Set("follow", "1")
	}
	var resp LogsResponse
	if err := c.call(ctx, http.MethodGet, "/api/logs", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Preview asks the daemon for the planned destination of one file.
func (c *Client) Preview(ctx context.Context, path, dest string) (*Preview, error) {
	query := url.Values{}
	query.Set("path", path)
	if strings.TrimSpace(dest) != "" {
		query.Set("dest", dest)
	}
	var resp Preview
	if err := c.call(ctx, http.MethodGet, "/api/preview", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddDirectory registers a new watch root and returns the updated set.
func (c *Client) AddDirectory(ctx context.Context, req DirectoryRequest) (*DirectoriesResponse, error) {
	var resp DirectoriesResponse
	if err := c.call(ctx, http.MethodPost, "/api/directories", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveDirectory unregisters the watch root with the given source path.
func (c *Client) RemoveDirectory(ctx context.Context, source string) (*DirectoriesResponse, error) {
	query := url.Values{}
	query.Set("source", source)
	var resp DirectoriesResponse
	if err := c.call(ctx, http.MethodDelete, "/api/directories", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown requests a graceful daemon stop.
func (c *Client) Shutdown(ctx context.Context) (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.call(ctx, http.MethodPost, "/api/shutdown", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil || c.baseURL == "" {
		return errors.New("api client is not configured")
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return fmt.Errorf("%w at %s: %v", ErrDaemonUnavailable, c.baseURL, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 2048)).Decode(&payload); err == nil {
		apiErr.Message = payload.Error
	}
	return apiErr
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
