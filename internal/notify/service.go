package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reshelf/internal/config"
)

const userAgent = "reshelf/0.1.0"

// Service defines the notification surface exposed to the organizer and
// daemon.
type Service interface {
	NotifyFileOrganized(ctx context.Context, title, destination string) error
	NotifyOrganizeFailed(ctx context.Context, filename, reason string) error
	NotifyScanCompleted(ctx context.Context, total, succeeded, failed int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notify.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	server := strings.TrimSpace(cfg.Notify.NtfyServer)
	if server == "" {
		server = "https://ntfy.sh"
	}

	return &ntfyService{
		endpoint: strings.TrimRight(server, "/") + "/" + topic,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyFileOrganized(ctx context.Context, title, destination string) error {
	title = strings.TrimSpace(title)
	destination = strings.TrimSpace(destination)
	message := fmt.Sprintf("✅ Added to library: %s", title)
	if destination != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, destination)
	}
	data := payload{
		title:   "Reshelf - Library Updated",
		message: message,
		tags:    []string{"reshelf", "organize", "added"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyOrganizeFailed(ctx context.Context, filename, reason string) error {
	filename = strings.TrimSpace(filename)
	reason = strings.TrimSpace(reason)
	message := fmt.Sprintf("❌ Could not organize: %s", filename)
	if reason != "" {
		message = fmt.Sprintf("%s\n%s", message, reason)
	}
	data := payload{
		title:    "Reshelf - Organize Failed",
		message:  message,
		tags:     []string{"reshelf", "organize", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyScanCompleted(ctx context.Context, total, succeeded, failed int) error {
	var title string
	var message string
	if failed == 0 {
		title = "Reshelf - Scan Complete"
		message = fmt.Sprintf("Scan complete: %d of %d files organized", succeeded, total)
	} else {
		title = "Reshelf - Scan Complete (with errors)"
		message = fmt.Sprintf("Scan complete: %d of %d organized, %d failed", succeeded, total, failed)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"reshelf", "scan", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reshelf - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"reshelf", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyFileOrganized(context.Context, string, string) error  { return nil }
func (noopService) NotifyOrganizeFailed(context.Context, string, string) error { return nil }
func (noopService) NotifyScanCompleted(context.Context, int, int, int) error   { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
