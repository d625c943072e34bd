// Package notifications delivers optional ntfy push notifications for
// extraction outcomes. When no topic is configured a noop implementation is
// returned, so callers never branch on configuration.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"txrmwatch/internal/config"
)

const userAgent = "txrmwatch/0.1.0"

// Service defines the notification surface exposed to the dispatcher.
type Service interface {
	NotifyExtractionCompleted(ctx context.Context, path string) error
	NotifyExtractionFailed(ctx context.Context, path string, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		completions: cfg.Notifications.Completions,
		errors:      cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	completions bool
	errors      bool
}

func (n *ntfyService) NotifyExtractionCompleted(ctx context.Context, path string) error {
	if !n.completions {
		return nil
	}
	data := payload{
		title:   "txrmwatch - Extraction Complete",
		message: fmt.Sprintf("Metadata extracted: %s", filepath.Base(path)),
		tags:    []string{"txrmwatch", "extraction", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExtractionFailed(ctx context.Context, path string, cause error) error {
	if !n.errors {
		return nil
	}
	data := payload{
		title:    "txrmwatch - Extraction Failed",
		message:  fmt.Sprintf("Failed %s: %v", filepath.Base(path), cause),
		tags:     []string{"txrmwatch", "extraction", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "txrmwatch - Test",
		message: "Notifications are configured correctly",
		tags:    []string{"txrmwatch", "test"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected: %s", resp.Status)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyExtractionCompleted(context.Context, string) error     { return nil }
func (noopService) NotifyExtractionFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
