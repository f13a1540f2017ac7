package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gantry/internal/config"
)

const userAgent = "Gantry-Go/0.1.0"

// Service defines the notification surface exposed to daemon components.
type Service interface {
	NotifyEpisodeStarted(ctx context.Context, episode, actionName string) error
	NotifyEpisodeFinalized(ctx context.Context, episode, actionName string, totalEvents int, reason string) error
	NotifyDiskPressure(ctx context.Context, freeBytes uint64) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
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

func (n *ntfyService) NotifyEpisodeStarted(ctx context.Context, episode, actionName string) error {
	episode = strings.TrimSpace(episode)
	actionName = strings.TrimSpace(actionName)
	data := payload{
		title:   "Gantry - Recording Started",
		message: fmt.Sprintf("Recording %s: %s", episode, actionName),
		tags:    []string{"gantry", "episode", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEpisodeFinalized(ctx context.Context, episode, actionName string, totalEvents int, reason string) error {
	episode = strings.TrimSpace(episode)
	actionName = strings.TrimSpace(actionName)
	reason = strings.TrimSpace(reason)

	var title string
	switch reason {
	case "manual", "":
		title = "Gantry - Recording Complete"
	default:
		title = fmt.Sprintf("Gantry - Recording Stopped (%s)", reason)
	}

	data := payload{
		title:   title,
		message: fmt.Sprintf("Recorded %s: %s (%d events)", episode, actionName, totalEvents),
		tags:    []string{"gantry", "episode", "finalized"},
	}
	if reason != "manual" && reason != "" {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDiskPressure(ctx context.Context, freeBytes uint64) error {
	data := payload{
		title:    "Gantry - Disk Pressure",
		message:  fmt.Sprintf("Free space below threshold: %.2f GiB remaining. Recording disabled.", float64(freeBytes)/(1024*1024*1024)),
		tags:     []string{"gantry", "disk", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Gantry - Error",
		message:  builder.String(),
		tags:     []string{"gantry", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Gantry - Test",
		message:  "Notification system test",
		tags:     []string{"gantry", "test"},
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

func (noopService) NotifyEpisodeStarted(context.Context, string, string) error { return nil }
func (noopService) NotifyEpisodeFinalized(context.Context, string, string, int, string) error {
	return nil
}
func (noopService) NotifyDiskPressure(context.Context, uint64) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
