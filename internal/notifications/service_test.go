package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gantry/internal/config"
	"gantry/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = "   "

	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop service must never fail: %v", err)
	}
	if err := svc.NotifyEpisodeFinalized(context.Background(), "episode_0000", "pick", 3, "manual"); err != nil {
		t.Fatalf("noop service must never fail: %v", err)
	}
}

type captured struct {
	body     string
	title    string
	tags     string
	priority string
}

func newCapturingService(t *testing.T) (notifications.Service, *[]captured) {
	t.Helper()

	var requests []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			body:     string(body),
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	return notifications.NewService(&cfg), &requests
}

func TestEpisodeFinalizedNotification(t *testing.T) {
	svc, requests := newCapturingService(t)
	ctx := context.Background()

	if err := svc.NotifyEpisodeFinalized(ctx, "episode_0003", "pick_block", 17, "manual"); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if err := svc.NotifyEpisodeFinalized(ctx, "episode_0004", "pick_block", 2, "disk_pressure"); err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	got := *requests
	if len(got) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(got))
	}
	if !strings.Contains(got[0].body, "episode_0003") || !strings.Contains(got[0].body, "17 events") {
		t.Fatalf("unexpected body %q", got[0].body)
	}
	if got[0].priority != "" {
		t.Fatalf("manual stop must not be high priority: %q", got[0].priority)
	}
	if got[1].priority != "high" || !strings.Contains(got[1].title, "disk_pressure") {
		t.Fatalf("abnormal stop should be high priority with reason: %+v", got[1])
	}
}

func TestDiskPressureNotification(t *testing.T) {
	svc, requests := newCapturingService(t)

	if err := svc.NotifyDiskPressure(context.Background(), 512*1024*1024); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	got := *requests
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if !strings.Contains(got[0].body, "0.50 GiB") || got[0].priority != "high" {
		t.Fatalf("unexpected request: %+v", got[0])
	}
}

func TestSendSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)

	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
