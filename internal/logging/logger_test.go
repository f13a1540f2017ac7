package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gantry/internal/logging"
)

func TestNewWritesJSONToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("daemon event", logging.String(logging.FieldEventType, "test_event"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"event_type":"test_event"`) {
		t.Fatalf("expected JSON attribute in output, got %q", content)
	}
}

func TestNewHonorsLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "warn",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("visible")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "suppressed") {
		t.Fatalf("info message leaked through warn level: %q", text)
	}
	if !strings.Contains(text, "visible") {
		t.Fatalf("warn message missing: %q", text)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestComponentLoggerTagsRecords(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	base, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger := logging.NewComponentLogger(base, "episode-logger")
	logger.Info("hello")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"component":"episode-logger"`) {
		t.Fatalf("expected component attribute, got %q", content)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("ignored", logging.Error(errors.New("boom")))
	if from := logging.NewComponentLogger(nil, "x"); from == nil {
		t.Fatal("NewComponentLogger(nil) must return a usable logger")
	}
}
