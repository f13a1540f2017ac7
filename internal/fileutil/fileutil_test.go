package fileutil_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gantry/internal/fileutil"
)

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	if err := fileutil.WriteFileAtomic(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Fatalf("unexpected content %q, err %v", data, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, got %d entries", len(entries))
	}
}

func TestWriteFileAtomicOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := fileutil.WriteFileAtomic(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := fileutil.WriteFileAtomic(path, []byte("two"), 0o644); err != nil {
		t.Fatalf("second write: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "two" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := fileutil.WriteJSONAtomic(path, map[string]int{"count": 3}); err != nil {
		t.Fatalf("WriteJSONAtomic failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"count": 3`) {
		t.Fatalf("expected indented JSON, got %q", text)
	}
	if !strings.HasSuffix(text, "\n") {
		t.Fatal("expected trailing newline")
	}
}

func TestWriteFileAtomicFailsWhenTargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "blocked")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := fileutil.WriteFileAtomic(target, []byte("x"), 0o644); err == nil {
		t.Fatal("expected failure when target is a directory")
	}
}
