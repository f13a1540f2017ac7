package deps_test

import (
	"os"
	"path/filepath"
	"testing"

	"gantry/internal/config"
	"gantry/internal/deps"
)

func TestCheckResolvesBinariesAndPaths(t *testing.T) {
	base := t.TempDir()
	binary := filepath.Join(base, "present")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub binary: %v", err)
	}
	port := filepath.Join(base, "ttyACM0")
	if err := os.WriteFile(port, nil, 0o644); err != nil {
		t.Fatalf("write stub port: %v", err)
	}

	statuses := deps.Check([]deps.Requirement{
		{Name: "Present", Command: binary},
		{Name: "Missing", Command: "clearly-not-a-real-binary"},
		{Name: "Port", Path: port},
		{Name: "Gone", Path: filepath.Join(base, "nope")},
		{Name: "Dir", Path: base},
		{Name: "Blank"},
	})
	if len(statuses) != 6 {
		t.Fatalf("expected 6 statuses, got %d", len(statuses))
	}

	byName := make(map[string]deps.Status, len(statuses))
	for _, st := range statuses {
		byName[st.Name] = st
	}
	if !byName["Present"].Available {
		t.Fatalf("stub binary should be available: %+v", byName["Present"])
	}
	if byName["Missing"].Available || byName["Missing"].Detail == "" {
		t.Fatalf("missing binary should carry a detail: %+v", byName["Missing"])
	}
	if !byName["Port"].Available {
		t.Fatalf("existing path should be available: %+v", byName["Port"])
	}
	if byName["Gone"].Available {
		t.Fatalf("missing path should be unavailable: %+v", byName["Gone"])
	}
	if byName["Dir"].Available {
		t.Fatalf("directory should not satisfy a path requirement: %+v", byName["Dir"])
	}
	if byName["Blank"].Detail != "not configured" {
		t.Fatalf("unexpected detail for empty requirement: %+v", byName["Blank"])
	}
}

func TestForConfigMarksFFmpegRequiredForDeviceCameras(t *testing.T) {
	cfg := config.Default()
	reqs := deps.ForConfig(&cfg)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	if !reqs[0].Optional {
		t.Fatalf("ffmpeg should be optional without device cameras: %+v", reqs[0])
	}

	cfg.Cameras.Camera = append(cfg.Cameras.Camera, config.Camera{
		CameraID: 1,
		Source:   "/dev/video0",
		Method:   "device",
	})
	reqs = deps.ForConfig(&cfg)
	if reqs[0].Optional {
		t.Fatalf("ffmpeg should be required with a device camera: %+v", reqs[0])
	}
}

func TestMissingFiltersOptionalAndAvailable(t *testing.T) {
	missing := deps.Missing([]deps.Status{
		{Name: "OK", Available: true},
		{Name: "OptionalGone", Optional: true},
		{Name: "RequiredGone"},
	})
	if len(missing) != 1 || missing[0].Name != "RequiredGone" {
		t.Fatalf("unexpected missing set: %+v", missing)
	}
}
