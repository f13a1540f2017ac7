// Package video provides the frame sources captured per recorded event.
// Two strategies sit behind one Source capability: a bounded pull of the
// latest frame from an MJPEG stream URL, and a single direct grab from a
// local V4L2 device. Callers never need to know which backs a camera.
package video

import (
	"context"
	"fmt"
	"strings"
)

// Config describes one frame source.
type Config struct {
	CameraID int
	Source   string
	Method   string
}

// Source captures one frame as JPEG bytes. Capture honors context
// cancellation; callers bound each call with the configured capture
// timeout.
type Source interface {
	CameraID() int
	Capture(ctx context.Context) ([]byte, error)
}

// New builds the capture strategy for one camera. ffmpegBin is only used
// by the device strategy.
func New(cfg Config, ffmpegBin string) (Source, error) {
	if strings.TrimSpace(cfg.Source) == "" {
		return nil, fmt.Errorf("camera %d: source is empty", cfg.CameraID)
	}
	switch cfg.Method {
	case "stream":
		return &streamSource{cameraID: cfg.CameraID, url: cfg.Source}, nil
	case "device":
		return &deviceSource{cameraID: cfg.CameraID, device: cfg.Source, ffmpeg: ffmpegBin}, nil
	default:
		return nil, fmt.Errorf("camera %d: unknown capture method %q", cfg.CameraID, cfg.Method)
	}
}

// NewAll builds sources for a set of camera configs, failing on the first
// invalid entry.
func NewAll(cfgs []Config, ffmpegBin string) ([]Source, error) {
	sources := make([]Source, 0, len(cfgs))
	for _, cfg := range cfgs {
		src, err := New(cfg, ffmpegBin)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
