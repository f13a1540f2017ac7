package video

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// deviceSource grabs a single frame from a local V4L2 device by invoking
// ffmpeg for a one-frame JPEG capture.
type deviceSource struct {
	cameraID int
	device   string
	ffmpeg   string
}

func (d *deviceSource) CameraID() int { return d.cameraID }

func (d *deviceSource) Capture(ctx context.Context) ([]byte, error) {
	bin := d.ffmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner",
		"-loglevel", "error",
		"-f", "v4l2",
		"-i", d.device,
		"-frames:v", "1",
		"-f", "image2",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("camera %d: capture from %s: %s: %w", d.cameraID, d.device, detail, err)
		}
		return nil, fmt.Errorf("camera %d: capture from %s: %w", d.cameraID, d.device, err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("camera %d: capture from %s produced no frame", d.cameraID, d.device)
	}
	return stdout.Bytes(), nil
}
