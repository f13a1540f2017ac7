// Package deps reports the availability of external resources the daemon
// needs at runtime: the ffmpeg binary used for device capture, the servo
// serial port, and the calibration file.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"gantry/internal/config"
)

// Requirement defines one external dependency. Exactly one of Command
// (a binary resolved on PATH) or Path (a filesystem path) is set.
type Requirement struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Target      string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ForConfig derives the dependency list from the daemon configuration.
// ffmpeg is optional unless a device-method camera is configured.
func ForConfig(cfg *config.Config) []Requirement {
	ffmpegOptional := true
	for _, cam := range cfg.Cameras.Camera {
		if cam.Method == "device" {
			ffmpegOptional = false
			break
		}
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Captures frames from V4L2 camera devices",
			Optional:    ffmpegOptional,
		},
		{
			Name:        "Servo port",
			Path:        cfg.Motors.Port,
			Description: "Serial bus for the arm servos",
		},
		{
			Name:        "Calibration file",
			Path:        cfg.Motors.CalibrationFile,
			Description: "Per-motor position ranges",
		},
	}
}

// Check evaluates the provided requirements and reports availability.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{
			Name:        req.Name,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		command := strings.TrimSpace(req.Command)
		path := strings.TrimSpace(req.Path)
		switch {
		case command != "":
			status.Target = command
			if resolved, err := exec.LookPath(command); err == nil {
				status.Target = resolved
				status.Available = true
			} else {
				status.Detail = fmt.Sprintf("binary %q not found", command)
			}
		case path != "":
			status.Target = path
			if info, err := os.Stat(path); err != nil {
				status.Detail = fmt.Sprintf("%q not found", path)
			} else if info.IsDir() {
				status.Detail = fmt.Sprintf("%q is a directory", path)
			} else {
				status.Available = true
			}
		default:
			status.Detail = "not configured"
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the non-optional statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
