package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMotors(); err != nil {
		return err
	}
	if err := c.validateCameras(); err != nil {
		return err
	}
	if err := c.validateIntervals(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.Listen); err != nil {
		return fmt.Errorf("paths.listen %q is not a valid host:port: %w", c.Paths.Listen, err)
	}
	return nil
}

func (c *Config) validateMotors() error {
	if len(c.Motors.Motor) == 0 {
		return errors.New("motors.motor must declare at least one motor")
	}
	seenID := make(map[int]struct{}, len(c.Motors.Motor))
	seenName := make(map[string]struct{}, len(c.Motors.Motor))
	for _, m := range c.Motors.Motor {
		if m.ID <= 0 {
			return fmt.Errorf("motors.motor %q: id must be positive", m.Name)
		}
		if m.Name == "" {
			return fmt.Errorf("motors.motor id %d: name must be set", m.ID)
		}
		if _, dup := seenID[m.ID]; dup {
			return fmt.Errorf("motors.motor: duplicate id %d", m.ID)
		}
		if _, dup := seenName[m.Name]; dup {
			return fmt.Errorf("motors.motor: duplicate name %q", m.Name)
		}
		seenID[m.ID] = struct{}{}
		seenName[m.Name] = struct{}{}
	}
	return nil
}

func (c *Config) validateCameras() error {
	seen := make(map[int]struct{}, len(c.Cameras.Camera))
	for _, cam := range c.Cameras.Camera {
		if cam.Method != "stream" && cam.Method != "device" {
			return fmt.Errorf("cameras.camera %d: method must be \"stream\" or \"device\", got %q", cam.CameraID, cam.Method)
		}
		if _, dup := seen[cam.CameraID]; dup {
			return fmt.Errorf("cameras.camera: duplicate camera_id %d", cam.CameraID)
		}
		seen[cam.CameraID] = struct{}{}
	}
	return nil
}

func (c *Config) validateIntervals() error {
	return ensurePositiveMap(map[string]int{
		"motors.default_speed":          c.Motors.DefaultSpeed,
		"recording.capture_timeout_ms":  c.Recording.CaptureTimeoutMillis,
		"recording.write_fail_limit":    c.Recording.WriteFailLimit,
		"storage.min_free_gib":          c.Storage.MinFreeGiB,
		"storage.poll_interval_sec":     c.Storage.PollIntervalSec,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
