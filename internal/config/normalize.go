package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeMotors(); err != nil {
		return err
	}
	c.normalizeCameras()
	c.normalizeRecording()
	c.normalizeStorage()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.Listen = strings.TrimSpace(c.Paths.Listen)
	if c.Paths.Listen == "" {
		c.Paths.Listen = defaultListen
	}
	return nil
}

func (c *Config) normalizeMotors() error {
	var err error
	c.Motors.Port = strings.TrimSpace(c.Motors.Port)
	if c.Motors.Port == "" {
		c.Motors.Port = defaultServoPort
	}
	if strings.TrimSpace(c.Motors.CalibrationFile) == "" {
		c.Motors.CalibrationFile = defaultCalibrationFile
	}
	if c.Motors.CalibrationFile, err = expandPath(c.Motors.CalibrationFile); err != nil {
		return fmt.Errorf("motors.calibration_file: %w", err)
	}
	if c.Motors.DefaultSpeed <= 0 {
		c.Motors.DefaultSpeed = defaultSpeed
	}
	if len(c.Motors.Motor) == 0 {
		c.Motors.Motor = Default().Motors.Motor
	}
	for i := range c.Motors.Motor {
		c.Motors.Motor[i].Name = strings.ToLower(strings.TrimSpace(c.Motors.Motor[i].Name))
	}
	return nil
}

func (c *Config) normalizeCameras() {
	cams := make([]Camera, 0, len(c.Cameras.Camera))
	for _, cam := range c.Cameras.Camera {
		cam.Source = strings.TrimSpace(cam.Source)
		if cam.Source == "" {
			continue
		}
		cam.Method = strings.ToLower(strings.TrimSpace(cam.Method))
		if cam.Method == "" {
			cam.Method = "stream"
		}
		cams = append(cams, cam)
	}
	c.Cameras.Camera = cams
}

func (c *Config) normalizeRecording() {
	if c.Recording.CaptureTimeoutMillis <= 0 {
		c.Recording.CaptureTimeoutMillis = defaultCaptureTimeoutMillis
	}
	if c.Recording.WriteFailLimit <= 0 {
		c.Recording.WriteFailLimit = defaultWriteFailLimit
	}
}

func (c *Config) normalizeStorage() {
	if c.Storage.MinFreeGiB <= 0 {
		c.Storage.MinFreeGiB = defaultMinFreeGiB
	}
	if c.Storage.PollIntervalSec <= 0 {
		c.Storage.PollIntervalSec = defaultDiskPollIntervalSec
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
