package testsupport

import (
	"path/filepath"
	"testing"

	"gantry/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "episodes")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.Listen = "127.0.0.1:0"
	cfgVal.Motors.CalibrationFile = filepath.Join(base, "calibration.json")
	cfgVal.Storage.MinFreeGiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCameras replaces the configured frame sources on the test config.
func WithCameras(cameras ...config.Camera) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cameras.Camera = cameras
	}
}

// WithMotors replaces the motor table on the test config.
func WithMotors(motors ...config.MotorDef) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Motors.Motor = motors
	}
}

// WithMinFreeGiB sets the disk floor on the test config.
func WithMinFreeGiB(gib int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.MinFreeGiB = gib
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
