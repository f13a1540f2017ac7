package config

const (
	defaultDataDir              = "~/.local/share/gantry/episodes"
	defaultLogDir               = "~/.local/share/gantry/logs"
	defaultListen               = "127.0.0.1:9000"
	defaultServoPort            = "/dev/ttyACM0"
	defaultCalibrationFile      = "~/.config/gantry/calibration.json"
	defaultSpeed                = 500
	defaultCaptureTimeoutMillis = 500
	defaultWriteFailLimit       = 3
	defaultMinFreeGiB           = 1
	defaultDiskPollIntervalSec  = 5
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
// The motor table matches the SO-ARM100 joint layout.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			Listen:  defaultListen,
		},
		Motors: Motors{
			Port:            defaultServoPort,
			CalibrationFile: defaultCalibrationFile,
			DefaultSpeed:    defaultSpeed,
			Motor: []MotorDef{
				{ID: 1, Name: "base"},
				{ID: 2, Name: "shoulder"},
				{ID: 3, Name: "elbow"},
				{ID: 4, Name: "wrist"},
				{ID: 5, Name: "hand"},
				{ID: 6, Name: "thumb"},
			},
		},
		Recording: Recording{
			CaptureTimeoutMillis: defaultCaptureTimeoutMillis,
			WriteFailLimit:       defaultWriteFailLimit,
		},
		Storage: Storage{
			MinFreeGiB:      defaultMinFreeGiB,
			PollIntervalSec: defaultDiskPollIntervalSec,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
