package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"gantry/internal/catalog"
	"gantry/internal/config"
	"gantry/internal/diskspace"
	"gantry/internal/episode"
	"gantry/internal/logging"
	"gantry/internal/motor"
	"gantry/internal/notifications"
	"gantry/internal/server"
	"gantry/internal/video"
)

// hookTimeout bounds catalog writes and notification sends triggered by
// episode lifecycle hooks.
const hookTimeout = 10 * time.Second

// Options carry the daemon's collaborators. Config and Actuator are
// required; a nil Notifier gets the configured ntfy service (or a noop),
// a nil Store disables the episode catalog, and a nil Disk builds the
// free-space monitor from config.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Actuator motor.Actuator
	Store    *catalog.Store
	Notifier notifications.Service
	Disk     *diskspace.Monitor
}

// Daemon owns the motor registry and episode logger and enforces
// single-instance execution. A single mutex serializes command
// application with event recording so every recorded event reflects the
// state its command produced.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *motor.Registry
	episodes *episode.Logger
	store    *catalog.Store
	disk     *diskspace.Monitor
	notifier notifications.Service
	cameras  *cameraMonitor

	lockPath string
	lock     *flock.Flock

	mu sync.Mutex
}

// New constructs a daemon with initialized collaborators.
func New(opts Options) (*Daemon, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if opts.Actuator == nil {
		return nil, errors.New("daemon requires a motor actuator")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	defs := make([]motor.Definition, 0, len(cfg.Motors.Motor))
	for _, def := range cfg.Motors.Motor {
		defs = append(defs, motor.Definition{ID: def.ID, Name: def.Name})
	}

	disk := opts.Disk
	if disk == nil {
		disk = diskspace.New(
			cfg.Paths.DataDir,
			cfg.Storage.MinFreeGiB,
			time.Duration(cfg.Storage.PollIntervalSec)*time.Second,
			logger,
		)
	}

	cameras := make([]video.Config, 0, len(cfg.Cameras.Camera))
	for _, cam := range cfg.Cameras.Camera {
		cameras = append(cameras, video.Config{CameraID: cam.CameraID, Source: cam.Source, Method: cam.Method})
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		registry: motor.NewRegistry(opts.Actuator, defs),
		store:    opts.Store,
		disk:     disk,
		notifier: notifier,
		lockPath: filepath.Join(cfg.Paths.LogDir, "gantryd.lock"),
	}
	d.lock = flock.New(d.lockPath)

	d.episodes = episode.NewLogger(episode.Options{
		DataDir:        cfg.Paths.DataDir,
		DefaultCameras: cameras,
		FFmpegBin:      cfg.FFmpegBinary(),
		CaptureTimeout: time.Duration(cfg.Recording.CaptureTimeoutMillis) * time.Millisecond,
		WriteFailLimit: cfg.Recording.WriteFailLimit,
		Disk:           disk,
		Logger:         logger,
		OnStart:        d.onEpisodeStarted,
		OnFinalize:     d.onEpisodeFinalized,
	})

	d.cameras = newCameraMonitor(cfg, logger)

	return d, nil
}

// Run acquires the single-instance lock, serves commands, and runs the
// background watchdogs until ctx is canceled. On shutdown it halts all
// motors and finalizes any active episode.
func (d *Daemon) Run(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another gantry daemon instance is already running (lock %s)", d.lockPath)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	if err := diskspace.CheckWritable(d.cfg.Paths.DataDir); err != nil {
		return err
	}

	// Seed the cached free-space reading before accepting commands.
	if _, _, err := d.disk.Check(); err != nil {
		d.logger.Warn("initial free space check failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "disk_check_failed"),
			logging.String("path", d.cfg.Paths.DataDir))
	}

	d.disk.OnBreach(d.onDiskPressure)

	srv, err := server.NewServer(ctx, d.cfg.Paths.Listen, d, d.logger)
	if err != nil {
		return err
	}
	srv.Serve()

	d.cameras.Start(ctx)

	d.logger.Info("gantry daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("addr", srv.Addr()),
		logging.String("lock", d.lockPath))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := d.disk.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	err = g.Wait()

	d.shutdown()
	d.cameras.Stop()
	srv.Close()

	d.logger.Info("gantry daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stopped"))
	return err
}

// shutdown halts every motor and finalizes any active episode. The halt
// events are recorded before finalization so the episode captures the
// arm's resting state.
func (d *Daemon) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d.mu.Lock()
	stopped, err := d.registry.HaltAll(ctx)
	if err != nil {
		d.logger.Warn("halt all motors on shutdown failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "shutdown_halt_failed"),
			logging.String(logging.FieldImpact, "some motors may still be moving"))
	}
	for _, st := range stopped {
		pos := st.Position
		if recErr := d.episodes.RecordEvent(st, episode.Action{
			Command:        "stop",
			TargetPosition: &pos,
		}); recErr != nil {
			break
		}
	}
	d.mu.Unlock()

	d.episodes.ForceStop(episode.StopShutdown)
}

// onDiskPressure runs when the background poll sees free space fall below
// the floor.
func (d *Daemon) onDiskPressure() {
	d.episodes.ForceStop(episode.StopDiskPressure)

	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	if err := d.notifier.NotifyDiskPressure(ctx, d.disk.FreeBytes()); err != nil {
		d.logger.Warn("disk pressure notification failed", logging.Error(err))
	}
}

func (d *Daemon) onEpisodeStarted(s episode.Summary) {
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()

	if d.store != nil {
		if err := d.store.RecordStart(ctx, s.EpisodeID, s.Dir, s.ActionName, s.Description, s.StartTime); err != nil {
			d.logger.Warn("catalog insert failed",
				logging.Error(err),
				logging.String(logging.FieldEpisode, filepath.Base(s.Dir)),
				logging.String(logging.FieldImpact, "episode missing from list_episodes output"))
		}
	}
	if err := d.notifier.NotifyEpisodeStarted(ctx, filepath.Base(s.Dir), s.ActionName); err != nil {
		d.logger.Warn("episode start notification failed", logging.Error(err))
	}
}

func (d *Daemon) onEpisodeFinalized(s episode.Summary) {
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()

	if d.store != nil {
		if err := d.store.Finalize(ctx, s.EpisodeID, s.EndTime, s.TotalEvents, string(s.Reason)); err != nil {
			d.logger.Warn("catalog finalize failed",
				logging.Error(err),
				logging.String(logging.FieldEpisode, filepath.Base(s.Dir)),
				logging.String(logging.FieldImpact, "episode shows as unfinished in list_episodes output"))
		}
	}
	if err := d.notifier.NotifyEpisodeFinalized(ctx, filepath.Base(s.Dir), s.ActionName, s.TotalEvents, string(s.Reason)); err != nil {
		d.logger.Warn("episode finalize notification failed", logging.Error(err))
	}
}
