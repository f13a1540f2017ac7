package episode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"gantry/internal/diskspace"
	"gantry/internal/fileutil"
	"gantry/internal/logging"
	"gantry/internal/motor"
	"gantry/internal/video"
)

// StopReason distinguishes why an episode ended. It lands in the catalog
// and logs; the on-disk metadata schema is fixed and does not carry it.
type StopReason string

const (
	StopManual       StopReason = "manual"
	StopTimeout      StopReason = "timeout"
	StopDiskPressure StopReason = "disk_pressure"
	StopStorageError StopReason = "storage_error"
	StopShutdown     StopReason = "shutdown"
)

var (
	ErrAlreadyRecording = errors.New("an episode is already recording")
	ErrNotRecording     = errors.New("no episode is recording")
	ErrEmptyActionName  = errors.New("action_name is required")
	ErrDiskPressure     = errors.New("insufficient free disk space")
)

// Action describes the command that triggered an event, as written to the
// event's action artifact.
type Action struct {
	Command        string
	Direction      string
	Speed          int
	TargetPosition *int
}

// Summary describes a finalized episode.
type Summary struct {
	EpisodeID   string
	Dir         string
	ActionName  string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	TotalEvents int
	Reason      StopReason
}

// StartParams configure one recording episode.
type StartParams struct {
	ActionName  string
	Description string
	Timeout     time.Duration
	Cameras     []video.Config
}

// Options configure a Logger.
type Options struct {
	DataDir        string
	DefaultCameras []video.Config
	FFmpegBin      string
	CaptureTimeout time.Duration
	WriteFailLimit int
	Disk           *diskspace.Monitor
	Logger         *slog.Logger
	OnStart        func(Summary)
	OnFinalize     func(Summary)
}

// Logger owns the active episode, its event sequence counter, and the
// synchronized write of state, action, and frame artifacts per event.
// At most one episode is active at a time.
type Logger struct {
	dataDir        string
	defaultCameras []video.Config
	ffmpegBin      string
	captureTimeout time.Duration
	writeFailLimit int
	disk           *diskspace.Monitor
	logger         *slog.Logger
	onStart        func(Summary)
	onFinalize     func(Summary)

	mu         sync.Mutex
	active     *activeEpisode
	generation uint64
}

type activeEpisode struct {
	generation uint64
	dir        string
	meta       Metadata
	sources    []video.Source
	startTime  time.Time
	eventCount int
	writeFails int
	timer      *time.Timer
}

// NewLogger constructs an episode logger rooted at opts.DataDir.
func NewLogger(opts Options) *Logger {
	captureTimeout := opts.CaptureTimeout
	if captureTimeout <= 0 {
		captureTimeout = 500 * time.Millisecond
	}
	writeFailLimit := opts.WriteFailLimit
	if writeFailLimit <= 0 {
		writeFailLimit = 3
	}
	return &Logger{
		dataDir:        opts.DataDir,
		defaultCameras: opts.DefaultCameras,
		ffmpegBin:      opts.FFmpegBin,
		captureTimeout: captureTimeout,
		writeFailLimit: writeFailLimit,
		disk:           opts.Disk,
		logger:         logging.NewComponentLogger(opts.Logger, "episode-logger"),
		onStart:        opts.OnStart,
		onFinalize:     opts.OnFinalize,
	}
}

// Start allocates the next episode directory, writes initial metadata, and
// transitions to recording. The camera set is resolved here and stays
// immutable for the episode's lifetime.
func (l *Logger) Start(params StartParams) (string, error) {
	dir, s, err := l.start(params)
	if err != nil {
		return "", err
	}
	if l.onStart != nil {
		l.onStart(s)
	}
	return dir, nil
}

func (l *Logger) start(params StartParams) (string, Summary, error) {
	if params.ActionName == "" {
		return "", Summary{}, ErrEmptyActionName
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active != nil {
		return "", Summary{}, ErrAlreadyRecording
	}

	if l.disk != nil {
		if _, low, err := l.disk.Check(); err == nil && low {
			return "", Summary{}, ErrDiskPressure
		}
	}

	cameras := params.Cameras
	if len(cameras) == 0 {
		cameras = l.defaultCameras
	}
	sources, err := video.NewAll(cameras, l.ffmpegBin)
	if err != nil {
		return "", Summary{}, err
	}

	dir, err := l.allocateDir()
	if err != nil {
		return "", Summary{}, err
	}

	now := time.Now()
	meta := Metadata{
		EpisodeID:   uuid.NewString(),
		ActionName:  params.ActionName,
		Description: params.Description,
		StartTime:   now.Format(metadataTimeFormat),
		Timeout:     int(params.Timeout / time.Second),
		Cameras:     make([]CameraRef, 0, len(sources)),
	}
	for _, src := range sources {
		meta.Cameras = append(meta.Cameras, CameraRef{CameraID: src.CameraID()})
	}

	if err := fileutil.WriteJSONAtomic(filepath.Join(dir, "metadata.json"), meta); err != nil {
		_ = os.Remove(dir)
		return "", Summary{}, fmt.Errorf("write episode metadata: %w", err)
	}

	l.generation++
	a := &activeEpisode{
		generation: l.generation,
		dir:        dir,
		meta:       meta,
		sources:    sources,
		startTime:  now,
	}
	if params.Timeout > 0 {
		gen := a.generation
		a.timer = time.AfterFunc(params.Timeout, func() {
			l.stopGeneration(gen, StopTimeout)
		})
	}
	l.active = a

	l.logger.Info("episode started",
		logging.String(logging.FieldEventType, "episode_started"),
		logging.String(logging.FieldEpisode, filepath.Base(dir)),
		logging.String("action_name", params.ActionName),
		logging.Int("cameras", len(sources)),
		logging.Duration("timeout", params.Timeout))

	return dir, Summary{
		EpisodeID:   meta.EpisodeID,
		Dir:         dir,
		ActionName:  meta.ActionName,
		Description: meta.Description,
		StartTime:   now,
	}, nil
}

// allocateDir creates the next sequentially-numbered episode directory,
// bumping past any index that already exists on disk.
func (l *Logger) allocateDir() (string, error) {
	if err := os.MkdirAll(l.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure data dir: %w", err)
	}
	index, err := NextIndex(l.dataDir)
	if err != nil {
		return "", err
	}
	for {
		dir := filepath.Join(l.dataDir, DirName(index))
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create episode directory: %w", err)
		}
		index++
	}
}

// RecordEvent writes one synchronized event for the active episode. It is
// a no-op returning nil when no episode is active. All artifacts of the
// event share one timestamp captured here. A camera failure omits that
// frame but never fails the event; a state or action write failure aborts
// the event without consuming a sequence index.
func (l *Logger) RecordEvent(snapshot motor.State, action Action) error {
	l.mu.Lock()
	var fin *Summary
	defer func() {
		l.mu.Unlock()
		if fin != nil {
			l.notifyFinalize(*fin)
		}
	}()

	a := l.active
	if a == nil {
		return nil
	}

	if l.disk != nil {
		if _, low, err := l.disk.Check(); err == nil && low {
			s := l.finalizeLocked(StopDiskPressure)
			fin = &s
			return ErrDiskPressure
		}
	}

	now := time.Now()
	ts := unixSeconds(now)
	formatted := now.Format(eventTimeFormat)
	seq := a.eventCount

	state := robotState{
		Timestamp:       ts,
		FormattedTime:   formatted,
		MotorID:         snapshot.ID,
		MotorName:       snapshot.Name,
		CurrentPosition: snapshot.Position,
	}
	if err := fileutil.WriteJSONAtomic(filepath.Join(a.dir, statePath(seq)), state); err != nil {
		return l.eventWriteFailed(a, &fin, seq, err)
	}

	record := actionRecord{
		Timestamp:      ts,
		FormattedTime:  formatted,
		Command:        action.Command,
		MotorID:        snapshot.ID,
		MotorName:      snapshot.Name,
		Direction:      action.Direction,
		Speed:          action.Speed,
		TargetPosition: action.TargetPosition,
	}
	if err := fileutil.WriteJSONAtomic(filepath.Join(a.dir, actionPath(seq)), record); err != nil {
		return l.eventWriteFailed(a, &fin, seq, err)
	}

	l.captureFrames(a, seq)

	a.eventCount++
	a.writeFails = 0
	return nil
}

// eventWriteFailed records a state/action write failure and force-stops
// the episode once consecutive failures reach the limit.
func (l *Logger) eventWriteFailed(a *activeEpisode, fin **Summary, seq int, err error) error {
	a.writeFails++
	l.logger.Error("event write failed",
		logging.Error(err),
		logging.String(logging.FieldEventType, "event_write_failed"),
		logging.String(logging.FieldEpisode, filepath.Base(a.dir)),
		logging.Int("sequence_index", seq),
		logging.Int("consecutive_failures", a.writeFails))
	if a.writeFails >= l.writeFailLimit {
		s := l.finalizeLocked(StopStorageError)
		*fin = &s
	}
	return fmt.Errorf("write event %d: %w", seq, err)
}

// captureFrames pulls one frame per camera concurrently, each bounded by
// the capture timeout. Failures are warnings; the event proceeds.
func (l *Logger) captureFrames(a *activeEpisode, seq int) {
	if len(a.sources) == 0 {
		return
	}
	var wg sync.WaitGroup
	for _, src := range a.sources {
		wg.Add(1)
		go func(src video.Source) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), l.captureTimeout)
			defer cancel()

			frame, err := src.Capture(ctx)
			if err != nil {
				l.logger.Warn("frame capture failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "capture_failed"),
					logging.String(logging.FieldEpisode, filepath.Base(a.dir)),
					logging.Int(logging.FieldCamera, src.CameraID()),
					logging.Int("sequence_index", seq),
					logging.String(logging.FieldImpact, "event written without this camera's frame"))
				return
			}
			path := filepath.Join(a.dir, framePath(seq, src.CameraID()))
			if err := os.WriteFile(path, frame, 0o644); err != nil {
				l.logger.Warn("frame write failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "frame_write_failed"),
					logging.Int(logging.FieldCamera, src.CameraID()),
					logging.Int("sequence_index", seq))
			}
		}(src)
	}
	wg.Wait()
}

// Stop finalizes the active episode. Returns ErrNotRecording when idle.
func (l *Logger) Stop(reason StopReason) (Summary, error) {
	l.mu.Lock()
	if l.active == nil {
		l.mu.Unlock()
		return Summary{}, ErrNotRecording
	}
	s := l.finalizeLocked(reason)
	l.mu.Unlock()

	l.notifyFinalize(s)
	return s, nil
}

// ForceStop finalizes the active episode if one exists. Used by the disk
// watchdog and shutdown paths; a no-op when idle.
func (l *Logger) ForceStop(reason StopReason) {
	_, _ = l.Stop(reason)
}

// stopGeneration finalizes only if the episode that armed the timer is
// still the active one, so a stale timer never stops a later episode.
func (l *Logger) stopGeneration(gen uint64, reason StopReason) {
	l.mu.Lock()
	if l.active == nil || l.active.generation != gen {
		l.mu.Unlock()
		return
	}
	s := l.finalizeLocked(reason)
	l.mu.Unlock()

	l.notifyFinalize(s)
}

// finalizeLocked disarms the timeout timer, rewrites metadata with the end
// time and final event count, and clears the active episode. Callers hold
// l.mu.
func (l *Logger) finalizeLocked(reason StopReason) Summary {
	a := l.active
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	end := time.Now()
	total := a.eventCount
	a.meta.EndTime = end.Format(metadataTimeFormat)
	a.meta.TotalEvents = &total
	if err := fileutil.WriteJSONAtomic(filepath.Join(a.dir, "metadata.json"), a.meta); err != nil {
		l.logger.Error("finalize metadata write failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "metadata_write_failed"),
			logging.String(logging.FieldEpisode, filepath.Base(a.dir)))
	}

	l.active = nil

	l.logger.Info("episode finalized",
		logging.String(logging.FieldEventType, "episode_finalized"),
		logging.String(logging.FieldEpisode, filepath.Base(a.dir)),
		logging.String("reason", string(reason)),
		logging.Int("total_events", total))

	return Summary{
		EpisodeID:   a.meta.EpisodeID,
		Dir:         a.dir,
		ActionName:  a.meta.ActionName,
		Description: a.meta.Description,
		StartTime:   a.startTime,
		EndTime:     end,
		TotalEvents: total,
		Reason:      reason,
	}
}

func (l *Logger) notifyFinalize(s Summary) {
	if l.onFinalize != nil {
		l.onFinalize(s)
	}
}

// Recording reports whether an episode is active.
func (l *Logger) Recording() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active != nil
}

// Dir returns the active episode's directory, or "" when idle.
func (l *Logger) Dir() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return ""
	}
	return l.active.dir
}

// EventCount returns the number of events written to the active episode,
// or 0 when idle.
func (l *Logger) EventCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return 0
	}
	return l.active.eventCount
}
