// Package diskspace watches free space on the episode data volume and
// forces recording to stop when it drops below the configured floor.
package diskspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"gantry/internal/logging"
)

const gib = 1 << 30

// CheckWritable verifies the episode data root is writable by this
// process. Called once at daemon startup; a read-only mount or wrong
// ownership should fail fast, not on the first event write.
func CheckWritable(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return fmt.Errorf("data root %q is not writable: %w", path, err)
	}
	return nil
}

func statfsFree(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// Monitor tracks free space under a path against a minimum threshold.
type Monitor struct {
	path     string
	minFree  uint64
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	lastFree uint64
	low      bool
	onBreach func()
	measure  func(path string) (uint64, error)
}

// New builds a monitor for the given path. minFreeGiB is the floor below
// which recording must stop; interval is the background poll cadence.
func New(path string, minFreeGiB int, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		path:     path,
		minFree:  uint64(minFreeGiB) * gib,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "diskspace"),
		measure:  statfsFree,
	}
}

// SetMeasure replaces the free-space measurement. Tests use it to
// simulate disk conditions; a nil fn restores the statfs measurement.
func (m *Monitor) SetMeasure(fn func(path string) (uint64, error)) {
	if fn == nil {
		fn = statfsFree
	}
	m.mu.Lock()
	m.measure = fn
	m.mu.Unlock()
}

// OnBreach registers the callback invoked when free space transitions
// below the floor during background polling.
func (m *Monitor) OnBreach(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onBreach = fn
}

// Check measures free space now and updates the low-space state.
func (m *Monitor) Check() (free uint64, low bool, err error) {
	m.mu.Lock()
	measure := m.measure
	m.mu.Unlock()

	free, err = measure(m.path)
	if err != nil {
		return 0, false, err
	}
	low = free < m.minFree

	m.mu.Lock()
	m.lastFree = free
	m.low = low
	m.mu.Unlock()
	return free, low, nil
}

// Low reports the most recently observed low-space state.
func (m *Monitor) Low() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.low
}

// FreeBytes reports the most recently observed free space.
func (m *Monitor) FreeBytes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFree
}

// Run polls free space until the context is canceled, invoking the breach
// callback each time the state transitions from ok to low.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	wasLow := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			free, low, err := m.Check()
			if err != nil {
				m.logger.Warn("free space check failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "disk_check_failed"),
					logging.String("path", m.path))
				continue
			}
			if low && !wasLow {
				m.logger.Warn("free space below threshold",
					logging.String(logging.FieldEventType, "disk_pressure"),
					logging.Uint64("free_bytes", free),
					logging.Uint64("min_free_bytes", m.minFree),
					logging.String(logging.FieldImpact, "recording stops and new episodes are rejected"))
				m.mu.Lock()
				fn := m.onBreach
				m.mu.Unlock()
				if fn != nil {
					fn()
				}
			}
			if !low && wasLow {
				m.logger.Info("free space recovered",
					logging.String(logging.FieldEventType, "disk_recovered"),
					logging.Uint64("free_bytes", free))
			}
			wasLow = low
		}
	}
}
