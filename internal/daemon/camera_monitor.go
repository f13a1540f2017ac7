package daemon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"gantry/internal/config"
	"gantry/internal/logging"
)

// cameraMonitor listens for udev netlink events on the video4linux
// subsystem and logs camera hotplug, flagging configured device-capture
// sources that disappear mid-session.
type cameraMonitor struct {
	logger  *slog.Logger
	devices map[string]int

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// newCameraMonitor tracks the device-method cameras from the
// configuration. Returns nil when no camera uses a local device.
func newCameraMonitor(cfg *config.Config, logger *slog.Logger) *cameraMonitor {
	if cfg == nil {
		return nil
	}

	devices := make(map[string]int)
	for _, cam := range cfg.Cameras.Camera {
		if cam.Method == "device" && strings.TrimSpace(cam.Source) != "" {
			devices[cam.Source] = cam.CameraID
		}
	}
	if len(devices) == 0 {
		return nil
	}

	return &cameraMonitor{
		logger:  logging.NewComponentLogger(logger, "camera-monitor"),
		devices: devices,
	}
}

// Start begins listening for udev netlink events.
func (m *cameraMonitor) Start(ctx context.Context) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; camera hotplug will go unnoticed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "disconnected cameras are only detected at capture time"),
		)
		return
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("camera monitor started",
		logging.String(logging.FieldEventType, "camera_monitor_started"),
		logging.Int("devices", len(m.devices)),
	)
}

// Stop shuts down the camera monitor.
func (m *cameraMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}

	m.running = false
}

// Running reports whether the camera monitor is active.
func (m *cameraMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *cameraMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := m.buildMatcher()

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, matcher)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("camera monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "camera_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
			)
		}
	}
}

// buildMatcher matches video4linux add/remove events.
func (m *cameraMonitor) buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

func (m *cameraMonitor) handleEvent(uevent netlink.UEvent) {
	devname := uevent.Env["DEVNAME"]
	if devname == "" {
		return
	}
	if !strings.HasPrefix(devname, "/dev/") {
		devname = "/dev/" + devname
	}

	cameraID, configured := m.devices[devname]

	switch string(uevent.Action) {
	case "remove":
		if configured {
			m.logger.Warn("configured camera disconnected",
				logging.String(logging.FieldEventType, "camera_disconnected"),
				logging.Int(logging.FieldCamera, cameraID),
				logging.String("device", devname),
				logging.String(logging.FieldImpact, "events record without this camera's frame until it returns"),
			)
			return
		}
		m.logger.Debug("video device removed", logging.String("device", devname))
	case "add":
		if configured {
			m.logger.Info("configured camera connected",
				logging.String(logging.FieldEventType, "camera_connected"),
				logging.Int(logging.FieldCamera, cameraID),
				logging.String("device", devname),
			)
			return
		}
		m.logger.Debug("video device added", logging.String("device", devname))
	}
}
