package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gantry/internal/episode"
	"gantry/internal/logging"
	"gantry/internal/motor"
	"gantry/internal/protocol"
	"gantry/internal/video"
)

const defaultListLimit = 20

// Handle executes one command request. It implements server.Handler.
func (d *Daemon) Handle(ctx context.Context, req protocol.Request) protocol.Response {
	switch req.Command {
	case protocol.CmdPing:
		return protocol.OK("pong")
	case protocol.CmdMove:
		return d.handleMove(ctx, req)
	case protocol.CmdStop:
		return d.handleStop(ctx, req)
	case protocol.CmdStopAll:
		return d.handleStopAll(ctx)
	case protocol.CmdStartLogging:
		return d.handleStartLogging(req)
	case protocol.CmdStopLogging:
		return d.handleStopLogging()
	case protocol.CmdStatus:
		return d.handleStatus()
	case protocol.CmdListEpisodes:
		return d.handleListEpisodes(ctx, req)
	case "":
		return protocol.Errorf("command is required")
	default:
		return protocol.Errorf("unknown command %q", req.Command)
	}
}

// handleMove commands continuous motion toward the named motor's travel
// limit. The resulting state is recorded as one event when an episode is
// active.
func (d *Daemon) handleMove(ctx context.Context, req protocol.Request) protocol.Response {
	if req.Motor == "" {
		return protocol.Errorf("motor is required")
	}
	direction, ok := motor.ParseDirection(req.Direction)
	if !ok {
		return protocol.Errorf("invalid direction %q (want %q or %q)", req.Direction, protocol.DirectionInc, protocol.DirectionDec)
	}
	speed := req.Speed
	if speed <= 0 {
		speed = d.cfg.Motors.DefaultSpeed
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	st, err := d.registry.Apply(ctx, req.Motor, direction, speed)
	if err != nil {
		return motorError(err)
	}

	resp := protocol.Response{
		Success:  true,
		Message:  fmt.Sprintf("moving %s %s at speed %d", st.Name, direction, speed),
		Position: intPtr(st.Position),
	}
	d.recordCommandEvent(&resp, st, episode.Action{
		Command:   protocol.CmdMove,
		Direction: string(direction),
		Speed:     speed,
	})
	return resp
}

// handleStop halts one motor by re-commanding its current position.
func (d *Daemon) handleStop(ctx context.Context, req protocol.Request) protocol.Response {
	if req.Motor == "" {
		return protocol.Errorf("motor is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	st, err := d.registry.Halt(ctx, req.Motor)
	if err != nil {
		return motorError(err)
	}

	resp := protocol.Response{
		Success:  true,
		Message:  fmt.Sprintf("stopped %s at position %d", st.Name, st.Position),
		Position: intPtr(st.Position),
	}
	d.recordCommandEvent(&resp, st, episode.Action{
		Command:        protocol.CmdStop,
		TargetPosition: intPtr(st.Position),
	})
	return resp
}

// handleStopAll halts every motor. One event is recorded per motor so the
// episode captures each motor's resting position.
func (d *Daemon) handleStopAll(ctx context.Context) protocol.Response {
	d.mu.Lock()
	defer d.mu.Unlock()

	stopped, err := d.registry.HaltAll(ctx)

	resp := protocol.Response{
		Success: err == nil,
		Message: fmt.Sprintf("stopped %d motors", len(stopped)),
	}
	if err != nil {
		resp.Message = fmt.Sprintf("stopped %d motors, first failure: %v", len(stopped), err)
	}
	for _, st := range stopped {
		d.recordCommandEvent(&resp, st, episode.Action{
			Command:        protocol.CmdStopAll,
			TargetPosition: intPtr(st.Position),
		})
		if !d.episodes.Recording() {
			break
		}
	}
	return resp
}

// recordCommandEvent records one event for an applied command. Recording
// failures never fail the command; they surface in the response message.
// Callers hold d.mu.
func (d *Daemon) recordCommandEvent(resp *protocol.Response, st motor.State, action episode.Action) {
	err := d.episodes.RecordEvent(st, action)
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, episode.ErrDiskPressure):
		resp.Message += "; recording stopped: insufficient free disk space"
	default:
		resp.Message += fmt.Sprintf("; event not recorded: %v", err)
	}
}

func (d *Daemon) handleStartLogging(req protocol.Request) protocol.Response {
	cameras := make([]video.Config, 0, len(req.VideoSources))
	for _, src := range req.VideoSources {
		cameras = append(cameras, video.Config{CameraID: src.CameraID, Source: src.Source, Method: src.Method})
	}

	dir, err := d.episodes.Start(episode.StartParams{
		ActionName:  req.ActionName,
		Description: req.Description,
		Timeout:     time.Duration(req.Timeout) * time.Second,
		Cameras:     cameras,
	})
	if err != nil {
		switch {
		case errors.Is(err, episode.ErrEmptyActionName):
			return protocol.Errorf("action_name is required")
		case errors.Is(err, episode.ErrAlreadyRecording):
			return protocol.Errorf("an episode is already recording; stop it first")
		case errors.Is(err, episode.ErrDiskPressure):
			return protocol.Errorf("cannot start logging: insufficient free disk space")
		default:
			return protocol.Errorf("start logging: %v", err)
		}
	}

	return protocol.Response{
		Success:    true,
		Message:    "logging started",
		EpisodeDir: dir,
	}
}

func (d *Daemon) handleStopLogging() protocol.Response {
	s, err := d.episodes.Stop(episode.StopManual)
	if err != nil {
		if errors.Is(err, episode.ErrNotRecording) {
			return protocol.Errorf("no episode is recording")
		}
		return protocol.Errorf("stop logging: %v", err)
	}
	return protocol.Response{
		Success:    true,
		Message:    fmt.Sprintf("logging stopped after %d events", s.TotalEvents),
		EpisodeDir: s.Dir,
	}
}

func (d *Daemon) handleStatus() protocol.Response {
	free, low, err := d.disk.Check()
	if err != nil {
		d.logger.Warn("free space check failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "disk_check_failed"))
		free, low = d.disk.FreeBytes(), d.disk.Low()
	}

	d.mu.Lock()
	snapshots := d.registry.Snapshots()
	d.mu.Unlock()

	motors := make([]protocol.MotorState, 0, len(snapshots))
	for _, st := range snapshots {
		motors = append(motors, protocol.MotorState{
			ID:        st.ID,
			Name:      st.Name,
			Position:  st.Position,
			Direction: string(st.Direction),
			Speed:     st.Speed,
		})
	}

	state := &protocol.DaemonState{
		Recording:     d.episodes.Recording(),
		EpisodeDir:    d.episodes.Dir(),
		EventCount:    d.episodes.EventCount(),
		Motors:        motors,
		DiskFreeBytes: free,
		DiskLow:       low,
	}
	return protocol.Response{Success: true, Message: "ok", State: state}
}

func (d *Daemon) handleListEpisodes(ctx context.Context, req protocol.Request) protocol.Response {
	if d.store == nil {
		return protocol.Errorf("episode catalog unavailable")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	records, err := d.store.List(ctx, limit)
	if err != nil {
		return protocol.Errorf("list episodes: %v", err)
	}

	episodes := make([]protocol.EpisodeSummary, 0, len(records))
	for _, rec := range records {
		summary := protocol.EpisodeSummary{
			EpisodeID:   rec.EpisodeID,
			Dir:         rec.Dir,
			ActionName:  rec.ActionName,
			Description: rec.Description,
			StartTime:   rec.StartedAt.Format(time.RFC3339),
			TotalEvents: rec.TotalEvents,
			StopReason:  rec.StopReason,
		}
		if !rec.EndedAt.IsZero() {
			summary.EndTime = rec.EndedAt.Format(time.RFC3339)
		}
		episodes = append(episodes, summary)
	}
	return protocol.Response{
		Success:  true,
		Message:  fmt.Sprintf("%d episodes", len(episodes)),
		Episodes: episodes,
	}
}

func motorError(err error) protocol.Response {
	if errors.Is(err, motor.ErrUnknownMotor) {
		return protocol.Errorf("%v", err)
	}
	return protocol.Errorf("motor command failed: %v", err)
}

func intPtr(v int) *int { return &v }
