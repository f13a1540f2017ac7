package episode

import (
	"fmt"
	"time"
)

// Timestamp formats shared by every artifact of an event.
const (
	metadataTimeFormat = "20060102_150405"
	eventTimeFormat    = "2006-01-02 15:04:05.000"
)

// CameraRef identifies one camera in episode metadata.
type CameraRef struct {
	CameraID int `json:"camera_id"`
}

// Metadata is the episode-level record written to metadata.json. It is
// written once at start and rewritten with EndTime and TotalEvents at
// finalize.
type Metadata struct {
	EpisodeID   string      `json:"episode_id"`
	ActionName  string      `json:"action_name"`
	Description string      `json:"description"`
	StartTime   string      `json:"start_time"`
	EndTime     string      `json:"end_time,omitempty"`
	Timeout     int         `json:"timeout,omitempty"`
	TotalEvents *int        `json:"total_events,omitempty"`
	Cameras     []CameraRef `json:"cameras"`
}

// robotState is the per-event motor snapshot artifact.
type robotState struct {
	Timestamp       float64 `json:"timestamp"`
	FormattedTime   string  `json:"formatted_time"`
	MotorID         int     `json:"motor_id"`
	MotorName       string  `json:"motor_name"`
	CurrentPosition int     `json:"current_position"`
}

// actionRecord is the per-event issued-command artifact.
type actionRecord struct {
	Timestamp      float64 `json:"timestamp"`
	FormattedTime  string  `json:"formatted_time"`
	Command        string  `json:"command"`
	MotorID        int     `json:"motor_id"`
	MotorName      string  `json:"motor_name"`
	Direction      string  `json:"direction,omitempty"`
	Speed          int     `json:"speed,omitempty"`
	TargetPosition *int    `json:"target_position,omitempty"`
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func statePath(seq int) string {
	return fmt.Sprintf("%08d_robot_state.json", seq)
}

func actionPath(seq int) string {
	return fmt.Sprintf("%08d_action.json", seq)
}

func framePath(seq, cameraID int) string {
	return fmt.Sprintf("%08d_camera-%d.jpg", seq, cameraID)
}
