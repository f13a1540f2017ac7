package protocol

import "fmt"

// Command names accepted by the daemon.
const (
	CmdMove         = "move"
	CmdStop         = "stop"
	CmdStopAll      = "stop_all"
	CmdStartLogging = "start_logging"
	CmdStopLogging  = "stop_logging"
	CmdPing         = "ping"
	CmdStatus       = "status"
	CmdListEpisodes = "list_episodes"
)

// Directions accepted by move requests.
const (
	DirectionInc = "inc"
	DirectionDec = "dec"
)

// VideoSource describes one camera override passed with start_logging.
// Field names match the on-wire contract of the browser bridge.
type VideoSource struct {
	Source   string `json:"source"`
	Method   string `json:"method"`
	CameraID int    `json:"camera_id"`
}

// Request is the envelope read from a client connection, one JSON object
// per line. Only the fields relevant to Command are consulted.
type Request struct {
	Command      string        `json:"command"`
	Motor        string        `json:"motor,omitempty"`
	Direction    string        `json:"direction,omitempty"`
	Speed        int           `json:"speed,omitempty"`
	ActionName   string        `json:"action_name,omitempty"`
	Description  string        `json:"description,omitempty"`
	Timeout      int           `json:"timeout,omitempty"`
	VideoSources []VideoSource `json:"video_sources,omitempty"`
	Limit        int           `json:"limit,omitempty"`
}

// MotorState reports one motor's logical state.
type MotorState struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	Direction string `json:"direction"`
	Speed     int    `json:"speed"`
}

// DaemonState is the payload of a status response.
type DaemonState struct {
	Recording     bool         `json:"recording"`
	EpisodeDir    string       `json:"episode_dir,omitempty"`
	EventCount    int          `json:"event_count"`
	Motors        []MotorState `json:"motors"`
	DiskFreeBytes uint64       `json:"disk_free_bytes"`
	DiskLow       bool         `json:"disk_low"`
}

// EpisodeSummary is one catalog row returned by list_episodes.
type EpisodeSummary struct {
	EpisodeID   string `json:"episode_id"`
	Dir         string `json:"dir"`
	ActionName  string `json:"action_name"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	TotalEvents int    `json:"total_events"`
	StopReason  string `json:"stop_reason,omitempty"`
}

// Response is written back to the client, exactly one per request.
// Success and Message are always present; the remaining fields are
// populated per command.
type Response struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	EpisodeDir string           `json:"episode_dir,omitempty"`
	Position   *int             `json:"position,omitempty"`
	State      *DaemonState     `json:"state,omitempty"`
	Episodes   []EpisodeSummary `json:"episodes,omitempty"`
}

// Errorf builds a failure response.
func Errorf(format string, args ...any) Response {
	return Response{Success: false, Message: fmt.Sprintf(format, args...)}
}

// OK builds a success response with the given message.
func OK(message string) Response {
	return Response{Success: true, Message: message}
}
