package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload             CommandType = "RELOAD"
	CommandGetStatus          CommandType = "GET_STATUS"
	CommandGetOutputs         CommandType = "GET_OUTPUTS"
	CommandListWindows        CommandType = "LIST_WINDOWS"
	CommandFocusWindow        CommandType = "FOCUS_WINDOW"
	CommandFullscreenWindow   CommandType = "FULLSCREEN_WINDOW"
	CommandUnfullscreenWindow CommandType = "UNFULLSCREEN_WINDOW"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds     int64    `json:"uptime_seconds"`
	Backend           string   `json:"backend"`
	Workspace         int      `json:"workspace"`
	Outputs           int      `json:"outputs"`
	Windows           int      `json:"windows"`
	Clients           int      `json:"clients"`
	Seats             []string `json:"seats"`
	EngineConnected   bool     `json:"engine_connected"`
	FrontendConnected bool     `json:"frontend_connected"`
	QueuedMessages    int      `json:"queued_messages"`
	HeartbeatRTTMs    float64  `json:"heartbeat_rtt_ms,omitempty"`
}

// OutputInfo represents a single output in logical coordinates.
type OutputInfo struct {
	Name       string  `json:"name"`
	Make       string  `json:"make,omitempty"`
	Model      string  `json:"model,omitempty"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	ModeWidth  int     `json:"mode_width"`
	ModeHeight int     `json:"mode_height"`
	RefreshMHz int     `json:"refresh_mhz"`
	Scale      float64 `json:"scale"`
	Transform  string  `json:"transform"`
	UsableX    int     `json:"usable_x"`
	UsableY    int     `json:"usable_y"`
	UsableW    int     `json:"usable_width"`
	UsableH    int     `json:"usable_height"`
	Fullscreen uint64  `json:"fullscreen,omitempty"`
	Layers     int     `json:"layers"`
	Rendered   uint64  `json:"frames_rendered"`
	Skipped    uint64  `json:"frames_skipped"`
}

// OutputsData represents the data returned by GET_OUTPUTS
type OutputsData struct {
	Outputs []OutputInfo `json:"outputs"`
}

// WindowInfo represents one toplevel.
type WindowInfo struct {
	Surface    uint64   `json:"surface"`
	Client     uint64   `json:"client"`
	AppID      string   `json:"app_id,omitempty"`
	Title      string   `json:"title,omitempty"`
	State      string   `json:"state"`
	Workspace  int      `json:"workspace"`
	Output     string   `json:"output,omitempty"`
	X          int      `json:"x"`
	Y          int      `json:"y"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Activated  bool     `json:"activated"`
	Fullscreen bool     `json:"fullscreen"`
	Maximized  bool     `json:"maximized"`
	FocusedBy  []string `json:"focused_by,omitempty"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// WindowPayload targets a window for FOCUS_WINDOW, FULLSCREEN_WINDOW
// and UNFULLSCREEN_WINDOW. Seat and Output are optional.
type WindowPayload struct {
	Surface uint64 `json:"surface"`
	Seat    string `json:"seat,omitempty"`
	Output  string `json:"output,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
