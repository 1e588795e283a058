package mcp

import "github.com/1broseidon/wayshell/internal/ipc"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Status ipc.StatusData `json:"status"`
}

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct{}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Outputs []ipc.OutputInfo `json:"outputs"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Output string `json:"output,omitempty" jsonschema:"Only list windows on this output"`
	AppID  string `json:"app_id,omitempty" jsonschema:"Only list windows with this app id"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []ipc.WindowInfo `json:"windows"`
}

// FocusWindowInput is the input for the focus_window tool.
type FocusWindowInput struct {
	Surface uint64 `json:"surface" jsonschema:"Surface id of the window, as returned by list_windows"`
	Seat    string `json:"seat,omitempty" jsonschema:"Seat to focus on (default: every seat)"`
}

// FullscreenWindowInput is the input for the fullscreen_window tool.
type FullscreenWindowInput struct {
	Surface uint64 `json:"surface" jsonschema:"Surface id of the window, as returned by list_windows"`
	Output  string `json:"output,omitempty" jsonschema:"Output name (default: the output the window is on)"`
}

// UnfullscreenWindowInput is the input for the unfullscreen_window tool.
type UnfullscreenWindowInput struct {
	Surface uint64 `json:"surface" jsonschema:"Surface id of the window, as returned by list_windows"`
}

// WindowActionOutput is the output of the window mutation tools.
type WindowActionOutput struct {
	Surface uint64          `json:"surface"`
	Window  *ipc.WindowInfo `json:"window,omitempty"`
}
