package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/wayshell/internal/ipc"
)

const (
	ServerName    = "wayshell"
	ServerVersion = "0.1.0"
)

// Control is the daemon control surface the tools call into.
// *ipc.Client satisfies it.
type Control interface {
	GetStatus() (*ipc.StatusData, error)
	GetOutputs() (*ipc.OutputsData, error)
	ListWindows() (*ipc.WindowsData, error)
	FocusWindow(surface uint64, seat string) error
	FullscreenWindow(surface uint64, output string) error
	UnfullscreenWindow(surface uint64) error
}

var _ Control = (*ipc.Client)(nil)

// Server exposes shell inspection and window control over MCP.
type Server struct {
	mcpServer *mcpsdk.Server
	control   Control
}

// NewServer creates an MCP server backed by control.
func NewServer(control Control) *Server {
	s := &Server{control: control}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report daemon status: uptime, backend, output/window/client counts, seats, and whether the policy engine and protocol front-end are connected.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List outputs with their mode, scale, transform, logical rectangle and usable area after layer-shell exclusive zones.",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List toplevel windows with surface id, app id, title, lifecycle state, output, geometry and activated/fullscreen/maximized flags. Optionally filter by output or app id.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Give a mapped window keyboard focus and raise it. Focuses on every seat unless seat is given.",
	}, s.handleFocusWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "fullscreen_window",
		Description: "Make a window fullscreen on an output. Fails if another window is already fullscreen there.",
	}, s.handleFullscreenWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "unfullscreen_window",
		Description: "Take a window out of fullscreen.",
	}, s.handleUnfullscreenWindow)
}
