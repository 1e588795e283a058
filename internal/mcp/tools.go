package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/wayshell/internal/ipc"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.control.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{Status: *status}, nil
}

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	data, err := s.control.GetOutputs()
	if err != nil {
		return nil, ListOutputsOutput{}, err
	}
	outputs := data.Outputs
	if outputs == nil {
		outputs = []ipc.OutputInfo{}
	}
	return nil, ListOutputsOutput{Outputs: outputs}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.control.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	windows := make([]ipc.WindowInfo, 0, len(data.Windows))
	for _, w := range data.Windows {
		if args.Output != "" && w.Output != args.Output {
			continue
		}
		if args.AppID != "" && w.AppID != args.AppID {
			continue
		}
		windows = append(windows, w)
	}
	return nil, ListWindowsOutput{Windows: windows}, nil
}

func (s *Server) handleFocusWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args FocusWindowInput) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
	if args.Surface == 0 {
		return nil, WindowActionOutput{}, fmt.Errorf("surface is required")
	}
	if err := s.control.FocusWindow(args.Surface, args.Seat); err != nil {
		return nil, WindowActionOutput{}, fmt.Errorf("focus window %d: %w", args.Surface, err)
	}
	return nil, s.windowResult(args.Surface), nil
}

func (s *Server) handleFullscreenWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args FullscreenWindowInput) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
	if args.Surface == 0 {
		return nil, WindowActionOutput{}, fmt.Errorf("surface is required")
	}
	if err := s.control.FullscreenWindow(args.Surface, args.Output); err != nil {
		return nil, WindowActionOutput{}, fmt.Errorf("fullscreen window %d: %w", args.Surface, err)
	}
	return nil, s.windowResult(args.Surface), nil
}

func (s *Server) handleUnfullscreenWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args UnfullscreenWindowInput) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
	if args.Surface == 0 {
		return nil, WindowActionOutput{}, fmt.Errorf("surface is required")
	}
	if err := s.control.UnfullscreenWindow(args.Surface); err != nil {
		return nil, WindowActionOutput{}, fmt.Errorf("unfullscreen window %d: %w", args.Surface, err)
	}
	return nil, s.windowResult(args.Surface), nil
}

// windowResult reports the window's state after a mutation. A failed
// lookup still reports success; the mutation went through.
func (s *Server) windowResult(surface uint64) WindowActionOutput {
	out := WindowActionOutput{Surface: surface}
	data, err := s.control.ListWindows()
	if err != nil {
		return out
	}
	for i := range data.Windows {
		if data.Windows[i].Surface == surface {
			w := data.Windows[i]
			out.Window = &w
			break
		}
	}
	return out
}
