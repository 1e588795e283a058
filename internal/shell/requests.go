package shell

import (
	"fmt"

	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/policy"
)

// refuse gives feedback for a request the policy engine could not take:
// a warning, and the window's current state re-sent so the client is
// not left waiting for a configure.
func (s *Shell) refuse(op string, w *Window, err error) {
	s.logger.Warn("request refused", "op", op, "window", w.surface, "error", err)
	w.configure(s.proto, true)
}

// send forwards an interactive request to the engine.
func (s *Shell) send(op string, w *Window, m policy.Message) bool {
	if s.policy == nil {
		s.refuse(op, w, policy.ErrEngineUnavailable)
		return false
	}
	if _, err := s.policy.Send(m); err != nil {
		s.refuse(op, w, err)
		return false
	}
	return true
}

// interactiveSeat returns the seat if it can drive a pointer grab.
func (s *Shell) interactiveSeat(name string) *Seat {
	st := s.seat(name)
	if !st.Capabilities().Has(CapPointer) {
		return nil
	}
	return st
}

// MoveRequest forwards an interactive move to the engine. Requests for
// fullscreen windows are dropped.
func (s *Shell) MoveRequest(surface platform.SurfaceID, seat string, serial platform.Serial, start policy.GrabStart) {
	w := s.window(surface)
	if w == nil || s.isFullscreen(w) {
		return
	}
	st := s.interactiveSeat(seat)
	if st == nil {
		return
	}
	s.send("move", w, policy.MoveRequest{Window: surface, Seat: st.name, Serial: serial, Start: start})
}

// ResizeRequest forwards an interactive resize to the engine. Requests
// for fullscreen windows are dropped.
func (s *Shell) ResizeRequest(surface platform.SurfaceID, seat string, serial platform.Serial, start policy.GrabStart, edges platform.Edges) {
	w := s.window(surface)
	if w == nil || s.isFullscreen(w) {
		return
	}
	st := s.interactiveSeat(seat)
	if st == nil {
		return
	}
	s.send("resize", w, policy.ResizeRequest{Window: surface, Seat: st.name, Serial: serial, Start: start, Edges: edges})
}

// MaximizeRequest asks the engine to maximize a window. Requests for
// fullscreen windows are dropped. A refused request re-sends the
// unmaximized state.
func (s *Shell) MaximizeRequest(surface platform.SurfaceID) {
	w := s.window(surface)
	if w == nil || s.isFullscreen(w) {
		return
	}
	m := policy.MaximizeRequest{Window: surface}
	if out := s.outputForWindow(w); out != nil {
		m.Output = out.Name()
		m.Area = out.layers.NonExclusiveZone()
	}
	s.send("maximize", w, m)
}

// UnmaximizeRequest asks the engine to restore a window. For a
// fullscreen window it leaves fullscreen locally instead.
func (s *Shell) UnmaximizeRequest(surface platform.SurfaceID) {
	w := s.window(surface)
	if w == nil {
		return
	}
	if s.isFullscreen(w) {
		s.unfullscreen(w)
		return
	}
	s.send("unmaximize", w, policy.UnmaximizeRequest{Window: surface})
}

// SetFullscreen handles a client asking for fullscreen. An empty output
// picks the output the window is on. A request that cannot be granted
// is answered with the unchanged state.
func (s *Shell) SetFullscreen(surface platform.SurfaceID, output string) {
	w := s.window(surface)
	if w == nil {
		return
	}
	if !s.fullscreen(w, output) {
		w.configure(s.proto, true)
	}
}

// UnsetFullscreen handles a client leaving fullscreen and reports it to
// the engine.
func (s *Shell) UnsetFullscreen(surface platform.SurfaceID) {
	w := s.window(surface)
	if w == nil {
		return
	}
	if !s.unfullscreen(w) {
		w.configure(s.proto, true)
		return
	}
	s.notify(policy.UnfullscreenRequest{Window: surface})
}

func (s *Shell) fullscreen(w *Window, output string) bool {
	var out *Output
	if output != "" {
		out = s.Output(output)
	} else {
		out = s.outputForWindow(w)
	}
	if out == nil {
		return false
	}
	ws := s.workspaceFor(w)
	if ws == nil {
		return false
	}
	return ws.FullscreenRequest(s.proto, w, out)
}

func (s *Shell) unfullscreen(w *Window) bool {
	ws := s.workspaceFor(w)
	if ws == nil {
		return false
	}
	return ws.UnfullscreenRequest(s.proto, w)
}

// ApplyCommand applies an engine command. Commands naming windows that
// are gone return ErrUnknownWindow.
func (s *Shell) ApplyCommand(in policy.Incoming) error {
	switch c := in.Command.(type) {
	case policy.Ping:
		if s.policy == nil {
			return policy.ErrEngineUnavailable
		}
		_, err := s.policy.Send(policy.Pong{ReplyTo: in.ID})
		return err

	case policy.Pong:
		return nil

	case policy.PlaceWindow:
		w, err := s.commandWindow(c.Window)
		if err != nil {
			return err
		}
		ws := s.workspaceFor(w)
		if ws == nil {
			ws = s.ActiveWorkspace()
		}
		loc := platform.Point{X: c.X, Y: c.Y}
		if out := s.Output(c.Output); out != nil {
			loc = loc.Add(out.Location())
		}
		ws.space.MapWindow(w, loc, false)

	case policy.ConfigureWindow:
		w, err := s.commandWindow(c.Window)
		if err != nil {
			return err
		}
		w.pending.Maximized = c.Maximized
		if !s.isFullscreen(w) {
			w.pending.Size = platform.Size{Width: c.Width, Height: c.Height}
		}
		w.configure(s.proto, false)

	case policy.FocusWindow:
		w, err := s.commandWindow(c.Window)
		if err != nil {
			return err
		}
		s.SetFocus(w.surface, c.Seat)

	case policy.FullscreenWindow:
		w, err := s.commandWindow(c.Window)
		if err != nil {
			return err
		}
		s.fullscreen(w, c.Output)

	case policy.UnfullscreenWindow:
		w, err := s.commandWindow(c.Window)
		if err != nil {
			return err
		}
		s.unfullscreen(w)

	case policy.CloseWindow:
		w, err := s.commandWindow(c.Window)
		if err != nil {
			return err
		}
		s.proto.CloseToplevel(w.surface)

	default:
		return fmt.Errorf("unsupported policy command %T", in.Command)
	}
	return nil
}

func (s *Shell) commandWindow(surface platform.SurfaceID) (*Window, error) {
	w := s.window(surface)
	if w == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWindow, surface)
	}
	return w, nil
}
