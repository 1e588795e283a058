// Package shell maps client surfaces onto workspaces and outputs, runs
// the commit-driven configure handshake, tracks per-seat focus and
// hands user-intent requests to the policy engine.
//
// A Shell is not safe for concurrent use. All calls are expected to
// come from the reactor goroutine.
package shell

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/policy"
)

// DefaultSeat is used when no seats are configured.
const DefaultSeat = "seat0"

// ErrUnknownWindow is returned for commands naming a window that is not
// mapped or no longer alive.
var ErrUnknownWindow = errors.New("unknown window")

// PolicySender delivers messages to the policy engine without blocking.
type PolicySender interface {
	Send(policy.Message) (string, error)
}

// Shell owns all shell state.
type Shell struct {
	proto  Protocol
	policy PolicySender
	logger *slog.Logger

	registry   *Registry
	workspaces []*Workspace
	active     int
	outputs    []*Output
	seats      []*Seat
	lastSeat   string

	// Popups dismissed by the shell that the client has not destroyed
	// yet, by owning client.
	dismissed map[platform.SurfaceID]platform.ClientID
}

// New creates a shell with one workspace and the named seats.
func New(proto Protocol, sender PolicySender, seats []string, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	if len(seats) == 0 {
		seats = []string{DefaultSeat}
	}
	s := &Shell{
		proto:      proto,
		policy:     sender,
		logger:     logger,
		registry:   newRegistry(),
		workspaces: []*Workspace{newWorkspace(0)},
		dismissed:  make(map[platform.SurfaceID]platform.ClientID),
	}
	for _, name := range seats {
		s.seat(name)
	}
	s.lastSeat = s.seats[0].name
	return s
}

// Registry exposes the surface registry for inspection.
func (s *Shell) Registry() *Registry { return s.registry }

// ActiveWorkspace returns the workspace new windows map into. Only one
// workspace exists today.
func (s *Shell) ActiveWorkspace() *Workspace {
	return s.workspaces[s.active]
}

// Workspaces returns all workspaces.
func (s *Shell) Workspaces() []*Workspace {
	return append([]*Workspace(nil), s.workspaces...)
}

// Outputs returns the registered outputs in registration order.
func (s *Shell) Outputs() []*Output {
	return append([]*Output(nil), s.outputs...)
}

// Output looks up a registered output by name.
func (s *Shell) Output(name string) *Output {
	for _, o := range s.outputs {
		if o.Name() == name {
			return o
		}
	}
	return nil
}

// Seats returns the known seats.
func (s *Shell) Seats() []*Seat {
	return append([]*Seat(nil), s.seats...)
}

// Seat looks up a seat by name.
func (s *Shell) Seat(name string) *Seat {
	for _, st := range s.seats {
		if st.name == name {
			return st
		}
	}
	return nil
}

// seat returns the named seat, creating it when input first names it.
func (s *Shell) seat(name string) *Seat {
	if name == "" {
		name = s.lastSeat
	}
	if st := s.Seat(name); st != nil {
		return st
	}
	st := newSeat(name)
	s.seats = append(s.seats, st)
	return st
}

func (s *Shell) workspaceFor(w *Window) *Workspace {
	for _, ws := range s.workspaces {
		if ws.space.Contains(w) {
			return ws
		}
	}
	return nil
}

// window returns the mapped, live window for surface.
func (s *Shell) window(surface platform.SurfaceID) *Window {
	e := s.registry.Get(surface)
	if e == nil || e.Role != RoleToplevel || e.State != StateMapped || !e.Window.Alive() {
		return nil
	}
	return e.Window
}

// Window returns the mapped window for surface, or nil.
func (s *Shell) Window(surface platform.SurfaceID) *Window {
	return s.window(surface)
}

func (s *Shell) isFullscreen(w *Window) bool {
	for _, ws := range s.workspaces {
		if ws.IsFullscreen(w) {
			return true
		}
	}
	return false
}

// outputForWindow picks the output a window is mostly associated with:
// the first output it overlaps, else the first output.
func (s *Shell) outputForWindow(w *Window) *Output {
	if ws := s.workspaceFor(w); ws != nil {
		if outs := ws.space.OutputsForWindow(w); len(outs) > 0 {
			return outs[0]
		}
	}
	if len(s.outputs) > 0 {
		return s.outputs[0]
	}
	return nil
}

// notify sends an informational message. An absent engine is not an
// error for these.
func (s *Shell) notify(m policy.Message) {
	if s.policy == nil {
		return
	}
	if _, err := s.policy.Send(m); err != nil {
		s.logger.Debug("policy notification not sent", "kind", m.Kind(), "error", err)
	}
}

// AddOutput registers an output and maps it into the active workspace
// at its reported location. Re-adding a known output updates it.
func (s *Shell) AddOutput(info platform.OutputInfo) *Output {
	if out := s.Output(info.Name); out != nil {
		s.UpdateOutput(info)
		return out
	}
	out := newOutput(info)
	s.outputs = append(s.outputs, out)
	s.remapOutput(out, true)
	out.layers.Arrange(s.proto, out.LogicalSize())
	s.logger.Info("output added",
		"output", out.Name(),
		"mode", out.info.Mode,
		"scale", out.Scale(),
		"position", out.Location(),
	)
	return out
}

// UpdateOutput replaces a known output's mode, scale, transform or
// position and re-applies its placement.
func (s *Shell) UpdateOutput(info platform.OutputInfo) {
	out := s.Output(info.Name)
	if out == nil {
		return
	}
	if info.Scale <= 0 {
		info.Scale = 1
	}
	if out.info == info {
		return
	}
	out.info = info
	s.remapOutput(out, true)
	out.layers.Arrange(s.proto, out.LogicalSize())
	s.logger.Info("output changed", "output", out.Name(), "mode", info.Mode, "scale", info.Scale)
}

// RemoveOutput unregisters an output and unmaps it from every
// workspace. Remaining outputs are not moved; fullscreen entries on it
// are cleared by the next Refresh.
func (s *Shell) RemoveOutput(name string) {
	for i, out := range s.outputs {
		if out.Name() != name {
			continue
		}
		out.alive = false
		s.outputs = append(s.outputs[:i], s.outputs[i+1:]...)
		s.remapOutput(out, false)
		s.logger.Info("output removed", "output", name)
		return
	}
}

// RefreshOutputs re-applies every output's placement to the active
// workspace.
func (s *Shell) RefreshOutputs() {
	for _, out := range s.outputs {
		s.remapOutput(out, true)
		out.layers.Arrange(s.proto, out.LogicalSize())
	}
}

// SyncOutputs reconciles the registered outputs with a fresh backend scan.
func (s *Shell) SyncOutputs(infos []platform.OutputInfo) {
	seen := make(map[string]bool, len(infos))
	for _, info := range infos {
		seen[info.Name] = true
		s.AddOutput(info)
	}
	for _, out := range s.Outputs() {
		if !seen[out.Name()] {
			s.RemoveOutput(out.Name())
		}
	}
}

// remapOutput unmaps out from every workspace and, when add is set,
// maps it into the active workspace at its logical position.
func (s *Shell) remapOutput(out *Output, add bool) {
	for _, ws := range s.workspaces {
		ws.space.UnmapOutput(out)
	}
	if add {
		s.ActiveWorkspace().space.MapOutput(out, out.Location())
	}
}

// Refresh is per-tick housekeeping: fullscreen entries on vanished
// outputs or dead windows are unfullscreened, dead windows leave their
// spaces, and layer maps are cleaned and re-arranged.
func (s *Shell) Refresh() {
	for _, ws := range s.workspaces {
		ws.Refresh(s.proto)
	}
	for _, out := range s.outputs {
		out.layers.Cleanup()
		out.layers.Arrange(s.proto, out.LogicalSize())
	}
	for _, st := range s.seats {
		if st.keyboardFocus != 0 && s.registry.Get(st.keyboardFocus) == nil {
			st.keyboardFocus = 0
		}
		kept := st.grabs[:0]
		for _, id := range st.grabs {
			if s.registry.Get(id) != nil {
				kept = append(kept, id)
			}
		}
		st.grabs = kept
	}
}

// SetFocus gives surface keyboard focus on seat. Window surfaces also
// move to the top of the seat's focus stack for their workspace; layer
// and popup surfaces only take keyboard focus. A zero surface clears
// keyboard focus.
func (s *Shell) SetFocus(surface platform.SurfaceID, seatName string) {
	st := s.seat(seatName)
	if surface == 0 {
		st.keyboardFocus = 0
		return
	}
	e := s.registry.Get(surface)
	if e == nil {
		return
	}

	if e.Role == RoleToplevel {
		if e.State != StateMapped || !e.Window.Alive() {
			return
		}
		ws := s.workspaceFor(e.Window)
		if ws == nil {
			return
		}
		stack := st.Stack(ws.index)
		if stack.Last() != e.Window {
			s.logger.Debug("focus changed", "seat", st.name, "window", surface, "workspace", ws.index)
			stack.Append(e.Window)
		}
	}
	st.keyboardFocus = surface
}

// UpdateActive turns the per-seat focus stack tails into one activated
// flag per window: focused windows are raised and activated, every
// other window is deactivated. It depends only on current stack tails.
func (s *Shell) UpdateActive() {
	active := s.ActiveWorkspace()
	var focused []*Window
	isFocused := make(map[*Window]bool)
	for _, st := range s.seats {
		w := st.Stack(active.index).Last()
		if w == nil || isFocused[w] {
			continue
		}
		focused = append(focused, w)
		isFocused[w] = true
	}

	for _, ws := range s.workspaces {
		for _, w := range focused {
			ws.space.RaiseWindow(w)
		}
		for _, w := range ws.space.Windows() {
			if !w.Alive() {
				continue
			}
			w.pending.Activated = isFocused[w]
			w.configure(s.proto, false)
		}
	}
}

// MapWindow places w at the origin of the active workspace and raises it.
func (s *Shell) MapWindow(w *Window, out *Output) {
	ws := s.ActiveWorkspace()
	for _, other := range s.workspaces {
		if other != ws {
			other.space.UnmapWindow(w)
		}
	}
	ws.space.MapWindow(w, platform.Point{}, true)
	ws.space.RaiseWindow(w)
	name := ""
	if out != nil {
		name = out.Name()
	}
	s.logger.Debug("window mapped", "window", w.surface, "output", name, "workspace", ws.index)
}

// MapLayer inserts l into its output's layer map, re-arranges that
// output, and grants keyboard focus on seat for top and overlay
// surfaces that ask for it.
func (s *Shell) MapLayer(l *LayerSurface, seat string) {
	out := s.Output(l.output)
	if out == nil {
		return
	}
	out.layers.Map(l)
	out.layers.Arrange(s.proto, out.LogicalSize())
	if l.state.WantsFocus() {
		s.SetFocus(l.surface, seat)
	}
}
