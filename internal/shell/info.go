package shell

import (
	"sort"

	"github.com/1broseidon/wayshell/internal/platform"
)

// WindowInfo is a read-only view of a toplevel for control clients.
type WindowInfo struct {
	Surface    platform.SurfaceID
	Client     platform.ClientID
	AppID      string
	Title      string
	State      SurfaceState
	Workspace  int
	Output     string
	Geometry   platform.Rect
	Activated  bool
	Fullscreen bool
	Maximized  bool
	FocusedBy  []string
}

// OutputSummary is a read-only view of an output for control clients.
type OutputSummary struct {
	Info       platform.OutputInfo
	Logical    platform.Rect
	Usable     platform.Rect
	Fullscreen platform.SurfaceID
	Layers     int
}

// SeatSummary is a read-only view of a seat.
type SeatSummary struct {
	Name          string
	Capabilities  Capability
	KeyboardFocus platform.SurfaceID
	Focused       platform.SurfaceID
	Grabs         int
}

// ListWindows returns every registered toplevel, mapped or not.
func (s *Shell) ListWindows() []WindowInfo {
	active := s.ActiveWorkspace()
	focusedBy := make(map[*Window][]string)
	for _, st := range s.seats {
		if w := st.Stack(active.index).Last(); w != nil {
			focusedBy[w] = append(focusedBy[w], st.name)
		}
	}

	var infos []WindowInfo
	for _, e := range s.registry.Windows() {
		w := e.Window
		info := WindowInfo{
			Surface:    w.surface,
			Client:     w.client,
			AppID:      w.appID,
			Title:      w.title,
			State:      e.State,
			Workspace:  -1,
			Activated:  w.pending.Activated,
			Fullscreen: w.pending.Fullscreen,
			Maximized:  w.pending.Maximized,
			FocusedBy:  focusedBy[w],
		}
		if ws := s.workspaceFor(w); ws != nil {
			info.Workspace = ws.index
			info.Geometry, _ = ws.space.WindowGeometry(w)
			if out := s.outputForWindow(w); out != nil {
				info.Output = out.Name()
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// ListOutputs returns the registered outputs.
func (s *Shell) ListOutputs() []OutputSummary {
	active := s.ActiveWorkspace()
	out := make([]OutputSummary, 0, len(s.outputs))
	for _, o := range s.outputs {
		sum := OutputSummary{
			Info:    o.info,
			Logical: o.LogicalRect(),
			Usable:  o.layers.NonExclusiveZone().Translate(o.Location()),
			Layers:  len(o.layers.Layers()),
		}
		if fw := active.GetFullscreen(o); fw != nil {
			sum.Fullscreen = fw.surface
		}
		out = append(out, sum)
	}
	return out
}

// ListSeats returns the known seats in creation order.
func (s *Shell) ListSeats() []SeatSummary {
	active := s.ActiveWorkspace()
	out := make([]SeatSummary, 0, len(s.seats))
	for _, st := range s.seats {
		sum := SeatSummary{
			Name:          st.name,
			Capabilities:  st.Capabilities(),
			KeyboardFocus: st.keyboardFocus,
			Grabs:         len(st.grabs),
		}
		if w := st.Stack(active.index).Last(); w != nil {
			sum.Focused = w.surface
		}
		out = append(out, sum)
	}
	return out
}

func sortSurfaceIDs(ids []platform.SurfaceID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
