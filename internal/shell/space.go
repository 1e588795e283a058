package shell

import "github.com/1broseidon/wayshell/internal/platform"

type placedWindow struct {
	window *Window
	loc    platform.Point
}

type placedOutput struct {
	output *Output
	loc    platform.Point
}

// Space is a workspace scene graph: mapped windows in stacking order
// (last is topmost) and the outputs viewing it.
type Space struct {
	windows []*placedWindow
	outputs []*placedOutput
}

func newSpace() *Space {
	return &Space{}
}

func (s *Space) indexOf(w *Window) int {
	for i, p := range s.windows {
		if p.window == w {
			return i
		}
	}
	return -1
}

// MapWindow places w at loc. A window already in the space is moved
// and, when raise is set, brought to the top.
func (s *Space) MapWindow(w *Window, loc platform.Point, raise bool) {
	if i := s.indexOf(w); i >= 0 {
		s.windows[i].loc = loc
		if raise {
			s.RaiseWindow(w)
		}
		return
	}
	s.windows = append(s.windows, &placedWindow{window: w, loc: loc})
}

// UnmapWindow removes w from the space.
func (s *Space) UnmapWindow(w *Window) bool {
	i := s.indexOf(w)
	if i < 0 {
		return false
	}
	s.windows = append(s.windows[:i], s.windows[i+1:]...)
	return true
}

// RaiseWindow moves w to the top of the stacking order.
func (s *Space) RaiseWindow(w *Window) {
	i := s.indexOf(w)
	if i < 0 || i == len(s.windows)-1 {
		return
	}
	p := s.windows[i]
	s.windows = append(s.windows[:i], s.windows[i+1:]...)
	s.windows = append(s.windows, p)
}

// Contains reports whether w is mapped in this space.
func (s *Space) Contains(w *Window) bool {
	return s.indexOf(w) >= 0
}

// Windows returns the mapped windows bottom to top.
func (s *Space) Windows() []*Window {
	out := make([]*Window, 0, len(s.windows))
	for _, p := range s.windows {
		out = append(out, p.window)
	}
	return out
}

// WindowLocation returns w's location in the space.
func (s *Space) WindowLocation(w *Window) (platform.Point, bool) {
	if i := s.indexOf(w); i >= 0 {
		return s.windows[i].loc, true
	}
	return platform.Point{}, false
}

// WindowGeometry returns w's rectangle in the space.
func (s *Space) WindowGeometry(w *Window) (platform.Rect, bool) {
	loc, ok := s.WindowLocation(w)
	if !ok {
		return platform.Rect{}, false
	}
	return platform.RectFrom(loc, w.Size()), true
}

// WindowForSurface finds the mapped window owning surface.
func (s *Space) WindowForSurface(surface platform.SurfaceID) *Window {
	for _, p := range s.windows {
		if p.window.surface == surface {
			return p.window
		}
	}
	return nil
}

// WindowUnder returns the topmost live window containing p.
func (s *Space) WindowUnder(p platform.Point) *Window {
	for i := len(s.windows) - 1; i >= 0; i-- {
		pw := s.windows[i]
		if !pw.window.Alive() {
			continue
		}
		if platform.RectFrom(pw.loc, pw.window.Size()).Contains(p) {
			return pw.window
		}
	}
	return nil
}

// MapOutput places out at loc, replacing any previous placement.
func (s *Space) MapOutput(out *Output, loc platform.Point) {
	for _, p := range s.outputs {
		if p.output == out {
			p.loc = loc
			return
		}
	}
	s.outputs = append(s.outputs, &placedOutput{output: out, loc: loc})
}

// UnmapOutput removes out from the space.
func (s *Space) UnmapOutput(out *Output) {
	for i, p := range s.outputs {
		if p.output == out {
			s.outputs = append(s.outputs[:i], s.outputs[i+1:]...)
			return
		}
	}
}

// HasOutput reports whether an output with the given name is mapped.
func (s *Space) HasOutput(name string) bool {
	for _, p := range s.outputs {
		if p.output.Name() == name {
			return true
		}
	}
	return false
}

// Outputs returns the mapped outputs in mapping order.
func (s *Space) Outputs() []*Output {
	out := make([]*Output, 0, len(s.outputs))
	for _, p := range s.outputs {
		out = append(out, p.output)
	}
	return out
}

// OutputGeometry returns out's rectangle in the space.
func (s *Space) OutputGeometry(out *Output) (platform.Rect, bool) {
	for _, p := range s.outputs {
		if p.output == out {
			return platform.RectFrom(p.loc, out.LogicalSize()), true
		}
	}
	return platform.Rect{}, false
}

// OutputsForWindow returns the mapped outputs w overlaps.
func (s *Space) OutputsForWindow(w *Window) []*Output {
	geo, ok := s.WindowGeometry(w)
	if !ok {
		return nil
	}
	if geo.Empty() {
		geo.Width, geo.Height = 1, 1
	}
	var outs []*Output
	for _, p := range s.outputs {
		if platform.RectFrom(p.loc, p.output.LogicalSize()).Overlaps(geo) {
			outs = append(outs, p.output)
		}
	}
	return outs
}

// WindowsOnOutput returns the live windows overlapping out, bottom to top.
func (s *Space) WindowsOnOutput(out *Output) []*Window {
	area, ok := s.OutputGeometry(out)
	if !ok {
		return nil
	}
	var wins []*Window
	for _, p := range s.windows {
		if !p.window.Alive() {
			continue
		}
		if platform.RectFrom(p.loc, p.window.Size()).Overlaps(area) {
			wins = append(wins, p.window)
		}
	}
	return wins
}

// Refresh drops dead windows from the space.
func (s *Space) Refresh() {
	kept := s.windows[:0]
	for _, p := range s.windows {
		if p.window.Alive() {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(s.windows); i++ {
		s.windows[i] = nil
	}
	s.windows = kept
}
