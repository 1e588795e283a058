package shell

import "github.com/1broseidon/wayshell/internal/platform"

// SurfaceFrame is one drawable surface with output-relative geometry.
type SurfaceFrame struct {
	Surface   platform.SurfaceID
	Geometry  platform.Rect
	Activated bool
}

// Frame is what the renderer needs to draw one output.
type Frame struct {
	Output string
	Size   platform.Size
	// Fullscreen, when set, replaces the desktop: only it and the
	// overlay layer are drawn.
	Fullscreen *SurfaceFrame
	Background []SurfaceFrame
	Windows    []SurfaceFrame
	Top        []SurfaceFrame
	Popups     []SurfaceFrame
}

// IsFullscreen reports whether the frame renders a fullscreen window.
func (f Frame) IsFullscreen() bool {
	return f.Fullscreen != nil
}

// Surfaces returns every surface of the frame bottom to top.
func (f Frame) Surfaces() []SurfaceFrame {
	var out []SurfaceFrame
	if f.Fullscreen != nil {
		out = append(out, *f.Fullscreen)
		out = append(out, f.Top...)
		return append(out, f.Popups...)
	}
	out = append(out, f.Background...)
	out = append(out, f.Windows...)
	out = append(out, f.Top...)
	return append(out, f.Popups...)
}

// FrameFor builds the render snapshot for an output. It reports false
// for outputs that are gone.
func (s *Shell) FrameFor(name string) (Frame, bool) {
	out := s.Output(name)
	if out == nil || !out.Alive() {
		return Frame{}, false
	}
	ws := s.ActiveWorkspace()
	area, ok := ws.space.OutputGeometry(out)
	if !ok {
		return Frame{}, false
	}
	origin := area.Loc()
	f := Frame{Output: name, Size: area.Size()}

	layerFrames := func(layers ...Layer) []SurfaceFrame {
		var frames []SurfaceFrame
		for _, layer := range layers {
			for _, l := range out.layers.LayersOn(layer) {
				frames = append(frames, SurfaceFrame{Surface: l.surface, Geometry: l.geometry})
			}
		}
		return frames
	}

	visible := make(map[platform.SurfaceID]bool)
	if fw := ws.GetFullscreen(out); fw != nil {
		f.Fullscreen = &SurfaceFrame{
			Surface:   fw.surface,
			Geometry:  platform.Rect{Width: area.Width, Height: area.Height},
			Activated: fw.pending.Activated,
		}
		f.Top = layerFrames(LayerOverlay)
		visible[fw.surface] = true
	} else {
		f.Background = layerFrames(LayerBackground, LayerBottom)
		for _, w := range ws.space.WindowsOnOutput(out) {
			geo, _ := ws.space.WindowGeometry(w)
			f.Windows = append(f.Windows, SurfaceFrame{
				Surface:   w.surface,
				Geometry:  geo.Translate(platform.Point{X: -origin.X, Y: -origin.Y}),
				Activated: w.pending.Activated,
			})
			visible[w.surface] = true
		}
		f.Top = layerFrames(LayerTop, LayerOverlay)
	}
	for _, l := range f.Top {
		visible[l.Surface] = true
	}
	for _, l := range f.Background {
		visible[l.Surface] = true
	}

	f.Popups = s.popupFrames(origin, visible)
	return f, true
}

// popupFrames collects mapped popups whose parent chain starts at a
// visible surface, parents before children.
func (s *Shell) popupFrames(origin platform.Point, visible map[platform.SurfaceID]bool) []SurfaceFrame {
	var frames []SurfaceFrame
	var walk func(parent platform.SurfaceID)
	walk = func(parent platform.SurfaceID) {
		for _, child := range s.registry.Children(parent) {
			p := child.Popup
			if child.State != StateConfigured || !p.hasContent {
				continue
			}
			loc, _ := s.surfaceOrigin(p.surface)
			frames = append(frames, SurfaceFrame{
				Surface:  p.surface,
				Geometry: platform.RectFrom(loc.Sub(origin), p.geometry.Size()),
			})
			walk(p.surface)
		}
	}
	roots := make([]platform.SurfaceID, 0, len(visible))
	for id := range visible {
		roots = append(roots, id)
	}
	sortSurfaceIDs(roots)
	for _, id := range roots {
		walk(id)
	}
	return frames
}
