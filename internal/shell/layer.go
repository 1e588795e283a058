package shell

import (
	"fmt"
	"strings"

	"github.com/1broseidon/wayshell/internal/platform"
)

// Layer is a layer-shell stacking layer.
type Layer int

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay
)

var layerNames = []string{"background", "bottom", "top", "overlay"}

func (l Layer) String() string {
	if l < 0 || int(l) >= len(layerNames) {
		return "unknown"
	}
	return layerNames[l]
}

// ParseLayer converts a layer name.
func ParseLayer(s string) (Layer, error) {
	for i, name := range layerNames {
		if strings.EqualFold(s, name) {
			return Layer(i), nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", s)
}

// KeyboardInteractivity controls whether a layer surface takes keyboard focus.
type KeyboardInteractivity int

const (
	KeyboardNone KeyboardInteractivity = iota
	KeyboardExclusive
	KeyboardOnDemand
)

// Margins are per-edge layer margins in logical pixels.
type Margins struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// LayerState is the double-buffered state of a layer surface.
type LayerState struct {
	Layer                 Layer
	Anchor                platform.Edges
	ExclusiveZone         int
	Margin                Margins
	Size                  platform.Size
	KeyboardInteractivity KeyboardInteractivity
}

// WantsFocus reports whether mapping the layer grants it keyboard focus.
func (st LayerState) WantsFocus() bool {
	return (st.Layer == LayerTop || st.Layer == LayerOverlay) &&
		st.KeyboardInteractivity != KeyboardNone
}

// LayerSurface is a panel/overlay surface bound to one output.
type LayerSurface struct {
	surface   platform.SurfaceID
	client    platform.ClientID
	namespace string
	output    string
	alive     bool

	state LayerState
	// geometry is relative to the output origin.
	geometry   platform.Rect
	configured bool
	lastSize   platform.Size
}

func (l *LayerSurface) Surface() platform.SurfaceID { return l.surface }
func (l *LayerSurface) Client() platform.ClientID   { return l.client }
func (l *LayerSurface) Namespace() string           { return l.namespace }
func (l *LayerSurface) Output() string              { return l.output }
func (l *LayerSurface) Alive() bool                 { return l.alive }
func (l *LayerSurface) State() LayerState           { return l.state }
func (l *LayerSurface) Geometry() platform.Rect     { return l.geometry }

// LayerMap holds an output's mapped layer surfaces.
type LayerMap struct {
	layers []*LayerSurface
	zone   platform.Rect
}

func newLayerMap() *LayerMap {
	return &LayerMap{}
}

// Map adds l to the map. Mapping twice is a no-op.
func (m *LayerMap) Map(l *LayerSurface) {
	for _, cur := range m.layers {
		if cur == l {
			return
		}
	}
	m.layers = append(m.layers, l)
}

// Unmap removes l from the map.
func (m *LayerMap) Unmap(l *LayerSurface) {
	for i, cur := range m.layers {
		if cur == l {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			return
		}
	}
}

// Layers returns mapped surfaces ordered bottom layer first, keeping map
// order within a layer.
func (m *LayerMap) Layers() []*LayerSurface {
	var out []*LayerSurface
	for layer := LayerBackground; layer <= LayerOverlay; layer++ {
		out = append(out, m.LayersOn(layer)...)
	}
	return out
}

// LayersOn returns the mapped surfaces on one layer.
func (m *LayerMap) LayersOn(layer Layer) []*LayerSurface {
	var out []*LayerSurface
	for _, l := range m.layers {
		if l.alive && l.state.Layer == layer {
			out = append(out, l)
		}
	}
	return out
}

// NonExclusiveZone is the output area, relative to its origin, left
// after exclusive zones were reserved by the last Arrange.
func (m *LayerMap) NonExclusiveZone() platform.Rect {
	return m.zone
}

// Cleanup drops dead layer surfaces and reports whether any were removed.
func (m *LayerMap) Cleanup() bool {
	kept := m.layers[:0]
	for _, l := range m.layers {
		if l.alive {
			kept = append(kept, l)
		}
	}
	removed := len(kept) != len(m.layers)
	for i := len(kept); i < len(m.layers); i++ {
		m.layers[i] = nil
	}
	m.layers = kept
	return removed
}

// Arrange lays out every mapped surface against an output of the given
// logical size and configures surfaces whose size changed. Surfaces that
// reserve an exclusive zone are placed first.
func (m *LayerMap) Arrange(proto Protocol, output platform.Size) {
	full := platform.Rect{Width: output.Width, Height: output.Height}
	zone := full

	ordered := make([]*LayerSurface, 0, len(m.layers))
	for _, l := range m.layers {
		if l.alive && l.state.ExclusiveZone > 0 {
			ordered = append(ordered, l)
		}
	}
	for _, l := range m.layers {
		if l.alive && l.state.ExclusiveZone <= 0 {
			ordered = append(ordered, l)
		}
	}

	for _, l := range ordered {
		bounds := zone
		if l.state.ExclusiveZone < 0 {
			bounds = full
		}
		l.geometry = layerGeometry(bounds, l.state)
		if l.state.ExclusiveZone > 0 {
			zone = shrinkZone(zone, l.state)
		}
		l.configure(proto, false)
	}
	m.zone = zone
}

func (l *LayerSurface) configure(proto Protocol, force bool) bool {
	size := l.geometry.Size()
	if !force && l.configured && size == l.lastSize {
		return false
	}
	proto.ConfigureLayer(l.surface, size)
	l.lastSize = size
	l.configured = true
	return true
}

// layerGeometry places a surface inside bounds according to its
// anchors, margins and desired size. A zero dimension stretches between
// opposite anchors.
func layerGeometry(bounds platform.Rect, st LayerState) platform.Rect {
	w, h := st.Size.Width, st.Size.Height
	availW := bounds.Width - st.Margin.Left - st.Margin.Right
	availH := bounds.Height - st.Margin.Top - st.Margin.Bottom
	if w == 0 {
		w = max(availW, 0)
	}
	if h == 0 {
		h = max(availH, 0)
	}

	var x, y int
	left, right := st.Anchor.Has(platform.EdgeLeft), st.Anchor.Has(platform.EdgeRight)
	switch {
	case left && !right:
		x = bounds.X + st.Margin.Left
	case right && !left:
		x = bounds.X + bounds.Width - w - st.Margin.Right
	case left && right:
		x = bounds.X + st.Margin.Left + (availW-w)/2
	default:
		x = bounds.X + (bounds.Width-w)/2
	}

	top, bottom := st.Anchor.Has(platform.EdgeTop), st.Anchor.Has(platform.EdgeBottom)
	switch {
	case top && !bottom:
		y = bounds.Y + st.Margin.Top
	case bottom && !top:
		y = bounds.Y + bounds.Height - h - st.Margin.Bottom
	case top && bottom:
		y = bounds.Y + st.Margin.Top + (availH-h)/2
	default:
		y = bounds.Y + (bounds.Height-h)/2
	}

	return platform.Rect{X: x, Y: y, Width: w, Height: h}
}

// exclusiveEdge returns the edge an exclusive zone applies to: the
// single anchored edge, or the edge anchored together with both of its
// perpendicular edges.
func exclusiveEdge(anchor platform.Edges) platform.Edges {
	horiz := platform.EdgeLeft | platform.EdgeRight
	vert := platform.EdgeTop | platform.EdgeBottom
	switch anchor {
	case platform.EdgeTop, platform.EdgeTop | horiz:
		return platform.EdgeTop
	case platform.EdgeBottom, platform.EdgeBottom | horiz:
		return platform.EdgeBottom
	case platform.EdgeLeft, platform.EdgeLeft | vert:
		return platform.EdgeLeft
	case platform.EdgeRight, platform.EdgeRight | vert:
		return platform.EdgeRight
	}
	return platform.EdgeNone
}

func shrinkZone(zone platform.Rect, st LayerState) platform.Rect {
	switch exclusiveEdge(st.Anchor) {
	case platform.EdgeTop:
		d := st.ExclusiveZone + st.Margin.Top
		zone.Y += d
		zone.Height -= d
	case platform.EdgeBottom:
		zone.Height -= st.ExclusiveZone + st.Margin.Bottom
	case platform.EdgeLeft:
		d := st.ExclusiveZone + st.Margin.Left
		zone.X += d
		zone.Width -= d
	case platform.EdgeRight:
		zone.Width -= st.ExclusiveZone + st.Margin.Right
	}
	zone.Width = max(zone.Width, 0)
	zone.Height = max(zone.Height, 0)
	return zone
}
