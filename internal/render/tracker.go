package render

import (
	"sync"

	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/shell"
)

// maxHistory bounds the per-output damage history kept for buffer ages.
const maxHistory = 4

type outputHistory struct {
	last     map[platform.SurfaceID]shell.SurfaceFrame
	damage   [][]platform.Rect
	size     platform.Size
	rendered uint64
}

// Tracker is a reference renderer that draws nothing and reports the
// damage a real renderer would repaint, computed from surface geometry
// changes between frames.
type Tracker struct {
	mu      sync.Mutex
	outputs map[string]*outputHistory
}

var _ Renderer = (*Tracker)(nil)

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{outputs: make(map[string]*outputHistory)}
}

// RenderOutput returns the damage since the frame age frames ago.
func (t *Tracker) RenderOutput(out platform.OutputInfo, age int, _ bool, frame shell.Frame) (Damage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.outputs[out.Name]
	if !ok {
		h = &outputHistory{}
		t.outputs[out.Name] = h
	}

	current := make(map[platform.SurfaceID]shell.SurfaceFrame)
	for _, sf := range frame.Surfaces() {
		current[sf.Surface] = sf
	}

	full := h.last == nil || h.size != frame.Size
	diff := diffFrames(h.last, current)

	h.last = current
	h.size = frame.Size
	h.rendered++
	h.damage = append([][]platform.Rect{diff}, h.damage...)
	if len(h.damage) > maxHistory {
		h.damage = h.damage[:maxHistory]
	}

	bounds := platform.Rect{Width: frame.Size.Width, Height: frame.Size.Height}
	if full || age <= 0 || age > len(h.damage) {
		return Damage{Full: true, Rects: []platform.Rect{bounds}}, nil
	}

	var rects []platform.Rect
	for _, step := range h.damage[:age] {
		for _, r := range step {
			if c := r.Intersect(bounds); !c.Empty() {
				rects = append(rects, c)
			}
		}
	}
	return Damage{Rects: rects}, nil
}

// Forget drops an output's history.
func (t *Tracker) Forget(output string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.outputs, output)
}

// Rendered returns how many frames were produced for an output.
func (t *Tracker) Rendered(output string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.outputs[output]; ok {
		return h.rendered
	}
	return 0
}

// diffFrames returns the rectangles that changed between two frames:
// surfaces that appeared, vanished, moved, resized or changed
// activation. Moved surfaces damage both their old and new rectangles.
func diffFrames(prev, cur map[platform.SurfaceID]shell.SurfaceFrame) []platform.Rect {
	var rects []platform.Rect
	for id, sf := range cur {
		old, ok := prev[id]
		switch {
		case !ok:
			rects = append(rects, sf.Geometry)
		case old.Geometry != sf.Geometry:
			rects = append(rects, old.Geometry, sf.Geometry)
		case old.Activated != sf.Activated:
			rects = append(rects, sf.Geometry)
		}
	}
	for id, old := range prev {
		if _, ok := cur[id]; !ok {
			rects = append(rects, old.Geometry)
		}
	}
	return rects
}
