package platform

import "math"

// Point is a position in logical compositor coordinates.
type Point struct {
	X int
	Y int
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p translated by -q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Size is a width/height pair. A zero dimension in a configure means
// the client picks that dimension.
type Size struct {
	Width  int
	Height int
}

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// ToLogical converts a physical size to logical units with a
// fractional scale, rounding to the nearest pixel.
func (s Size) ToLogical(scale float64) Size {
	if scale <= 0 {
		scale = 1
	}
	return Size{
		Width:  int(math.Round(float64(s.Width) / scale)),
		Height: int(math.Round(float64(s.Height) / scale)),
	}
}

// Rect describes a rectangular region in logical coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RectFrom builds a rect from a location and a size.
func RectFrom(loc Point, size Size) Rect {
	return Rect{X: loc.X, Y: loc.Y, Width: size.Width, Height: size.Height}
}

// Loc returns the top-left corner.
func (r Rect) Loc() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the rect's dimensions.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y &&
		o.X+o.Width <= r.X+r.Width &&
		o.Y+o.Height <= r.Y+r.Height
}

// Intersect returns the overlap of r and o, or an empty rect.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.Width, o.X+o.Width)
	y2 := min(r.Y+r.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Overlaps reports whether r and o share any area.
func (r Rect) Overlaps(o Rect) bool {
	return !r.Intersect(o).Empty()
}

// Translate returns r moved by p.
func (r Rect) Translate(p Point) Rect {
	r.X += p.X
	r.Y += p.Y
	return r
}

// Edges is a bitmask of rectangle edges. It is used for resize edges,
// layer-shell anchors and popup positioner anchor/gravity.
type Edges uint8

const (
	EdgeNone   Edges = 0
	EdgeTop    Edges = 1
	EdgeBottom Edges = 2
	EdgeLeft   Edges = 4
	EdgeRight  Edges = 8
)

// Has reports whether all bits of e2 are set in e.
func (e Edges) Has(e2 Edges) bool {
	return e&e2 == e2
}

func (e Edges) String() string {
	if e == EdgeNone {
		return "none"
	}
	s := ""
	for _, part := range []struct {
		bit  Edges
		name string
	}{{EdgeTop, "top"}, {EdgeBottom, "bottom"}, {EdgeLeft, "left"}, {EdgeRight, "right"}} {
		if e.Has(part.bit) {
			if s != "" {
				s += "_"
			}
			s += part.name
		}
	}
	return s
}
