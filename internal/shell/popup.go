package shell

import "github.com/1broseidon/wayshell/internal/platform"

// ConstraintAdjustment is the set of ways a popup may be moved or
// resized to keep it on screen.
type ConstraintAdjustment uint32

const (
	AdjustSlideX  ConstraintAdjustment = 1
	AdjustSlideY  ConstraintAdjustment = 2
	AdjustFlipX   ConstraintAdjustment = 4
	AdjustFlipY   ConstraintAdjustment = 8
	AdjustResizeX ConstraintAdjustment = 16
	AdjustResizeY ConstraintAdjustment = 32
)

// Positioner describes how a popup is placed relative to its parent.
// AnchorRect is in parent-surface coordinates.
type Positioner struct {
	Size       platform.Size
	AnchorRect platform.Rect
	Anchor     platform.Edges
	Gravity    platform.Edges
	Adjustment ConstraintAdjustment
	Offset     platform.Point
}

// Geometry returns the unconstrained popup rectangle relative to the parent.
func (p Positioner) Geometry() platform.Rect {
	ar := p.AnchorRect

	var ax, ay int
	switch {
	case p.Anchor.Has(platform.EdgeLeft):
		ax = ar.X
	case p.Anchor.Has(platform.EdgeRight):
		ax = ar.X + ar.Width
	default:
		ax = ar.X + ar.Width/2
	}
	switch {
	case p.Anchor.Has(platform.EdgeTop):
		ay = ar.Y
	case p.Anchor.Has(platform.EdgeBottom):
		ay = ar.Y + ar.Height
	default:
		ay = ar.Y + ar.Height/2
	}

	w, h := p.Size.Width, p.Size.Height
	x, y := ax, ay
	switch {
	case p.Gravity.Has(platform.EdgeLeft):
		x -= w
	case p.Gravity.Has(platform.EdgeRight):
	default:
		x -= w / 2
	}
	switch {
	case p.Gravity.Has(platform.EdgeTop):
		y -= h
	case p.Gravity.Has(platform.EdgeBottom):
	default:
		y -= h / 2
	}

	return platform.Rect{X: x + p.Offset.X, Y: y + p.Offset.Y, Width: w, Height: h}
}

func flipHorizontal(e platform.Edges) platform.Edges {
	switch {
	case e.Has(platform.EdgeLeft):
		return e&^platform.EdgeLeft | platform.EdgeRight
	case e.Has(platform.EdgeRight):
		return e&^platform.EdgeRight | platform.EdgeLeft
	}
	return e
}

func flipVertical(e platform.Edges) platform.Edges {
	switch {
	case e.Has(platform.EdgeTop):
		return e&^platform.EdgeTop | platform.EdgeBottom
	case e.Has(platform.EdgeBottom):
		return e&^platform.EdgeBottom | platform.EdgeTop
	}
	return e
}

func fitsX(r, bounds platform.Rect) bool {
	return r.X >= bounds.X && r.X+r.Width <= bounds.X+bounds.Width
}

func fitsY(r, bounds platform.Rect) bool {
	return r.Y >= bounds.Y && r.Y+r.Height <= bounds.Y+bounds.Height
}

// UnconstrainPopup returns the popup geometry, relative to the parent,
// adjusted so it stays inside bounds (also parent-relative). Each axis
// tries flip, then slide, then resize, as permitted by the positioner.
func UnconstrainPopup(p Positioner, bounds platform.Rect) platform.Rect {
	geo := p.Geometry()
	if bounds.Empty() {
		return geo
	}

	if !fitsX(geo, bounds) {
		if p.Adjustment&AdjustFlipX != 0 {
			flipped := p
			flipped.Anchor = flipHorizontal(p.Anchor)
			flipped.Gravity = flipHorizontal(p.Gravity)
			flipped.Offset.X = -p.Offset.X
			if fg := flipped.Geometry(); fitsX(fg, bounds) {
				geo.X = fg.X
			}
		}
		if !fitsX(geo, bounds) && p.Adjustment&AdjustSlideX != 0 {
			if geo.X+geo.Width > bounds.X+bounds.Width {
				geo.X = bounds.X + bounds.Width - geo.Width
			}
			if geo.X < bounds.X {
				geo.X = bounds.X
			}
		}
		if !fitsX(geo, bounds) && p.Adjustment&AdjustResizeX != 0 {
			clipped := geo.Intersect(platform.Rect{X: bounds.X, Y: geo.Y, Width: bounds.Width, Height: geo.Height})
			if !clipped.Empty() {
				geo.X, geo.Width = clipped.X, clipped.Width
			}
		}
	}

	if !fitsY(geo, bounds) {
		if p.Adjustment&AdjustFlipY != 0 {
			flipped := p
			flipped.Anchor = flipVertical(p.Anchor)
			flipped.Gravity = flipVertical(p.Gravity)
			flipped.Offset.Y = -p.Offset.Y
			if fg := flipped.Geometry(); fitsY(fg, bounds) {
				geo.Y = fg.Y
			}
		}
		if !fitsY(geo, bounds) && p.Adjustment&AdjustSlideY != 0 {
			if geo.Y+geo.Height > bounds.Y+bounds.Height {
				geo.Y = bounds.Y + bounds.Height - geo.Height
			}
			if geo.Y < bounds.Y {
				geo.Y = bounds.Y
			}
		}
		if !fitsY(geo, bounds) && p.Adjustment&AdjustResizeY != 0 {
			clipped := geo.Intersect(platform.Rect{X: geo.X, Y: bounds.Y, Width: geo.Width, Height: bounds.Height})
			if !clipped.Empty() {
				geo.Y, geo.Height = clipped.Y, clipped.Height
			}
		}
	}

	return geo
}

// Popup is a transient surface attached to a parent surface.
type Popup struct {
	surface    platform.SurfaceID
	client     platform.ClientID
	parent     platform.SurfaceID
	positioner Positioner
	geometry   platform.Rect
	hasContent bool
	grabSeat   string
	alive      bool
}

func (p *Popup) Surface() platform.SurfaceID { return p.surface }
func (p *Popup) Client() platform.ClientID   { return p.client }
func (p *Popup) Parent() platform.SurfaceID  { return p.parent }
func (p *Popup) Positioner() Positioner      { return p.positioner }
func (p *Popup) Alive() bool                 { return p.alive }

// Geometry is the configured rectangle relative to the parent surface.
func (p *Popup) Geometry() platform.Rect { return p.geometry }

// Grabbed reports whether the popup holds an explicit grab.
func (p *Popup) Grabbed() bool { return p.grabSeat != "" }
