package platform

import (
	"context"
	"fmt"
	"strings"
)

// SurfaceID identifies a client surface. Ids are assigned by the
// protocol front-end and are never reused within a session.
type SurfaceID uint64

// ClientID identifies a connected protocol client.
type ClientID uint64

// Serial is a protocol event serial.
type Serial uint32

// Transform describes the output's rotation/flip.
type Transform int

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

var transformNames = []string{
	"normal", "90", "180", "270",
	"flipped", "flipped-90", "flipped-180", "flipped-270",
}

func (t Transform) String() string {
	if int(t) < 0 || int(t) >= len(transformNames) {
		return "unknown"
	}
	return transformNames[t]
}

// ParseTransform converts a config/transport name into a Transform.
func ParseTransform(s string) (Transform, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return TransformNormal, nil
	}
	for i, name := range transformNames {
		if s == name {
			return Transform(i), nil
		}
	}
	return TransformNormal, fmt.Errorf("unknown transform %q", s)
}

// Rotated reports whether width and height swap under this transform.
func (t Transform) Rotated() bool {
	switch t {
	case Transform90, Transform270, TransformFlipped90, TransformFlipped270:
		return true
	}
	return false
}

// Mode is an output mode in physical pixels. Refresh is in mHz.
type Mode struct {
	Width   int
	Height  int
	Refresh int
}

// Size returns the mode's physical size.
func (m Mode) Size() Size {
	return Size{Width: m.Width, Height: m.Height}
}

// OutputInfo describes a physical display and its logical placement.
type OutputInfo struct {
	Name      string
	Make      string
	Model     string
	Mode      Mode
	Scale     float64
	Transform Transform
	Position  Point
}

// LogicalSize returns the output size in logical units: the mode size,
// rotated by the transform, divided by the fractional scale.
func (o OutputInfo) LogicalSize() Size {
	size := o.Mode.Size()
	if o.Transform.Rotated() {
		size = Size{Width: size.Height, Height: size.Width}
	}
	return size.ToLogical(o.Scale)
}

// LogicalRect returns the output's rectangle in the global logical space.
func (o OutputInfo) LogicalRect() Rect {
	return RectFrom(o.Position, o.LogicalSize())
}

// Backend discovers physical outputs. Implementations are the headless
// backend (outputs from config) and the nested X11 backend.
type Backend interface {
	// Outputs returns the current output set.
	Outputs() ([]OutputInfo, error)
	// Watch blocks until ctx is done, calling changed whenever the
	// output set may have changed.
	Watch(ctx context.Context, changed func()) error
	// Close releases backend resources.
	Close()
}
