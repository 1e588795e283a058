// Package render drives per-output frames. Pixels are produced by a
// Renderer collaborator; this package decides when to ask for a frame
// and with what buffer age.
package render

import (
	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/shell"
)

// Damage is the region a rendered frame changed. Full means the whole
// output was redrawn.
type Damage struct {
	Full  bool
	Rects []platform.Rect
}

// Empty reports whether nothing changed.
func (d Damage) Empty() bool {
	return !d.Full && len(d.Rects) == 0
}

// Renderer draws one output. Age is the number of frames the back
// buffer's contents are behind; zero means its contents are unknown and
// a full redraw is required. A returned error skips the frame.
type Renderer interface {
	RenderOutput(out platform.OutputInfo, age int, hardwareCursor bool, frame shell.Frame) (Damage, error)
}
