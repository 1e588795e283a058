package platform

import (
	"context"
	"fmt"

	"github.com/1broseidon/wayshell/internal/x11"
)

// X11Backend discovers outputs from the RandR CRTCs of the X server the
// compositor is nested under.
type X11Backend struct {
	conn  *x11.Connection
	watch *x11.Connection
	scale float64
}

var _ Backend = (*X11Backend)(nil)

// NewX11Backend connects to display (empty for $DISPLAY). Two
// connections are opened: one for queries and one dedicated to the
// event stream, so Outputs can be called while Watch is blocked.
func NewX11Backend(display string, scale float64) (*X11Backend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X11: %w", err)
	}
	watch, err := x11.NewConnection(display)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect to X11: %w", err)
	}
	if scale <= 0 {
		scale = 1
	}
	return &X11Backend{conn: conn, watch: watch, scale: scale}, nil
}

// Outputs converts the active RandR outputs into OutputInfo values.
func (b *X11Backend) Outputs() ([]OutputInfo, error) {
	outs, err := b.conn.GetOutputs()
	if err != nil {
		return nil, err
	}
	infos := make([]OutputInfo, 0, len(outs))
	for _, o := range outs {
		infos = append(infos, outputFromX11(o, b.scale))
	}
	return infos, nil
}

func outputFromX11(o x11.Output, scale float64) OutputInfo {
	transform := Transform(x11.RotationIndex(o.Rotation))
	// CRTC dimensions are post-rotation; the mode is reported unrotated.
	w, h := o.Width, o.Height
	if transform.Rotated() {
		w, h = h, w
	}
	return OutputInfo{
		Name:      o.Name,
		Make:      "X11",
		Model:     fmt.Sprintf("%dx%dmm", o.MmWidth, o.MmHeight),
		Mode:      Mode{Width: w, Height: h, Refresh: o.Refresh},
		Scale:     scale,
		Transform: transform,
		Position:  Point{X: o.X, Y: o.Y},
	}
}

// Watch blocks on RandR notifications until ctx is done.
func (b *X11Backend) Watch(ctx context.Context, changed func()) error {
	return b.watch.WatchScreenChanges(ctx, changed)
}

// Close disconnects from the X server.
func (b *X11Backend) Close() {
	b.conn.Close()
	b.watch.Close()
}
