package protocol

import (
	"fmt"
	"math"

	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/policy"
	"github.com/1broseidon/wayshell/internal/shell"
)

// Dispatch applies one front-end event to the shell. It must run on the
// loop goroutine. Protocol errors have already been posted to the
// offending client when they are returned.
func Dispatch(sh *shell.Shell, ev Event) error {
	switch e := ev.(type) {
	case NewToplevel:
		return sh.NewToplevel(e.Client, e.Surface)

	case NewLayerSurface:
		return sh.NewLayerSurface(e.Client, e.Surface, e.Output, shell.Layer(e.Layer), e.Namespace)

	case NewPopup:
		return sh.NewPopup(e.Client, e.Surface, e.Parent, e.Positioner.shell())

	case Commit:
		c := shell.Commit{
			Surface: e.Surface,
			Buffer:  e.Buffer,
			Size:    platform.Size{Width: e.Width, Height: e.Height},
		}
		if e.Layer != nil {
			st := e.Layer.shell()
			c.Layer = &st
		}
		return sh.Commit(c)

	case Grab:
		return sh.Grab(e.Client, e.Surface, e.Seat, e.Serial)

	case Destroy:
		sh.Destroy(e.Surface)

	case ClientGone:
		sh.ClientGone(e.Client)

	case FrontendGone:
		for _, client := range sh.Registry().Clients() {
			sh.ClientGone(client)
		}

	case SetTitle:
		sh.SetTitle(e.Surface, e.Title)

	case SetAppID:
		sh.SetAppID(e.Surface, e.AppID)

	case Move:
		sh.MoveRequest(e.Surface, e.Seat, e.Serial, policy.GrabStart{Button: e.Button, X: e.X, Y: e.Y})

	case Resize:
		sh.ResizeRequest(e.Surface, e.Seat, e.Serial, policy.GrabStart{Button: e.Button, X: e.X, Y: e.Y}, e.Edges)

	case SetMaximized:
		sh.MaximizeRequest(e.Surface)

	case UnsetMaximized:
		sh.UnmaximizeRequest(e.Surface)

	case SetFullscreen:
		sh.SetFullscreen(e.Surface, e.Output)

	case UnsetFullscreen:
		sh.UnsetFullscreen(e.Surface)

	case DeviceAdded:
		var caps shell.Capability
		if e.Pointer {
			caps |= shell.CapPointer
		}
		if e.Keyboard {
			caps |= shell.CapKeyboard
		}
		sh.DeviceAdded(e.Seat, e.Device, caps)

	case DeviceRemoved:
		sh.DeviceRemoved(e.Seat, e.Device)

	case Keyboard:
		sh.Keyboard(e.Seat, e.Serial)

	case PointerMotion:
		sh.PointerMotion(e.Seat)

	case PointerButton:
		sh.PointerButton(e.Seat, e.Serial, point(e.X, e.Y), e.Pressed)

	case PointerAxis:
		sh.PointerMotion(e.Seat)

	case Touch, Tablet:
		// Accepted and ignored.

	default:
		return fmt.Errorf("unhandled protocol event %T", ev)
	}
	return nil
}

func point(x, y float64) platform.Point {
	return platform.Point{X: int(math.Floor(x)), Y: int(math.Floor(y))}
}

func (p Positioner) shell() shell.Positioner {
	return shell.Positioner{
		Size:       platform.Size{Width: p.Width, Height: p.Height},
		AnchorRect: p.AnchorRect,
		Anchor:     p.Anchor,
		Gravity:    p.Gravity,
		Adjustment: shell.ConstraintAdjustment(p.Adjustment),
		Offset:     platform.Point{X: p.OffsetX, Y: p.OffsetY},
	}
}

func (st LayerState) shell() shell.LayerState {
	return shell.LayerState{
		Layer:         shell.Layer(st.Layer),
		Anchor:        st.Anchor,
		ExclusiveZone: st.ExclusiveZone,
		Margin: shell.Margins{
			Top:    st.MarginTop,
			Right:  st.MarginRight,
			Bottom: st.MarginBottom,
			Left:   st.MarginLeft,
		},
		Size:                  platform.Size{Width: st.Width, Height: st.Height},
		KeyboardInteractivity: shell.KeyboardInteractivity(st.KeyboardInteractivity),
	}
}
