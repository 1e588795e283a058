// Package policy carries user-intent events between the shell and an
// external policy engine that owns placement decisions.
package policy

import "github.com/1broseidon/wayshell/internal/platform"

// Kind tags a message on the wire.
type Kind string

const (
	KindPing                Kind = "ping"
	KindPong                Kind = "pong"
	KindMoveRequest         Kind = "move_request"
	KindResizeRequest       Kind = "resize_request"
	KindMaximizeRequest     Kind = "maximize_request"
	KindUnmaximizeRequest   Kind = "unmaximize_request"
	KindUnfullscreenRequest Kind = "unfullscreen_request"
	KindWindowMapped        Kind = "window_mapped"
	KindWindowClosed        Kind = "window_closed"

	KindPlaceWindow        Kind = "place_window"
	KindConfigureWindow    Kind = "configure_window"
	KindFocusWindow        Kind = "focus_window"
	KindFullscreenWindow   Kind = "fullscreen_window"
	KindUnfullscreenWindow Kind = "unfullscreen_window"
	KindCloseWindow        Kind = "close_window"
)

// Message is sent from the compositor to the engine.
type Message interface {
	Kind() Kind
}

// Command is sent from the engine to the compositor.
type Command interface {
	Kind() Kind
}

// GrabStart describes the pointer state that started an interactive grab.
type GrabStart struct {
	Button uint32  `cbor:"button"`
	X      float64 `cbor:"x"`
	Y      float64 `cbor:"y"`
}

// Ping is a liveness probe. Either side may send it.
type Ping struct{}

// Pong answers a Ping; ReplyTo is the ping's correlation id.
type Pong struct {
	ReplyTo string `cbor:"reply_to"`
}

type MoveRequest struct {
	Window platform.SurfaceID `cbor:"window"`
	Seat   string             `cbor:"seat"`
	Serial platform.Serial    `cbor:"serial"`
	Start  GrabStart          `cbor:"start"`
}

type ResizeRequest struct {
	Window platform.SurfaceID `cbor:"window"`
	Seat   string             `cbor:"seat"`
	Serial platform.Serial    `cbor:"serial"`
	Start  GrabStart          `cbor:"start"`
	Edges  platform.Edges     `cbor:"edges"`
}

// MaximizeRequest carries the usable area of the window's output,
// output-relative, with exclusive layer zones already removed.
type MaximizeRequest struct {
	Window platform.SurfaceID `cbor:"window"`
	Output string             `cbor:"output"`
	Area   platform.Rect      `cbor:"area"`
}

type UnmaximizeRequest struct {
	Window platform.SurfaceID `cbor:"window"`
}

// UnfullscreenRequest reports that a window left fullscreen at the
// client's request.
type UnfullscreenRequest struct {
	Window platform.SurfaceID `cbor:"window"`
}

// WindowMapped announces a newly mapped toplevel so the engine can place it.
type WindowMapped struct {
	Window platform.SurfaceID `cbor:"window"`
	Output string             `cbor:"output,omitempty"`
	AppID  string             `cbor:"app_id,omitempty"`
	Title  string             `cbor:"title,omitempty"`
	Size   platform.Size      `cbor:"size"`
}

type WindowClosed struct {
	Window platform.SurfaceID `cbor:"window"`
}

// PlaceWindow maps a window at a location in the active workspace.
type PlaceWindow struct {
	Window platform.SurfaceID `cbor:"window"`
	Output string             `cbor:"output,omitempty"`
	X      int                `cbor:"x"`
	Y      int                `cbor:"y"`
}

// ConfigureWindow sets a window's size and maximized state. A zero
// dimension lets the client choose.
type ConfigureWindow struct {
	Window    platform.SurfaceID `cbor:"window"`
	Width     int                `cbor:"width"`
	Height    int                `cbor:"height"`
	Maximized bool               `cbor:"maximized"`
}

type FocusWindow struct {
	Window platform.SurfaceID `cbor:"window"`
	Seat   string             `cbor:"seat,omitempty"`
}

type FullscreenWindow struct {
	Window platform.SurfaceID `cbor:"window"`
	Output string             `cbor:"output,omitempty"`
}

type UnfullscreenWindow struct {
	Window platform.SurfaceID `cbor:"window"`
}

type CloseWindow struct {
	Window platform.SurfaceID `cbor:"window"`
}

func (Ping) Kind() Kind                { return KindPing }
func (Pong) Kind() Kind                { return KindPong }
func (MoveRequest) Kind() Kind         { return KindMoveRequest }
func (ResizeRequest) Kind() Kind       { return KindResizeRequest }
func (MaximizeRequest) Kind() Kind     { return KindMaximizeRequest }
func (UnmaximizeRequest) Kind() Kind   { return KindUnmaximizeRequest }
func (UnfullscreenRequest) Kind() Kind { return KindUnfullscreenRequest }
func (WindowMapped) Kind() Kind        { return KindWindowMapped }
func (WindowClosed) Kind() Kind        { return KindWindowClosed }
func (PlaceWindow) Kind() Kind         { return KindPlaceWindow }
func (ConfigureWindow) Kind() Kind     { return KindConfigureWindow }
func (FocusWindow) Kind() Kind         { return KindFocusWindow }
func (FullscreenWindow) Kind() Kind    { return KindFullscreenWindow }
func (UnfullscreenWindow) Kind() Kind  { return KindUnfullscreenWindow }
func (CloseWindow) Kind() Kind         { return KindCloseWindow }

// Interactive reports whether m asks the engine to act on user intent.
// These are refused while no engine is attached.
func Interactive(m Message) bool {
	switch m.(type) {
	case MoveRequest, ResizeRequest, MaximizeRequest, UnmaximizeRequest:
		return true
	}
	return false
}
