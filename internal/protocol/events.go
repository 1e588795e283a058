// Package protocol connects the shell to the protocol front-end: the
// process that owns client sockets and speaks the Wayland wire format.
// The front-end sends decoded events and receives shell requests, both
// as CBOR envelopes on one unix socket.
package protocol

import "github.com/1broseidon/wayshell/internal/platform"

// Event is a decoded front-end event.
type Event interface {
	Kind() string
}

const (
	KindNewToplevel     = "new_toplevel"
	KindNewLayerSurface = "new_layer_surface"
	KindNewPopup        = "new_popup"
	KindCommit          = "commit"
	KindGrab            = "grab"
	KindDestroy         = "destroy"
	KindClientGone      = "client_gone"
	KindSetTitle        = "set_title"
	KindSetAppID        = "set_app_id"
	KindMove            = "move"
	KindResize          = "resize"
	KindSetMaximized    = "set_maximized"
	KindUnsetMaximized  = "unset_maximized"
	KindSetFullscreen   = "set_fullscreen"
	KindUnsetFullscreen = "unset_fullscreen"
	KindDeviceAdded     = "device_added"
	KindDeviceRemoved   = "device_removed"
	KindKeyboard        = "keyboard"
	KindPointerMotion   = "pointer_motion"
	KindPointerButton   = "pointer_button"
	KindPointerAxis     = "pointer_axis"
	KindTouch           = "touch"
	KindTablet          = "tablet"
)

type NewToplevel struct {
	Client  platform.ClientID  `cbor:"client"`
	Surface platform.SurfaceID `cbor:"surface"`
}

// NewLayerSurface creates a layer-shell surface. An empty Output lets
// the compositor choose.
type NewLayerSurface struct {
	Client    platform.ClientID  `cbor:"client"`
	Surface   platform.SurfaceID `cbor:"surface"`
	Output    string             `cbor:"output,omitempty"`
	Layer     int                `cbor:"layer"`
	Namespace string             `cbor:"namespace"`
}

// Positioner mirrors the xdg positioner state.
type Positioner struct {
	Width      int            `cbor:"width"`
	Height     int            `cbor:"height"`
	AnchorRect platform.Rect  `cbor:"anchor_rect"`
	Anchor     platform.Edges `cbor:"anchor"`
	Gravity    platform.Edges `cbor:"gravity"`
	Adjustment uint32         `cbor:"constraint_adjustment"`
	OffsetX    int            `cbor:"offset_x"`
	OffsetY    int            `cbor:"offset_y"`
}

type NewPopup struct {
	Client     platform.ClientID  `cbor:"client"`
	Surface    platform.SurfaceID `cbor:"surface"`
	Parent     platform.SurfaceID `cbor:"parent"`
	Positioner Positioner         `cbor:"positioner"`
}

// LayerState is the double-buffered layer-shell state applied by a commit.
type LayerState struct {
	Layer                 int            `cbor:"layer"`
	Anchor                platform.Edges `cbor:"anchor"`
	ExclusiveZone         int            `cbor:"exclusive_zone"`
	MarginTop             int            `cbor:"margin_top"`
	MarginRight           int            `cbor:"margin_right"`
	MarginBottom          int            `cbor:"margin_bottom"`
	MarginLeft            int            `cbor:"margin_left"`
	Width                 int            `cbor:"width"`
	Height                int            `cbor:"height"`
	KeyboardInteractivity int            `cbor:"keyboard_interactivity"`
}

// Commit reports a wl_surface.commit. Buffer is false for a null buffer.
type Commit struct {
	Surface platform.SurfaceID `cbor:"surface"`
	Buffer  bool               `cbor:"buffer"`
	Width   int                `cbor:"width"`
	Height  int                `cbor:"height"`
	Layer   *LayerState        `cbor:"layer,omitempty"`
}

type Grab struct {
	Client  platform.ClientID  `cbor:"client"`
	Surface platform.SurfaceID `cbor:"surface"`
	Seat    string             `cbor:"seat"`
	Serial  platform.Serial    `cbor:"serial"`
}

type Destroy struct {
	Surface platform.SurfaceID `cbor:"surface"`
}

type ClientGone struct {
	Client platform.ClientID `cbor:"client"`
}

type SetTitle struct {
	Surface platform.SurfaceID `cbor:"surface"`
	Title   string             `cbor:"title"`
}

type SetAppID struct {
	Surface platform.SurfaceID `cbor:"surface"`
	AppID   string             `cbor:"app_id"`
}

type Move struct {
	Surface platform.SurfaceID `cbor:"surface"`
	Seat    string             `cbor:"seat"`
	Serial  platform.Serial    `cbor:"serial"`
	Button  uint32             `cbor:"button"`
	X       float64            `cbor:"x"`
	Y       float64            `cbor:"y"`
}

type Resize struct {
	Surface platform.SurfaceID `cbor:"surface"`
	Seat    string             `cbor:"seat"`
	Serial  platform.Serial    `cbor:"serial"`
	Button  uint32             `cbor:"button"`
	X       float64            `cbor:"x"`
	Y       float64            `cbor:"y"`
	Edges   platform.Edges     `cbor:"edges"`
}

type SetMaximized struct {
	Surface platform.SurfaceID `cbor:"surface"`
}

type UnsetMaximized struct {
	Surface platform.SurfaceID `cbor:"surface"`
}

type SetFullscreen struct {
	Surface platform.SurfaceID `cbor:"surface"`
	Output  string             `cbor:"output,omitempty"`
}

type UnsetFullscreen struct {
	Surface platform.SurfaceID `cbor:"surface"`
}

type DeviceAdded struct {
	Seat     string `cbor:"seat"`
	Device   string `cbor:"device"`
	Pointer  bool   `cbor:"pointer"`
	Keyboard bool   `cbor:"keyboard"`
}

type DeviceRemoved struct {
	Seat   string `cbor:"seat"`
	Device string `cbor:"device"`
}

type Keyboard struct {
	Seat    string          `cbor:"seat"`
	Serial  platform.Serial `cbor:"serial"`
	Key     uint32          `cbor:"key"`
	Pressed bool            `cbor:"pressed"`
}

// PointerMotion carries the absolute pointer position in global
// logical coordinates.
type PointerMotion struct {
	Seat string  `cbor:"seat"`
	X    float64 `cbor:"x"`
	Y    float64 `cbor:"y"`
}

type PointerButton struct {
	Seat    string          `cbor:"seat"`
	Serial  platform.Serial `cbor:"serial"`
	Button  uint32          `cbor:"button"`
	Pressed bool            `cbor:"pressed"`
	X       float64         `cbor:"x"`
	Y       float64         `cbor:"y"`
}

type PointerAxis struct {
	Seat       string  `cbor:"seat"`
	Horizontal float64 `cbor:"horizontal"`
	Vertical   float64 `cbor:"vertical"`
}

// Touch and Tablet are accepted from the front-end and ignored.
type Touch struct {
	Seat string `cbor:"seat"`
}

type Tablet struct {
	Seat string `cbor:"seat"`
}

// FrontendGone is generated locally when the front-end disconnects.
// It never appears on the wire.
type FrontendGone struct{}

func (NewToplevel) Kind() string     { return KindNewToplevel }
func (NewLayerSurface) Kind() string { return KindNewLayerSurface }
func (NewPopup) Kind() string        { return KindNewPopup }
func (Commit) Kind() string          { return KindCommit }
func (Grab) Kind() string            { return KindGrab }
func (Destroy) Kind() string         { return KindDestroy }
func (ClientGone) Kind() string      { return KindClientGone }
func (SetTitle) Kind() string        { return KindSetTitle }
func (SetAppID) Kind() string        { return KindSetAppID }
func (Move) Kind() string            { return KindMove }
func (Resize) Kind() string          { return KindResize }
func (SetMaximized) Kind() string    { return KindSetMaximized }
func (UnsetMaximized) Kind() string  { return KindUnsetMaximized }
func (SetFullscreen) Kind() string   { return KindSetFullscreen }
func (UnsetFullscreen) Kind() string { return KindUnsetFullscreen }
func (DeviceAdded) Kind() string     { return KindDeviceAdded }
func (DeviceRemoved) Kind() string   { return KindDeviceRemoved }
func (Keyboard) Kind() string        { return KindKeyboard }
func (PointerMotion) Kind() string   { return KindPointerMotion }
func (PointerButton) Kind() string   { return KindPointerButton }
func (PointerAxis) Kind() string     { return KindPointerAxis }
func (Touch) Kind() string           { return KindTouch }
func (Tablet) Kind() string          { return KindTablet }
func (FrontendGone) Kind() string    { return "frontend_gone" }
