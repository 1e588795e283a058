package protocol

import "github.com/1broseidon/wayshell/internal/platform"

// Request is a shell request for the front-end to send to a client.
type Request interface {
	Kind() string
}

const (
	KindConfigureToplevel = "configure_toplevel"
	KindConfigureLayer    = "configure_layer"
	KindConfigurePopup    = "configure_popup"
	KindPopupDone         = "popup_done"
	KindCloseToplevel     = "close_toplevel"
	KindCloseLayer        = "close_layer"
	KindProtocolError     = "protocol_error"
)

type ConfigureToplevel struct {
	Surface    platform.SurfaceID `cbor:"surface"`
	Serial     platform.Serial    `cbor:"serial"`
	Width      int                `cbor:"width"`
	Height     int                `cbor:"height"`
	Activated  bool               `cbor:"activated"`
	Fullscreen bool               `cbor:"fullscreen"`
	Maximized  bool               `cbor:"maximized"`
}

type ConfigureLayer struct {
	Surface platform.SurfaceID `cbor:"surface"`
	Serial  platform.Serial    `cbor:"serial"`
	Width   int                `cbor:"width"`
	Height  int                `cbor:"height"`
}

// ConfigurePopup geometry is relative to the parent surface.
type ConfigurePopup struct {
	Surface platform.SurfaceID `cbor:"surface"`
	Serial  platform.Serial    `cbor:"serial"`
	X       int                `cbor:"x"`
	Y       int                `cbor:"y"`
	Width   int                `cbor:"width"`
	Height  int                `cbor:"height"`
}

type PopupDone struct {
	Surface platform.SurfaceID `cbor:"surface"`
}

type CloseToplevel struct {
	Surface platform.SurfaceID `cbor:"surface"`
}

type CloseLayer struct {
	Surface platform.SurfaceID `cbor:"surface"`
}

// ProtocolError asks the front-end to post an error and disconnect the
// client.
type ProtocolError struct {
	Client  platform.ClientID  `cbor:"client"`
	Surface platform.SurfaceID `cbor:"surface"`
	Code    int                `cbor:"code"`
	Name    string             `cbor:"name"`
	Message string             `cbor:"message"`
}

func (ConfigureToplevel) Kind() string { return KindConfigureToplevel }
func (ConfigureLayer) Kind() string    { return KindConfigureLayer }
func (ConfigurePopup) Kind() string    { return KindConfigurePopup }
func (PopupDone) Kind() string         { return KindPopupDone }
func (CloseToplevel) Kind() string     { return KindCloseToplevel }
func (CloseLayer) Kind() string        { return KindCloseLayer }
func (ProtocolError) Kind() string     { return KindProtocolError }
