package shell

import (
	"fmt"

	"github.com/1broseidon/wayshell/internal/platform"
)

// ToplevelState is the state carried by a toplevel configure. A zero
// Size lets the client choose its own dimensions.
type ToplevelState struct {
	Activated  bool
	Fullscreen bool
	Maximized  bool
	Size       platform.Size
}

// Protocol is the outbound side of the protocol front-end. Calls are
// buffered by the implementation and flushed once per loop tick.
type Protocol interface {
	ConfigureToplevel(surface platform.SurfaceID, state ToplevelState) platform.Serial
	ConfigureLayer(surface platform.SurfaceID, size platform.Size) platform.Serial
	ConfigurePopup(surface platform.SurfaceID, geometry platform.Rect) platform.Serial
	PopupDone(surface platform.SurfaceID)
	CloseToplevel(surface platform.SurfaceID)
	CloseLayer(surface platform.SurfaceID)
	PostError(client platform.ClientID, surface platform.SurfaceID, code ErrorCode, message string)
}

// ErrorCode identifies a protocol-sequencing violation.
type ErrorCode int

const (
	ErrRole ErrorCode = iota + 1
	ErrDefunctSurface
	ErrInvalidPopupParent
	ErrInvalidGrab
	ErrNotTopmostPopup
	ErrInvalidLayer
	ErrInvalidSize
)

func (c ErrorCode) String() string {
	switch c {
	case ErrRole:
		return "role"
	case ErrDefunctSurface:
		return "defunct_surface"
	case ErrInvalidPopupParent:
		return "invalid_popup_parent"
	case ErrInvalidGrab:
		return "invalid_grab"
	case ErrNotTopmostPopup:
		return "not_the_topmost_popup"
	case ErrInvalidLayer:
		return "invalid_layer"
	case ErrInvalidSize:
		return "invalid_size"
	}
	return fmt.Sprintf("error_%d", int(c))
}

// ProtocolError is a per-client protocol fault. The offending client is
// disconnected; other clients are unaffected.
type ProtocolError struct {
	Client  platform.ClientID
	Surface platform.SurfaceID
	Code    ErrorCode
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error %s on surface %d: %s", e.Code, e.Surface, e.Message)
}

func protocolErrorf(client platform.ClientID, surface platform.SurfaceID, code ErrorCode, format string, args ...any) *ProtocolError {
	return &ProtocolError{Client: client, Surface: surface, Code: code, Message: fmt.Sprintf(format, args...)}
}
