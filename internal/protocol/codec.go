package protocol

import (
	"fmt"
	"reflect"

	"github.com/1broseidon/wayshell/internal/codec"
)

var eventKinds = map[string]func() any{
	KindNewToplevel:     func() any { return &NewToplevel{} },
	KindNewLayerSurface: func() any { return &NewLayerSurface{} },
	KindNewPopup:        func() any { return &NewPopup{} },
	KindCommit:          func() any { return &Commit{} },
	KindGrab:            func() any { return &Grab{} },
	KindDestroy:         func() any { return &Destroy{} },
	KindClientGone:      func() any { return &ClientGone{} },
	KindSetTitle:        func() any { return &SetTitle{} },
	KindSetAppID:        func() any { return &SetAppID{} },
	KindMove:            func() any { return &Move{} },
	KindResize:          func() any { return &Resize{} },
	KindSetMaximized:    func() any { return &SetMaximized{} },
	KindUnsetMaximized:  func() any { return &UnsetMaximized{} },
	KindSetFullscreen:   func() any { return &SetFullscreen{} },
	KindUnsetFullscreen: func() any { return &UnsetFullscreen{} },
	KindDeviceAdded:     func() any { return &DeviceAdded{} },
	KindDeviceRemoved:   func() any { return &DeviceRemoved{} },
	KindKeyboard:        func() any { return &Keyboard{} },
	KindPointerMotion:   func() any { return &PointerMotion{} },
	KindPointerButton:   func() any { return &PointerButton{} },
	KindPointerAxis:     func() any { return &PointerAxis{} },
	KindTouch:           func() any { return &Touch{} },
	KindTablet:          func() any { return &Tablet{} },
}

var requestKinds = map[string]func() any{
	KindConfigureToplevel: func() any { return &ConfigureToplevel{} },
	KindConfigureLayer:    func() any { return &ConfigureLayer{} },
	KindConfigurePopup:    func() any { return &ConfigurePopup{} },
	KindPopupDone:         func() any { return &PopupDone{} },
	KindCloseToplevel:     func() any { return &CloseToplevel{} },
	KindCloseLayer:        func() any { return &CloseLayer{} },
	KindProtocolError:     func() any { return &ProtocolError{} },
}

// Encode wraps an event or request in an envelope.
func Encode(v interface{ Kind() string }) (codec.Envelope, error) {
	return codec.Seal(v.Kind(), "", v)
}

// DecodeEvent decodes a front-end event.
func DecodeEvent(env codec.Envelope) (Event, error) {
	v, err := decode(eventKinds, env)
	if err != nil {
		return nil, err
	}
	return v.(Event), nil
}

// DecodeRequest decodes a shell request. Front-ends and tests use it.
func DecodeRequest(env codec.Envelope) (Request, error) {
	v, err := decode(requestKinds, env)
	if err != nil {
		return nil, err
	}
	return v.(Request), nil
}

func decode(kinds map[string]func() any, env codec.Envelope) (any, error) {
	ctor, ok := kinds[env.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", env.Kind)
	}
	ptr := ctor()
	if err := env.Open(ptr); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
	}
	return reflect.ValueOf(ptr).Elem().Interface(), nil
}
