package policy

import (
	"fmt"

	"github.com/1broseidon/wayshell/internal/codec"
)

var messageKinds = map[Kind]func() Message{
	KindPing:                func() Message { return &Ping{} },
	KindPong:                func() Message { return &Pong{} },
	KindMoveRequest:         func() Message { return &MoveRequest{} },
	KindResizeRequest:       func() Message { return &ResizeRequest{} },
	KindMaximizeRequest:     func() Message { return &MaximizeRequest{} },
	KindUnmaximizeRequest:   func() Message { return &UnmaximizeRequest{} },
	KindUnfullscreenRequest: func() Message { return &UnfullscreenRequest{} },
	KindWindowMapped:        func() Message { return &WindowMapped{} },
	KindWindowClosed:        func() Message { return &WindowClosed{} },
}

var commandKinds = map[Kind]func() Command{
	KindPing:               func() Command { return &Ping{} },
	KindPong:               func() Command { return &Pong{} },
	KindPlaceWindow:        func() Command { return &PlaceWindow{} },
	KindConfigureWindow:    func() Command { return &ConfigureWindow{} },
	KindFocusWindow:        func() Command { return &FocusWindow{} },
	KindFullscreenWindow:   func() Command { return &FullscreenWindow{} },
	KindUnfullscreenWindow: func() Command { return &UnfullscreenWindow{} },
	KindCloseWindow:        func() Command { return &CloseWindow{} },
}

// Encode wraps a message or command in a wire envelope.
func Encode(id string, v interface{ Kind() Kind }) (codec.Envelope, error) {
	return codec.Seal(string(v.Kind()), id, v)
}

// DecodeMessage decodes a compositor-to-engine envelope.
func DecodeMessage(env codec.Envelope) (Message, error) {
	ctor, ok := messageKinds[Kind(env.Kind)]
	if !ok {
		return nil, fmt.Errorf("unknown message kind %q", env.Kind)
	}
	ptr := ctor()
	if err := env.Open(ptr); err != nil {
		return nil, err
	}
	return deref(ptr).(Message), nil
}

// DecodeCommand decodes an engine-to-compositor envelope.
func DecodeCommand(env codec.Envelope) (Command, error) {
	ctor, ok := commandKinds[Kind(env.Kind)]
	if !ok {
		return nil, fmt.Errorf("unknown command kind %q", env.Kind)
	}
	ptr := ctor()
	if err := env.Open(ptr); err != nil {
		return nil, err
	}
	return deref(ptr).(Command), nil
}

// deref returns the value behind a decoded pointer so callers can
// type-switch on value types.
func deref(v any) any {
	switch p := v.(type) {
	case *Ping:
		return *p
	case *Pong:
		return *p
	case *MoveRequest:
		return *p
	case *ResizeRequest:
		return *p
	case *MaximizeRequest:
		return *p
	case *UnmaximizeRequest:
		return *p
	case *UnfullscreenRequest:
		return *p
	case *WindowMapped:
		return *p
	case *WindowClosed:
		return *p
	case *PlaceWindow:
		return *p
	case *ConfigureWindow:
		return *p
	case *FocusWindow:
		return *p
	case *FullscreenWindow:
		return *p
	case *UnfullscreenWindow:
		return *p
	case *CloseWindow:
		return *p
	}
	return v
}
