package policy

import (
	"testing"

	"github.com/1broseidon/wayshell/internal/codec"
	"github.com/1broseidon/wayshell/internal/platform"
)

func platformID(n int) platform.SurfaceID {
	return platform.SurfaceID(n)
}

func TestEncodeDecodeCommand(t *testing.T) {
	env, err := Encode("id-1", PlaceWindow{Window: 7, Output: "OUT-1", X: 32, Y: 64})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if env.Kind != string(KindPlaceWindow) || env.ID != "id-1" {
		t.Fatalf("unexpected envelope header %q/%q", env.Kind, env.ID)
	}

	cmd, err := DecodeCommand(env)
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	place, ok := cmd.(PlaceWindow)
	if !ok {
		t.Fatalf("decoded %T, want PlaceWindow", cmd)
	}
	if place.Window != 7 || place.Output != "OUT-1" || place.X != 32 || place.Y != 64 {
		t.Fatalf("decoded %+v", place)
	}
}

func TestDecodeMessageCarriesArea(t *testing.T) {
	area := platform.Rect{X: 0, Y: 30, Width: 1920, Height: 1050}
	env, err := Encode("m", MaximizeRequest{Window: 3, Output: "OUT-1", Area: area})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	m, err := DecodeMessage(env)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if got := m.(MaximizeRequest).Area; got != area {
		t.Fatalf("area = %+v, want %+v", got, area)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	if _, err := DecodeCommand(codec.Envelope{Kind: "warp_pointer"}); err == nil {
		t.Fatalf("expected error for unknown command kind")
	}
	// Messages are compositor-to-engine only.
	env, _ := Encode("x", MoveRequest{Window: 1})
	if _, err := DecodeCommand(env); err == nil {
		t.Fatalf("move_request must not decode as a command")
	}
}

func TestInteractive(t *testing.T) {
	if !Interactive(MaximizeRequest{}) || !Interactive(MoveRequest{}) {
		t.Fatalf("maximize and move are interactive")
	}
	if Interactive(WindowMapped{}) || Interactive(Ping{}) {
		t.Fatalf("notifications are not interactive")
	}
}
