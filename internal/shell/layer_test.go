package shell

import (
	"errors"
	"testing"

	"github.com/1broseidon/wayshell/internal/platform"
)

func TestLayerGeometry(t *testing.T) {
	bounds := platform.Rect{Width: 1000, Height: 800}
	tests := []struct {
		name  string
		state LayerState
		want  platform.Rect
	}{
		{
			name:  "top bar stretches",
			state: LayerState{Anchor: platform.EdgeTop | platform.EdgeLeft | platform.EdgeRight, Size: platform.Size{Height: 30}},
			want:  platform.Rect{X: 0, Y: 0, Width: 1000, Height: 30},
		},
		{
			name: "bottom right with margins",
			state: LayerState{
				Anchor: platform.EdgeBottom | platform.EdgeRight,
				Size:   platform.Size{Width: 200, Height: 100},
				Margin: Margins{Bottom: 10, Right: 20},
			},
			want: platform.Rect{X: 780, Y: 690, Width: 200, Height: 100},
		},
		{
			name:  "unanchored is centered",
			state: LayerState{Size: platform.Size{Width: 400, Height: 200}},
			want:  platform.Rect{X: 300, Y: 300, Width: 400, Height: 200},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := layerGeometry(bounds, tt.state); got != tt.want {
				t.Fatalf("layerGeometry() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExclusiveEdge(t *testing.T) {
	tests := []struct {
		anchor platform.Edges
		want   platform.Edges
	}{
		{platform.EdgeTop, platform.EdgeTop},
		{platform.EdgeTop | platform.EdgeLeft | platform.EdgeRight, platform.EdgeTop},
		{platform.EdgeLeft | platform.EdgeTop | platform.EdgeBottom, platform.EdgeLeft},
		{platform.EdgeTop | platform.EdgeLeft, platform.EdgeNone},
		{platform.EdgeTop | platform.EdgeBottom | platform.EdgeLeft | platform.EdgeRight, platform.EdgeNone},
	}
	for _, tt := range tests {
		if got := exclusiveEdge(tt.anchor); got != tt.want {
			t.Fatalf("exclusiveEdge(%s) = %s, want %s", tt.anchor, got, tt.want)
		}
	}
}

func TestLayerMapAndFocus(t *testing.T) {
	s, proto, _ := newTestShell(t)

	if err := s.NewLayerSurface(2, 20, "", LayerTop, "panel"); err != nil {
		t.Fatalf("NewLayerSurface: %v", err)
	}
	panel := &LayerState{
		Layer:                 LayerTop,
		Anchor:                platform.EdgeTop | platform.EdgeLeft | platform.EdgeRight,
		ExclusiveZone:         30,
		Size:                  platform.Size{Height: 30},
		KeyboardInteractivity: KeyboardExclusive,
	}
	if err := s.Commit(Commit{Surface: 20, Layer: panel}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(proto.layers) != 1 || proto.layers[0].size != (platform.Size{Width: 1920, Height: 30}) {
		t.Fatalf("initial layer configure = %+v", proto.layers)
	}
	if s.Seat("seat0").KeyboardFocus() != 0 {
		t.Fatalf("layer took focus before mapping")
	}

	if err := s.Commit(Commit{Surface: 20, Buffer: true}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(proto.layers) != 1 {
		t.Fatalf("mapping with unchanged size must not configure again: %+v", proto.layers)
	}
	if got := s.Seat("seat0").KeyboardFocus(); got != 20 {
		t.Fatalf("keyboard focus = %d, want the panel", got)
	}
	zone := s.Output("OUT-1").Layers().NonExclusiveZone()
	if zone != (platform.Rect{Y: 30, Width: 1920, Height: 1050}) {
		t.Fatalf("usable zone = %+v", zone)
	}
}

func TestBackgroundLayerDoesNotTakeFocus(t *testing.T) {
	s, _, _ := newTestShell(t)
	if err := s.NewLayerSurface(2, 20, "OUT-1", LayerBackground, "wallpaper"); err != nil {
		t.Fatalf("NewLayerSurface: %v", err)
	}
	bg := &LayerState{
		Layer:                 LayerBackground,
		Anchor:                platform.EdgeTop | platform.EdgeBottom | platform.EdgeLeft | platform.EdgeRight,
		ExclusiveZone:         -1,
		KeyboardInteractivity: KeyboardOnDemand,
	}
	if err := s.Commit(Commit{Surface: 20, Layer: bg}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := s.Commit(Commit{Surface: 20, Buffer: true}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := s.Seat("seat0").KeyboardFocus(); got != 0 {
		t.Fatalf("background layer took keyboard focus")
	}
	if n := len(s.Output("OUT-1").Layers().LayersOn(LayerBackground)); n != 1 {
		t.Fatalf("background layer not mapped")
	}
}

func TestLayerInvalidSizeIsProtocolError(t *testing.T) {
	s, proto, _ := newTestShell(t)
	if err := s.NewLayerSurface(3, 30, "", LayerTop, "bad"); err != nil {
		t.Fatalf("NewLayerSurface: %v", err)
	}
	err := s.Commit(Commit{Surface: 30, Layer: &LayerState{
		Layer:  LayerTop,
		Anchor: platform.EdgeLeft,
		Size:   platform.Size{Height: 30},
	}})
	var perr *ProtocolError
	if !errors.As(err, &perr) || perr.Code != ErrInvalidSize {
		t.Fatalf("expected invalid size error, got %v", err)
	}
	if len(proto.errors) != 1 || proto.errors[0].surface != 30 {
		t.Fatalf("error not posted: %+v", proto.errors)
	}
	if s.Registry().Get(30) != nil {
		t.Fatalf("offending surface not destroyed")
	}
}

func TestDestroyedLayerCleanedOnRefresh(t *testing.T) {
	s, _, _ := newTestShell(t)
	if err := s.NewLayerSurface(2, 20, "", LayerTop, "panel"); err != nil {
		t.Fatalf("NewLayerSurface: %v", err)
	}
	st := &LayerState{
		Layer:         LayerTop,
		Anchor:        platform.EdgeTop | platform.EdgeLeft | platform.EdgeRight,
		ExclusiveZone: 30,
		Size:          platform.Size{Height: 30},
	}
	_ = s.Commit(Commit{Surface: 20, Layer: st})
	_ = s.Commit(Commit{Surface: 20, Buffer: true})

	s.Destroy(20)
	s.Refresh()

	layers := s.Output("OUT-1").Layers()
	if len(layers.Layers()) != 0 {
		t.Fatalf("dead layer still mapped")
	}
	if zone := layers.NonExclusiveZone(); zone != (platform.Rect{Width: 1920, Height: 1080}) {
		t.Fatalf("exclusive zone not released: %+v", zone)
	}
}

func TestLayerClosedWhenOutputGoneBeforeMap(t *testing.T) {
	s, proto, _ := newTestShell(t)
	if err := s.NewLayerSurface(2, 20, "OUT-1", LayerTop, "panel"); err != nil {
		t.Fatalf("NewLayerSurface: %v", err)
	}
	panel := &LayerState{
		Layer:  LayerTop,
		Anchor: platform.EdgeTop | platform.EdgeLeft | platform.EdgeRight,
		Size:   platform.Size{Height: 30},
	}
	if err := s.Commit(Commit{Surface: 20, Layer: panel}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	s.RemoveOutput("OUT-1")
	if err := s.Commit(Commit{Surface: 20, Buffer: true}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if len(proto.closedLayers) != 1 || proto.closedLayers[0] != 20 {
		t.Fatalf("closed layers = %v, want [20]", proto.closedLayers)
	}
	if got := s.Registry().Get(20).State; got == StateMapped {
		t.Fatalf("layer without an output must not be mapped")
	}
}
