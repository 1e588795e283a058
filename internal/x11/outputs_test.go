package x11

import (
	"testing"

	"github.com/BurntSushi/xgb/randr"
)

func TestRefreshMilliHz(t *testing.T) {
	// 1920x1080@60 CEA timing: 148.5 MHz, 2200x1125 total.
	mode := randr.ModeInfo{DotClock: 148500000, Htotal: 2200, Vtotal: 1125}
	if got := RefreshMilliHz(mode); got != 60000 {
		t.Fatalf("RefreshMilliHz() = %d, want 60000", got)
	}
	if got := RefreshMilliHz(randr.ModeInfo{}); got != 0 {
		t.Fatalf("expected 0 for empty mode, got %d", got)
	}
}

func TestRotationIndex(t *testing.T) {
	tests := []struct {
		rotation uint16
		want     int
	}{
		{randr.RotationRotate0, 0},
		{randr.RotationRotate90, 1},
		{randr.RotationRotate270, 3},
		{randr.RotationRotate180 | randr.RotationReflectX, 6},
	}
	for _, tt := range tests {
		if got := RotationIndex(tt.rotation); got != tt.want {
			t.Fatalf("RotationIndex(%d) = %d, want %d", tt.rotation, got, tt.want)
		}
	}
}
