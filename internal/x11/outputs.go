package x11

import (
	"context"
	"fmt"

	"github.com/BurntSushi/xgb/randr"
)

// Output is an active RandR CRTC with its first connected output.
type Output struct {
	Name     string
	X        int
	Y        int
	Width    int
	Height   int
	Refresh  int // mHz
	Rotation uint16
	MmWidth  int
	MmHeight int
}

// GetOutputs retrieves all active outputs using XRandR
func (c *Connection) GetOutputs() ([]Output, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	modes := make(map[uint32]randr.ModeInfo, len(resources.Modes))
	for _, m := range resources.Modes {
		modes[m.Id] = m
	}

	var outputs []Output
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		out := Output{
			Name:     fmt.Sprintf("X11-%d", i),
			X:        int(crtcInfo.X),
			Y:        int(crtcInfo.Y),
			Width:    int(crtcInfo.Width),
			Height:   int(crtcInfo.Height),
			Rotation: crtcInfo.Rotation,
		}
		if mode, ok := modes[uint32(crtcInfo.Mode)]; ok {
			out.Refresh = RefreshMilliHz(mode)
		}

		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			out.Name = string(outputInfo.Name)
			out.MmWidth = int(outputInfo.MmWidth)
			out.MmHeight = int(outputInfo.MmHeight)
		}

		outputs = append(outputs, out)
	}

	return outputs, nil
}

// RefreshMilliHz computes a mode's refresh rate in mHz from its dot clock.
func RefreshMilliHz(mode randr.ModeInfo) int {
	total := uint64(mode.Htotal) * uint64(mode.Vtotal)
	if total == 0 {
		return 0
	}
	return int((uint64(mode.DotClock)*1000 + total/2) / total)
}

// WatchScreenChanges subscribes to RandR notifications and calls changed
// for each one until ctx is done or the connection fails. The connection
// is closed when ctx is done to unblock the event read.
func (c *Connection) WatchScreenChanges(ctx context.Context, changed func()) error {
	conn := c.XUtil.Conn()
	if err := randr.Init(conn); err != nil {
		return fmt.Errorf("randr init failed: %w", err)
	}
	mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskCrtcChange | randr.NotifyMaskOutputChange)
	if err := randr.SelectInputChecked(conn, c.Root, mask).Check(); err != nil {
		return fmt.Errorf("randr select input: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		ev, xerr := conn.WaitForEvent()
		if ev == nil && xerr == nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("x11 connection closed")
		}
		if xerr != nil {
			continue
		}
		switch ev.(type) {
		case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
			changed()
		}
	}
}

// rotation bits reported by RandR
const (
	rotate0   = randr.RotationRotate0
	rotate90  = randr.RotationRotate90
	rotate180 = randr.RotationRotate180
	rotate270 = randr.RotationRotate270
	reflectX  = randr.RotationReflectX
)

// RotationIndex maps a RandR rotation mask to a transform index in the
// order normal, 90, 180, 270, flipped, flipped-90, flipped-180, flipped-270.
func RotationIndex(rotation uint16) int {
	idx := 0
	switch {
	case rotation&rotate90 != 0:
		idx = 1
	case rotation&rotate180 != 0:
		idx = 2
	case rotation&rotate270 != 0:
		idx = 3
	case rotation&rotate0 != 0:
		idx = 0
	}
	if rotation&reflectX != 0 {
		idx += 4
	}
	return idx
}
