package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/1broseidon/wayshell/internal/ipc"
	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/policy"
	"github.com/1broseidon/wayshell/internal/reactor"
	"github.com/1broseidon/wayshell/internal/shell"
)

// control answers IPC commands by running them on the event loop.
type control struct {
	d *Daemon
}

var _ ipc.Handler = (*control)(nil)

func (c *control) Status(ctx context.Context) (ipc.StatusData, error) {
	d := c.d
	return reactor.Call(ctx, d.loop, func() (ipc.StatusData, error) {
		status := ipc.StatusData{
			UptimeSeconds:     int64(time.Since(d.started).Seconds()),
			Backend:           string(d.cfg.Backend),
			Workspace:         d.shell.ActiveWorkspace().Index(),
			Outputs:           len(d.shell.Outputs()),
			Windows:           len(d.shell.Registry().Windows()),
			Clients:           len(d.shell.Registry().Clients()),
			EngineConnected:   d.bridge.Connected(),
			FrontendConnected: d.proto.Attached(),
			QueuedMessages:    d.bridge.Len(),
			HeartbeatRTTMs:    float64(d.heartbeat.RTT().Microseconds()) / 1000,
		}
		for _, st := range d.shell.Seats() {
			status.Seats = append(status.Seats, st.Name())
		}
		return status, nil
	})
}

func (c *control) Outputs(ctx context.Context) (ipc.OutputsData, error) {
	d := c.d
	return reactor.Call(ctx, d.loop, func() (ipc.OutputsData, error) {
		stats := make(map[string]int)
		all := d.sched.Stats()
		for i, st := range all {
			stats[st.Output] = i
		}

		data := ipc.OutputsData{Outputs: []ipc.OutputInfo{}}
		for _, sum := range d.shell.ListOutputs() {
			info := ipc.OutputInfo{
				Name:       sum.Info.Name,
				Make:       sum.Info.Make,
				Model:      sum.Info.Model,
				X:          sum.Logical.X,
				Y:          sum.Logical.Y,
				Width:      sum.Logical.Width,
				Height:     sum.Logical.Height,
				ModeWidth:  sum.Info.Mode.Width,
				ModeHeight: sum.Info.Mode.Height,
				RefreshMHz: sum.Info.Mode.Refresh,
				Scale:      sum.Info.Scale,
				Transform:  sum.Info.Transform.String(),
				UsableX:    sum.Usable.X,
				UsableY:    sum.Usable.Y,
				UsableW:    sum.Usable.Width,
				UsableH:    sum.Usable.Height,
				Fullscreen: uint64(sum.Fullscreen),
				Layers:     sum.Layers,
			}
			if i, ok := stats[sum.Info.Name]; ok {
				info.Rendered = all[i].Rendered
				info.Skipped = all[i].Skipped
			}
			data.Outputs = append(data.Outputs, info)
		}
		return data, nil
	})
}

func (c *control) Windows(ctx context.Context) (ipc.WindowsData, error) {
	return reactor.Call(ctx, c.d.loop, func() (ipc.WindowsData, error) {
		data := ipc.WindowsData{Windows: []ipc.WindowInfo{}}
		for _, w := range c.d.shell.ListWindows() {
			data.Windows = append(data.Windows, windowInfo(w))
		}
		return data, nil
	})
}

func windowInfo(w shell.WindowInfo) ipc.WindowInfo {
	return ipc.WindowInfo{
		Surface:    uint64(w.Surface),
		Client:     uint64(w.Client),
		AppID:      w.AppID,
		Title:      w.Title,
		State:      w.State.String(),
		Workspace:  w.Workspace,
		Output:     w.Output,
		X:          w.Geometry.X,
		Y:          w.Geometry.Y,
		Width:      w.Geometry.Width,
		Height:     w.Geometry.Height,
		Activated:  w.Activated,
		Fullscreen: w.Fullscreen,
		Maximized:  w.Maximized,
		FocusedBy:  w.FocusedBy,
	}
}

// FocusWindow focuses on the named seat, or on every seat.
func (c *control) FocusWindow(ctx context.Context, req ipc.WindowPayload) error {
	d := c.d
	_, err := reactor.Call(ctx, d.loop, func() (struct{}, error) {
		var seats []string
		if req.Seat != "" {
			if d.shell.Seat(req.Seat) == nil {
				return struct{}{}, fmt.Errorf("unknown seat %q", req.Seat)
			}
			seats = []string{req.Seat}
		} else {
			for _, st := range d.shell.Seats() {
				seats = append(seats, st.Name())
			}
		}
		for _, seat := range seats {
			err := d.shell.ApplyCommand(policy.Incoming{Command: policy.FocusWindow{
				Window: platform.SurfaceID(req.Surface),
				Seat:   seat,
			}})
			if err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	return err
}

func (c *control) FullscreenWindow(ctx context.Context, req ipc.WindowPayload) error {
	d := c.d
	_, err := reactor.Call(ctx, d.loop, func() (struct{}, error) {
		if req.Output != "" && d.shell.Output(req.Output) == nil {
			return struct{}{}, fmt.Errorf("unknown output %q", req.Output)
		}
		err := d.shell.ApplyCommand(policy.Incoming{Command: policy.FullscreenWindow{
			Window: platform.SurfaceID(req.Surface),
			Output: req.Output,
		}})
		if err != nil {
			return struct{}{}, err
		}
		if !c.isFullscreen(platform.SurfaceID(req.Surface)) {
			return struct{}{}, fmt.Errorf("fullscreen refused for window %d", req.Surface)
		}
		return struct{}{}, nil
	})
	return err
}

func (c *control) UnfullscreenWindow(ctx context.Context, req ipc.WindowPayload) error {
	_, err := reactor.Call(ctx, c.d.loop, func() (struct{}, error) {
		return struct{}{}, c.d.shell.ApplyCommand(policy.Incoming{Command: policy.UnfullscreenWindow{
			Window: platform.SurfaceID(req.Surface),
		}})
	})
	return err
}

func (c *control) Reload(ctx context.Context) error {
	return c.d.reload()
}

func (c *control) isFullscreen(surface platform.SurfaceID) bool {
	for _, w := range c.d.shell.ListWindows() {
		if w.Surface == surface {
			return w.Fullscreen
		}
	}
	return false
}
