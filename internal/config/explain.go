package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	backend
//	display
//	scale
//	log_level
//	log_format
//	seats
//	outputs.<index>.<field>
//	policy.queue_size
//	policy.overflow
//	policy.heartbeat_interval
//	render.frame_interval
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	unknown := fmt.Errorf("unknown path: %s", path)

	leaf := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, unknown
		}
		return v, nil
	}

	switch parts[0] {
	case "backend":
		return leaf(cfg.Backend)
	case "display":
		return leaf(cfg.Display)
	case "scale":
		return leaf(cfg.Scale)
	case "log_level":
		return leaf(cfg.LogLevel)
	case "log_format":
		return leaf(cfg.LogFormat)
	case "seats":
		if len(parts) == 1 {
			return cfg.Seats, nil
		}
		i, err := index(parts[1], len(cfg.Seats))
		if err != nil || len(parts) != 2 {
			return nil, unknown
		}
		return cfg.Seats[i], nil
	case "outputs":
		if len(parts) == 1 {
			return cfg.Outputs, nil
		}
		i, err := index(parts[1], len(cfg.Outputs))
		if err != nil {
			return nil, fmt.Errorf("unknown output %q", parts[1])
		}
		o := cfg.Outputs[i]
		if len(parts) == 2 {
			return o, nil
		}
		if len(parts) != 3 {
			return nil, unknown
		}
		switch parts[2] {
		case "name":
			return o.Name, nil
		case "width":
			return o.Width, nil
		case "height":
			return o.Height, nil
		case "refresh":
			return o.Refresh, nil
		case "scale":
			return o.Scale, nil
		case "transform":
			return o.Transform, nil
		case "x":
			return o.X, nil
		case "y":
			return o.Y, nil
		}
		return nil, unknown
	case "policy":
		if len(parts) == 1 {
			return cfg.Policy, nil
		}
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "socket":
			return cfg.Policy.Socket, nil
		case "queue_size":
			return cfg.Policy.QueueSize, nil
		case "overflow":
			return cfg.Policy.Overflow, nil
		case "heartbeat_interval":
			return cfg.Policy.HeartbeatInterval, nil
		case "cascade_step":
			return cfg.Policy.CascadeStep, nil
		}
		return nil, unknown
	case "protocol", "ipc":
		socket := cfg.Protocol.Socket
		if parts[0] == "ipc" {
			socket = cfg.IPC.Socket
		}
		if len(parts) == 2 && parts[1] == "socket" {
			return socket, nil
		}
		return nil, unknown
	case "render":
		if len(parts) == 1 {
			return cfg.Render, nil
		}
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "hardware_cursor":
			return cfg.Render.HardwareCursor, nil
		case "frame_interval":
			return cfg.Render.FrameInterval, nil
		}
		return nil, unknown
	}
	return nil, unknown
}

func index(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %d out of range", i)
	}
	return i, nil
}
