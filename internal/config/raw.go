package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawPolicy struct {
	Socket            *string        `yaml:"socket"`
	QueueSize         *int           `yaml:"queue_size"`
	Overflow          *string        `yaml:"overflow"`
	HeartbeatInterval *time.Duration `yaml:"heartbeat_interval"`
	CascadeStep       *int           `yaml:"cascade_step"`
}

type RawSocket struct {
	Socket *string `yaml:"socket"`
}

type RawRender struct {
	HardwareCursor *bool          `yaml:"hardware_cursor"`
	FrameInterval  *time.Duration `yaml:"frame_interval"`
}

// RawConfig is one config file as written: every field is optional so
// files can be layered. Lists replace; nested sections merge per key.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	Backend   *Backend       `yaml:"backend"`
	Display   *string        `yaml:"display"`
	Scale     *float64       `yaml:"scale"`
	LogLevel  *string        `yaml:"log_level"`
	LogFormat *string        `yaml:"log_format"`
	Seats     []string       `yaml:"seats"`
	Outputs   []OutputConfig `yaml:"outputs"`
	Policy    *RawPolicy     `yaml:"policy"`
	Protocol  *RawSocket     `yaml:"protocol"`
	IPC       *RawSocket     `yaml:"ipc"`
	Render    *RawRender     `yaml:"render"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Backend != nil {
		out.Backend = overlay.Backend
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.Scale != nil {
		out.Scale = overlay.Scale
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != nil {
		out.LogFormat = overlay.LogFormat
	}
	if overlay.Seats != nil {
		out.Seats = overlay.Seats
	}
	if overlay.Outputs != nil {
		out.Outputs = overlay.Outputs
	}
	if overlay.Policy != nil {
		if out.Policy == nil {
			out.Policy = &RawPolicy{}
		}
		merged := mergeRawPolicy(*out.Policy, *overlay.Policy)
		out.Policy = &merged
	}
	if overlay.Protocol != nil {
		out.Protocol = mergeRawSocket(out.Protocol, overlay.Protocol)
	}
	if overlay.IPC != nil {
		out.IPC = mergeRawSocket(out.IPC, overlay.IPC)
	}
	if overlay.Render != nil {
		if out.Render == nil {
			out.Render = &RawRender{}
		}
		merged := *out.Render
		if overlay.Render.HardwareCursor != nil {
			merged.HardwareCursor = overlay.Render.HardwareCursor
		}
		if overlay.Render.FrameInterval != nil {
			merged.FrameInterval = overlay.Render.FrameInterval
		}
		out.Render = &merged
	}
	return out
}

func mergeRawPolicy(base RawPolicy, overlay RawPolicy) RawPolicy {
	out := base
	if overlay.Socket != nil {
		out.Socket = overlay.Socket
	}
	if overlay.QueueSize != nil {
		out.QueueSize = overlay.QueueSize
	}
	if overlay.Overflow != nil {
		out.Overflow = overlay.Overflow
	}
	if overlay.HeartbeatInterval != nil {
		out.HeartbeatInterval = overlay.HeartbeatInterval
	}
	if overlay.CascadeStep != nil {
		out.CascadeStep = overlay.CascadeStep
	}
	return out
}

func mergeRawSocket(base *RawSocket, overlay *RawSocket) *RawSocket {
	if base == nil {
		cp := *overlay
		return &cp
	}
	out := *base
	if overlay.Socket != nil {
		out.Socket = overlay.Socket
	}
	return &out
}
