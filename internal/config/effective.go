package config

import "fmt"

// ValidationError locates a config problem by its YAML path and, when
// known, the file position that set it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig applies a merged raw config on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Backend != nil {
		cfg.Backend = *raw.Backend
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.Scale != nil {
		cfg.Scale = *raw.Scale
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.LogFormat != nil {
		cfg.LogFormat = *raw.LogFormat
	}
	if raw.Seats != nil {
		cfg.Seats = append([]string(nil), raw.Seats...)
	}
	if raw.Outputs != nil {
		cfg.Outputs = append([]OutputConfig(nil), raw.Outputs...)
	} else if cfg.Backend == BackendX11 {
		// RandR supplies the outputs.
		cfg.Outputs = nil
	}

	if p := raw.Policy; p != nil {
		if p.Socket != nil {
			cfg.Policy.Socket = *p.Socket
		}
		if p.QueueSize != nil {
			cfg.Policy.QueueSize = *p.QueueSize
		}
		if p.Overflow != nil {
			cfg.Policy.Overflow = *p.Overflow
		}
		if p.HeartbeatInterval != nil {
			cfg.Policy.HeartbeatInterval = *p.HeartbeatInterval
		}
		if p.CascadeStep != nil {
			cfg.Policy.CascadeStep = *p.CascadeStep
		}
	}
	if raw.Protocol != nil && raw.Protocol.Socket != nil {
		cfg.Protocol.Socket = *raw.Protocol.Socket
	}
	if raw.IPC != nil && raw.IPC.Socket != nil {
		cfg.IPC.Socket = *raw.IPC.Socket
	}
	if r := raw.Render; r != nil {
		if r.HardwareCursor != nil {
			cfg.Render.HardwareCursor = *r.HardwareCursor
		}
		if r.FrameInterval != nil {
			cfg.Render.FrameInterval = *r.FrameInterval
		}
	}

	return cfg, nil
}
