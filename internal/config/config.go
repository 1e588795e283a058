package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/policy"
)

// Backend selects where outputs come from.
type Backend string

const (
	BackendHeadless Backend = "headless" // Outputs listed in the config.
	BackendX11      Backend = "x11"      // Nested under an X server, outputs from RandR.
)

// OutputConfig describes a headless output.
type OutputConfig struct {
	Name      string  `yaml:"name"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	Refresh   float64 `yaml:"refresh"` // Hz
	Scale     float64 `yaml:"scale"`
	Transform string  `yaml:"transform,omitempty"`
	X         int     `yaml:"x"`
	Y         int     `yaml:"y"`
}

// Info converts the entry into backend output info.
func (o OutputConfig) Info() (platform.OutputInfo, error) {
	transform, err := platform.ParseTransform(o.Transform)
	if err != nil {
		return platform.OutputInfo{}, err
	}
	scale := o.Scale
	if scale == 0 {
		scale = 1
	}
	return platform.OutputInfo{
		Name:      o.Name,
		Make:      "headless",
		Model:     fmt.Sprintf("%dx%d", o.Width, o.Height),
		Mode:      platform.Mode{Width: o.Width, Height: o.Height, Refresh: int(o.Refresh*1000 + 0.5)},
		Scale:     scale,
		Transform: transform,
		Position:  platform.Point{X: o.X, Y: o.Y},
	}, nil
}

// PolicyConfig configures the policy engine channel.
type PolicyConfig struct {
	// Socket overrides $XDG_RUNTIME_DIR/wayshell-policy.sock.
	Socket string `yaml:"socket,omitempty"`
	// QueueSize bounds the outbound message queue.
	QueueSize int `yaml:"queue_size"`
	// Overflow is "reject" or "drop-oldest".
	Overflow string `yaml:"overflow"`
	// HeartbeatInterval paces liveness pings; 0 disables them.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	// CascadeStep is the reference engine's placement offset.
	CascadeStep int `yaml:"cascade_step"`
}

type ProtocolConfig struct {
	Socket string `yaml:"socket,omitempty"`
}

type IPCConfig struct {
	Socket string `yaml:"socket,omitempty"`
}

type RenderConfig struct {
	HardwareCursor bool `yaml:"hardware_cursor"`
	// FrameInterval overrides the refresh-derived frame pacing.
	FrameInterval time.Duration `yaml:"frame_interval"`
}

// Config is the effective daemon configuration.
type Config struct {
	Backend   Backend        `yaml:"backend"`
	Display   string         `yaml:"display,omitempty"`
	Scale     float64        `yaml:"scale"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"`
	Seats     []string       `yaml:"seats"`
	Outputs   []OutputConfig `yaml:"outputs"`
	Policy    PolicyConfig   `yaml:"policy"`
	Protocol  ProtocolConfig `yaml:"protocol"`
	IPC       IPCConfig      `yaml:"ipc"`
	Render    RenderConfig   `yaml:"render"`
}

// DefaultConfig returns the built-in defaults: one headless 1080p output
// and a single seat.
func DefaultConfig() *Config {
	return &Config{
		Backend:   BackendHeadless,
		Scale:     1,
		LogLevel:  "info",
		LogFormat: "auto",
		Seats:     []string{"seat0"},
		Outputs: []OutputConfig{{
			Name:    "HEADLESS-1",
			Width:   1920,
			Height:  1080,
			Refresh: 60,
			Scale:   1,
		}},
		Policy: PolicyConfig{
			QueueSize:         policy.DefaultQueueSize,
			Overflow:          string(policy.OverflowReject),
			HeartbeatInterval: 5 * time.Second,
			CascadeStep:       policy.DefaultCascadeStep,
		},
	}
}

// OutputInfos converts the headless output list.
func (c *Config) OutputInfos() ([]platform.OutputInfo, error) {
	infos := make([]platform.OutputInfo, 0, len(c.Outputs))
	for i, o := range c.Outputs {
		info, err := o.Info()
		if err != nil {
			return nil, &ValidationError{Path: fmt.Sprintf("outputs.%d.transform", i), Err: err}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendHeadless, BackendX11:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: headless, x11")}
	}
	if c.Scale <= 0 {
		return &ValidationError{Path: "scale", Err: fmt.Errorf("scale must be > 0")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	switch c.LogFormat {
	case "auto", "text", "json":
	default:
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: auto, text, json")}
	}

	if len(c.Seats) == 0 {
		return &ValidationError{Path: "seats", Err: fmt.Errorf("seats must not be empty")}
	}
	seenSeats := make(map[string]struct{}, len(c.Seats))
	for _, seat := range c.Seats {
		if strings.TrimSpace(seat) == "" {
			return &ValidationError{Path: "seats", Err: fmt.Errorf("seats contains an empty name")}
		}
		if _, dup := seenSeats[seat]; dup {
			return &ValidationError{Path: "seats", Err: fmt.Errorf("duplicate seat %q", seat)}
		}
		seenSeats[seat] = struct{}{}
	}

	if c.Backend == BackendHeadless && len(c.Outputs) == 0 {
		return &ValidationError{Path: "outputs", Err: fmt.Errorf("headless backend needs at least one output")}
	}
	seenOutputs := make(map[string]struct{}, len(c.Outputs))
	for i, o := range c.Outputs {
		path := fmt.Sprintf("outputs.%d", i)
		if strings.TrimSpace(o.Name) == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("output name is required")}
		}
		if _, dup := seenOutputs[o.Name]; dup {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("duplicate output %q", o.Name)}
		}
		seenOutputs[o.Name] = struct{}{}
		if o.Width <= 0 || o.Height <= 0 {
			return &ValidationError{Path: path, Err: fmt.Errorf("width and height must be > 0")}
		}
		if o.Refresh < 0 {
			return &ValidationError{Path: path + ".refresh", Err: fmt.Errorf("refresh must be >= 0")}
		}
		if o.Scale < 0 {
			return &ValidationError{Path: path + ".scale", Err: fmt.Errorf("scale must be >= 0")}
		}
		if _, err := platform.ParseTransform(o.Transform); err != nil {
			return &ValidationError{Path: path + ".transform", Err: err}
		}
	}

	if c.Policy.QueueSize <= 0 {
		return &ValidationError{Path: "policy.queue_size", Err: fmt.Errorf("queue_size must be > 0")}
	}
	if _, err := policy.ParseOverflow(c.Policy.Overflow); err != nil {
		return &ValidationError{Path: "policy.overflow", Err: err}
	}
	if c.Policy.HeartbeatInterval < 0 {
		return &ValidationError{Path: "policy.heartbeat_interval", Err: fmt.Errorf("heartbeat_interval must be >= 0")}
	}
	if c.Policy.CascadeStep < 0 {
		return &ValidationError{Path: "policy.cascade_step", Err: fmt.Errorf("cascade_step must be >= 0")}
	}
	if c.Render.FrameInterval < 0 {
		return &ValidationError{Path: "render.frame_interval", Err: fmt.Errorf("frame_interval must be >= 0")}
	}
	return nil
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
