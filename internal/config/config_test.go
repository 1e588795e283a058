package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/wayshell/internal/platform"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if len(cfg.Outputs) != 1 || cfg.Outputs[0].Name != "HEADLESS-1" {
		t.Fatalf("expected one default output, got %+v", cfg.Outputs)
	}
	if len(cfg.Seats) != 1 || cfg.Seats[0] != "seat0" {
		t.Fatalf("expected seat0, got %v", cfg.Seats)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Backend != BackendHeadless {
		t.Fatalf("expected headless backend, got %q", res.Config.Backend)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Policy.QueueSize != DefaultConfig().Policy.QueueSize {
		t.Fatalf("expected default queue size, got %d", res.Config.Policy.QueueSize)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_SectionsMergePerKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), strings.Join([]string{
		"policy:",
		"  queue_size: 16",
		"  overflow: drop-oldest",
		"",
	}, "\n"))
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"include: base.yaml",
		"policy:",
		"  queue_size: 32",
		"  heartbeat_interval: 2s",
		"render:",
		"  frame_interval: 8ms",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p := res.Config.Policy
	if p.QueueSize != 32 {
		t.Fatalf("expected queue_size 32, got %d", p.QueueSize)
	}
	if p.Overflow != "drop-oldest" {
		t.Fatalf("expected overflow from include, got %q", p.Overflow)
	}
	if p.HeartbeatInterval != 2*time.Second {
		t.Fatalf("expected heartbeat 2s, got %v", p.HeartbeatInterval)
	}
	if p.CascadeStep != DefaultConfig().Policy.CascadeStep {
		t.Fatalf("expected default cascade step, got %d", p.CascadeStep)
	}
	if res.Config.Render.FrameInterval != 8*time.Millisecond {
		t.Fatalf("expected frame interval 8ms, got %v", res.Config.Render.FrameInterval)
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected two files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(configD, "10-base.yaml"), "scale: 1.5\nlog_level: debug\n")
	writeFile(t, filepath.Join(configD, "20-override.yaml"), "scale: 2\n")
	writeFile(t, filepath.Join(configD, "notes.txt"), "scale: 9\n")

	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include:\n  - config.d\nlog_level: warning\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Scale != 2 {
		t.Fatalf("expected scale 2, got %v", res.Config.Scale)
	}
	if res.Config.LogLevel != "warning" {
		t.Fatalf("expected main file to win, got %q", res.Config.LogLevel)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "seats: [seat0]\npolicy:\n  overflow: spill\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Path != "policy.overflow" {
		t.Fatalf("expected path policy.overflow, got %q", verr.Path)
	}
	if verr.Source.Line != 3 {
		t.Fatalf("expected line 3, got %d", verr.Source.Line)
	}
	if !strings.Contains(err.Error(), path+":3:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestLoadFromPath_OutputListReplacesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"outputs:",
		"  - name: LEFT",
		"    width: 2560",
		"    height: 1440",
		"    refresh: 59.951",
		"    scale: 1.25",
		"  - name: RIGHT",
		"    width: 1080",
		"    height: 1920",
		"    transform: \"90\"",
		"    x: 2048",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	infos, err := res.Config.OutputInfos()
	if err != nil {
		t.Fatalf("infos: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(infos))
	}
	if infos[0].Mode.Refresh != 59951 {
		t.Fatalf("expected refresh 59951 mHz, got %d", infos[0].Mode.Refresh)
	}
	if got := infos[0].LogicalSize(); got != (platform.Size{Width: 2048, Height: 1152}) {
		t.Fatalf("unexpected logical size %+v", got)
	}
	if infos[1].Scale != 1 {
		t.Fatalf("expected unset scale to default to 1, got %v", infos[1].Scale)
	}
	if infos[1].Transform != platform.Transform90 {
		t.Fatalf("expected transform 90, got %v", infos[1].Transform)
	}
	if infos[1].Position != (platform.Point{X: 2048}) {
		t.Fatalf("unexpected position %+v", infos[1].Position)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"backend", func(c *Config) { c.Backend = "drm" }, "backend"},
		{"no seats", func(c *Config) { c.Seats = nil }, "seats"},
		{"duplicate seat", func(c *Config) { c.Seats = []string{"a", "a"} }, "seats"},
		{"headless without outputs", func(c *Config) { c.Outputs = nil }, "outputs"},
		{"duplicate output", func(c *Config) { c.Outputs = append(c.Outputs, c.Outputs[0]) }, "outputs.1.name"},
		{"zero size", func(c *Config) { c.Outputs[0].Width = 0 }, "outputs.0"},
		{"bad transform", func(c *Config) { c.Outputs[0].Transform = "sideways" }, "outputs.0.transform"},
		{"queue size", func(c *Config) { c.Policy.QueueSize = 0 }, "policy.queue_size"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestX11BackendDropsDefaultOutputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "backend: x11\ndisplay: \":1\"\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Outputs) != 0 {
		t.Fatalf("expected RandR to own outputs, got %+v", res.Config.Outputs)
	}
	if res.Config.Display != ":1" {
		t.Fatalf("expected display :1, got %q", res.Config.Display)
	}
}

func TestExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "policy:\n  queue_size: 8\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "policy.queue_size")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 8 || src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("unexpected explain result %v %+v", val, src)
	}

	val, src, err = Explain(res, "outputs.0.name")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != "HEADLESS-1" || src.Kind != SourceDefault {
		t.Fatalf("unexpected explain result %v %+v", val, src)
	}

	if _, _, err := Explain(res, "outputs.3.name"); err == nil {
		t.Fatalf("expected error for missing output")
	}
	if _, _, err := Explain(res, "policy.nope"); err == nil {
		t.Fatalf("expected error for unknown path")
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Policy.Overflow = "drop-oldest"
	cfg.Policy.HeartbeatInterval = 750 * time.Millisecond
	cfg.Outputs[0].Scale = 2

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Policy.Overflow != "drop-oldest" {
		t.Fatalf("expected overflow to round trip, got %q", res.Config.Policy.Overflow)
	}
	if res.Config.Policy.HeartbeatInterval != 750*time.Millisecond {
		t.Fatalf("expected heartbeat to round trip, got %v", res.Config.Policy.HeartbeatInterval)
	}
	if res.Config.Outputs[0].Scale != 2 {
		t.Fatalf("expected scale to round trip, got %v", res.Config.Outputs[0].Scale)
	}
}
