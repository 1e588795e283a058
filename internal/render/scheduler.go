package render

import (
	"log/slog"
	"sort"
	"time"

	"github.com/1broseidon/wayshell/internal/shell"
)

// DefaultFrameInterval paces frames when an output reports no refresh rate.
const DefaultFrameInterval = 16 * time.Millisecond

// maxAge caps the buffer age handed to the renderer.
const maxAge = 3

// Poster queues work on the event loop.
type Poster interface {
	Post(fn func()) error
}

// FrameSource supplies per-output render snapshots.
type FrameSource interface {
	FrameFor(name string) (shell.Frame, bool)
	Output(name string) *shell.Output
}

// Stats counts frames per output.
type Stats struct {
	Output   string
	Rendered uint64
	Skipped  uint64
	Age      int
}

type outputTimer struct {
	name       string
	timer      *time.Timer
	interval   time.Duration
	age        int
	fullscreen bool
	cancelled  bool
	rendered   uint64
	skipped    uint64
}

// Scheduler owns one frame timer per output. Timers fire on their own
// goroutines and post the frame onto the loop; all other methods must
// be called on the loop.
type Scheduler struct {
	loop     Poster
	source   FrameSource
	renderer Renderer
	logger   *slog.Logger

	interval       time.Duration
	hardwareCursor bool

	outputs map[string]*outputTimer
}

// NewScheduler creates a scheduler. A zero interval derives the frame
// interval from each output's refresh rate.
func NewScheduler(loop Poster, source FrameSource, renderer Renderer, interval time.Duration, hardwareCursor bool, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		loop:           loop,
		source:         source,
		renderer:       renderer,
		logger:         logger,
		interval:       interval,
		hardwareCursor: hardwareCursor,
		outputs:        make(map[string]*outputTimer),
	}
}

func (s *Scheduler) intervalFor(name string) time.Duration {
	if s.interval > 0 {
		return s.interval
	}
	if out := s.source.Output(name); out != nil {
		if mhz := out.Info().Mode.Refresh; mhz > 0 {
			return time.Duration(int64(time.Second) * 1000 / int64(mhz))
		}
	}
	return DefaultFrameInterval
}

// Add starts the frame timer for an output. Adding a running output is
// a no-op.
func (s *Scheduler) Add(name string) {
	if _, ok := s.outputs[name]; ok {
		return
	}
	t := &outputTimer{name: name, interval: s.intervalFor(name)}
	t.timer = time.AfterFunc(t.interval, func() {
		s.loop.Post(func() { s.frame(t) })
	})
	s.outputs[name] = t
	s.logger.Debug("frame timer started", "output", name, "interval", t.interval)
}

// Remove cancels an output's frame timer immediately. A frame already
// posted to the loop is discarded when it runs.
func (s *Scheduler) Remove(name string) {
	t, ok := s.outputs[name]
	if !ok {
		return
	}
	t.cancelled = true
	t.timer.Stop()
	delete(s.outputs, name)
	s.logger.Debug("frame timer cancelled", "output", name)
}

// Sync starts timers for new outputs and cancels timers for outputs
// that are gone.
func (s *Scheduler) Sync(names []string) {
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[name] = true
		s.Add(name)
	}
	for name := range s.outputs {
		if !want[name] {
			s.Remove(name)
		}
	}
}

// Stop cancels every timer.
func (s *Scheduler) Stop() {
	for name := range s.outputs {
		s.Remove(name)
	}
}

// Outputs returns the outputs with a running timer.
func (s *Scheduler) Outputs() []string {
	names := make([]string, 0, len(s.outputs))
	for name := range s.outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats returns per-output frame counters in name order.
func (s *Scheduler) Stats() []Stats {
	var out []Stats
	for _, name := range s.Outputs() {
		t := s.outputs[name]
		out = append(out, Stats{Output: name, Rendered: t.rendered, Skipped: t.skipped, Age: t.age})
	}
	return out
}

// frame renders one output and re-arms its timer.
func (s *Scheduler) frame(t *outputTimer) {
	if t.cancelled {
		return
	}
	s.render(t)
	if !t.cancelled {
		t.timer.Reset(t.interval)
	}
}

func (s *Scheduler) render(t *outputTimer) {
	out := s.source.Output(t.name)
	f, ok := s.source.FrameFor(t.name)
	if out == nil || !ok {
		s.Remove(t.name)
		return
	}

	if f.IsFullscreen() != t.fullscreen {
		t.fullscreen = f.IsFullscreen()
		t.age = 0
	}

	_, err := s.renderer.RenderOutput(out.Info(), t.age, s.hardwareCursor, f)
	if err != nil {
		t.skipped++
		t.age = 0
		s.logger.Warn("frame skipped", "output", t.name, "error", err)
		return
	}
	t.rendered++
	t.age = min(t.age+1, maxAge)
}
