package policy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/1broseidon/wayshell/internal/codec"
	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/wire"
)

// DefaultCascadeStep is the offset between successively placed windows.
const DefaultCascadeStep = 32

// cascadeSlots bounds the cascade before it wraps back to the corner.
const cascadeSlots = 10

type trackedWindow struct {
	output    string
	loc       platform.Point
	size      platform.Size
	maximized bool
	restore   platform.Rect
}

// Engine is the reference policy engine. It answers pings, cascades
// newly mapped windows, maximizes to the output's usable area and
// restores the previous geometry on unmaximize.
type Engine struct {
	logger *slog.Logger
	step   int

	windows map[platform.SurfaceID]*trackedWindow
	placed  map[string]int
}

// NewEngine creates an engine with the given cascade step. A
// non-positive step uses DefaultCascadeStep.
func NewEngine(step int, logger *slog.Logger) *Engine {
	if step <= 0 {
		step = DefaultCascadeStep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger:  logger,
		step:    step,
		windows: make(map[platform.SurfaceID]*trackedWindow),
		placed:  make(map[string]int),
	}
}

// Handle computes the commands answering one compositor message.
func (e *Engine) Handle(id string, m Message) []Command {
	switch m := m.(type) {
	case Ping:
		return []Command{Pong{ReplyTo: id}}

	case Pong:
		return nil

	case WindowMapped:
		n := e.placed[m.Output] % cascadeSlots
		e.placed[m.Output]++
		loc := platform.Point{X: n * e.step, Y: n * e.step}
		e.windows[m.Window] = &trackedWindow{output: m.Output, loc: loc, size: m.Size}
		e.logger.Debug("placing window", "window", m.Window, "output", m.Output, "x", loc.X, "y", loc.Y)
		return []Command{PlaceWindow{Window: m.Window, Output: m.Output, X: loc.X, Y: loc.Y}}

	case WindowClosed:
		delete(e.windows, m.Window)
		return nil

	case MaximizeRequest:
		w := e.track(m.Window, m.Output)
		if m.Area.Empty() {
			e.logger.Warn("maximize without a usable area", "window", m.Window, "output", m.Output)
			return []Command{ConfigureWindow{Window: m.Window, Width: w.size.Width, Height: w.size.Height}}
		}
		if !w.maximized {
			w.restore = platform.RectFrom(w.loc, w.size)
		}
		w.maximized = true
		w.output = m.Output
		w.loc = m.Area.Loc()
		w.size = m.Area.Size()
		return []Command{
			PlaceWindow{Window: m.Window, Output: m.Output, X: w.loc.X, Y: w.loc.Y},
			ConfigureWindow{Window: m.Window, Width: w.size.Width, Height: w.size.Height, Maximized: true},
		}

	case UnmaximizeRequest:
		w := e.track(m.Window, "")
		if !w.maximized {
			return []Command{ConfigureWindow{Window: m.Window, Width: w.size.Width, Height: w.size.Height}}
		}
		w.maximized = false
		w.loc = w.restore.Loc()
		w.size = w.restore.Size()
		return []Command{
			PlaceWindow{Window: m.Window, Output: w.output, X: w.loc.X, Y: w.loc.Y},
			ConfigureWindow{Window: m.Window, Width: w.size.Width, Height: w.size.Height},
		}

	case MoveRequest:
		// Interactive grabs need pointer motion, which the engine does
		// not receive; focus the window the user grabbed instead.
		return []Command{FocusWindow{Window: m.Window, Seat: m.Seat}}

	case ResizeRequest:
		return []Command{FocusWindow{Window: m.Window, Seat: m.Seat}}

	case UnfullscreenRequest:
		if w, ok := e.windows[m.Window]; ok && w.maximized {
			return []Command{ConfigureWindow{Window: m.Window, Width: w.size.Width, Height: w.size.Height, Maximized: true}}
		}
		return nil
	}

	e.logger.Debug("ignoring policy message", "kind", m.Kind())
	return nil
}

func (e *Engine) track(window platform.SurfaceID, output string) *trackedWindow {
	w, ok := e.windows[window]
	if !ok {
		w = &trackedWindow{output: output}
		e.windows[window] = w
	}
	return w
}

// Run serves the compositor on conn until ctx is done or the
// compositor disconnects.
func (e *Engine) Run(ctx context.Context, conn *wire.Conn) error {
	var sendErr error
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := conn.ReadLoop(ctx, func(env codec.Envelope) {
		m, err := DecodeMessage(env)
		if err != nil {
			e.logger.Warn("dropping compositor message", "kind", env.Kind, "error", err)
			return
		}
		for _, cmd := range e.Handle(env.ID, m) {
			out, err := Encode(uuid.NewString(), cmd)
			if err != nil {
				e.logger.Error("failed to encode command", "kind", cmd.Kind(), "error", err)
				continue
			}
			if err := conn.Send(out); err != nil {
				sendErr = err
				cancel()
				return
			}
		}
	})
	if sendErr != nil {
		return fmt.Errorf("policy engine: %w", sendErr)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("policy engine: %w", err)
	}
	return nil
}

// DialEngine connects to the compositor's policy socket.
func DialEngine(ctx context.Context, socketPath string) (*wire.Conn, error) {
	conn, err := wire.Dial(ctx, socketPath)
	if err != nil {
		return nil, fmt.Errorf("policy engine: %w", err)
	}
	return conn, nil
}
