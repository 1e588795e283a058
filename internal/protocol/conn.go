package protocol

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/wayshell/internal/codec"
	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/shell"
	"github.com/1broseidon/wayshell/internal/wire"
)

// Conn is the shell's outbound protocol sink. Requests are buffered as
// the shell issues them and written to the attached front-end by Flush,
// once per loop tick.
type Conn struct {
	logger *slog.Logger

	mu      sync.Mutex
	peer    *wire.Conn
	serial  platform.Serial
	pending []codec.Envelope
}

var _ shell.Protocol = (*Conn)(nil)

// NewConn creates a sink with no front-end attached.
func NewConn(logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{logger: logger}
}

// Attach sets the front-end connection that Flush writes to.
func (c *Conn) Attach(peer *wire.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peer = peer
}

// Detach clears peer if it is still the attached front-end.
func (c *Conn) Detach(peer *wire.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peer == peer {
		c.peer = nil
	}
}

// Attached reports whether a front-end is connected.
func (c *Conn) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer != nil
}

// Pending returns the number of buffered requests.
func (c *Conn) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Conn) nextSerial() platform.Serial {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serial++
	return c.serial
}

func (c *Conn) queue(r Request) {
	env, err := Encode(r)
	if err != nil {
		c.logger.Error("failed to encode protocol request", "kind", r.Kind(), "error", err)
		return
	}
	c.mu.Lock()
	c.pending = append(c.pending, env)
	c.mu.Unlock()
}

func (c *Conn) ConfigureToplevel(surface platform.SurfaceID, state shell.ToplevelState) platform.Serial {
	serial := c.nextSerial()
	c.queue(ConfigureToplevel{
		Surface:    surface,
		Serial:     serial,
		Width:      state.Size.Width,
		Height:     state.Size.Height,
		Activated:  state.Activated,
		Fullscreen: state.Fullscreen,
		Maximized:  state.Maximized,
	})
	return serial
}

func (c *Conn) ConfigureLayer(surface platform.SurfaceID, size platform.Size) platform.Serial {
	serial := c.nextSerial()
	c.queue(ConfigureLayer{Surface: surface, Serial: serial, Width: size.Width, Height: size.Height})
	return serial
}

func (c *Conn) ConfigurePopup(surface platform.SurfaceID, geometry platform.Rect) platform.Serial {
	serial := c.nextSerial()
	c.queue(ConfigurePopup{
		Surface: surface,
		Serial:  serial,
		X:       geometry.X,
		Y:       geometry.Y,
		Width:   geometry.Width,
		Height:  geometry.Height,
	})
	return serial
}

func (c *Conn) PopupDone(surface platform.SurfaceID) {
	c.queue(PopupDone{Surface: surface})
}

func (c *Conn) CloseToplevel(surface platform.SurfaceID) {
	c.queue(CloseToplevel{Surface: surface})
}

func (c *Conn) CloseLayer(surface platform.SurfaceID) {
	c.queue(CloseLayer{Surface: surface})
}

func (c *Conn) PostError(client platform.ClientID, surface platform.SurfaceID, code shell.ErrorCode, message string) {
	c.queue(ProtocolError{
		Client:  client,
		Surface: surface,
		Code:    int(code),
		Name:    code.String(),
		Message: message,
	})
}

// Flush writes buffered requests to the front-end. Without a front-end
// the requests are discarded: their clients are gone with it.
func (c *Conn) Flush() error {
	c.mu.Lock()
	peer := c.peer
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if peer == nil {
		c.logger.Debug("no protocol front-end, discarding requests", "count", len(batch))
		return nil
	}
	for i, env := range batch {
		if err := peer.Send(env); err != nil {
			return fmt.Errorf("flush protocol requests (%d unsent): %w", len(batch)-i, err)
		}
	}
	return nil
}
