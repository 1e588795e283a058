package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/1broseidon/wayshell/internal/codec"
	"github.com/1broseidon/wayshell/internal/wire"
)

// Server accepts the protocol front-end. Only one front-end is served
// at a time; later connections wait in the accept queue.
type Server struct {
	ln     *wire.Listener
	conn   *Conn
	logger *slog.Logger
}

// NewServer listens on socketPath. Requests queued on conn are written
// to whichever front-end is attached.
func NewServer(socketPath string, conn *Conn, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := wire.Listen(socketPath)
	if err != nil {
		return nil, fmt.Errorf("protocol socket: %w", err)
	}
	return &Server{ln: ln, conn: conn, logger: logger}, nil
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.ln.Path()
}

// Close stops listening and removes the socket.
func (s *Server) Close() error {
	return s.ln.Close()
}

// Serve accepts front-ends until ctx is done. Decoded events are passed
// to handle in arrival order; when a front-end disconnects handle
// receives FrontendGone.
func (s *Server) Serve(ctx context.Context, handle func(Event)) error {
	stop := context.AfterFunc(ctx, func() { s.ln.Close() })
	defer stop()

	s.logger.Info("protocol socket listening", "path", s.ln.Path())
	for {
		peer, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if errors.Is(err, wire.ErrPeerRejected) {
				s.logger.Warn("protocol connection rejected", "error", err)
				continue
			}
			return fmt.Errorf("protocol accept: %w", err)
		}

		s.conn.Attach(peer)
		s.logger.Info("protocol front-end attached")

		err = peer.ReadLoop(ctx, func(env codec.Envelope) {
			ev, err := DecodeEvent(env)
			if err != nil {
				s.logger.Warn("dropping protocol event", "kind", env.Kind, "error", err)
				return
			}
			handle(ev)
		})

		s.conn.Detach(peer)
		handle(FrontendGone{})
		if err != nil && !errors.Is(err, io.EOF) {
			s.logger.Warn("protocol front-end connection failed", "error", err)
		}
		s.logger.Info("protocol front-end detached")

		if ctx.Err() != nil {
			return nil
		}
	}
}
