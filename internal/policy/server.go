package policy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/1broseidon/wayshell/internal/codec"
	"github.com/1broseidon/wayshell/internal/wire"
)

// Server attaches one policy engine at a time to a Bridge over a unix
// socket. Outbound messages are drained from the bridge by a writer
// goroutine; inbound commands are decoded and delivered to the bridge.
type Server struct {
	bridge *Bridge
	ln     *wire.Listener
	logger *slog.Logger

	mu       sync.Mutex
	attached *wire.Conn
}

// NewServer listens on socketPath for an engine.
func NewServer(socketPath string, bridge *Bridge, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := wire.Listen(socketPath)
	if err != nil {
		return nil, fmt.Errorf("policy socket: %w", err)
	}
	return &Server{bridge: bridge, ln: ln, logger: logger}, nil
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.ln.Path()
}

// Serve accepts engine connections until ctx is done. A connection
// arriving while an engine is attached is refused.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.ln.Close() })
	defer stop()

	s.logger.Info("policy socket listening", "path", s.ln.Path())
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if errors.Is(err, wire.ErrPeerRejected) {
				s.logger.Warn("policy connection rejected", "error", err)
				continue
			}
			return fmt.Errorf("policy accept: %w", err)
		}

		if !s.attach(conn) {
			s.logger.Warn("policy engine already attached, refusing second connection")
			conn.Close()
			continue
		}
		go s.serveConn(ctx, conn)
	}
}

// Close stops listening and removes the socket.
func (s *Server) Close() error {
	return s.ln.Close()
}

func (s *Server) attach(conn *wire.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached != nil {
		return false
	}
	s.attached = conn
	return true
}

func (s *Server) detach(conn *wire.Conn) {
	s.mu.Lock()
	if s.attached == conn {
		s.attached = nil
	}
	s.mu.Unlock()
}

func (s *Server) serveConn(ctx context.Context, conn *wire.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.bridge.SetConnected(true)
	s.logger.Info("policy engine attached")

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		s.writeLoop(ctx, conn)
	}()

	err := conn.ReadLoop(ctx, func(env codec.Envelope) {
		cmd, err := DecodeCommand(env)
		if err != nil {
			s.logger.Warn("dropping policy command", "kind", env.Kind, "error", err)
			return
		}
		if err := s.bridge.Deliver(ctx, Incoming{ID: env.ID, Command: cmd}); err != nil {
			s.logger.Debug("policy command not delivered", "kind", env.Kind, "error", err)
		}
	})
	cancel()
	<-done

	s.bridge.SetConnected(false)
	s.detach(conn)

	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("policy engine connection failed", "error", err)
	}
	s.logger.Info("policy engine detached")
}

func (s *Server) writeLoop(ctx context.Context, conn *wire.Conn) {
	for {
		out, err := s.bridge.Next(ctx)
		if err != nil {
			return
		}
		env, err := Encode(out.ID, out.Message)
		if err != nil {
			s.logger.Error("failed to encode policy message", "kind", out.Message.Kind(), "error", err)
			continue
		}
		if err := conn.Send(env); err != nil {
			s.logger.Warn("policy write failed", "kind", out.Message.Kind(), "error", err)
			return
		}
	}
}
