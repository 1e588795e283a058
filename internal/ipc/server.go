package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/wayshell/internal/wire"
)

// handlerTimeout bounds one command, including the wait for the
// event loop.
const handlerTimeout = 5 * time.Second

// Handler executes control commands against the running shell.
type Handler interface {
	Status(ctx context.Context) (StatusData, error)
	Outputs(ctx context.Context) (OutputsData, error)
	Windows(ctx context.Context) (WindowsData, error)
	FocusWindow(ctx context.Context, req WindowPayload) error
	FullscreenWindow(ctx context.Context, req WindowPayload) error
	UnfullscreenWindow(ctx context.Context, req WindowPayload) error
	Reload(ctx context.Context) error
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     *net.UnixListener
	handler      Handler
	logger       *slog.Logger
	uid          int
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(socketPath string, handler Handler, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger,
		uid:        os.Getuid(),
	}
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale IPC socket: %w", err)
	}

	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: s.socketPath, Net: "unix"})
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.AcceptUnix()
		if err != nil {
			if s.stopping() {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		uid, err := wire.PeerUID(conn)
		if err != nil || (uid >= 0 && uid != s.uid) {
			s.logger.Warn("IPC connection rejected", "uid", uid, "error", err)
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one request per connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * handlerTimeout))

	reader := bufio.NewReader(conn)

	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	s.logger.Debug("IPC command", "command", req.Command)

	switch req.Command {
	case CommandReload:
		if err := s.handler.Reload(ctx); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
		}
		s.logger.Info("config reloaded via IPC")
		return okResponse(nil)
	case CommandGetStatus:
		return dataResponse(s.handler.Status(ctx))
	case CommandGetOutputs:
		return dataResponse(s.handler.Outputs(ctx))
	case CommandListWindows:
		return dataResponse(s.handler.Windows(ctx))
	case CommandFocusWindow:
		return s.handleWindow(ctx, req.Payload, s.handler.FocusWindow)
	case CommandFullscreenWindow:
		return s.handleWindow(ctx, req.Payload, s.handler.FullscreenWindow)
	case CommandUnfullscreenWindow:
		return s.handleWindow(ctx, req.Payload, s.handler.UnfullscreenWindow)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleWindow(ctx context.Context, payload json.RawMessage, fn func(context.Context, WindowPayload) error) *Response {
	var req WindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid window payload: %v", err))
	}
	if req.Surface == 0 {
		return NewErrorResponse("surface is required")
	}
	if err := fn(ctx, req); err != nil {
		return NewErrorResponse(err.Error())
	}
	return okResponse(nil)
}

func dataResponse[T any](data T, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return okResponse(data)
}

func okResponse(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop shuts down the IPC server and waits for in-flight requests.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
