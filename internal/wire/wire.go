// Package wire carries codec envelopes over unix stream sockets.
// CBOR items are self-delimiting so no extra framing is used.
package wire

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/wayshell/internal/codec"
)

// ErrPeerRejected is returned by Accept when the connecting process
// runs as a different user.
var ErrPeerRejected = errors.New("peer credentials rejected")

// writeTimeout bounds a single envelope write.
const writeTimeout = 10 * time.Second

// Listener accepts same-user connections on a unix socket.
type Listener struct {
	path string
	ln   *net.UnixListener
	uid  int
}

// Listen removes any stale socket at path, listens on it and restricts
// it to the current user.
func Listen(path string) (*Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket %s: %w", path, err)
	}

	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	return &Listener{path: path, ln: ln, uid: os.Getuid()}, nil
}

// Path returns the socket path.
func (l *Listener) Path() string {
	return l.path
}

// Accept waits for the next connection. Connections from another uid
// are closed and reported with ErrPeerRejected.
func (l *Listener) Accept() (*Conn, error) {
	uc, err := l.ln.AcceptUnix()
	if err != nil {
		return nil, err
	}
	uid, err := PeerUID(uc)
	if err != nil {
		uc.Close()
		return nil, fmt.Errorf("read peer credentials: %w", err)
	}
	if uid >= 0 && uid != l.uid {
		uc.Close()
		return nil, fmt.Errorf("%w: uid %d", ErrPeerRejected, uid)
	}
	return NewConn(uc), nil
}

// Close stops listening and removes the socket file.
func (l *Listener) Close() error {
	err := l.ln.Close()
	os.Remove(l.path)
	return err
}

// Conn is a bidirectional envelope stream. Send is safe for concurrent
// use; Receive must be called from a single goroutine.
type Conn struct {
	nc  net.Conn
	dec *codec.Decoder

	writeMu sync.Mutex
	enc     *codec.Encoder
}

// NewConn wraps an established connection.
func NewConn(nc net.Conn) *Conn {
	return &Conn{
		nc:  nc,
		dec: codec.NewDecoder(nc),
		enc: codec.NewEncoder(nc),
	}
}

// Dial connects to the socket at path.
func Dial(ctx context.Context, path string) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", path, err)
	}
	return NewConn(nc), nil
}

// Send writes one envelope.
func (c *Conn) Send(env codec.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.nc.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.enc.Encode(env); err != nil {
		return fmt.Errorf("write %s: %w", env.Kind, err)
	}
	return nil
}

// Receive blocks for the next envelope.
func (c *Conn) Receive() (codec.Envelope, error) {
	var env codec.Envelope
	if err := c.dec.Decode(&env); err != nil {
		return codec.Envelope{}, err
	}
	return env, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// ReadLoop delivers envelopes to handle until the connection fails or
// ctx is done. The connection is closed on return.
func (c *Conn) ReadLoop(ctx context.Context, handle func(codec.Envelope)) error {
	stop := context.AfterFunc(ctx, func() { c.nc.Close() })
	defer stop()
	defer c.nc.Close()

	for {
		env, err := c.Receive()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		handle(env)
	}
}
