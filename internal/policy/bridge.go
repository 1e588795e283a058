package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrQueueFull is returned by Send when the outbound queue is at
	// capacity and the overflow policy is OverflowReject.
	ErrQueueFull = errors.New("policy queue full")
	// ErrEngineUnavailable is returned by Send while no engine is attached.
	ErrEngineUnavailable = errors.New("policy engine unavailable")
)

// DefaultQueueSize bounds each direction of the bridge.
const DefaultQueueSize = 256

// Overflow selects what Send does when the outbound queue is full.
type Overflow string

const (
	OverflowReject     Overflow = "reject"
	OverflowDropOldest Overflow = "drop-oldest"
)

// ParseOverflow validates an overflow policy name.
func ParseOverflow(s string) (Overflow, error) {
	switch Overflow(strings.ToLower(strings.TrimSpace(s))) {
	case "", OverflowReject:
		return OverflowReject, nil
	case OverflowDropOldest:
		return OverflowDropOldest, nil
	}
	return "", fmt.Errorf("unknown overflow policy %q (expected reject or drop-oldest)", s)
}

// Outgoing is a queued compositor-to-engine message.
type Outgoing struct {
	ID      string
	Message Message
}

// Incoming is an engine-to-compositor command awaiting the reactor.
type Incoming struct {
	ID      string
	Command Command
}

// Stats is a snapshot of bridge counters.
type Stats struct {
	Connected bool
	Queued    int
	Sent      uint64
	Dropped   uint64
	Rejected  uint64
	Received  uint64
}

// Bridge is the bounded, non-blocking channel between the shell and the
// policy engine. Send never blocks the compositor thread; the transport
// drains the outbound side with Next and feeds the inbound side with
// Deliver.
type Bridge struct {
	size     int
	overflow Overflow
	logger   *slog.Logger

	mu        sync.Mutex
	queue     []Outgoing
	connected bool
	stats     Stats

	wake    chan struct{}
	inbound chan Incoming
}

// NewBridge creates a bridge with the given queue bound and overflow
// policy. A non-positive size uses DefaultQueueSize.
func NewBridge(size int, overflow Overflow, logger *slog.Logger) *Bridge {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if overflow == "" {
		overflow = OverflowReject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		size:     size,
		overflow: overflow,
		logger:   logger,
		queue:    make([]Outgoing, 0, size),
		wake:     make(chan struct{}, 1),
		inbound:  make(chan Incoming, size),
	}
}

// SetConnected records whether an engine is attached. Detaching drops
// whatever was still queued for the previous engine.
func (b *Bridge) SetConnected(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connected == connected {
		return
	}
	b.connected = connected
	if !connected && len(b.queue) > 0 {
		b.logger.Warn("policy engine detached, dropping queued messages", "count", len(b.queue))
		b.stats.Dropped += uint64(len(b.queue))
		b.queue = b.queue[:0]
	}
}

// Connected reports whether an engine is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Send enqueues m and returns its correlation id.
func (b *Bridge) Send(m Message) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return "", ErrEngineUnavailable
	}

	if len(b.queue) >= b.size {
		switch b.overflow {
		case OverflowDropOldest:
			dropped := b.queue[0]
			copy(b.queue, b.queue[1:])
			b.queue = b.queue[:len(b.queue)-1]
			b.stats.Dropped++
			b.logger.Warn("policy queue full, dropped oldest message",
				"kind", dropped.Message.Kind(), "id", dropped.ID)
		default:
			b.stats.Rejected++
			return "", fmt.Errorf("%w: %s", ErrQueueFull, m.Kind())
		}
	}

	id := uuid.NewString()
	b.queue = append(b.queue, Outgoing{ID: id, Message: m})

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return id, nil
}

// Len returns the number of queued outbound messages.
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Pending returns a copy of the queued outbound messages.
func (b *Bridge) Pending() []Outgoing {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Outgoing(nil), b.queue...)
}

// Next blocks until an outbound message is available or ctx is done.
func (b *Bridge) Next(ctx context.Context) (Outgoing, error) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			out := b.queue[0]
			copy(b.queue, b.queue[1:])
			b.queue = b.queue[:len(b.queue)-1]
			b.stats.Sent++
			b.mu.Unlock()
			return out, nil
		}
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return Outgoing{}, ctx.Err()
		case <-b.wake:
		}
	}
}

// Deliver hands an engine command to the compositor. It blocks while
// the inbound queue is full, pushing back on the engine's socket.
func (b *Bridge) Deliver(ctx context.Context, in Incoming) error {
	select {
	case b.inbound <- in:
		b.mu.Lock()
		b.stats.Received++
		b.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbound is the stream of engine commands for the reactor to consume.
func (b *Bridge) Inbound() <-chan Incoming {
	return b.inbound
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.stats
	st.Connected = b.connected
	st.Queued = len(b.queue)
	return st
}
