package daemon

import (
	"log/slog"
	"time"

	"github.com/1broseidon/wayshell/internal/policy"
)

// maxOutstanding is how many unanswered pings are remembered before the
// engine is reported as unresponsive.
const maxOutstanding = 3

// Sender is the part of the policy bridge the heartbeat needs.
type Sender interface {
	Send(policy.Message) (string, error)
	Connected() bool
}

// Heartbeat pings the policy engine and measures the round trip.
// All methods run on the event loop.
type Heartbeat struct {
	sender Sender
	logger *slog.Logger

	outstanding map[string]time.Time
	rtt         time.Duration
	stalled     bool
}

func NewHeartbeat(sender Sender, logger *slog.Logger) *Heartbeat {
	return &Heartbeat{
		sender:      sender,
		logger:      logger,
		outstanding: make(map[string]time.Time),
	}
}

// Beat sends one ping when an engine is attached.
func (h *Heartbeat) Beat(now time.Time) {
	if !h.sender.Connected() {
		clear(h.outstanding)
		h.stalled = false
		return
	}
	if len(h.outstanding) >= maxOutstanding {
		if !h.stalled {
			h.logger.Warn("policy engine not answering pings", "outstanding", len(h.outstanding))
			h.stalled = true
		}
		return
	}
	id, err := h.sender.Send(policy.Ping{})
	if err != nil {
		h.logger.Debug("heartbeat ping not sent", "error", err)
		return
	}
	h.outstanding[id] = now
}

// Observe consumes a pong answering one of our pings and reports
// whether it did.
func (h *Heartbeat) Observe(in policy.Incoming, now time.Time) bool {
	pong, ok := in.Command.(policy.Pong)
	if !ok {
		return false
	}
	sent, ok := h.outstanding[pong.ReplyTo]
	if !ok {
		return false
	}
	h.rtt = now.Sub(sent)
	// An answer implies the engine drained everything older.
	for id, t := range h.outstanding {
		if !t.After(sent) {
			delete(h.outstanding, id)
		}
	}
	if h.stalled {
		h.logger.Info("policy engine answering pings again", "rtt", h.rtt)
		h.stalled = false
	}
	return true
}

// RTT is the last measured round trip, zero before the first pong.
func (h *Heartbeat) RTT() time.Duration { return h.rtt }

// Stalled reports whether the engine stopped answering.
func (h *Heartbeat) Stalled() bool { return h.stalled }
