package daemon

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/wayshell/internal/policy"
)

type fakeSender struct {
	connected bool
	sent      []policy.Message
	fail      error
}

func (f *fakeSender) Send(m policy.Message) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	f.sent = append(f.sent, m)
	return fmt.Sprintf("id-%d", len(f.sent)), nil
}

func (f *fakeSender) Connected() bool { return f.connected }

func TestHeartbeatMeasuresRoundTrip(t *testing.T) {
	sender := &fakeSender{connected: true}
	hb := NewHeartbeat(sender, testLogger())
	t0 := time.Unix(1000, 0)

	hb.Beat(t0)
	if len(sender.sent) != 1 {
		t.Fatalf("expected one ping, got %d", len(sender.sent))
	}
	if _, ok := sender.sent[0].(policy.Ping); !ok {
		t.Fatalf("expected Ping, got %T", sender.sent[0])
	}

	in := policy.Incoming{ID: "engine-1", Command: policy.Pong{ReplyTo: "id-1"}}
	if !hb.Observe(in, t0.Add(3*time.Millisecond)) {
		t.Fatalf("expected pong to be consumed")
	}
	if hb.RTT() != 3*time.Millisecond {
		t.Fatalf("expected 3ms rtt, got %v", hb.RTT())
	}

	// A second answer to the same ping is not ours any more.
	if hb.Observe(in, t0.Add(time.Second)) {
		t.Fatalf("duplicate pong should not be consumed")
	}
}

func TestHeartbeatIgnoresOtherCommands(t *testing.T) {
	hb := NewHeartbeat(&fakeSender{connected: true}, testLogger())
	if hb.Observe(policy.Incoming{Command: policy.FocusWindow{Window: 1}}, time.Now()) {
		t.Fatalf("non-pong consumed")
	}
	if hb.Observe(policy.Incoming{Command: policy.Pong{ReplyTo: "unknown"}}, time.Now()) {
		t.Fatalf("pong for an unknown ping consumed")
	}
}

func TestHeartbeatStallAndRecovery(t *testing.T) {
	sender := &fakeSender{connected: true}
	hb := NewHeartbeat(sender, testLogger())
	t0 := time.Unix(1000, 0)

	for i := 0; i < maxOutstanding+2; i++ {
		hb.Beat(t0.Add(time.Duration(i) * time.Second))
	}
	if len(sender.sent) != maxOutstanding {
		t.Fatalf("expected %d pings before stalling, got %d", maxOutstanding, len(sender.sent))
	}
	if !hb.Stalled() {
		t.Fatalf("expected heartbeat to report a stall")
	}

	// Answering the newest ping clears the older ones too.
	last := fmt.Sprintf("id-%d", maxOutstanding)
	if !hb.Observe(policy.Incoming{Command: policy.Pong{ReplyTo: last}}, t0.Add(10*time.Second)) {
		t.Fatalf("expected pong to be consumed")
	}
	if hb.Stalled() {
		t.Fatalf("expected stall to clear")
	}
	hb.Beat(t0.Add(11 * time.Second))
	if len(sender.sent) != maxOutstanding+1 {
		t.Fatalf("expected pings to resume, got %d", len(sender.sent))
	}
}

func TestHeartbeatSkipsWithoutEngine(t *testing.T) {
	sender := &fakeSender{}
	hb := NewHeartbeat(sender, testLogger())
	hb.Beat(time.Now())
	if len(sender.sent) != 0 {
		t.Fatalf("pinged without an engine")
	}

	sender.connected = true
	sender.fail = errors.New("queue full")
	hb.Beat(time.Now())
	if hb.Stalled() || len(hb.outstanding) != 0 {
		t.Fatalf("failed send should not be tracked")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, level, err := NewLogger(&buf, "warning", "auto")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info logged at warning level: %s", out)
	}
	// A buffer is not a terminal, so auto picks JSON.
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("expected JSON output, got %s", out)
	}

	level.Set(slog.LevelDebug)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("level change not applied")
	}

	buf.Reset()
	logger, _, err = NewLogger(&buf, "info", "text")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Fatalf("expected text output, got %s", buf.String())
	}

	if _, _, err := NewLogger(&buf, "loud", "text"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, _, err := NewLogger(&buf, "info", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
