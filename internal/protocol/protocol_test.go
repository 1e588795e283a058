package protocol

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/shell"
	"github.com/1broseidon/wayshell/internal/wire"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newShell(conn *Conn) *shell.Shell {
	sh := shell.New(conn, nil, nil, testLogger())
	sh.AddOutput(platform.OutputInfo{
		Name:  "OUT-1",
		Mode:  platform.Mode{Width: 1920, Height: 1080, Refresh: 60000},
		Scale: 1,
	})
	return sh
}

func dispatchAll(t *testing.T, sh *shell.Shell, events ...Event) {
	t.Helper()
	for _, ev := range events {
		if err := Dispatch(sh, ev); err != nil {
			t.Fatalf("Dispatch(%s): %v", ev.Kind(), err)
		}
	}
}

func TestEventRoundTrip(t *testing.T) {
	in := Commit{
		Surface: 9,
		Buffer:  true,
		Width:   1920,
		Height:  30,
		Layer:   &LayerState{Layer: 2, Anchor: platform.EdgeTop | platform.EdgeLeft | platform.EdgeRight, ExclusiveZone: 30},
	}
	env, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	ev, err := DecodeEvent(env)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	got, ok := ev.(Commit)
	if !ok {
		t.Fatalf("decoded %T", ev)
	}
	if got.Surface != 9 || !got.Buffer || got.Layer == nil || got.Layer.ExclusiveZone != 30 {
		t.Fatalf("decoded %+v", got)
	}
}

func TestDecodeEventRejectsRequests(t *testing.T) {
	env, _ := Encode(PopupDone{Surface: 1})
	if _, err := DecodeEvent(env); err == nil {
		t.Fatalf("a request kind must not decode as an event")
	}
}

func TestDispatchHandshakeQueuesConfigure(t *testing.T) {
	conn := NewConn(testLogger())
	sh := newShell(conn)

	dispatchAll(t, sh,
		NewToplevel{Client: 1, Surface: 10},
		SetAppID{Surface: 10, AppID: "foot"},
		Commit{Surface: 10},
	)
	if conn.Pending() != 1 {
		t.Fatalf("pending requests = %d, want 1", conn.Pending())
	}

	dispatchAll(t, sh, Commit{Surface: 10, Buffer: true, Width: 800, Height: 600})
	w := sh.Window(10)
	if w == nil || w.AppID() != "foot" {
		t.Fatalf("window not mapped with app id")
	}
}

func TestFlushWritesToFrontend(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	frontend := wire.NewConn(b)

	conn := NewConn(testLogger())
	conn.Attach(wire.NewConn(a))
	sh := newShell(conn)
	dispatchAll(t, sh, NewToplevel{Client: 1, Surface: 10}, Commit{Surface: 10})

	errc := make(chan error, 1)
	go func() { errc <- conn.Flush() }()

	env, err := frontend.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Flush: %v", err)
	}
	req, err := DecodeRequest(env)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	cfg, ok := req.(ConfigureToplevel)
	if !ok || cfg.Surface != 10 || cfg.Serial == 0 {
		t.Fatalf("request = %+v", req)
	}
	if conn.Pending() != 0 {
		t.Fatalf("flush left %d requests", conn.Pending())
	}
}

func TestFlushWithoutFrontendDiscards(t *testing.T) {
	conn := NewConn(testLogger())
	conn.PopupDone(3)
	if err := conn.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if conn.Pending() != 0 {
		t.Fatalf("requests kept without a front-end")
	}
}

func TestSerialsIncrease(t *testing.T) {
	conn := NewConn(testLogger())
	s1 := conn.ConfigureLayer(1, platform.Size{Width: 10, Height: 10})
	s2 := conn.ConfigurePopup(2, platform.Rect{Width: 5, Height: 5})
	if s2 <= s1 {
		t.Fatalf("serials not increasing: %d then %d", s1, s2)
	}
}

func TestDispatchProtocolErrorQueuesPostError(t *testing.T) {
	conn := NewConn(testLogger())
	sh := newShell(conn)
	dispatchAll(t, sh, NewToplevel{Client: 1, Surface: 10})

	if err := Dispatch(sh, NewToplevel{Client: 1, Surface: 10}); err == nil {
		t.Fatalf("duplicate role should fail")
	}
	if conn.Pending() != 1 {
		t.Fatalf("expected one protocol_error request, got %d", conn.Pending())
	}
}

func TestDispatchDeviceCapabilities(t *testing.T) {
	sh := newShell(NewConn(testLogger()))
	dispatchAll(t, sh,
		DeviceAdded{Seat: "seat0", Device: "mouse", Pointer: true},
		Touch{Seat: "seat0"},
		Tablet{Seat: "seat0"},
	)
	if !sh.Seat("seat0").Capabilities().Has(shell.CapPointer) {
		t.Fatalf("pointer capability not registered")
	}
}

func TestFrontendGoneDestroysAllClients(t *testing.T) {
	sh := newShell(NewConn(testLogger()))
	dispatchAll(t, sh,
		NewToplevel{Client: 1, Surface: 10},
		NewToplevel{Client: 2, Surface: 20},
		FrontendGone{},
	)
	if sh.Registry().Len() != 0 {
		t.Fatalf("registry still holds %d surfaces", sh.Registry().Len())
	}
}

func TestServerDeliversEventsAndDisconnect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.sock")
	conn := NewConn(testLogger())
	srv, err := NewServer(path, conn, testLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	events := make(chan Event, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ctx, func(ev Event) { events <- ev })
	}()
	defer func() {
		cancel()
		<-done
	}()

	frontend, err := wire.Dial(context.Background(), path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	env, _ := Encode(NewToplevel{Client: 4, Surface: 40})
	if err := frontend.Send(env); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case ev := <-events:
		if nt, ok := ev.(NewToplevel); !ok || nt.Surface != 40 {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event not delivered")
	}
	if !conn.Attached() {
		t.Fatalf("front-end not attached to the request sink")
	}

	frontend.Close()
	select {
	case ev := <-events:
		if _, ok := ev.(FrontendGone); !ok {
			t.Fatalf("event = %+v, want FrontendGone", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("disconnect not reported")
	}
}
