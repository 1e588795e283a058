package daemon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/wayshell/internal/codec"
	"github.com/1broseidon/wayshell/internal/config"
	"github.com/1broseidon/wayshell/internal/ipc"
	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/policy"
	"github.com/1broseidon/wayshell/internal/protocol"
	"github.com/1broseidon/wayshell/internal/wire"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Policy.Socket = filepath.Join(dir, "policy.sock")
	cfg.Protocol.Socket = filepath.Join(dir, "protocol.sock")
	cfg.IPC.Socket = filepath.Join(dir, "ipc.sock")
	cfg.Policy.HeartbeatInterval = 20 * time.Millisecond
	cfg.Render.FrameInterval = 5 * time.Millisecond
	return cfg
}

func startDaemon(t *testing.T, cfg *config.Config, opts Options) (*ipc.Client, context.Context) {
	t.Helper()
	d, err := New(cfg, opts, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("daemon did not stop")
		}
	})
	return ipc.NewClientAt(cfg.IPC.Socket), ctx
}

func platformSurface(id uint64) platform.SurfaceID { return platform.SurfaceID(id) }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func findWindow(t *testing.T, client *ipc.Client, surface uint64) (ipc.WindowInfo, bool) {
	t.Helper()
	data, err := client.ListWindows()
	if err != nil {
		return ipc.WindowInfo{}, false
	}
	for _, w := range data.Windows {
		if w.Surface == surface {
			return w, true
		}
	}
	return ipc.WindowInfo{}, false
}

// frontend is a fake protocol front-end that drains shell requests.
type frontend struct {
	t        *testing.T
	conn     *wire.Conn
	requests chan protocol.Request
}

func dialFrontend(t *testing.T, ctx context.Context, path string) *frontend {
	t.Helper()
	conn, err := wire.Dial(ctx, path)
	if err != nil {
		t.Fatalf("dial front-end: %v", err)
	}
	fe := &frontend{t: t, conn: conn, requests: make(chan protocol.Request, 64)}
	go conn.ReadLoop(ctx, func(env codec.Envelope) {
		if req, err := protocol.DecodeRequest(env); err == nil {
			fe.requests <- req
		}
	})
	return fe
}

func (fe *frontend) send(events ...protocol.Event) {
	fe.t.Helper()
	for _, ev := range events {
		env, err := protocol.Encode(ev)
		if err != nil {
			fe.t.Fatalf("encode %T: %v", ev, err)
		}
		if err := fe.conn.Send(env); err != nil {
			fe.t.Fatalf("send %T: %v", ev, err)
		}
	}
}

func (fe *frontend) expectConfigure(surface uint64) protocol.ConfigureToplevel {
	fe.t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case req := <-fe.requests:
			if c, ok := req.(protocol.ConfigureToplevel); ok && uint64(c.Surface) == surface {
				return c
			}
		case <-timeout:
			fe.t.Fatalf("no configure for surface %d", surface)
		}
	}
}

func TestDaemonMapsWindowsThroughEngine(t *testing.T) {
	cfg := testConfig(t)
	client, ctx := startDaemon(t, cfg, Options{})

	engineConn, err := policy.DialEngine(ctx, cfg.Policy.Socket)
	if err != nil {
		t.Fatalf("dial engine: %v", err)
	}
	go policy.NewEngine(32, testLogger()).Run(ctx, engineConn)

	fe := dialFrontend(t, ctx, cfg.Protocol.Socket)
	waitFor(t, "engine and front-end", func() bool {
		st, err := client.GetStatus()
		return err == nil && st.EngineConnected && st.FrontendConnected
	})

	for _, surface := range []uint64{10, 20} {
		fe.send(
			protocol.NewToplevel{Client: 1, Surface: platformSurface(surface)},
			protocol.SetAppID{Surface: platformSurface(surface), AppID: "foot"},
			protocol.Commit{Surface: platformSurface(surface)},
		)
		fe.expectConfigure(surface)
		fe.send(protocol.Commit{Surface: platformSurface(surface), Buffer: true, Width: 640, Height: 480})
	}

	waitFor(t, "second window cascaded", func() bool {
		w, ok := findWindow(t, client, 20)
		return ok && w.State == "mapped" && w.X == 32 && w.Y == 32
	})
	w, _ := findWindow(t, client, 20)
	if w.Output != "HEADLESS-1" || w.AppID != "foot" || w.Width != 640 {
		t.Fatalf("unexpected window %+v", w)
	}

	if err := client.FocusWindow(10, ""); err != nil {
		t.Fatalf("focus: %v", err)
	}
	waitFor(t, "window 10 activated", func() bool {
		w, ok := findWindow(t, client, 10)
		return ok && w.Activated
	})

	if err := client.FullscreenWindow(10, ""); err != nil {
		t.Fatalf("fullscreen: %v", err)
	}
	if err := client.FullscreenWindow(20, ""); err == nil {
		t.Fatalf("second fullscreen on the same output should be refused")
	}
	outputs, err := client.GetOutputs()
	if err != nil {
		t.Fatalf("outputs: %v", err)
	}
	if len(outputs.Outputs) != 1 || outputs.Outputs[0].Fullscreen != 10 {
		t.Fatalf("unexpected outputs %+v", outputs.Outputs)
	}
	if err := client.FocusWindow(99, ""); err == nil {
		t.Fatalf("focusing an unknown window should fail")
	}

	waitFor(t, "heartbeat round trip", func() bool {
		st, err := client.GetStatus()
		return err == nil && st.HeartbeatRTTMs > 0
	})
	waitFor(t, "frames rendered", func() bool {
		out, err := client.GetOutputs()
		return err == nil && len(out.Outputs) == 1 && out.Outputs[0].Rendered > 0
	})
}

func TestDaemonFrontendDisconnectDestroysClients(t *testing.T) {
	cfg := testConfig(t)
	client, ctx := startDaemon(t, cfg, Options{})

	fe := dialFrontend(t, ctx, cfg.Protocol.Socket)
	fe.send(protocol.NewToplevel{Client: 1, Surface: 10})
	waitFor(t, "window registered", func() bool {
		_, ok := findWindow(t, client, 10)
		return ok
	})

	fe.conn.Close()
	waitFor(t, "window dropped", func() bool {
		st, err := client.GetStatus()
		return err == nil && st.Windows == 0 && !st.FrontendConnected
	})
}

func TestDaemonReloadUpdatesHeadlessOutputs(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := strings.Join([]string{
		"log_level: debug",
		"outputs:",
		"  - name: LEFT",
		"    width: 1280",
		"    height: 720",
		"  - name: RIGHT",
		"    width: 1280",
		"    height: 720",
		"    x: 1280",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	level := new(slog.LevelVar)
	client, _ := startDaemon(t, cfg, Options{
		Level: level,
		LoadConfig: func() (*config.Config, error) {
			res, err := config.LoadFromPath(path)
			if err != nil {
				return nil, err
			}
			return res.Config, nil
		},
	})

	if err := client.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if level.Level() != slog.LevelDebug {
		t.Fatalf("expected debug level after reload, got %v", level.Level())
	}
	waitFor(t, "outputs replaced", func() bool {
		out, err := client.GetOutputs()
		if err != nil || len(out.Outputs) != 2 {
			return false
		}
		return out.Outputs[0].Name == "LEFT" && out.Outputs[1].Name == "RIGHT" && out.Outputs[1].X == 1280
	})
}

func TestDaemonReloadWithoutLoader(t *testing.T) {
	cfg := testConfig(t)
	client, _ := startDaemon(t, cfg, Options{})
	if err := client.Reload(); err == nil {
		t.Fatalf("expected reload to fail without a loader")
	}
}

func TestReloadWarnsOnceForRestartSettings(t *testing.T) {
	running := config.DefaultConfig()
	moved := config.DefaultConfig()
	moved.IPC.Socket = "/tmp/elsewhere.sock"

	loads := []*config.Config{moved, moved, running, moved}
	var buf strings.Builder
	d := &Daemon{
		cfg:    running,
		logger: slog.New(slog.NewTextHandler(&buf, nil)),
		opts: Options{LoadConfig: func() (*config.Config, error) {
			next := loads[0]
			loads = loads[1:]
			return next, nil
		}},
	}

	warnings := func() int { return strings.Count(buf.String(), "need a restart") }

	if err := d.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := warnings(); got != 1 {
		t.Fatalf("warnings after first reload = %d, want 1", got)
	}
	if err := d.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := warnings(); got != 1 {
		t.Fatalf("unchanged reload repeated the warning: %d", got)
	}
	if err := d.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(d.pendingRestart) != 0 {
		t.Fatalf("reverted config still pending: %v", d.pendingRestart)
	}
	if err := d.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := warnings(); got != 2 {
		t.Fatalf("warnings after re-edit = %d, want 2", got)
	}
}

func TestRestartSettings(t *testing.T) {
	a := config.DefaultConfig()
	b := config.DefaultConfig()
	if got := restartSettings(a, b); len(got) != 0 {
		t.Fatalf("identical configs differ: %v", got)
	}
	b.LogLevel = "debug"
	b.Outputs = nil
	if got := restartSettings(a, b); len(got) != 0 {
		t.Fatalf("live settings reported as restart-only: %v", got)
	}
	b.Backend = config.BackendX11
	b.Policy.QueueSize = 8
	b.Seats = []string{"seat0", "seat1"}
	got := restartSettings(a, b)
	want := []string{"backend", "seats", "policy"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("restartSettings = %v, want %v", got, want)
	}
}
