// Package daemon assembles the shell, its transports and the frame
// scheduler around one event loop.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/1broseidon/wayshell/internal/config"
	"github.com/1broseidon/wayshell/internal/ipc"
	"github.com/1broseidon/wayshell/internal/platform"
	"github.com/1broseidon/wayshell/internal/policy"
	"github.com/1broseidon/wayshell/internal/protocol"
	"github.com/1broseidon/wayshell/internal/reactor"
	"github.com/1broseidon/wayshell/internal/render"
	"github.com/1broseidon/wayshell/internal/runtimepath"
	"github.com/1broseidon/wayshell/internal/shell"
)

// Options tune a daemon beyond its config.
type Options struct {
	// Level, when set, is adjusted on reload.
	Level *slog.LevelVar
	// LoadConfig reloads configuration; nil disables RELOAD.
	LoadConfig func() (*config.Config, error)
	// Backend overrides the backend chosen from config.
	Backend platform.Backend
	// Renderer overrides the damage-tracking reference renderer.
	Renderer render.Renderer
	// Signals enables SIGHUP reload handling.
	Signals bool
}

// Daemon is a running shell instance.
type Daemon struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	backend  platform.Backend
	headless *platform.HeadlessBackend

	loop      *reactor.Loop
	shell     *shell.Shell
	bridge    *policy.Bridge
	proto     *protocol.Conn
	sched     *render.Scheduler
	heartbeat *Heartbeat

	policySrv *policy.Server
	protoSrv  *protocol.Server
	ipcSrv    *ipc.Server

	started time.Time

	reloadMu       sync.Mutex
	pendingRestart []string
}

// New wires a daemon from cfg and opens its sockets.
func New(cfg *config.Config, opts Options, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	overflow, err := policy.ParseOverflow(cfg.Policy.Overflow)
	if err != nil {
		return nil, err
	}

	d := &Daemon{cfg: cfg, opts: opts, logger: logger, started: time.Now()}

	d.backend = opts.Backend
	if d.backend == nil {
		if d.backend, err = openBackend(cfg); err != nil {
			return nil, err
		}
	}
	d.headless, _ = d.backend.(*platform.HeadlessBackend)

	d.loop = reactor.New(reactor.DefaultQueueSize, logger.With("component", "loop"))
	d.bridge = policy.NewBridge(cfg.Policy.QueueSize, overflow, logger.With("component", "policy"))
	d.proto = protocol.NewConn(logger.With("component", "protocol"))
	d.shell = shell.New(d.proto, d.bridge, cfg.Seats, logger.With("component", "shell"))
	d.heartbeat = NewHeartbeat(d.bridge, logger.With("component", "heartbeat"))

	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.NewTracker()
	}
	d.sched = render.NewScheduler(d.loop, d.shell, renderer, cfg.Render.FrameInterval, cfg.Render.HardwareCursor, logger.With("component", "render"))

	if err := d.listen(); err != nil {
		d.closeSockets()
		d.backend.Close()
		return nil, err
	}
	return d, nil
}

func openBackend(cfg *config.Config) (platform.Backend, error) {
	switch cfg.Backend {
	case config.BackendX11:
		return platform.NewX11Backend(cfg.Display, cfg.Scale)
	default:
		infos, err := cfg.OutputInfos()
		if err != nil {
			return nil, err
		}
		return platform.NewHeadlessBackend(infos)
	}
}

func (d *Daemon) listen() error {
	policyPath, err := runtimepath.Resolve(d.cfg.Policy.Socket, runtimepath.PolicySocketPath)
	if err != nil {
		return err
	}
	if d.policySrv, err = policy.NewServer(policyPath, d.bridge, d.logger.With("component", "policy")); err != nil {
		return err
	}

	protoPath, err := runtimepath.Resolve(d.cfg.Protocol.Socket, runtimepath.ProtocolSocketPath)
	if err != nil {
		return err
	}
	if d.protoSrv, err = protocol.NewServer(protoPath, d.proto, d.logger.With("component", "protocol")); err != nil {
		return err
	}

	ipcPath, err := runtimepath.Resolve(d.cfg.IPC.Socket, runtimepath.SocketPath)
	if err != nil {
		return err
	}
	d.ipcSrv = ipc.NewServer(ipcPath, &control{d: d}, d.logger.With("component", "ipc"))
	return d.ipcSrv.Start()
}

func (d *Daemon) closeSockets() {
	if d.ipcSrv != nil {
		d.ipcSrv.Stop()
	}
	if d.protoSrv != nil {
		d.protoSrv.Close()
	}
	if d.policySrv != nil {
		d.policySrv.Close()
	}
}

// Run blocks until ctx is done. The event loop runs on the calling
// goroutine.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	infos, err := d.backend.Outputs()
	if err != nil {
		return fmt.Errorf("initial outputs: %w", err)
	}
	d.syncOutputs(infos)

	var wg sync.WaitGroup
	errCh := make(chan error, 4)
	spawn := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Error("daemon component failed", "component", name, "error", err)
				errCh <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	spawn("policy", func() error { return d.policySrv.Serve(ctx) })
	spawn("protocol", func() error {
		return d.protoSrv.Serve(ctx, func(ev protocol.Event) {
			d.loop.Post(func() { d.dispatch(ev) })
		})
	})
	spawn("backend", func() error {
		return d.backend.Watch(ctx, func() { d.refreshOutputs() })
	})
	spawn("inbound", func() error {
		reactor.Attach(ctx, d.loop, d.bridge.Inbound(), d.applyCommand)
		return nil
	})
	if iv := d.cfg.Policy.HeartbeatInterval; iv > 0 {
		spawn("heartbeat", func() error {
			ticker := time.NewTicker(iv)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case now := <-ticker.C:
					if err := d.loop.Post(func() { d.heartbeat.Beat(now) }); err != nil {
						return nil
					}
				}
			}
		})
	}
	if d.opts.Signals {
		spawn("signals", func() error {
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hup:
					d.logger.Info("received SIGHUP, reloading config")
					if err := d.reload(); err != nil {
						d.logger.Warn("config reload failed", "error", err)
					}
				}
			}
		})
	}

	d.logger.Info("wayshell daemon started",
		"backend", d.cfg.Backend,
		"outputs", len(infos),
		"policy_socket", d.policySrv.Path(),
		"protocol_socket", d.protoSrv.Path(),
		"ipc_socket", d.ipcSrv.Path())

	loopErr := d.loop.Run(ctx, d.tick)

	cancel()
	d.sched.Stop()
	d.closeSockets()
	wg.Wait()
	d.backend.Close()
	d.logger.Info("wayshell daemon stopped")

	if loopErr != nil {
		return loopErr
	}
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// tick runs after every batch of loop work.
func (d *Daemon) tick() {
	d.shell.Refresh()
	d.shell.UpdateActive()
	if err := d.proto.Flush(); err != nil {
		d.logger.Warn("flushing protocol requests failed", "error", err)
	}
}

func (d *Daemon) dispatch(ev protocol.Event) {
	if err := protocol.Dispatch(d.shell, ev); err != nil {
		d.logger.Debug("protocol event not applied", "kind", ev.Kind(), "error", err)
	}
}

func (d *Daemon) applyCommand(in policy.Incoming) {
	if d.heartbeat.Observe(in, time.Now()) {
		return
	}
	if err := d.shell.ApplyCommand(in); err != nil {
		d.logger.Warn("policy command rejected", "id", in.ID, "kind", in.Command.Kind(), "error", err)
	}
}

// refreshOutputs runs on the backend watcher goroutine.
func (d *Daemon) refreshOutputs() {
	infos, err := d.backend.Outputs()
	if err != nil {
		d.logger.Warn("reading outputs failed", "error", err)
		return
	}
	d.loop.Post(func() { d.syncOutputs(infos) })
}

func (d *Daemon) syncOutputs(infos []platform.OutputInfo) {
	d.shell.SyncOutputs(infos)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	d.sched.Sync(names)
	d.logger.Info("outputs updated", "outputs", names)
}

// reload re-reads the config and applies what can change at runtime:
// the log level and the headless output list.
func (d *Daemon) reload() error {
	if d.opts.LoadConfig == nil {
		return fmt.Errorf("reload not supported")
	}
	d.reloadMu.Lock()
	defer d.reloadMu.Unlock()

	cfg, err := d.opts.LoadConfig()
	if err != nil {
		return err
	}

	if d.opts.Level != nil {
		lvl, err := ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		d.opts.Level.Set(lvl)
	}
	if d.headless != nil && cfg.Backend == config.BackendHeadless {
		infos, err := cfg.OutputInfos()
		if err != nil {
			return err
		}
		d.headless.SetOutputs(infos)
	}

	// Restart-only settings are compared with the running config; the
	// warning is logged when that set of differences changes.
	pending := restartSettings(d.cfg, cfg)
	if !slices.Equal(pending, d.pendingRestart) {
		if len(pending) > 0 {
			d.logger.Warn("settings need a restart to take effect", "settings", pending)
		} else {
			d.logger.Info("restart-only settings match the running config again")
		}
		d.pendingRestart = pending
	}
	d.logger.Info("config reloaded")
	return nil
}

// restartSettings names the top-level settings that differ between the
// running config and next and only apply on restart.
func restartSettings(running, next *config.Config) []string {
	var changed []string
	if running.Backend != next.Backend || running.Display != next.Display || running.Scale != next.Scale {
		changed = append(changed, "backend")
	}
	if !slices.Equal(running.Seats, next.Seats) {
		changed = append(changed, "seats")
	}
	if running.Policy != next.Policy {
		changed = append(changed, "policy")
	}
	if running.Protocol != next.Protocol {
		changed = append(changed, "protocol")
	}
	if running.IPC != next.IPC {
		changed = append(changed, "ipc")
	}
	if running.Render != next.Render {
		changed = append(changed, "render")
	}
	return changed
}
