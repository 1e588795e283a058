package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/1broseidon/wayshell/internal/config"
	"github.com/1broseidon/wayshell/internal/daemon"
	"github.com/1broseidon/wayshell/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "outputs":
		os.Exit(runOutputs(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "focus":
		os.Exit(runFocus(os.Args[2:]))
	case "fullscreen":
		os.Exit(runFullscreen(os.Args[2:]))
	case "unfullscreen":
		os.Exit(runUnfullscreen(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "policy-engine":
		os.Exit(runPolicyEngine(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wayshell <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the compositor shell (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  outputs             List outputs and frame statistics")
	fmt.Fprintln(w, "  windows             List mapped windows")
	fmt.Fprintln(w, "  focus               Focus a window")
	fmt.Fprintln(w, "  fullscreen          Make a window fullscreen")
	fmt.Fprintln(w, "  unfullscreen        Leave fullscreen")
	fmt.Fprintln(w, "  reload              Reload configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate config file")
	fmt.Fprintln(w, "  config print        Print effective config")
	fmt.Fprintln(w, "  config explain      Show where a config value comes from")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  policy-engine       Run the reference policy engine")
	fmt.Fprintln(w, "  mcp serve           Start the MCP server (stdio)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'wayshell <command> --help' for command-specific options.")
}

// parseFlags parses args and maps the outcome to an exit code; ok is
// false when the command should return code immediately.
func parseFlags(fs *pflag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func newFlagSet(name string, usage ...string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		for _, line := range usage {
			fmt.Fprintln(os.Stderr, line)
		}
		if fs.HasFlags() {
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Options:")
			fs.PrintDefaults()
		}
	}
	return fs
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func runDaemon(args []string) int {
	fs := newFlagSet("daemon",
		"Usage: wayshell daemon [--config PATH]",
		"",
		"Run the compositor shell in the foreground.",
	)
	path := fs.StringP("config", "c", "", "Config file path (default: ~/.config/wayshell/config.yaml)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger, level, err := daemon.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}

	d, err := daemon.New(cfg, daemon.Options{
		Level:      level,
		LoadConfig: func() (*config.Config, error) { return loadConfig(*path) },
		Signals:    true,
	}, logger)
	if err != nil {
		logger.Error("failed to start daemon", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon exited", "error", err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := newFlagSet("status",
		"Usage: wayshell status [--json]",
		"",
		"Show daemon status via IPC.",
	)
	asJSON := fs.Bool("json", false, "Print raw JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(status)
	}
	fmt.Printf("uptime_seconds:     %d\n", status.UptimeSeconds)
	fmt.Printf("backend:            %s\n", status.Backend)
	fmt.Printf("workspace:          %d\n", status.Workspace)
	fmt.Printf("outputs:            %d\n", status.Outputs)
	fmt.Printf("windows:            %d\n", status.Windows)
	fmt.Printf("clients:            %d\n", status.Clients)
	fmt.Printf("seats:              %v\n", status.Seats)
	fmt.Printf("engine_connected:   %v\n", status.EngineConnected)
	fmt.Printf("frontend_connected: %v\n", status.FrontendConnected)
	fmt.Printf("queued_messages:    %d\n", status.QueuedMessages)
	if status.HeartbeatRTTMs > 0 {
		fmt.Printf("heartbeat_rtt_ms:   %.2f\n", status.HeartbeatRTTMs)
	}
	return 0
}

func runOutputs(args []string) int {
	fs := newFlagSet("outputs",
		"Usage: wayshell outputs [--json]",
		"",
		"List outputs with their usable area and frame counters.",
	)
	asJSON := fs.Bool("json", false, "Print raw JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "outputs takes no arguments")
		fs.Usage()
		return 2
	}

	data, err := ipc.NewClient().GetOutputs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(data)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tGEOMETRY\tMODE\tSCALE\tTRANSFORM\tUSABLE\tLAYERS\tFRAMES")
	for _, o := range data.Outputs {
		fmt.Fprintf(tw, "%s\t%dx%d+%d+%d\t%dx%d@%.3f\t%.2f\t%s\t%dx%d+%d+%d\t%d\t%d/%d\n",
			o.Name,
			o.Width, o.Height, o.X, o.Y,
			o.ModeWidth, o.ModeHeight, float64(o.RefreshMHz)/1000,
			o.Scale, o.Transform,
			o.UsableW, o.UsableH, o.UsableX, o.UsableY,
			o.Layers, o.Rendered, o.Rendered+o.Skipped,
		)
	}
	_ = tw.Flush()
	return 0
}

func runWindows(args []string) int {
	fs := newFlagSet("windows",
		"Usage: wayshell windows [--json]",
		"",
		"List mapped toplevel windows.",
	)
	asJSON := fs.Bool("json", false, "Print raw JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "windows takes no arguments")
		fs.Usage()
		return 2
	}

	data, err := ipc.NewClient().ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(data)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SURFACE\tAPP_ID\tTITLE\tOUTPUT\tGEOMETRY\tSTATE\tFOCUS")
	for _, w := range data.Windows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%dx%d+%d+%d\t%s\t%s\n",
			w.Surface, w.AppID, w.Title, w.Output,
			w.Width, w.Height, w.X, w.Y,
			windowState(w), joinSeats(w.FocusedBy),
		)
	}
	_ = tw.Flush()
	return 0
}

func windowState(w ipc.WindowInfo) string {
	switch {
	case w.Fullscreen:
		return "fullscreen"
	case w.Maximized:
		return "maximized"
	case w.State != "":
		return w.State
	default:
		return "-"
	}
}

func joinSeats(seats []string) string {
	if len(seats) == 0 {
		return "-"
	}
	return strings.Join(seats, ",")
}

func parseSurface(fs *pflag.FlagSet) (uint64, error) {
	if fs.NArg() != 1 {
		return 0, fmt.Errorf("%s requires exactly one <surface>", fs.Name())
	}
	surface, err := strconv.ParseUint(fs.Arg(0), 10, 64)
	if err != nil || surface == 0 {
		return 0, fmt.Errorf("invalid surface %q", fs.Arg(0))
	}
	return surface, nil
}

func runFocus(args []string) int {
	fs := newFlagSet("focus",
		"Usage: wayshell focus <surface> [--seat NAME]",
		"",
		"Give keyboard focus to a window on one seat, or all seats.",
	)
	seat := fs.String("seat", "", "Seat to focus on (default: all seats)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	surface, err := parseSurface(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().FocusWindow(surface, *seat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runFullscreen(args []string) int {
	fs := newFlagSet("fullscreen",
		"Usage: wayshell fullscreen <surface> [--output NAME]",
		"",
		"Make a window fullscreen on its current or the named output.",
	)
	output := fs.String("output", "", "Output to fullscreen on")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	surface, err := parseSurface(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().FullscreenWindow(surface, *output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runUnfullscreen(args []string) int {
	fs := newFlagSet("unfullscreen",
		"Usage: wayshell unfullscreen <surface>",
		"",
		"Restore a fullscreen window.",
	)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	surface, err := parseSurface(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().UnfullscreenWindow(surface); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runReload(args []string) int {
	fs := newFlagSet("reload",
		"Usage: wayshell reload",
		"",
		"Ask the daemon to reload its configuration.",
	)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("reloaded")
	return 0
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
