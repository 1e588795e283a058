package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/wayshell/internal/daemon"
	"github.com/1broseidon/wayshell/internal/policy"
	"github.com/1broseidon/wayshell/internal/runtimepath"
)

func runPolicyEngine(args []string) int {
	fs := newFlagSet("policy-engine",
		"Usage: wayshell policy-engine [--config PATH] [--socket PATH]",
		"",
		"Connect to a running daemon and act as its window-management policy:",
		"cascade new windows, maximize to the usable area, answer pings.",
	)
	path := fs.StringP("config", "c", "", "Config file path (default: ~/.config/wayshell/config.yaml)")
	socket := fs.String("socket", "", "Policy socket (default: from config or $XDG_RUNTIME_DIR)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "policy-engine takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	logger, _, err := daemon.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	logger = logger.With("component", "policy-engine")

	configured := *socket
	if configured == "" {
		configured = cfg.Policy.Socket
	}
	socketPath, err := runtimepath.Resolve(configured, runtimepath.PolicySocketPath)
	if err != nil {
		logger.Error("failed to resolve policy socket", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := policy.DialEngine(ctx, socketPath)
	if err != nil {
		logger.Error("failed to connect", "socket", socketPath, "error", err)
		return 1
	}
	defer conn.Close()

	logger.Info("connected", "socket", socketPath)
	engine := policy.NewEngine(cfg.Policy.CascadeStep, logger)
	if err := engine.Run(ctx, conn); err != nil && ctx.Err() == nil {
		logger.Error("engine stopped", "error", err)
		return 1
	}
	return 0
}
