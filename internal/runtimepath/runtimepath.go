package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	controlSocketName  = "wayshell.sock"
	policySocketName   = "wayshell-policy.sock"
	protocolSocketName = "wayshell-protocol.sock"
)

// Dir returns the runtime directory holding wayshell sockets. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/wayshell-runtime-<uid> (created)
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/wayshell-runtime-%d", uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

func join(name string) (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, name), nil
}

// SocketPath returns the control IPC socket path.
func SocketPath() (string, error) {
	return join(controlSocketName)
}

// PolicySocketPath returns the socket the policy engine connects to.
func PolicySocketPath() (string, error) {
	return join(policySocketName)
}

// ProtocolSocketPath returns the socket the protocol front-end connects to.
func ProtocolSocketPath() (string, error) {
	return join(protocolSocketName)
}

// Resolve returns configured if it is set, otherwise the default path.
func Resolve(configured string, fallback func() (string, error)) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return fallback()
}
