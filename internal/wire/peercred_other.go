//go:build !linux

package wire

import "net"

// PeerUID is unsupported off Linux; -1 skips the uid check and the
// socket's 0600 mode is the only gate.
func PeerUID(uc *net.UnixConn) (int, error) {
	return -1, nil
}
