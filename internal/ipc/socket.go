package ipc

import (
	"fmt"
	"net"
	"os"
)

// Listen creates the control channel's Unix-domain stream socket at
// path (spec.md §6.1). Any stale socket file left behind by a crashed
// previous instance is removed first; if the bind still fails, the
// caller should treat it as fatal with a hint that another instance
// may already be running (spec.md §7, §8.2's ipc_create_server note).
func Listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ipc: removing stale socket %s: %w", path, err)
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen on %s (another instance already running?): %w", path, err)
	}
	return l, nil
}
