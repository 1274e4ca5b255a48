//go:build !linux

package server

import "net"

// listen binds an IPv4 listener. The backlog is left to the OS here.
func listen(cfg Config) (net.Listener, error) {
	return net.Listen("tcp4", cfg.Addr())
}
