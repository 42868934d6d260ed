// Package netdiag exposes low-level diagnostics for TCP connections
// (clients of the KISS-over-TCP and AGWPE listeners) by reaching
// through to the underlying file descriptor via github.com/higebu/netfd;
// the two listeners log each client's descriptor and local address at
// connect time.
package netdiag

import (
	"fmt"
	"net"

	"github.com/higebu/netfd"
)

// ConnInfo summarizes diagnostic state for one TCP connection.
type ConnInfo struct {
	LocalAddr  string
	RemoteAddr string
	FD         int
}

// Inspect extracts the raw file descriptor of a TCP connection for
// diagnostic display. Returns an error if conn isn't backed by a file
// descriptor (e.g. an in-memory pipe used in tests).
func Inspect(conn net.Conn) (ConnInfo, error) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return ConnInfo{}, fmt.Errorf("netdiag: connection is not a *net.TCPConn")
	}

	fd, err := netfd.GetFd(tcpConn)
	if err != nil {
		return ConnInfo{}, fmt.Errorf("netdiag: reading file descriptor: %w", err)
	}

	return ConnInfo{
		LocalAddr:  conn.LocalAddr().String(),
		RemoteAddr: conn.RemoteAddr().String(),
		FD:         int(fd),
	}, nil
}
