// Package tcpclient connects to a TNC exposed over KISS-over-TCP (the
// common case for software TNCs like Direwolf itself, or a TNC already
// bridged by another instance of this gateway), grounded on the
// teacher's kissnet.go client-dial path.
package tcpclient

import (
	"fmt"
	"net"
	"time"

	"github.com/n7gw/tncgw/internal/gwlog"
)

// TNC wraps a net.Conn dialed to a remote KISS-over-TCP endpoint.
type TNC struct {
	conn net.Conn
}

// Dial connects to addr (host:port) with the given timeout.
func Dial(addr string, timeout time.Duration) (*TNC, error) {
	log := gwlog.For("tcpclient")

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("tcpclient: dialing %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(30 * time.Second)
		_ = tc.SetNoDelay(true)
	}

	log.Infof("connected to KISS TNC at %s", addr)
	return &TNC{conn: conn}, nil
}

func (c *TNC) Read(p []byte) (int, error)  { return c.conn.Read(p) }
func (c *TNC) Write(p []byte) (int, error) { return c.conn.Write(p) }
func (c *TNC) Close() error                { return c.conn.Close() }
