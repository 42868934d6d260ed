package netdiag

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInspectRejectsNonTCPConn(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	_, err := Inspect(c1)
	require.Error(t, err)
}

func TestInspectTCPConn(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err == nil {
			defer c.Close()
		}
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	info, err := Inspect(conn)
	require.NoError(t, err)
	require.Greater(t, info.FD, 0)
}
