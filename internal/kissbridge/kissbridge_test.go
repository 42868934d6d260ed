package kissbridge

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/n7gw/tncgw/internal/kissframe"
	"github.com/n7gw/tncgw/internal/txsched"
)

type pipeTNC struct {
	toClients   chan []byte
	fromClients chan []byte
}

func newPipeTNC() *pipeTNC {
	return &pipeTNC{toClients: make(chan []byte, 16), fromClients: make(chan []byte, 16)}
}

func (p *pipeTNC) Read(buf []byte) (int, error) {
	b := <-p.toClients
	return copy(buf, b), nil
}
func (p *pipeTNC) Write(b []byte) (int, error) {
	p.fromClients <- append([]byte(nil), b...)
	return len(b), nil
}
func (p *pipeTNC) Close() error { return nil }

func TestBroadcastToClient(t *testing.T) {
	tnc := newPipeTNC()
	sched := txsched.New(tnc)
	bridge := New(tnc, sched, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)
	go bridge.ReadLoop(ctx)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close()) // free the port so Serve can bind it
	go bridge.Serve(ctx, addr)

	var conn net.Conn
	require.Eventually(t, func() bool {
		conn, err = net.Dial("tcp", addr)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond) // let the server register the client
	tnc.toClients <- []byte{0xC0, 0x00, 'h', 'i', 0xC0}

	buf := make([]byte, 16)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0xC0, 0x00, 'h', 'i', 0xC0}, buf[:n])
}

func TestClientFrameForwardedToTransport(t *testing.T) {
	tnc := newPipeTNC()
	sched := txsched.New(tnc)
	bridge := New(tnc, sched, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)
	go bridge.ReadLoop(ctx)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close()) // free the port so Serve can bind it
	go bridge.Serve(ctx, addr)

	var conn net.Conn
	require.Eventually(t, func() bool {
		conn, err = net.Dial("tcp", addr)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	defer conn.Close()

	wire := kissframe.Encode(kissframe.Frame{Port: 0, Kind: kissframe.CmdDataFrame, Payload: []byte("xmit")})
	_, err = conn.Write(wire)
	require.NoError(t, err)

	select {
	case got := <-tnc.fromClients:
		require.Equal(t, wire, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded frame")
	}
}
