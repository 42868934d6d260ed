package agwpe

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/n7gw/tncgw/internal/ax25"
	"github.com/n7gw/tncgw/internal/ax25link"
	"github.com/n7gw/tncgw/internal/callsign"
	"github.com/n7gw/tncgw/internal/txsched"
)

type nullTNC struct{}

func (nullTNC) Read(p []byte) (int, error)  { select {} }
func (nullTNC) Write(p []byte) (int, error) { return len(p), nil }
func (nullTNC) Close() error                { return nil }

func TestHeaderRoundTrip(t *testing.T) {
	msg := &Message{
		Header: Header{Port: 0, DataKind: 'G', CallFrom: callBytes("N7GW")},
		Data:   []byte("hello"),
	}
	var buf bytes.Buffer
	require.NoError(t, writeMessage(&buf, msg))
	require.Equal(t, 36+5, buf.Len())

	got, err := readMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, byte('G'), got.Header.DataKind)
	require.Equal(t, "N7GW", callString(got.Header.CallFrom))
	require.Equal(t, []byte("hello"), got.Data)
}

func TestServePortInfoQuery(t *testing.T) {
	sched := txsched.New(nullTNC{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	link := ax25link.NewManager(callsign.MustParse("N7GW"), fakeTx{}, ax25link.DefaultConfig())
	defer link.CloseAll()

	srv := New("N7GW", sched, link)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close()) // free the port so Serve can bind it
	go srv.Serve(ctx, addr)

	var conn net.Conn
	require.Eventually(t, func() bool {
		conn, err = net.Dial("tcp", addr)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	defer conn.Close()

	require.NoError(t, writeMessage(conn, &Message{Header: Header{DataKind: 'G'}}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := readMessage(conn)
	require.NoError(t, err)
	require.Equal(t, byte('G'), reply.Header.DataKind)
}

type fakeTx struct{}

func (fakeTx) SendFrame(f ax25.Frame) error { return nil }
