// kissutil is a small diagnostic client for a KISS-over-TCP listener
// (C9): it connects, prints every frame received as hex, and
// optionally transmits one frame given as a hex string on the command
// line. Grounded on the prior Go port's cmd/tnctest's "connect to a TCP TNC
// port, exchange frames, report what happened" shape, trimmed down
// from a full two-TNC connected-mode test harness to a single-shot
// KISS probe.
package main

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"

	"github.com/spf13/pflag"

	"github.com/n7gw/tncgw/internal/kissframe"
)

func main() {
	addr := pflag.StringP("addr", "a", "localhost:8001", "host:port of the KISS-over-TCP listener")
	send := pflag.StringP("send", "s", "", "hex-encoded AX.25 frame to transmit, then exit")
	pflag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kissutil: dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	if *send != "" {
		payload, err := hex.DecodeString(*send)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kissutil: bad hex: %v\n", err)
			os.Exit(1)
		}
		if _, err := conn.Write(kissframe.EncodeData(0, payload)); err != nil {
			fmt.Fprintf(os.Stderr, "kissutil: write: %v\n", err)
			os.Exit(1)
		}
		return
	}

	dec := kissframe.NewDecoder(func(reason kissframe.DropReason) {
		fmt.Fprintf(os.Stderr, "kissutil: dropped frame: %s\n", reason)
	})
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kissutil: read: %v\n", err)
			return
		}
		for _, f := range dec.Feed(buf[:n]) {
			fmt.Printf("port=%d kind=%d %s\n", f.Port, f.Kind, hex.EncodeToString(f.Payload))
		}
	}
}
