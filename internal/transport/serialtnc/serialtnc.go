// Package serialtnc connects to a TNC attached over a serial port,
// grounded directly on the prior Go port's serial_port.go (github.com/pkg/term,
// raw mode, baud rate).
package serialtnc

import (
	"fmt"

	"github.com/pkg/term"

	"github.com/n7gw/tncgw/internal/gwlog"
)

// TNC wraps a *term.Term as a transport.TNC.
type TNC struct {
	t *term.Term
}

// Open opens device at the given baud rate in raw mode, matching the
// teacher's serial_port_open.
func Open(device string, baud int) (*TNC, error) {
	log := gwlog.For("serialtnc")

	t, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("serialtnc: opening %s: %w", device, err)
	}
	if baud > 0 {
		if err := t.SetSpeed(baud); err != nil {
			t.Close()
			return nil, fmt.Errorf("serialtnc: setting speed on %s: %w", device, err)
		}
	}

	log.Infof("opened serial TNC %s at %d baud", device, baud)
	return &TNC{t: t}, nil
}

func (c *TNC) Read(p []byte) (int, error)  { return c.t.Read(p) }
func (c *TNC) Write(p []byte) (int, error) { return c.t.Write(p) }
func (c *TNC) Close() error                { return c.t.Close() }
