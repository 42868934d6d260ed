// Package transport defines the common interface every concrete TNC
// connection (serial, TCP, Bluetooth LE) implements, so the KISS
// bridge and AGWPE server can talk to whichever is configured without
// caring which one it is. Grounded on the prior Go port's serial_port.go /
// kissnet.go / kissserial.go split, generalized into one interface
// with three implementations under transport/serialtnc,
// transport/tcpclient, and transport/ble.
package transport

import "io"

// TNC is a byte-oriented connection to an external KISS TNC: reading
// yields whatever bytes the TNC has sent (to be fed through
// kissframe.Decoder), writing sends KISS-framed bytes to it.
type TNC interface {
	io.ReadWriteCloser
}
