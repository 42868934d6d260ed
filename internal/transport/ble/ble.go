// Package ble connects to a TNC exposed over Bluetooth Low Energy (the
// Mobilinkd/Kenwood style of handheld TNC), using tinygo.org/x/bluetooth.
// The teacher's src/ never touches BLE directly, so this package is
// grounded on the generic notify/write-without-response GATT pattern
// tinygo.org/x/bluetooth's own examples use, adapted to the
// transport.TNC read/write interface.
package ble

import (
	"fmt"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/n7gw/tncgw/internal/gwlog"
)

var adapter = bluetooth.DefaultAdapter

// Common Nordic UART Service UUIDs used by most serial-over-BLE TNCs.
var (
	uartServiceUUID = bluetooth.NewUUID([16]byte{
		0x6e, 0x40, 0x00, 0x01, 0xb5, 0xa3, 0xf3, 0x93,
		0xe0, 0xa9, 0xe5, 0x0e, 0x24, 0xdc, 0xca, 0x9e,
	})
	uartRXCharUUID = bluetooth.NewUUID([16]byte{
		0x6e, 0x40, 0x00, 0x02, 0xb5, 0xa3, 0xf3, 0x93,
		0xe0, 0xa9, 0xe5, 0x0e, 0x24, 0xdc, 0xca, 0x9e,
	})
	uartTXCharUUID = bluetooth.NewUUID([16]byte{
		0x6e, 0x40, 0x00, 0x03, 0xb5, 0xa3, 0xf3, 0x93,
		0xe0, 0xa9, 0xe5, 0x0e, 0x24, 0xdc, 0xca, 0x9e,
	})
)

// TNC is a BLE connection to a Nordic-UART-style serial TNC.
type TNC struct {
	device  bluetooth.Device
	rx      bluetooth.DeviceCharacteristic
	tx      bluetooth.DeviceCharacteristic
	inbound chan []byte
	closed  chan struct{}
}

// Connect scans for a device named name (or any device if name is
// empty) advertising the UART service, and connects to it.
func Connect(name string, scanTimeout time.Duration) (*TNC, error) {
	log := gwlog.For("ble")

	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enabling adapter: %w", err)
	}

	found := make(chan bluetooth.ScanResult, 1)
	go func() {
		_ = adapter.Scan(func(a *bluetooth.Adapter, res bluetooth.ScanResult) {
			if name != "" && res.LocalName() != name {
				return
			}
			if !res.HasServiceUUID(uartServiceUUID) {
				return
			}
			select {
			case found <- res:
				_ = a.StopScan()
			default:
			}
		})
	}()

	var result bluetooth.ScanResult
	select {
	case result = <-found:
	case <-time.After(scanTimeout):
		_ = adapter.StopScan()
		return nil, fmt.Errorf("ble: no TNC found within %s", scanTimeout)
	}

	device, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("ble: connecting to %s: %w", result.Address.String(), err)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{uartServiceUUID})
	if err != nil || len(services) == 0 {
		_ = device.Disconnect()
		return nil, fmt.Errorf("ble: discovering UART service: %w", err)
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{uartRXCharUUID, uartTXCharUUID})
	if err != nil || len(chars) < 2 {
		_ = device.Disconnect()
		return nil, fmt.Errorf("ble: discovering UART characteristics: %w", err)
	}

	t := &TNC{
		device:  device,
		inbound: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
	for _, c := range chars {
		switch c.UUID() {
		case uartRXCharUUID:
			t.rx = c
		case uartTXCharUUID:
			t.tx = c
		}
	}

	if err := t.tx.EnableNotifications(func(buf []byte) {
		cp := append([]byte(nil), buf...)
		select {
		case t.inbound <- cp:
		case <-t.closed:
		default:
		}
	}); err != nil {
		_ = device.Disconnect()
		return nil, fmt.Errorf("ble: enabling notifications: %w", err)
	}

	log.Infof("connected to BLE TNC %s", result.Address.String())
	return t, nil
}

// Read blocks until a notified chunk arrives, or returns an error once
// the TNC has been closed.
func (t *TNC) Read(p []byte) (int, error) {
	select {
	case b := <-t.inbound:
		n := copy(p, b)
		return n, nil
	case <-t.closed:
		return 0, fmt.Errorf("ble: connection closed")
	}
}

// Write sends p to the RX characteristic without waiting for a
// response, matching how these TNCs expect framed KISS bytes pushed.
func (t *TNC) Write(p []byte) (int, error) {
	return t.rx.WriteWithoutResponse(p)
}

// Close disconnects from the BLE peripheral.
func (t *TNC) Close() error {
	close(t.closed)
	return t.device.Disconnect()
}
