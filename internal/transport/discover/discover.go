// Package discover enumerates candidate serial TNC devices over udev
// (github.com/jochenvg/go-udev), for the "pick a TNC from a list"
// workflow rather than requiring an operator to already know their
// /dev/ttyUSB* path. This is a fresh component: the prior Go port's go.mod
// carries go-udev but its own source only reaches libudev through
// direct cgo bindings in cm108.go (CM108 GPIO PTT, out of scope here);
// this package is what actually exercises the go-udev dependency.
package discover

import (
	"strings"

	"github.com/jochenvg/go-udev"
)

// SerialDevice describes one candidate TNC serial port.
type SerialDevice struct {
	Path        string
	Vendor      string
	Model       string
	Serial      string
}

// ListSerialDevices enumerates "tty" subsystem devices that look like
// USB-attached serial adapters (the common case for an external TNC).
func ListSerialDevices() ([]SerialDevice, error) {
	u := udev.Udev{}
	enum := u.NewEnumerate()

	if err := enum.AddMatchSubsystem("tty"); err != nil {
		return nil, err
	}

	devices, err := enum.Devices()
	if err != nil {
		return nil, err
	}

	out := make([]SerialDevice, 0, len(devices))
	for _, d := range devices {
		path := d.Syspath()
		if !strings.Contains(path, "usb") {
			continue
		}
		devNode := d.Devnode()
		if devNode == "" {
			continue
		}
		out = append(out, SerialDevice{
			Path:   devNode,
			Vendor: d.PropertyValue("ID_VENDOR"),
			Model:  d.PropertyValue("ID_MODEL"),
			Serial: d.PropertyValue("ID_SERIAL_SHORT"),
		})
	}
	return out, nil
}
