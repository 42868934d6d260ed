package aprs

import "strings"

// micESuffixDevices maps the trailing MIC-E "telemetry/device" marker
// bytes (APRS spec chapter "MIC-E Device Identifiers") to a human
// device name. This is a representative subset of the full table
// carried by the prior Go port's tocall.txt-derived lookup, per
// §4's documented partial-coverage decision.
var micESuffixDevices = map[string]string{
	">":  "Kenwood TH-D7",
	">X": "Kenwood TH-D7",
	">^": "Kenwood TH-D72",
	"]":  "Kenwood TM-D700",
	"]=": "Kenwood TM-D710",
	"`_": "Yaesu VX-8",
	"`(": "Yaesu FTM-350",
	"`9": "Yaesu FT1D",
	"`b": "Yaesu FTM-400DR",
	"`v": "Yaesu VX-8G",
	"`9\"": "Yaesu FT2D",
	"'(": "TH-D72 Home",
	"'|": "TinyTrak4",
	"'v": "Byonics TinyTrak3",
	"\"4": "APRSdroid",
	"|3": "Byonics TinyTrak4",
}

// decodeMicEDeviceID strips a recognized device-identifier suffix from
// the end of a MIC-E comment string and returns the trimmed comment
// plus the device name (empty if unrecognized).
func decodeMicEDeviceID(comment string) (trimmed string, device string) {
	for suffix, name := range micESuffixDevices {
		if strings.HasSuffix(comment, suffix) {
			return strings.TrimSuffix(comment, suffix), name
		}
	}
	return comment, ""
}

// destinationDevices maps a subset of well-known AX.25 destination
// callsigns (the "TOCALL" convention) to a device/software name, for
// non-MIC-E packets where the destination field identifies the
// originating software rather than a digipeater path. Partial table,
// per §4.
var destinationDevices = map[string]string{
	"APRS":   "Generic APRS",
	"APDW":   "Direwolf",
	"APDW17": "Direwolf",
	"APOT":   "APRStouch Tone",
	"APU25N": "UI-View32",
	"APMI":   "MIC-Emsg",
	"APY":    "YAAC",
	"APZ":    "Experimental",
}

// DeviceFromDestination looks up the device/software associated with
// an AX.25 destination callsign base (ignoring SSID), per the TOCALL
// convention. ok is false when the destination isn't in the partial
// table carried here.
func DeviceFromDestination(base string) (device string, ok bool) {
	device, ok = destinationDevices[strings.ToUpper(base)]
	return
}
