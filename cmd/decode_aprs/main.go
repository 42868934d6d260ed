// decode_aprs is a standalone utility to parse and explain APRS
// packets read from stdin, one per line, grounded on the prior Go port's
// src/decode_aprs_main.go: accepts either monitor-format text
// ("SRC>DEST,PATH:info") or whitespace-separated hex bytes of a raw
// AX.25 frame, adapted to call this repository's own decoders instead
// of the prior Go port's cgo ax25_from_text/decode_aprs C functions.
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/n7gw/tncgw/internal/aprs"
	"github.com/n7gw/tncgw/internal/ax25"
)

var hexLineRE = regexp.MustCompile(`^[[:xdigit:]]{2}( [[:xdigit:]]{2})*$`)
var monitorLineRE = regexp.MustCompile(`^([A-Z0-9-]+)>([A-Z0-9-]+)(?:,[^:]*)?:(.*)$`)

func main() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			fmt.Println(line)
			continue
		}
		decodeLine(line)
	}
}

func decodeLine(line string) {
	fmt.Println()
	fmt.Println(line)

	trimmed := strings.TrimLeft(line, " ")
	if hexLineRE.MatchString(trimmed) {
		decodeHexFrame(trimmed)
		return
	}
	decodeMonitorLine(line)
}

func decodeHexFrame(line string) {
	raw, err := hex.DecodeString(strings.ReplaceAll(line, " ", ""))
	if err != nil {
		fmt.Printf("ERROR: bad hex: %v\n", err)
		return
	}
	f, err := ax25.Decode(raw)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		return
	}
	printFrame(f)
}

func decodeMonitorLine(line string) {
	m := monitorLineRE.FindStringSubmatch(line)
	if m == nil {
		fmt.Println("ERROR: not a recognizable monitor-format line")
		return
	}
	dest, info := m[2], m[3]
	printPayload(dest, []byte(info))
}

func printFrame(f ax25.Frame) {
	fmt.Printf("%s>%s,%s:\n", f.Src, f.Dest, strings.Join(f.Path(), ","))
	if f.IsUI() {
		printPayload(f.Dest.Base, f.Info)
	}
}

func printPayload(destBase string, info []byte) {
	p, err := aprs.Decode(destBase, info)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		return
	}
	switch p.Kind {
	case aprs.KindPosition:
		pos := p.Position
		fmt.Printf("Position: %.4f %.4f", pos.Lat, pos.Lon)
		if pos.Comment != "" {
			fmt.Printf(" %q", pos.Comment)
		}
		fmt.Println()
	case aprs.KindMessage:
		msg := p.Message
		if msg.IsAck {
			fmt.Printf("Ack for message %s to %s\n", msg.MsgID, msg.Addressee)
		} else {
			fmt.Printf("Message to %s: %s\n", msg.Addressee, msg.Body)
		}
	case aprs.KindWeather:
		fmt.Printf("Weather report\n")
	case aprs.KindStatus:
		fmt.Printf("Status: %s\n", p.Status.Text)
	case aprs.KindTelemetry:
		fmt.Printf("Telemetry seq=%d\n", p.Telemetry.Seq)
	case aprs.KindObject:
		fmt.Printf("Object %q live=%v\n", p.Object.Name, p.Object.Live)
	case aprs.KindItem:
		fmt.Printf("Item %q live=%v\n", p.Item.Name, p.Item.Live)
	case aprs.KindThirdParty:
		fmt.Printf("Third-party: %s\n", p.ThirdParty.Header)
	default:
		fmt.Println("Unrecognized APRS data type")
	}
}
