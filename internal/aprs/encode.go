package aprs

import (
	"fmt"
	"strings"
)

// Encode renders a Payload back to an AX.25 information field. This
// is the inverse of Decode for every kind except MIC-E, which encodes
// as a plain '!' position report without a timestamp: MIC-E's destination-address
// encoding is a transmit-side space optimization, not information the
// decoded Position carries losslessly, so spec.md §8's round-trip
// invariant is defined over Decode(Encode(p)) producing an
// equivalent Position rather than byte-identical wire bytes.
func Encode(p *Payload) ([]byte, error) {
	switch p.Kind {
	case KindPosition:
		return encodePosition(p.Position), nil
	case KindMessage:
		return EncodeMessage(p.Message), nil
	case KindStatus:
		return EncodeStatus(p.Status), nil
	case KindTelemetry:
		return EncodeTelemetry(p.Telemetry), nil
	case KindWeather:
		return encodeWeather(p.Weather), nil
	case KindObject:
		return encodeObject(p.Object), nil
	case KindItem:
		return encodeItem(p.Item), nil
	case KindThirdParty:
		return encodeThirdParty(p.ThirdParty), nil
	default:
		return nil, fmt.Errorf("%w: cannot encode payload kind %v", errUnknownType, p.Kind)
	}
}

func encodePosition(p *Position) []byte {
	var b strings.Builder
	if p.Timestamp != nil {
		b.WriteByte('/')
		b.WriteString(p.Timestamp.Format("021504"))
		b.WriteByte('z')
	} else {
		b.WriteByte('!')
	}

	if p.Compressed {
		b.Write(encodeCompressedPosition(p.Lat, p.Lon, p.SymbolTable, p.SymbolCode, p.CourseDeg, p.SpeedKnots))
	} else {
		lat8, lon9 := encodeUncompressedLatLon(p.Lat, p.Lon)
		b.WriteString(lat8)
		b.WriteByte(p.SymbolTable)
		b.WriteString(lon9)
		b.WriteByte(p.SymbolCode)
		if p.CourseDeg != nil && p.SpeedKnots != nil {
			fmt.Fprintf(&b, "%03d/%03.0f", *p.CourseDeg, *p.SpeedKnots)
		}
	}

	if p.AltitudeFt != nil {
		fmt.Fprintf(&b, "/A=%06d", int(*p.AltitudeFt))
	}
	b.WriteString(p.Comment)

	return []byte(b.String())
}

func encodeWeather(w *Weather) []byte {
	var b strings.Builder
	b.WriteByte('_')
	b.WriteString("00000000") // fixed 8-byte MDHM field; Weather carries no timestamp to encode here
	if w.CourseDeg != nil && w.SpeedMph != nil {
		fmt.Fprintf(&b, "%03d/%03.0f", *w.CourseDeg, *w.SpeedMph)
	} else {
		b.WriteString("000/000")
	}
	if w.GustMph != nil {
		fmt.Fprintf(&b, "g%03.0f", *w.GustMph)
	}
	if w.TempF != nil {
		fmt.Fprintf(&b, "t%03.0f", *w.TempF)
	}
	if w.Rain1hIn != nil {
		fmt.Fprintf(&b, "r%03.0f", *w.Rain1hIn*100)
	}
	if w.Rain24hIn != nil {
		fmt.Fprintf(&b, "p%03.0f", *w.Rain24hIn*100)
	}
	if w.RainMidnightIn != nil {
		fmt.Fprintf(&b, "P%03.0f", *w.RainMidnightIn*100)
	}
	if w.HumidityPct != nil {
		h := *w.HumidityPct
		if h == 100 {
			h = 0
		}
		fmt.Fprintf(&b, "h%02d", h)
	}
	if w.PressureMbar != nil {
		fmt.Fprintf(&b, "b%05.0f", *w.PressureMbar*10)
	}
	return []byte(b.String())
}

func encodeObject(o *ObjectItem) []byte {
	var b strings.Builder
	b.WriteByte(';')
	b.WriteString(o.Name)
	for i := len(o.Name); i < objectNameLen; i++ {
		b.WriteByte(' ')
	}
	if o.Live {
		b.WriteByte('*')
	} else {
		b.WriteByte('_')
	}
	if o.Pos.Timestamp != nil {
		b.WriteString(o.Pos.Timestamp.Format("021504"))
	} else {
		b.WriteString("000000")
	}
	b.WriteByte('z')
	b.Write(encodePositionBody(&o.Pos))
	return []byte(b.String())
}

func encodeItem(it *ObjectItem) []byte {
	var b strings.Builder
	b.WriteByte(')')
	b.WriteString(it.Name)
	if it.Live {
		b.WriteByte('!')
	} else {
		b.WriteByte('_')
	}
	b.Write(encodePositionBody(&it.Pos))
	return []byte(b.String())
}

func encodePositionBody(p *Position) []byte {
	var b strings.Builder
	if p.Compressed {
		b.Write(encodeCompressedPosition(p.Lat, p.Lon, p.SymbolTable, p.SymbolCode, p.CourseDeg, p.SpeedKnots))
	} else {
		lat8, lon9 := encodeUncompressedLatLon(p.Lat, p.Lon)
		b.WriteString(lat8)
		b.WriteByte(p.SymbolTable)
		b.WriteString(lon9)
		b.WriteByte(p.SymbolCode)
	}
	b.WriteString(p.Comment)
	return []byte(b.String())
}

func encodeThirdParty(tp *ThirdParty) []byte {
	var b strings.Builder
	b.WriteByte('}')
	b.WriteString(tp.Header)
	b.WriteByte(':')
	b.Write(tp.Raw)
	return []byte(b.String())
}
