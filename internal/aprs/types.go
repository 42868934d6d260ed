// Package aprs decodes and encodes APRS payloads carried in the
// information field of an AX.25 UI frame (spec.md §4.5, C5). Grounded
// on the prior Go port's decode_aprs.go / encode_aprs.go dispatch and
// per-type parsing, reworked as a tagged-variant sum type per spec.md
// §9 "Design notes" instead of the prior Go port's single do-everything
// decode_aprs_t record.
package aprs

import "time"

// Kind tags which variant of Payload is populated.
type Kind int

const (
	KindPosition Kind = iota
	KindMessage
	KindStatus
	KindTelemetry
	KindWeather
	KindObject
	KindItem
	KindThirdParty
)

// Payload is the decoded form of one APRS information field: exactly
// one of its pointer fields is non-nil, selected by Kind (spec.md §9
// "a sum type... and a parser that returns it").
type Payload struct {
	Kind Kind

	Position   *Position
	Message    *Message
	Status     *Status
	Telemetry  *Telemetry
	Weather    *Weather
	Object     *ObjectItem
	Item       *ObjectItem
	ThirdParty *ThirdParty
}

// Position is a decoded APRS position report, from uncompressed,
// compressed, or MIC-E encoding (spec.md §3).
type Position struct {
	Lat, Lon     float64
	SymbolTable  byte
	SymbolCode   byte
	Timestamp    *time.Time
	CourseDeg    *int     // 0-360, 360==north wraps to 0
	SpeedKnots   *float64
	AltitudeFt   *float64
	Comment      string
	Compressed   bool
	MicE         bool
	MicEStatus   string // e.g. "Off Duty", decoded message-type text
	DeviceModel  string // from deviceid lookup
}

// Message is a decoded `:` payload: a message, ack, reject, bulletin
// or announcement (spec.md §4.5).
type Message struct {
	Addressee string
	Body      string
	MsgID     string // up to 5 chars, empty if absent
	IsAck     bool
	IsReject  bool
}

// Status is a decoded `>` payload, optionally carrying a timestamp and
// an embedded Maidenhead grid square (spec.md §3).
type Status struct {
	Timestamp *time.Time
	Text      string
	Maidenhead string
}

// Telemetry is a decoded `T` payload (spec.md §4.5).
type Telemetry struct {
	Seq     int
	Analog  [5]float64
	Digital [8]bool
}

// Weather is a decoded `_` payload. Every field records its unit in
// its name (spec.md §3 "Every numeric decode records its unit").
type Weather struct {
	CourseDeg      *int
	SpeedMph       *float64
	GustMph        *float64
	TempF          *float64
	Rain1hIn       *float64
	Rain24hIn      *float64
	RainMidnightIn *float64
	HumidityPct    *int
	PressureMbar   *float64
	DewPointF      *float64 // computed via the Magnus formula when possible
}

// ObjectItem is a decoded `;` object or `)` item report.
type ObjectItem struct {
	Name string
	Live bool // false if killed ('_' status for both objects and items)
	Pos  Position
}

// ThirdParty is a decoded `}` payload: the outer header plus the
// recursively decoded inner payload (spec.md §4.5).
type ThirdParty struct {
	Header string // "srccall>dst,path", without the ':' separator
	Inner  *Payload
	Raw    []byte // the undecoded inner bytes, kept whether or not decode succeeded
}
