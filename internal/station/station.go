// Package station implements the heard-station database (spec.md
// §4/this design C6): a callsign-keyed table of recent positions and
// reception events with bounded history, grounded on the prior Go port's
// mheard.go map-of-stations design, generalized from a single
// last-heard record per station into the full bounded-history model
// spec.md requires.
package station

import (
	"strings"
	"sync"
	"time"

	"github.com/n7gw/tncgw/internal/aprs"
	"github.com/n7gw/tncgw/internal/callsign"
)

// Limits on retained history per station (spec.md §4).
const (
	MaxPositionHistory  = 6000
	MaxReceptionHistory = 200
	MaxWeatherHistory   = 500
)

// PositionPoint is one recorded position fix.
type PositionPoint struct {
	At  time.Time
	Pos aprs.Position
}

// WeatherPoint is one recorded weather report.
type WeatherPoint struct {
	At time.Time
	W  aprs.Weather
}

// ReceptionEvent records a single reception of a frame from a station.
type ReceptionEvent struct {
	At           time.Time
	Channel      string
	DigiHops     int
	HeardDirect  bool
	HeardZeroHop bool
	ViaThirdParty bool
}

// Station is the accumulated knowledge about one callsign.
type Station struct {
	Call             callsign.Callsign
	FirstHeard       time.Time
	LastHeard        time.Time
	HeardCount       int
	IsDigipeater     bool
	HeardDirect      bool
	HeardZeroHop     bool
	LastPosition     *aprs.Position
	LastWeather      *aprs.Weather
	PositionHistory  []PositionPoint
	ReceptionHistory []ReceptionEvent
	WeatherHistory   []WeatherPoint

	// ObservedPaths is the set of distinct digipeater paths this
	// station's traffic has been heard arriving via, keyed by the
	// comma-joined callsigns of the repeaters that had their H-bit
	// set (spec.md §4.6). An empty string key means heard direct.
	ObservedPaths map[string]struct{}
}

// Snapshot is an immutable copy of a Station safe to hand to callers
// outside the database's lock.
type Snapshot = Station

// DB is the in-memory station database. All methods are safe for
// concurrent use.
type DB struct {
	mu       sync.RWMutex
	stations map[string]*Station
}

// New creates an empty station database.
func New() *DB {
	return &DB{stations: make(map[string]*Station)}
}

// Ingest records a reception of a frame from call, optionally carrying
// a decoded position. heardDirect is true for any RF reception
// regardless of hop count except a third-party tunnel; heardZeroHop is
// true only when no H-bits are set along the path. path is the
// ordered list of repeater callsigns whose H-bit was set for this
// reception, or nil for a direct (zero-hop) reception.
func (db *DB) Ingest(call callsign.Callsign, at time.Time, channel string, digiHops int, path []string, pos *aprs.Position, heardDirect, heardZeroHop, viaThirdParty, isDigipeater bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := call.String()
	st, ok := db.stations[key]
	if !ok {
		st = &Station{Call: call, FirstHeard: at}
		db.stations[key] = st
	}
	st.LastHeard = at
	st.HeardCount++
	if isDigipeater {
		st.IsDigipeater = true
	}
	if heardDirect {
		st.HeardDirect = true
	}
	if heardZeroHop {
		st.HeardZeroHop = true
	}

	if st.ObservedPaths == nil {
		st.ObservedPaths = make(map[string]struct{})
	}
	st.ObservedPaths[strings.Join(path, ",")] = struct{}{}

	st.ReceptionHistory = append(st.ReceptionHistory, ReceptionEvent{
		At: at, Channel: channel, DigiHops: digiHops,
		HeardDirect: heardDirect, HeardZeroHop: heardZeroHop, ViaThirdParty: viaThirdParty,
	})
	if len(st.ReceptionHistory) > MaxReceptionHistory {
		st.ReceptionHistory = st.ReceptionHistory[len(st.ReceptionHistory)-MaxReceptionHistory:]
	}

	if pos != nil {
		st.LastPosition = pos
		st.PositionHistory = append(st.PositionHistory, PositionPoint{At: at, Pos: *pos})
		if len(st.PositionHistory) > MaxPositionHistory {
			st.PositionHistory = st.PositionHistory[len(st.PositionHistory)-MaxPositionHistory:]
		}
	}
}

// IngestWeather records the latest weather report heard from call,
// creating the station record if this is its first reception.
func (db *DB) IngestWeather(call callsign.Callsign, at time.Time, w *aprs.Weather) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := call.String()
	st, ok := db.stations[key]
	if !ok {
		st = &Station{Call: call, FirstHeard: at}
		db.stations[key] = st
	}
	st.LastHeard = at
	st.LastWeather = w
	st.WeatherHistory = append(st.WeatherHistory, WeatherPoint{At: at, W: *w})
	if len(st.WeatherHistory) > MaxWeatherHistory {
		st.WeatherHistory = st.WeatherHistory[len(st.WeatherHistory)-MaxWeatherHistory:]
	}
}

// Snapshot returns a shallow copy of the station record for call, or
// false if the station has never been heard.
func (db *DB) Snapshot(call callsign.Callsign) (Snapshot, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	st, ok := db.stations[call.String()]
	if !ok {
		return Station{}, false
	}
	return cloneStation(st), true
}

// List returns a snapshot of every known station.
func (db *DB) List() []Snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]Snapshot, 0, len(db.stations))
	for _, st := range db.stations {
		out = append(out, cloneStation(st))
	}
	return out
}

// Count returns the number of distinct stations known.
func (db *DB) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.stations)
}

func cloneStation(st *Station) Station {
	cp := *st
	cp.PositionHistory = append([]PositionPoint(nil), st.PositionHistory...)
	cp.ReceptionHistory = append([]ReceptionEvent(nil), st.ReceptionHistory...)
	cp.WeatherHistory = append([]WeatherPoint(nil), st.WeatherHistory...)
	if st.ObservedPaths != nil {
		cp.ObservedPaths = make(map[string]struct{}, len(st.ObservedPaths))
		for k := range st.ObservedPaths {
			cp.ObservedPaths[k] = struct{}{}
		}
	}
	return cp
}
