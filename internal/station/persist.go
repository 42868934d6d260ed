package station

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/n7gw/tncgw/internal/callsign"
	"github.com/n7gw/tncgw/internal/gwerr"
)

func parseCallsignLoose(s string) (callsign.Callsign, error) {
	return callsign.Parse(s)
}

func parseTimeLoose(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// persistedStation is the on-disk JSON shape; Station itself carries
// a callsign.Callsign which marshals fine via its String()/Parse pair,
// so we keep the wire format keyed by that string form instead of
// round-tripping the struct directly through encoding/json.
type persistedStation struct {
	Call             string           `json:"call"`
	FirstHeard       string           `json:"first_heard"`
	LastHeard        string           `json:"last_heard"`
	HeardCount       int              `json:"heard_count"`
	IsDigipeater     bool             `json:"is_digipeater"`
	HeardDirect      bool             `json:"heard_direct"`
	HeardZeroHop     bool             `json:"heard_zero_hop"`
	PositionHistory  []PositionPoint  `json:"position_history"`
	ReceptionHistory []ReceptionEvent `json:"reception_history"`
	WeatherHistory   []WeatherPoint   `json:"weather_history"`
	ObservedPaths    []string         `json:"observed_paths"`
}

// Save writes the entire database to path as gzip-compressed JSON,
// via a temp-file-then-rename so a crash mid-write never corrupts the
// existing file (grounded on the prior Go port's config-save convention of
// writing through a temp path).
func (db *DB) Save(path string) error {
	db.mu.RLock()
	records := make([]persistedStation, 0, len(db.stations))
	for _, st := range db.stations {
		paths := make([]string, 0, len(st.ObservedPaths))
		for p := range st.ObservedPaths {
			paths = append(paths, p)
		}
		records = append(records, persistedStation{
			Call:             st.Call.String(),
			FirstHeard:       st.FirstHeard.UTC().Format(timeLayout),
			LastHeard:        st.LastHeard.UTC().Format(timeLayout),
			HeardCount:       st.HeardCount,
			IsDigipeater:     st.IsDigipeater,
			HeardDirect:      st.HeardDirect,
			HeardZeroHop:     st.HeardZeroHop,
			PositionHistory:  append([]PositionPoint(nil), st.PositionHistory...),
			ReceptionHistory: append([]ReceptionEvent(nil), st.ReceptionHistory...),
			WeatherHistory:   append([]WeatherPoint(nil), st.WeatherHistory...),
			ObservedPaths:    paths,
		})
	}
	db.mu.RUnlock()

	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return gwerr.Wrap(gwerr.KindPersistence, err)
	}
	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	if err := enc.Encode(records); err != nil {
		gz.Close()
		f.Close()
		os.Remove(tmp)
		return gwerr.Wrap(gwerr.KindPersistence, err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return gwerr.Wrap(gwerr.KindPersistence, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return gwerr.Wrap(gwerr.KindPersistence, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return gwerr.Wrap(gwerr.KindPersistence, err)
	}
	return nil
}

const timeLayout = "2006-01-02T15:04:05.000Z"

// Load reads the database stored at path into a new DB. A missing
// file is not an error; it yields an empty database.
func Load(path string) (*DB, error) {
	db := New()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return db, nil
		}
		return nil, gwerr.Wrap(gwerr.KindPersistence, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gwerr.ErrLoadCorrupt, err)
	}
	defer gz.Close()

	var records []persistedStation
	if err := json.NewDecoder(gz).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", gwerr.ErrLoadCorrupt, err)
	}

	for _, r := range records {
		c, err := parseCallsignLoose(r.Call)
		if err != nil {
			continue
		}
		st := &Station{
			Call:             c,
			HeardCount:       r.HeardCount,
			IsDigipeater:     r.IsDigipeater,
			HeardDirect:      r.HeardDirect,
			HeardZeroHop:     r.HeardZeroHop,
			PositionHistory:  r.PositionHistory,
			ReceptionHistory: r.ReceptionHistory,
			WeatherHistory:   r.WeatherHistory,
		}
		if len(r.ObservedPaths) > 0 {
			st.ObservedPaths = make(map[string]struct{}, len(r.ObservedPaths))
			for _, p := range r.ObservedPaths {
				st.ObservedPaths[p] = struct{}{}
			}
		}
		st.FirstHeard, _ = parseTimeLoose(r.FirstHeard)
		st.LastHeard, _ = parseTimeLoose(r.LastHeard)
		if n := len(st.PositionHistory); n > 0 {
			st.LastPosition = &st.PositionHistory[n-1].Pos
		}
		if n := len(st.WeatherHistory); n > 0 {
			st.LastWeather = &st.WeatherHistory[n-1].W
		}
		db.stations[c.String()] = st
	}

	return db, nil
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return gwerr.Wrap(gwerr.KindPersistence, err)
	}
	return nil
}
