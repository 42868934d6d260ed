// Package sse implements C11 and spec.md §6's HTTP + SSE surface: the
// read-only JSON endpoints and the long-lived event stream, grounded
// on the prior Go port's server.go client broadcast loop (the same
// "register a client, fan out events, drop on slow/closed write"
// shape the KISS-over-TCP and AGWPE listeners use), rewritten around
// net/http's flusher-based streaming instead of a raw socket loop.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/n7gw/tncgw/internal/aprs"
	"github.com/n7gw/tncgw/internal/callsign"
	"github.com/n7gw/tncgw/internal/digipeater"
	"github.com/n7gw/tncgw/internal/eventbus"
	"github.com/n7gw/tncgw/internal/geoutil"
	"github.com/n7gw/tncgw/internal/gwconfig"
	"github.com/n7gw/tncgw/internal/gwlog"
	"github.com/n7gw/tncgw/internal/gwmetrics"
	"github.com/n7gw/tncgw/internal/message"
	"github.com/n7gw/tncgw/internal/station"
	"github.com/dustin/go-humanize"
)

// Event types published on the bus (spec.md §4.11).
const (
	EventStationUpdate = "station_update"
	EventWeatherUpdate = "weather_update"
	EventMessage       = "message_received"
	EventGPSUpdate     = "gps_update"
	EventConnected     = "connected"
)

const heartbeatInterval = 15 * time.Second

// slowClientBuffer bounds how many events may wait for one subscriber.
// Events published while its buffer is full are skipped for that
// subscriber; the client is not disconnected.
const slowClientBuffer = 64

// MessageRecord is one message heard over the air, kept for
// /api/messages and /api/monitored_messages.
type MessageRecord struct {
	At        time.Time `json:"at"`
	From      string    `json:"from"`
	Addressee string    `json:"addressee"`
	Body      string    `json:"body"`
	MsgID     string    `json:"msg_id,omitempty"`
	IsAck     bool      `json:"is_ack"`
	Read      bool      `json:"read"`
}

const maxMonitoredMessages = 2000

// Server serves spec.md §6's HTTP API and SSE feed over the station
// database, message manager and digipeater policy.
type Server struct {
	db      *station.DB
	msgs    *message.Manager
	policy  func() digipeater.Policy
	cfg     func() gwconfig.Config
	bus     *eventbus.Bus
	started time.Time

	onBeaconComment func(comment string, tx bool) error

	mu       sync.Mutex
	msgLog   []MessageRecord
	beaconMu sync.Mutex
	beacon   string
}

// New creates a Server. cfg returns the live configuration (for
// MYCALL, ports and the beacon password); policy returns the live
// digipeater policy (for /api/digipeaters); onBeaconComment, if
// non-nil, is invoked for POST /api/beacon/comment.
func New(db *station.DB, msgs *message.Manager, cfg func() gwconfig.Config, policy func() digipeater.Policy, onBeaconComment func(string, bool) error) *Server {
	return &Server{
		db:              db,
		msgs:            msgs,
		cfg:             cfg,
		policy:          policy,
		bus:             eventbus.New(),
		started:         time.Now(),
		onBeaconComment: onBeaconComment,
	}
}

// Publish pushes an event of the given type to every SSE subscriber.
func (s *Server) Publish(eventType string, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		gwlog.For("sse").Warnf("marshal event %s: %v", eventType, err)
		return
	}
	s.bus.Publish(eventbus.Frame{Channel: eventType, Raw: body})
}

// RecordMessage appends a heard message to the monitored log and, if
// it's a live (non-ack) message addressed to us, publishes
// message_received.
func (s *Server) RecordMessage(from string, myCall string, msg *aprs.Message) {
	rec := MessageRecord{
		At: time.Now(), From: from, Addressee: msg.Addressee,
		Body: msg.Body, MsgID: msg.MsgID, IsAck: msg.IsAck,
	}
	s.mu.Lock()
	s.msgLog = append(s.msgLog, rec)
	if len(s.msgLog) > maxMonitoredMessages {
		s.msgLog = s.msgLog[len(s.msgLog)-maxMonitoredMessages:]
	}
	s.mu.Unlock()

	if !msg.IsAck && callsign.MustParse(msg.Addressee).BaseMatches(callsign.MustParse(myCall)) {
		s.Publish(EventMessage, rec)
	}
}

// Mux builds the spec.md §6 HTTP API as an http.ServeMux.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stations", s.handleStations)
	mux.HandleFunc("/api/stations/", s.handleStationByCall)
	mux.HandleFunc("/api/weather", s.handleWeather)
	mux.HandleFunc("/api/messages", s.handleMessages)
	mux.HandleFunc("/api/monitored_messages", s.handleMonitoredMessages)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/digipeaters", s.handleDigipeaters)
	mux.HandleFunc("/api/digipeaters/", s.handleDigipeaterByCall)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/beacon/comment", s.handleBeaconComment)
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	list := s.db.List()
	switch r.URL.Query().Get("sort_by") {
	case "name":
		sort.Slice(list, func(i, j int) bool { return list[i].Call.String() < list[j].Call.String() })
	case "packets":
		sort.Slice(list, func(i, j int) bool { return list[i].HeardCount > list[j].HeardCount })
	case "hops":
		sort.Slice(list, func(i, j int) bool { return maxHops(list[i]) < maxHops(list[j]) })
	default: // "last"
		sort.Slice(list, func(i, j int) bool { return list[i].LastHeard.After(list[j].LastHeard) })
	}
	writeJSON(w, map[string]any{"stations": list, "count": len(list)})
}

func maxHops(st station.Snapshot) int {
	best := -1
	for _, ev := range st.ReceptionHistory {
		if best < 0 || ev.DigiHops < best {
			best = ev.DigiHops
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

func (s *Server) handleStationByCall(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Path[len("/api/stations/"):]
	call, err := callsign.Parse(base)
	if err != nil {
		http.Error(w, "invalid callsign", http.StatusBadRequest)
		return
	}
	snap, ok := s.db.Snapshot(call)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	var out []station.Snapshot
	for _, st := range s.db.List() {
		if st.LastWeather != nil {
			out = append(out, st)
		}
	}
	writeJSON(w, map[string]any{"stations": out, "count": len(out)})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	myCall := s.cfg().MyCall

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []MessageRecord
	for _, m := range s.msgLog {
		if m.IsAck {
			continue
		}
		addr, err := callsign.Parse(m.Addressee)
		if err != nil || !addr.BaseMatches(callsign.MustParse(myCall)) {
			continue
		}
		if unreadOnly && m.Read {
			continue
		}
		out = append(out, m)
	}
	writeJSON(w, map[string]any{"messages": out, "count": len(out)})
}

func (s *Server) handleMonitoredMessages(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	callFilter := r.URL.Query().Get("callsign")

	s.mu.Lock()
	all := append([]MessageRecord(nil), s.msgLog...)
	s.mu.Unlock()

	var out []MessageRecord
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		m := all[i]
		if callFilter != "" && m.From != callFilter && m.Addressee != callFilter {
			continue
		}
		out = append(out, m)
	}
	writeJSON(w, map[string]any{"messages": out, "count": len(out)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg()
	uptime := time.Since(s.started)
	writeJSON(w, map[string]any{
		"mycall":            cfg.MyCall,
		"uptime_seconds":    int(uptime.Seconds()),
		"uptime_human":      humanize.RelTime(s.started, time.Now(), "ago", ""),
		"station_count":     s.db.Count(),
		"messages_pending":  s.msgs.Pending(),
		"digipeat_enabled":  s.policy().Enabled,
	})
}

// digipeaterCoverage summarizes how far a digipeater's repeated
// traffic has been heard from, using geoutil.DistanceKm against our
// own location (spec.md §6 "/api/digipeaters coverage data";
// this design's golang-geo wiring is realized here, at the
// presentation boundary, since that's where "coverage" as an
// aggregate over the station database is actually computed).
type digipeaterCoverage struct {
	Call       string    `json:"callsign"`
	HeardCount int       `json:"heard_count"`
	RangeKm    float64   `json:"range_km,omitempty"`
	UTM        string    `json:"utm,omitempty"`
	LastHeard  time.Time `json:"last_heard"`
}

func (s *Server) coverage() []digipeaterCoverage {
	cfg := s.cfg()
	var refLat, refLon float64
	haveRef := false
	if cfg.MyLocation != "" {
		if lat, lon, err := aprs.MaidenheadToLatLon(cfg.MyLocation); err == nil {
			refLat, refLon, haveRef = lat, lon, true
		}
	}

	var out []digipeaterCoverage
	for _, st := range s.db.List() {
		if !st.IsDigipeater {
			continue
		}
		c := digipeaterCoverage{Call: st.Call.String(), HeardCount: st.HeardCount, LastHeard: st.LastHeard}
		if haveRef && st.LastPosition != nil {
			c.RangeKm = geoutil.DistanceKm(refLat, refLon, st.LastPosition.Lat, st.LastPosition.Lon)
			if utm, err := geoutil.ToUTM(st.LastPosition.Lat, st.LastPosition.Lon); err == nil {
				c.UTM = fmt.Sprintf("%d%c %.0f %.0f", utm.Zone, utm.Hemisphere, utm.Easting, utm.Northing)
			}
		}
		out = append(out, c)
	}
	return out
}

func (s *Server) handleDigipeaters(w http.ResponseWriter, r *http.Request) {
	cov := s.coverage()
	writeJSON(w, map[string]any{"digipeaters": cov, "count": len(cov)})
}

func (s *Server) handleDigipeaterByCall(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Path[len("/api/digipeaters/"):]
	for _, c := range s.coverage() {
		if c.Call == base {
			writeJSON(w, c)
			return
		}
	}
	http.NotFound(w, r)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	log := gwlog.For("sse")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub, unsub := s.bus.Subscribe(slowClientBuffer)
	defer unsub()
	gwmetrics.SSEClients.Inc()
	defer gwmetrics.SSEClients.Dec()

	writeEvent(w, EventConnected, map[string]any{"at": time.Now().Format(time.RFC3339)})
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeEvent(w, EventConnected, map[string]any{"at": time.Now().Format(time.RFC3339)})
			flusher.Flush()
		case f, ok := <-sub:
			if !ok {
				return
			}
			if _, err := w.Write([]byte("event: " + f.Channel + "\ndata: ")); err != nil {
				log.Infof("client write failed: %v", err)
				return
			}
			if _, err := w.Write(f.Raw); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, eventType string, data any) {
	body, _ := json.Marshal(data)
	w.Write([]byte("event: " + eventType + "\ndata: "))
	w.Write(body)
	w.Write([]byte("\n\n"))
}

type beaconCommentRequest struct {
	Password string `json:"password"`
	Comment  string `json:"comment"`
	TX       bool   `json:"tx"`
}

func (s *Server) handleBeaconComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req beaconCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	cfg := s.cfg()
	if cfg.WebUIPassword == "" || req.Password != cfg.WebUIPassword {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	s.beaconMu.Lock()
	s.beacon = req.Comment
	s.beaconMu.Unlock()

	if req.TX && s.onBeaconComment != nil {
		if err := s.onBeaconComment(req.Comment, true); err != nil {
			http.Error(w, "beacon failed", http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
