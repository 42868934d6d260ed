// Package ax25link implements the AX.25 connected-mode data link state
// machine (spec.md §5): one actor per remote peer, driving SABM/DISC
// connection setup and teardown and the I/S-frame sliding window.
//
// The teacher's Go port of direwolf never grew past a queue-driven
// stub here (ax25_link_test_shim.go; see dlq.go's "data link state
// machine" comments for the intended shape) because direwolf normally
// hands connected-mode traffic to the kernel AX.25 stack. This package
// is a fresh implementation of the full state machine, grounded on
// dlq.go's per-channel, queue-driven dispatch pattern: each Session
// owns a single goroutine draining an event channel, exactly like
// dlq_rec_frame feeding the shared data-link queue.
package ax25link

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/n7gw/tncgw/internal/ax25"
	"github.com/n7gw/tncgw/internal/callsign"
	"github.com/n7gw/tncgw/internal/gwlog"
)

// State is one of the five connected-mode states spec.md §5 names.
type State int

const (
	StateDisconnected State = iota
	StateAwaitingConnect
	StateConnected
	StateAwaitingDisconnect
	StateTimerRecovery
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateAwaitingConnect:
		return "awaiting-connect"
	case StateConnected:
		return "connected"
	case StateAwaitingDisconnect:
		return "awaiting-disconnect"
	case StateTimerRecovery:
		return "timer-recovery"
	default:
		return "unknown"
	}
}

// WindowSize is the AX.25 modulo-8 sliding window size (spec.md §5).
const WindowSize = 4

// Config tunes the T1/T3 timers and retry budget of a Session.
type Config struct {
	T1         time.Duration // frame-acknowledgement timer
	T3         time.Duration // idle keep-alive timer
	MaxRetries int
}

// DefaultConfig matches the classic AX.25 defaults: 3s retransmit,
// 5 retries, 5 minute idle probe.
func DefaultConfig() Config {
	return Config{T1: 3 * time.Second, T3: 5 * time.Minute, MaxRetries: 5}
}

// Transmitter is the outbound side a Session drives; cmd/tncgw's
// txTransmitter supplies the concrete implementation.
type Transmitter interface {
	SendFrame(f ax25.Frame) error
}

// Event is pushed onto a Session's queue either by an incoming frame
// (Frame) or by local API requests (Connect, Info, Hangup).
type Event struct {
	Frame   *ax25.Frame
	Connect bool
	Info    []byte
	Hangup  bool
}

// Session is the per-peer actor: one goroutine, one state, one
// sliding window. Construct with NewSession and drive it by sending to
// Events(); received I-frame payloads arrive on Deliveries().
type Session struct {
	local, peer callsign.Callsign
	tx          Transmitter
	cfg         Config
	log         *log.Logger

	mu          sync.Mutex
	state       State
	vs, vr      int // N(S) to send next, N(R) expected next
	ackPending  int // number of unacked I-frames outstanding
	sendBuf     [][]byte
	outstanding map[int][]byte // sent-but-unacked I-frame payloads, keyed by N(S)
	retries     int

	t1, t3 *time.Timer

	events      chan Event
	deliveries  chan []byte
	stateWaitCh chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// NewSession creates a Session for the given peer and starts its
// actor goroutine. Callers must call Close when finished.
func NewSession(local, peer callsign.Callsign, tx Transmitter, cfg Config) *Session {
	s := &Session{
		local:      local,
		peer:       peer,
		tx:         tx,
		cfg:        cfg,
		log:        gwlog.For("ax25link"),
		state:       StateDisconnected,
		outstanding: make(map[int][]byte),
		events:      make(chan Event, 32),
		deliveries:  make(chan []byte, 32),
		done:        make(chan struct{}),
	}
	go s.run()
	return s
}

// Events returns the channel to push inbound frames and local API
// requests onto.
func (s *Session) Events() chan<- Event { return s.events }

// Deliveries returns the channel of reassembled I-frame payloads
// delivered to the local application, in order.
func (s *Session) Deliveries() <-chan []byte { return s.deliveries }

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close stops the session's actor goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// run drains the event queue until Close. T1/T3 expiry is delivered
// by time.AfterFunc directly into onT1Expire/onT3Expire on their own
// goroutines, synchronized through s.mu rather than this select loop.
func (s *Session) run() {
	for {
		select {
		case <-s.done:
			s.stopTimers()
			return
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev Event) {
	switch {
	case ev.Connect:
		s.doConnect()
	case ev.Hangup:
		s.doDisconnect()
	case ev.Info != nil:
		s.doSendInfo(ev.Info)
	case ev.Frame != nil:
		s.onFrame(*ev.Frame)
	}
}

func (s *Session) doConnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDisconnected {
		return
	}
	s.state = StateAwaitingConnect
	s.vs, s.vr = 0, 0
	s.retries = 0
	s.log.Infof("connecting to %s", s.peer)
	s.sendSABM()
	s.startT1()
}

func (s *Session) sendSABM() {
	f := ax25.Frame{
		Dest: s.peer, Src: s.local,
		Kind: ax25.KindU, UType: ax25.USABM, PollFinal: true,
	}
	_ = s.tx.SendFrame(f)
}

func (s *Session) doDisconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected && s.state != StateTimerRecovery {
		s.state = StateDisconnected
		return
	}
	s.state = StateAwaitingDisconnect
	f := ax25.Frame{Dest: s.peer, Src: s.local, Kind: ax25.KindU, UType: ax25.UDISC, PollFinal: true}
	_ = s.tx.SendFrame(f)
	s.startT1()
}

func (s *Session) doSendInfo(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return
	}
	s.sendBuf = append(s.sendBuf, payload)
	s.flushWindow()
}

// flushWindow transmits I-frames from sendBuf up to WindowSize frames
// outstanding; callers must hold s.mu.
func (s *Session) flushWindow() {
	for s.ackPending < WindowSize && len(s.sendBuf) > 0 {
		payload := s.sendBuf[0]
		s.sendBuf = s.sendBuf[1:]
		s.outstanding[s.vs] = payload
		s.sendIFrame(s.vs, payload)
		s.vs = (s.vs + 1) % 8
		s.ackPending++
	}
	if s.ackPending > 0 {
		s.startT1()
	}
}

func (s *Session) sendIFrame(ns int, payload []byte) {
	pid := byte(ax25.PIDNoLayer3)
	f := ax25.Frame{
		Dest: s.peer, Src: s.local, Kind: ax25.KindI,
		NS: ns, NR: s.vr, PID: &pid, Info: payload,
	}
	_ = s.tx.SendFrame(f)
}

// retransmitFrom resends every outstanding I-frame from N(S) nr up to
// the frame just before vs, in sequence order (go-back-N recovery on a
// REJ). Caller must hold s.mu.
func (s *Session) retransmitFrom(nr int) {
	for i := 0; i < s.ackPending; i++ {
		ns := (nr + i) % 8
		payload, ok := s.outstanding[ns]
		if !ok {
			continue
		}
		s.sendIFrame(ns, payload)
	}
	if s.ackPending > 0 {
		s.startT1()
	}
}

func (s *Session) onFrame(f ax25.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch f.Kind {
	case ax25.KindU:
		s.onUFrame(f)
	case ax25.KindI:
		s.onIFrame(f)
	case ax25.KindS:
		s.onSFrame(f)
	}
}

func (s *Session) onUFrame(f ax25.Frame) {
	switch f.UType {
	case ax25.USABM:
		s.state = StateConnected
		s.vs, s.vr, s.ackPending = 0, 0, 0
		s.outstanding = make(map[int][]byte)
		ua := ax25.Frame{Dest: s.peer, Src: s.local, Kind: ax25.KindU, UType: ax25.UUA, PollFinal: f.PollFinal}
		_ = s.tx.SendFrame(ua)
		s.stopTimers()

	case ax25.UDISC:
		s.state = StateDisconnected
		ua := ax25.Frame{Dest: s.peer, Src: s.local, Kind: ax25.KindU, UType: ax25.UUA, PollFinal: f.PollFinal}
		_ = s.tx.SendFrame(ua)
		s.stopTimers()

	case ax25.UUA:
		switch s.state {
		case StateAwaitingConnect:
			s.state = StateConnected
			s.vs, s.vr, s.ackPending = 0, 0, 0
			s.outstanding = make(map[int][]byte)
			s.stopTimers()
			s.startT3()
		case StateAwaitingDisconnect:
			s.state = StateDisconnected
			s.stopTimers()
		}

	case ax25.UDM:
		s.state = StateDisconnected
		s.sendBuf = nil
		s.outstanding = make(map[int][]byte)
		s.stopTimers()

	case ax25.UFRMR:
		// Peer rejected our frame; a production implementation would
		// renegotiate, treated here as fatal for the link.
		s.state = StateDisconnected
		s.sendBuf = nil
		s.outstanding = make(map[int][]byte)
		s.stopTimers()
	}
}

func (s *Session) onIFrame(f ax25.Frame) {
	if s.state != StateConnected && s.state != StateTimerRecovery {
		return
	}
	if f.NS != s.vr {
		// Out-of-sequence: send REJ to request retransmission from vr.
		rej := ax25.Frame{Dest: s.peer, Src: s.local, Kind: ax25.KindS, SType: ax25.SREJ, NR: s.vr, PollFinal: f.PollFinal}
		_ = s.tx.SendFrame(rej)
		return
	}
	s.vr = (s.vr + 1) % 8
	select {
	case s.deliveries <- f.Info:
	default:
	}
	s.ackNR(f.NR)

	rr := ax25.Frame{Dest: s.peer, Src: s.local, Kind: ax25.KindS, SType: ax25.SRR, NR: s.vr, PollFinal: f.PollFinal}
	_ = s.tx.SendFrame(rr)
}

func (s *Session) onSFrame(f ax25.Frame) {
	if s.state != StateConnected && s.state != StateTimerRecovery {
		return
	}
	switch f.SType {
	case ax25.SRR:
		s.ackNR(f.NR)
	case ax25.SRNR:
		// Peer busy; stop sending until a later RR. Not separately
		// modeled as a state here, but T1 recovery will retry.
	case ax25.SREJ:
		// Peer is missing frame nr onward: these are not acknowledged,
		// so retransmit them from the retained copies rather than
		// retiring them as ackNR (cumulative ack) would.
		s.retries++
		s.retransmitFrom(f.NR)
	}
}

// ackNR retires outstanding I-frames acknowledged up to nr and
// restarts/stops T1 accordingly. Caller must hold s.mu.
func (s *Session) ackNR(nr int) {
	acked := (nr - (s.vs - s.ackPending) + 8) % 8
	if acked > s.ackPending {
		acked = s.ackPending
	}
	oldest := (s.vs - s.ackPending + 8) % 8
	for i := 0; i < acked; i++ {
		delete(s.outstanding, (oldest+i)%8)
	}
	s.ackPending -= acked
	if s.ackPending == 0 {
		s.stopT1()
		s.startT3()
		s.retries = 0
	} else {
		s.startT1()
	}
	s.flushWindow()
}

func (s *Session) startT1() {
	if s.t1 != nil {
		s.t1.Stop()
	}
	t1 := s.cfg.T1
	if t1 <= 0 {
		t1 = DefaultConfig().T1
	}
	s.t1 = time.AfterFunc(t1, s.onT1Expire)
}

func (s *Session) stopT1() {
	if s.t1 != nil {
		s.t1.Stop()
		s.t1 = nil
	}
}

func (s *Session) startT3() {
	if s.t3 != nil {
		s.t3.Stop()
	}
	t3 := s.cfg.T3
	if t3 <= 0 {
		t3 = DefaultConfig().T3
	}
	s.t3 = time.AfterFunc(t3, s.onT3Expire)
}

func (s *Session) stopTimers() {
	if s.t1 != nil {
		s.t1.Stop()
		s.t1 = nil
	}
	if s.t3 != nil {
		s.t3.Stop()
		s.t3 = nil
	}
}

func (s *Session) onT1Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxRetries := s.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultConfig().MaxRetries
	}
	s.retries++
	if s.retries > maxRetries {
		s.log.Infof("link to %s timed out after %d retries", s.peer, s.retries-1)
		s.state = StateDisconnected
		s.sendBuf = nil
		s.outstanding = make(map[int][]byte)
		s.ackPending = 0
		return
	}

	switch s.state {
	case StateAwaitingConnect:
		s.sendSABM()
		s.startT1()
	case StateAwaitingDisconnect:
		f := ax25.Frame{Dest: s.peer, Src: s.local, Kind: ax25.KindU, UType: ax25.UDISC, PollFinal: true}
		_ = s.tx.SendFrame(f)
		s.startT1()
	case StateConnected, StateTimerRecovery:
		s.state = StateTimerRecovery
		rr := ax25.Frame{Dest: s.peer, Src: s.local, Kind: ax25.KindS, SType: ax25.SRR, NR: s.vr, PollFinal: true}
		_ = s.tx.SendFrame(rr)
		s.startT1()
	}
}

func (s *Session) onT3Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return
	}
	rr := ax25.Frame{Dest: s.peer, Src: s.local, Kind: ax25.KindS, SType: ax25.SRR, NR: s.vr, PollFinal: true}
	_ = s.tx.SendFrame(rr)
	s.startT1()
}
