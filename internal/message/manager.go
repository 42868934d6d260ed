// Package message implements the outgoing APRS message manager
// (spec.md §4/this design C7): two-tier retry, ACK correlation, and
// duplicate suppression for text messages addressed to other
// stations. Grounded on the prior Go port's tq.go transmit-queue retry loop
// and dedupe.go's "packets are near-duplicates within a short window"
// reasoning, generalized from single-shot digipeat dedup to a
// per-message retry/ack lifecycle.
package message

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/xid"

	"github.com/n7gw/tncgw/internal/aprs"
	"github.com/n7gw/tncgw/internal/gwlog"
)

// Sender transmits an encoded APRS message payload; cmd/tncgw's
// messageSender supplies the concrete implementation.
type Sender interface {
	SendMessage(msg *aprs.Message) error
}

// Tier identifies which retry cadence an outgoing message is in.
type Tier int

const (
	TierFast Tier = iota
	TierSlow
)

// State is an outgoing message's delivery state (spec.md §3).
type State int

const (
	StatePending State = iota
	StateDigipeated
	StateAcknowledged
	StateRejected
	StateExpired
)

// Outgoing tracks one message awaiting acknowledgement. CorrelationID
// is an internal log-correlation id distinct from MsgID: MsgID is the
// wire-format identifier APRS's 5-character message-ID limit allows,
// CorrelationID is unbounded and carried through every log line for a
// given message's lifetime even if it's retransmitted under a reused
// MsgID. WireInfo is the exact encoded info field this message was
// last transmitted as, kept so a subsequently observed digipeated
// copy of it can be recognized by byte-identical comparison.
type Outgoing struct {
	Addressee     string
	Body          string
	MsgID         string
	CorrelationID string
	WireInfo      []byte
	SentAt        time.Time
	LastTry       time.Time
	Attempts      int
	Tier          Tier
	State         State
	Acked         bool
}

// Manager owns the set of in-flight outgoing messages and drives their
// retry schedule on a background ticker.
type Manager struct {
	sender    Sender
	fastEvery time.Duration
	slowEvery time.Duration
	maxTries  int
	log       *log.Logger

	mu      sync.Mutex
	pending map[string]*Outgoing // keyed by msgid
	acked   map[string]time.Time // recently acked, for duplicate ack suppression
	dedup   *Dedup

	stop chan struct{}
	once sync.Once
}

// Config tunes the retry cadence; zero values fall back to
// spec.md §6 defaults (fast ~20s, slow ~600s).
type Config struct {
	FastInterval time.Duration
	SlowInterval time.Duration
	MaxRetries   int
}

// DefaultConfig matches the gwconfig.Config defaults.
func DefaultConfig() Config {
	return Config{FastInterval: 20 * time.Second, SlowInterval: 600 * time.Second, MaxRetries: 3}
}

// NewManager creates a Manager and starts its retry-driving goroutine.
func NewManager(sender Sender, cfg Config) *Manager {
	if cfg.FastInterval <= 0 {
		cfg.FastInterval = DefaultConfig().FastInterval
	}
	if cfg.SlowInterval <= 0 {
		cfg.SlowInterval = DefaultConfig().SlowInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	m := &Manager{
		sender:    sender,
		fastEvery: cfg.FastInterval,
		slowEvery: cfg.SlowInterval,
		maxTries:  cfg.MaxRetries,
		pending:   make(map[string]*Outgoing),
		acked:     make(map[string]time.Time),
		dedup:     NewDedup(2 * time.Minute),
		stop:      make(chan struct{}),
		log:       gwlog.For("message"),
	}
	go m.retryLoop()
	return m
}

// Close stops the retry-driving goroutine.
func (m *Manager) Close() {
	m.once.Do(func() { close(m.stop) })
}

// Send enqueues a new outgoing message, returning its assigned
// message ID (used to correlate a later ack). A request that
// duplicates one already sent to the same addressee within the dedup
// window is silently dropped, returning the earlier message's ID.
func (m *Manager) Send(addressee, body string) (string, error) {
	if m.dedup.IsDuplicate(addressee, body) {
		m.mu.Lock()
		for id, out := range m.pending {
			if out.Addressee == addressee && out.Body == body {
				m.mu.Unlock()
				return id, nil
			}
		}
		m.mu.Unlock()
	}

	id := newMsgID()
	out := &Outgoing{
		Addressee:     addressee,
		Body:          body,
		MsgID:         id,
		CorrelationID: xid.New().String(),
		SentAt:        time.Now(),
		Tier:          TierFast,
		State:         StatePending,
	}

	m.mu.Lock()
	m.pending[id] = out
	m.mu.Unlock()

	m.log.Infof("message %s (%s) to %s queued", id, out.CorrelationID, addressee)
	return id, m.transmit(out)
}

func (m *Manager) transmit(out *Outgoing) error {
	out.LastTry = time.Now()
	out.Attempts++
	msg := &aprs.Message{Addressee: out.Addressee, Body: out.Body, MsgID: out.MsgID}
	out.WireInfo = aprs.EncodeMessage(msg)
	return m.sender.SendMessage(msg)
}

// ObserveDigipeat records that info was heard transmitted with a
// digipeater's H-bit set (spec.md §4.7's "heard digipeated" evidence):
// any message still pending whose last-transmitted wire payload is
// byte-identical to info advances to state digipeated and its retry
// cadence drops to the slow tier. Attempt count never drives this
// transition on its own.
func (m *Manager) ObserveDigipeat(info []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, out := range m.pending {
		if out.State != StatePending || !bytes.Equal(out.WireInfo, info) {
			continue
		}
		out.State = StateDigipeated
		out.Tier = TierSlow
		m.log.Infof("message %s (%s) to %s heard digipeated, dropping to slow retry", out.MsgID, out.CorrelationID, out.Addressee)
	}
}

// HandleAck correlates an incoming ack/reject to a pending outgoing
// message and retires it if found.
func (m *Manager) HandleAck(addressee, msgID string, rejected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out, ok := m.pending[msgID]
	if !ok || out.Addressee != addressee {
		return
	}
	out.Acked = true
	if rejected {
		out.State = StateRejected
	} else {
		out.State = StateAcknowledged
	}
	delete(m.pending, msgID)
	m.acked[msgID] = time.Now()
	m.log.Infof("message %s (%s) to %s acked after %d attempt(s)", msgID, out.CorrelationID, addressee, out.Attempts)
}

// Pending returns the number of messages still awaiting acknowledgement.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manager) retryLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Manager) tick() {
	m.mu.Lock()
	due := make([]*Outgoing, 0)
	now := time.Now()
	for id, out := range m.pending {
		interval := m.fastEvery
		if out.Tier == TierSlow {
			interval = m.slowEvery
		}
		if now.Sub(out.LastTry) < interval {
			continue
		}
		if out.Attempts >= m.maxTries {
			out.State = StateExpired
			m.log.Infof("message %s (%s) to %s abandoned after %d attempts", id, out.CorrelationID, out.Addressee, out.Attempts)
			delete(m.pending, id)
			continue
		}
		due = append(due, out)
	}
	m.mu.Unlock()

	for _, out := range due {
		_ = m.transmit(out)
	}

	m.expireAcked()
}

func (m *Manager) expireAcked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-10 * time.Minute)
	for id, at := range m.acked {
		if at.Before(cutoff) {
			delete(m.acked, id)
		}
	}
}

func newMsgID() string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%X", b)
}
