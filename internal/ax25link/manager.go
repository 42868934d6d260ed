package ax25link

import (
	"sync"

	"github.com/n7gw/tncgw/internal/ax25"
	"github.com/n7gw/tncgw/internal/callsign"
)

// Manager shards connected-mode sessions by peer callsign: each
// distinct peer gets its own Session actor, so one slow or stuck link
// never blocks traffic to another peer (spec.md §5).
type Manager struct {
	local callsign.Callsign
	tx    Transmitter
	cfg   Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager for the given local station callsign.
func NewManager(local callsign.Callsign, tx Transmitter, cfg Config) *Manager {
	return &Manager{local: local, tx: tx, cfg: cfg, sessions: make(map[string]*Session)}
}

// Session returns the existing session for peer, creating one in
// StateDisconnected if none exists yet.
func (m *Manager) Session(peer callsign.Callsign) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := peer.String()
	if s, ok := m.sessions[key]; ok {
		return s
	}
	s := NewSession(m.local, peer, m.tx, m.cfg)
	m.sessions[key] = s
	return s
}

// Dispatch routes a received AX.25 frame to the session for its
// source address, creating the session if this is an unsolicited
// SABM from a new peer.
func (m *Manager) Dispatch(f ax25.Frame) {
	s := m.Session(f.Src)
	s.Events() <- Event{Frame: &f}
}

// CloseAll shuts down every session's actor goroutine.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.Close()
	}
}
