// Package framebuffer implements the bounded in-memory capture ring
// used for live debugging (spec.md §6's DebugBufferMB setting): the
// most recent N megabytes of raw frame traffic, retained so an
// operator can dump "what just happened" without needing to have
// started a packet capture in advance. Grounded on the prior Go port's
// rrbb.go (raw receive bit buffer) naming convention and ring-buffer
// discipline, generalized from one fixed-size audio-bit ring to a
// byte-budget-based multi-frame ring.
package framebuffer

import (
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/rs/xid"
)

// Entry is one captured frame.
type Entry struct {
	ID      string
	At      time.Time
	Channel string
	Raw     []byte
}

func (e Entry) size() int { return len(e.Raw) + len(e.Channel) + len(e.ID) + 24 }

// timestampFormat matches the classic TNC monitor log layout.
const timestampFormat = "%Y-%m-%d %H:%M:%S"

// Timestamp renders At in the classic TNC monitor log layout.
func (e Entry) Timestamp() string {
	s, err := strftime.Format(timestampFormat, e.At)
	if err != nil {
		return e.At.Format(time.RFC3339)
	}
	return s
}

// Ring is a byte-budget-bounded FIFO of captured frames: appending
// past the budget evicts the oldest entries first.
type Ring struct {
	mu        sync.Mutex
	entries   []Entry
	budget    int
	used      int
}

// NewRing creates a Ring with the given capacity in megabytes.
func NewRing(megabytes int) *Ring {
	if megabytes <= 0 {
		megabytes = 1
	}
	return &Ring{budget: megabytes * 1024 * 1024}
}

// Append adds e to the ring, filling in ID and At when they are unset,
// and evicts the oldest entries as needed to stay within the byte
// budget.
func (r *Ring) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		e.ID = xid.New().String()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	r.entries = append(r.entries, e)
	r.used += e.size()

	for r.used > r.budget && len(r.entries) > 0 {
		r.used -= r.entries[0].size()
		r.entries = r.entries[1:]
	}
}

// Snapshot returns a copy of every entry currently retained, oldest
// first.
func (r *Ring) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports how many entries are currently retained.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear discards all retained entries.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.used = 0
}
