package message

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/n7gw/tncgw/internal/aprs"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*aprs.Message
}

func (f *fakeSender) SendMessage(msg *aprs.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestSendAndAck(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, DefaultConfig())
	defer m.Close()

	id, err := m.Send("N1CALL", "hello")
	require.NoError(t, err)
	require.Equal(t, 1, m.Pending())

	m.HandleAck("N1CALL", id, false)
	require.Equal(t, 0, m.Pending())
}

func TestSendRetriesUntilAcked(t *testing.T) {
	sender := &fakeSender{}
	cfg := Config{FastInterval: 10 * time.Millisecond, SlowInterval: time.Hour, MaxRetries: 20}
	m := NewManager(sender, cfg)
	defer m.Close()

	_, err := m.Send("N1CALL", "retry me")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sender.count() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestDuplicateSendDropped(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, DefaultConfig())
	defer m.Close()

	id1, _ := m.Send("N1CALL", "same body")
	id2, _ := m.Send("N1CALL", "same body")
	require.Equal(t, id1, id2)
	require.Equal(t, 1, m.Pending())
}

func TestLevenshteinBasic(t *testing.T) {
	require.Equal(t, 0, levenshtein("abc", "abc"))
	require.Equal(t, 1, levenshtein("abc", "abd"))
	require.Equal(t, 3, levenshtein("", "abc"))
}

func TestDedupFuzzyMatch(t *testing.T) {
	d := NewDedup(time.Minute)
	require.False(t, d.IsDuplicate("N1CALL", "Hello world"))
	require.True(t, d.IsDuplicate("N1CALL", "Hello world"))
	require.True(t, d.IsDuplicate("N1CALL", "Hello worle"))
}

func TestInboxAutoAck(t *testing.T) {
	sender := &fakeSender{}
	ib := NewInbox("N0CALL", true, sender)

	msg := &aprs.Message{Addressee: "N0CALL", Body: "hi", MsgID: "001"}
	ib.Handle("N1CALL", msg)

	require.Equal(t, 1, sender.count())
	select {
	case d := <-ib.Delivery:
		require.Equal(t, "hi", d.Body)
	default:
		require.Fail(t, "expected a delivery")
	}
}

func TestInboxIgnoresForeignAddressee(t *testing.T) {
	sender := &fakeSender{}
	ib := NewInbox("N0CALL", true, sender)
	ib.Handle("N1CALL", &aprs.Message{Addressee: "N9CALL", Body: "hi", MsgID: "001"})
	require.Equal(t, 0, sender.count())
}
