package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/n7gw/tncgw/internal/aprs"
	"github.com/n7gw/tncgw/internal/digipeater"
	"github.com/n7gw/tncgw/internal/gwconfig"
	"github.com/n7gw/tncgw/internal/message"
	"github.com/n7gw/tncgw/internal/station"
)

type fakeSender struct{}

func (fakeSender) SendMessage(msg *aprs.Message) error { return nil }

func newTestServer() *Server {
	db := station.New()
	msgs := message.NewManager(fakeSender{}, message.DefaultConfig())
	cfg := gwconfig.Default()
	cfg.MyCall = "N7GW"
	return New(db, msgs, func() gwconfig.Config { return cfg }, func() digipeater.Policy { return digipeater.Policy{Enabled: true} }, nil)
}

func TestStationsEndpointEmpty(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/stations", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(0), body["count"])
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "N7GW", body["mycall"])
	require.Equal(t, true, body["digipeat_enabled"])
}

func TestBeaconCommentRejectsWithoutPassword(t *testing.T) {
	s := newTestServer()
	body := strings.NewReader(`{"password":"wrong","comment":"hi","tx":false}`)
	req := httptest.NewRequest(http.MethodPost, "/api/beacon/comment", body)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecordMessagePublishesForAddressedMessage(t *testing.T) {
	s := newTestServer()
	events, unsub := s.bus.Subscribe(4)
	defer unsub()
	s.RecordMessage("N0CALL", "N7GW", &aprs.Message{Addressee: "N7GW", Body: "hi"})

	s.mu.Lock()
	n := len(s.msgLog)
	s.mu.Unlock()
	require.Equal(t, 1, n)

	select {
	case f := <-events:
		require.Equal(t, EventMessage, f.Channel)
	default:
		require.Fail(t, "expected a message_received event")
	}
}

func TestEventsStreamSendsConnectedEvent(t *testing.T) {
	s := newTestServer()
	srv := httptest.NewServer(s.Mux())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: connected\n", line)
}
