// Package agwpe implements C10: a TCP listener speaking the AGWPE
// wire protocol (monitor + transmit), grounded on the prior Go port's
// src/agwpe.go (36-byte AGWPEHeader layout) and cmd/samoyed-appserver's
// agwlib.go (the data-kind command set, there implemented as a client;
// here reimplemented as the server half direwolf itself plays).
package agwpe

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/n7gw/tncgw/internal/ax25"
	"github.com/n7gw/tncgw/internal/ax25link"
	"github.com/n7gw/tncgw/internal/callsign"
	"github.com/n7gw/tncgw/internal/gwlog"
	"github.com/n7gw/tncgw/internal/kissframe"
	"github.com/n7gw/tncgw/internal/netdiag"
	"github.com/n7gw/tncgw/internal/txsched"
	"github.com/lestrrat-go/strftime"
	"github.com/rs/xid"
)

// monitorTimestamp matches the classic TNC monitor log layout.
const monitorTimestamp = "%Y-%m-%d %H:%M:%S"

func formatMonitorTime(t time.Time) string {
	s, err := strftime.Format(monitorTimestamp, t)
	if err != nil {
		return t.Format(time.RFC3339)
	}
	return s
}

// Header is the 36-byte little-endian AGWPE frame header, field for
// field identical to the prior Go port's AGWPEHeader.
type Header struct {
	Port         byte
	_            [3]byte
	DataKind     byte
	_            byte
	PID          byte
	_            byte
	CallFrom     [10]byte
	CallTo       [10]byte
	DataLen      uint32
	UserReserved [4]byte
}

// Message is one AGWPE frame: header plus its variable-length payload.
type Message struct {
	Header Header
	Data   []byte
}

func readMessage(r io.Reader) (*Message, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	data := make([]byte, h.DataLen)
	if h.DataLen > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
	}
	return &Message{Header: h, Data: data}, nil
}

func writeMessage(w io.Writer, m *Message) error {
	m.Header.DataLen = uint32(len(m.Data))
	if err := binary.Write(w, binary.LittleEndian, m.Header); err != nil {
		return err
	}
	if len(m.Data) > 0 {
		_, err := w.Write(m.Data)
		return err
	}
	return nil
}

func callBytes(c string) [10]byte {
	var out [10]byte
	copy(out[:], c)
	return out
}

func callString(b [10]byte) string {
	return strings.TrimRight(string(b[:]), "\x00")
}

// Server is the C10 AGWPE listener: one radio port, backed by the
// connected-mode engine for 'C'/'D'/'d' and the transmit scheduler for
// 'V'/'K'.
type Server struct {
	myCall string
	sched  *txsched.Scheduler
	link   *ax25link.Manager

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	conn          net.Conn
	w             sync.Mutex // serializes writes to conn
	monitorRaw    bool
	monitorFrames bool
	registered    map[string]bool
}

// New creates a Server. sched is used for 'V' (transmit UI) and 'K'
// (transmit raw) commands; link drives 'C'/'D'/'d' connected-mode
// commands.
func New(myCall string, sched *txsched.Scheduler, link *ax25link.Manager) *Server {
	return &Server{myCall: myCall, sched: sched, link: link, clients: make(map[string]*client)}
}

// Serve accepts clients on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	log := gwlog.For("agwpe")
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	log.Infof("AGWPE bridge listening on %s", addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleClient(conn)
	}
}

func (s *Server) handleClient(conn net.Conn) {
	log := gwlog.For("agwpe")
	c := &client{conn: conn, registered: make(map[string]bool)}
	id := s.addClient(c)
	log.Infof("client %s connected from %s", id, conn.RemoteAddr())
	if info, err := netdiag.Inspect(conn); err == nil {
		log.Debugf("client %s: fd=%d local=%s", id, info.FD, info.LocalAddr)
	}

	defer func() {
		conn.Close()
		s.removeClient(id)
		log.Infof("client %s disconnected", id)
	}()

	for {
		msg, err := readMessage(conn)
		if err != nil {
			return
		}
		if err := s.dispatch(c, msg); err != nil {
			log.Warnf("client %s: %v", id, err)
		}
	}
}

func (s *Server) dispatch(c *client, msg *Message) error {
	switch msg.Header.DataKind {
	case 'G':
		return s.replyPortInfo(c)
	case 'g':
		return s.replyPortCaps(c, msg.Header.Port)
	case 'X':
		c.registered[callString(msg.Header.CallFrom)] = true
		return s.replyRegister(c, msg.Header.CallFrom, true)
	case 'x':
		delete(c.registered, callString(msg.Header.CallFrom))
		return nil
	case 'm':
		c.monitorRaw = true
		return nil
	case 'k':
		c.monitorFrames = true
		return nil
	case 'V':
		return s.handleTransmitUI(msg)
	case 'K':
		return s.handleTransmitRaw(msg)
	case 'y':
		return s.replyOutstanding(c, msg.Header.Port)
	case 'C':
		return s.handleConnect(msg)
	case 'D':
		return s.handleData(msg)
	case 'd':
		return s.handleDisconnect(msg)
	default:
		return fmt.Errorf("agwpe: unhandled data-kind %q", string(msg.Header.DataKind))
	}
}

func (s *Server) send(c *client, m *Message) error {
	c.w.Lock()
	defer c.w.Unlock()
	return writeMessage(c.conn, m)
}

func (s *Server) replyPortInfo(c *client) error {
	body := fmt.Sprintf("1;Port1 %s", s.myCall)
	return s.send(c, &Message{Header: Header{DataKind: 'G'}, Data: []byte(body + "\x00")})
}

func (s *Server) replyPortCaps(c *client, port byte) error {
	body := []byte{100, 0, 0, 0, 0, 0} // baud placeholder, matches AGWPE 'g' payload shape
	return s.send(c, &Message{Header: Header{DataKind: 'g', Port: port}, Data: body})
}

func (s *Server) replyRegister(c *client, call [10]byte, ok bool) error {
	v := byte(0)
	if ok {
		v = 1
	}
	return s.send(c, &Message{Header: Header{DataKind: 'X', CallFrom: call}, Data: []byte{v}})
}

func (s *Server) replyOutstanding(c *client, port byte) error {
	return s.send(c, &Message{Header: Header{DataKind: 'y', Port: port}, Data: []byte{0, 0, 0, 0}})
}

// handleTransmitUI builds a UI frame from the AGWPE 'V' payload: a
// leading digipeater count byte, that many 10-byte calls, then the
// information field, and submits it for transmission.
func (s *Server) handleTransmitUI(msg *Message) error {
	if len(msg.Data) < 1 {
		return fmt.Errorf("agwpe: short 'V' payload")
	}
	n := int(msg.Data[0])
	off := 1
	var repeaters []ax25.Digipeater
	for i := 0; i < n && off+10 <= len(msg.Data); i++ {
		call, err := callsign.Parse(callString([10]byte(msg.Data[off : off+10])))
		if err != nil {
			return err
		}
		repeaters = append(repeaters, ax25.Digipeater{Call: call})
		off += 10
	}
	src, err := callsign.Parse(callString(msg.Header.CallFrom))
	if err != nil {
		return err
	}
	dst, err := callsign.Parse(callString(msg.Header.CallTo))
	if err != nil {
		return err
	}
	pid := byte(ax25.PIDNoLayer3)
	f := ax25.Frame{
		Dest:      dst,
		Src:       src,
		Repeaters: repeaters,
		Kind:      ax25.KindUI,
		PID:       &pid,
		Info:      msg.Data[off:],
	}
	wire := kissframe.EncodeData(0, ax25.Encode(f))
	return s.sched.Submit(context.Background(), txsched.PriorityUser, wire)
}

func (s *Server) handleTransmitRaw(msg *Message) error {
	wire := kissframe.EncodeData(0, msg.Data)
	return s.sched.Submit(context.Background(), txsched.PriorityUser, wire)
}

func (s *Server) handleConnect(msg *Message) error {
	peer, err := callsign.Parse(callString(msg.Header.CallTo))
	if err != nil {
		return err
	}
	s.link.Session(peer).Events() <- ax25link.Event{Connect: true}
	return nil
}

func (s *Server) handleData(msg *Message) error {
	peer, err := callsign.Parse(callString(msg.Header.CallTo))
	if err != nil {
		return err
	}
	s.link.Session(peer).Events() <- ax25link.Event{Info: append([]byte(nil), msg.Data...)}
	return nil
}

func (s *Server) handleDisconnect(msg *Message) error {
	peer, err := callsign.Parse(callString(msg.Header.CallTo))
	if err != nil {
		return err
	}
	s.link.Session(peer).Events() <- ax25link.Event{Hangup: true}
	return nil
}

// MonitorUI fans out a received UI frame to every client that asked
// for raw or monitor frames, formatted as an AGWPE 'U' record.
func (s *Server) MonitorUI(f ax25.Frame) {
	data := append([]byte(nil), f.Info...)
	m := &Message{
		Header: Header{
			DataKind: 'U',
			CallFrom: callBytes(f.Src.String()),
			CallTo:   callBytes(f.Dest.String()),
		},
		Data: data,
	}
	s.broadcastMonitor(m, false)
}

// MonitorI fans out a received connected-mode I-frame payload as an
// AGWPE 'I' record.
func (s *Server) MonitorI(peer string, payload []byte) {
	m := &Message{
		Header: Header{
			DataKind: 'I',
			CallFrom: callBytes(peer),
			CallTo:   callBytes(s.myCall),
		},
		Data: append([]byte(nil), payload...),
	}
	s.broadcastMonitor(m, true)
}

func (s *Server) broadcastMonitor(m *Message, connected bool) {
	log := gwlog.For("agwpe")
	log.Debugf("monitor %s %s>%s at %s", string(rune(m.Header.DataKind)),
		callString(m.Header.CallFrom), callString(m.Header.CallTo), formatMonitorTime(time.Now()))
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if connected {
			if !c.monitorFrames {
				continue
			}
		} else if !c.monitorRaw && !c.monitorFrames {
			continue
		}
		if err := s.send(c, m); err != nil {
			log.Warnf("monitor send failed: %v", err)
		}
	}
}

func (s *Server) addClient(c *client) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := xid.New().String()
	s.clients[id] = c
	return id
}

func (s *Server) removeClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}
