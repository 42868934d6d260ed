// Package kissbridge implements C9: a TCP listener that re-exports the
// radio as a raw KISS stream to any number of clients, broadcasting
// every frame heard on the transport and accepting frames from
// clients for transmission with fair round-robin scheduling across
// clients. Grounded on the prior Go port's kissnet.go server loop
// (kiss_net accept/broadcast) and server.go's client-list fan-out,
// rewritten around internal/eventbus and internal/txsched instead of
// a C linked list of client sockets guarded by a single mutex.
package kissbridge

import (
	"context"
	"net"
	"sync"

	"github.com/n7gw/tncgw/internal/eventbus"
	"github.com/n7gw/tncgw/internal/framebuffer"
	"github.com/n7gw/tncgw/internal/gwlog"
	"github.com/n7gw/tncgw/internal/kissframe"
	"github.com/n7gw/tncgw/internal/netdiag"
	"github.com/n7gw/tncgw/internal/transport"
	"github.com/n7gw/tncgw/internal/txsched"
	"github.com/rs/xid"
)

// Bridge owns one transport.TNC and re-exports it to TCP clients.
type Bridge struct {
	tnc   transport.TNC
	sched *txsched.Scheduler
	bus   *eventbus.Bus
	fb    *framebuffer.Ring // optional, nil disables capture

	mu      sync.Mutex
	clients map[string]net.Conn
}

// New creates a Bridge over tnc, using sched to serialize
// client-originated writes back to the radio. fb may be nil.
func New(tnc transport.TNC, sched *txsched.Scheduler, fb *framebuffer.Ring) *Bridge {
	return &Bridge{
		tnc:     tnc,
		sched:   sched,
		bus:     eventbus.New(),
		fb:      fb,
		clients: make(map[string]net.Conn),
	}
}

// Ingest records and broadcasts one chunk of bytes read from the
// transport. Exported so a central orchestrator that also needs to
// decode the same bytes (AX.25 dispatch, station/message/digipeater
// ingestion) can drive both from one read loop instead of racing two
// readers on the same transport.
func (b *Bridge) Ingest(raw []byte) {
	if b.fb != nil {
		b.fb.Append(framebuffer.Entry{Channel: "kiss:rx", Raw: raw})
	}
	b.bus.Publish(eventbus.Frame{Channel: "kiss", Raw: raw})
}

// ReadLoop reads from the transport and broadcasts every chunk to
// subscribed clients until ctx is cancelled or the transport errs.
// Standalone convenience for deployments that only need the raw KISS
// bridge; cmd/tncgw drives Ingest itself from its central decode loop.
func (b *Bridge) ReadLoop(ctx context.Context) error {
	log := gwlog.For("kissbridge")
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := b.tnc.Read(buf)
		if err != nil {
			log.Warnf("transport read failed: %v", err)
			return err
		}
		b.Ingest(append([]byte(nil), buf[:n]...))
	}
}

// Serve accepts clients on addr until ctx is cancelled.
func (b *Bridge) Serve(ctx context.Context, addr string) error {
	log := gwlog.For("kissbridge")
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	log.Infof("KISS bridge listening on %s", addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Warnf("accept failed: %v", err)
				return err
			}
		}
		b.handleClient(ctx, conn)
	}
}

func (b *Bridge) handleClient(ctx context.Context, conn net.Conn) {
	log := gwlog.For("kissbridge")
	id := b.addClient(conn)
	log.Infof("client %s connected from %s", id, conn.RemoteAddr())
	if info, err := netdiag.Inspect(conn); err == nil {
		log.Debugf("client %s: fd=%d local=%s", id, info.FD, info.LocalAddr)
	}

	sub, unsub := b.bus.Subscribe(64)

	go func() {
		defer unsub()
		for {
			select {
			case f, ok := <-sub:
				if !ok {
					return
				}
				if _, err := conn.Write(f.Raw); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer func() {
			conn.Close()
			b.removeClient(id)
			log.Infof("client %s disconnected", id)
		}()
		dec := kissframe.NewDecoder(func(reason kissframe.DropReason) {
			log.Warnf("client %s: dropped partial frame: %s", id, reason)
		})
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			for _, f := range dec.Feed(buf[:n]) {
				wire := kissframe.Encode(f)
				if b.fb != nil {
					b.fb.Append(framebuffer.Entry{Channel: "kiss:tx", Raw: wire})
				}
				if err := b.sched.Submit(ctx, txsched.PriorityUser, wire); err != nil {
					return
				}
			}
		}
	}()
}

func (b *Bridge) addClient(conn net.Conn) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := xid.New().String()
	b.clients[id] = conn
	return id
}

func (b *Bridge) removeClient(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, id)
}

// ClientCount reports the number of currently connected clients.
func (b *Bridge) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}
