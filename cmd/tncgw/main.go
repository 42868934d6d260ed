// tncgw is the packet-radio terminal gateway: it owns one TNC
// transport, decodes and digipeats AX.25/APRS traffic, and re-exports
// it over three application-facing surfaces (a raw KISS bridge, an
// AGWPE server, and an HTTP/SSE API). Grounded on the prior Go port's
// cmd/direwolf/main.go flag-driven startup and config.go's
// read-config-then-wire-every-subsystem shape, rewritten around this
// repository's own transport/protocol stack instead of direwolf's
// cgo audio modem core.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/takama/daemon"
	"gopkg.in/yaml.v3"

	"github.com/n7gw/tncgw/internal/agwpe"
	"github.com/n7gw/tncgw/internal/aprs"
	"github.com/n7gw/tncgw/internal/ax25"
	"github.com/n7gw/tncgw/internal/ax25link"
	"github.com/n7gw/tncgw/internal/callsign"
	"github.com/n7gw/tncgw/internal/digipeater"
	"github.com/n7gw/tncgw/internal/discover"
	"github.com/n7gw/tncgw/internal/framebuffer"
	"github.com/n7gw/tncgw/internal/gwconfig"
	"github.com/n7gw/tncgw/internal/gwerr"
	"github.com/n7gw/tncgw/internal/gwlog"
	"github.com/n7gw/tncgw/internal/gwmetrics"
	"github.com/n7gw/tncgw/internal/kissbridge"
	"github.com/n7gw/tncgw/internal/kissframe"
	"github.com/n7gw/tncgw/internal/message"
	"github.com/n7gw/tncgw/internal/sse"
	"github.com/n7gw/tncgw/internal/station"
	"github.com/n7gw/tncgw/internal/transport"
	"github.com/n7gw/tncgw/internal/transport/ble"
	serialdiscover "github.com/n7gw/tncgw/internal/transport/discover"
	"github.com/n7gw/tncgw/internal/transport/serialtnc"
	"github.com/n7gw/tncgw/internal/transport/tcpclient"
	"github.com/n7gw/tncgw/internal/txsched"
)

const serviceName = "tncgw"

// tocall is the destination address this gateway stamps on frames it
// originates (messages, acks, beacons): an experimental-tier APRS
// software identifier, per the "APxxxx" convention.
const tocall = "APZTGW"

// shutdownGrace bounds how long the HTTP API server is given to finish
// open requests after cancellation. The transmit scheduler stops as
// soon as the run context is cancelled; frames still queued are not
// sent.
const shutdownGrace = 15 * time.Second

func main() {
	var (
		configFile  = pflag.StringP("config-file", "c", "tncgw.yaml", "YAML configuration file (spec.md §6 keys)")
		transportFl = pflag.String("transport", "tcp", "TNC transport: serial, tcp, or ble")
		device      = pflag.String("device", "/dev/ttyUSB0", "serial device path (transport=serial)")
		baud        = pflag.Int("baud", 9600, "serial baud rate (transport=serial)")
		tncAddr     = pflag.String("tnc-addr", "localhost:8001", "host:port of an upstream KISS-over-TCP TNC (transport=tcp)")
		bleName     = pflag.String("ble-name", "", "BLE peripheral name to scan for (transport=ble, falls back to RADIO_MAC)")
		stateDir    = pflag.StringP("state-dir", "d", ".", "directory for the persisted station database")
		mdns        = pflag.Bool("mdns", true, "advertise the KISS and AGWPE listeners via mDNS/DNS-SD")
		logLevel    = pflag.String("log-level", "info", "log level: debug, info, warn, error")
		service     = pflag.String("service", "", "manage the platform service instead of running: install, remove, start, stop, status")
		listDevices = pflag.Bool("list-devices", false, "list candidate USB-serial TNC devices and exit")
	)
	pflag.Parse()

	gwlog.SetLevel(parseLevel(*logLevel))
	log := gwlog.For("main")

	if *listDevices {
		runListDevices()
		return
	}

	if *service != "" {
		runServiceCommand(*service)
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	local, err := callsign.Parse(cfg.MyCall)
	if err != nil {
		log.Fatalf("MYCALL: %v", err)
	}

	tnc, transportName, err := openTransport(cfg, *transportFl, *device, *baud, *tncAddr, *bleName)
	if err != nil {
		log.Fatalf("opening transport %s: %v", *transportFl, err)
	}
	defer tnc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := newGateway(cfg, local, tnc, transportName, *stateDir)

	var announcer *discover.Announcer
	if *mdns {
		announcer, err = discover.Announce(cfg.MyCall, cfg.TNCPort, cfg.AGWPEPort)
		if err != nil {
			log.Warnf("mDNS advertisement disabled: %v", err)
		}
	}

	gw.run(ctx)

	if announcer != nil {
		announcer.Stop()
	}
	log.Infof("shutdown complete")
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func loadConfig(path string) (gwconfig.Config, error) {
	cfg := gwconfig.Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func openTransport(cfg gwconfig.Config, kind, device string, baud int, tncAddr, bleName string) (transport.TNC, string, error) {
	switch kind {
	case "serial":
		t, err := serialtnc.Open(device, baud)
		if err != nil {
			return nil, "", gwerr.Wrap(gwerr.KindTransport, err)
		}
		return t, "serial", nil
	case "tcp":
		t, err := tcpclient.Dial(tncAddr, 10*time.Second)
		if err != nil {
			return nil, "", gwerr.Wrap(gwerr.KindTransport, err)
		}
		return t, "tcp", nil
	case "ble":
		name := bleName
		if name == "" {
			name = cfg.RadioMAC
		}
		t, err := ble.Connect(name, 15*time.Second)
		if err != nil {
			return nil, "", gwerr.Wrap(gwerr.KindTransport, err)
		}
		return t, "ble", nil
	default:
		return nil, "", fmt.Errorf("unknown transport %q (want serial, tcp, or ble)", kind)
	}
}

func runListDevices() {
	log := gwlog.For("main")
	devices, err := serialdiscover.ListSerialDevices()
	if err != nil {
		log.Fatalf("listing serial devices: %v", err)
	}
	if len(devices) == 0 {
		fmt.Println("no USB-serial devices found")
		return
	}
	for _, d := range devices {
		fmt.Printf("%s\t%s %s (serial %s)\n", d.Path, d.Vendor, d.Model, d.Serial)
	}
}

func runServiceCommand(cmd string) {
	log := gwlog.For("main")
	d, err := daemon.New(serviceName, "APRS/packet-radio terminal gateway", daemon.SystemDaemon)
	if err != nil {
		log.Fatalf("service: %v", err)
	}
	var status string
	switch cmd {
	case "install":
		status, err = d.Install()
	case "remove":
		status, err = d.Remove()
	case "start":
		status, err = d.Start()
	case "stop":
		status, err = d.Stop()
	case "status":
		status, err = d.Status()
	default:
		log.Fatalf("unknown --service value %q (want install, remove, start, stop, status)", cmd)
	}
	if err != nil {
		log.Fatalf("service %s: %v", cmd, err)
	}
	fmt.Println(status)
}

// gateway wires together every subsystem built around one shared
// transmit scheduler and one shared transport, per spec.md §5's
// concurrency model: independent tasks communicating through the
// station database, the message manager, and the event bus rather
// than through direct calls into each other.
type gateway struct {
	cfg           gwconfig.Config
	local         callsign.Callsign
	dest          callsign.Callsign
	beaconPath    []ax25.Digipeater
	transportName string
	stateDir      string

	tnc       transport.TNC
	sched     *txsched.Scheduler
	link      *ax25link.Manager
	db        *station.DB
	msgs      *message.Manager
	inbox     *message.Inbox
	fb        *framebuffer.Ring
	bridge    *kissbridge.Bridge
	agw       *agwpe.Server
	sseSrv    *sse.Server
	policy    digipeater.Policy
	digiDedup *message.Dedup

	beaconComment string
	beaconMu      sync.Mutex
}

func newGateway(cfg gwconfig.Config, local callsign.Callsign, tnc transport.TNC, transportName, stateDir string) *gateway {
	dest := callsign.MustParse(tocall)
	path := parsePath(cfg.BeaconPath)

	sched := txsched.New(tnc)

	tx := &txTransmitter{sched: sched}
	link := ax25link.NewManager(local, tx, ax25link.DefaultConfig())

	db := loadStationDB(stateDir)

	sender := &messageSender{local: local, dest: dest, path: path, sched: sched}
	msgCfg := message.Config{
		FastInterval: cfg.FastRetryInterval(),
		SlowInterval: cfg.SlowRetryInterval(),
		MaxRetries:   cfg.Retry * 3,
	}
	msgs := message.NewManager(sender, msgCfg)
	inbox := message.NewInbox(cfg.MyCall, cfg.AutoAck, sender)

	fb := framebuffer.NewRing(cfg.DebugBufferMB)
	bridge := kissbridge.New(tnc, sched, fb)
	agw := agwpe.New(cfg.MyCall, sched, link)

	policy := digipeater.Policy{
		MyCall:     local,
		MyCallXmit: local,
		Alias:      cfg.MyAlias,
		Enabled:    cfg.Digipeat,
	}

	g := &gateway{
		cfg:           cfg,
		local:         local,
		dest:          dest,
		beaconPath:    path,
		transportName: transportName,
		stateDir:      stateDir,
		tnc:           tnc,
		sched:         sched,
		link:          link,
		db:            db,
		msgs:          msgs,
		inbox:         inbox,
		fb:            fb,
		bridge:        bridge,
		agw:           agw,
		policy:        policy,
		digiDedup:     message.NewDedup(30 * time.Second),
		beaconComment: cfg.BeaconComment,
	}

	g.sseSrv = sse.New(db, msgs, func() gwconfig.Config { return g.currentConfig() }, func() digipeater.Policy { return g.policy }, g.setBeaconComment)
	return g
}

func (g *gateway) currentConfig() gwconfig.Config {
	g.beaconMu.Lock()
	defer g.beaconMu.Unlock()
	cfg := g.cfg
	cfg.BeaconComment = g.beaconComment
	return cfg
}

func (g *gateway) setBeaconComment(comment string, tx bool) error {
	g.beaconMu.Lock()
	g.beaconComment = comment
	g.beaconMu.Unlock()
	if tx {
		return g.sendBeacon()
	}
	return nil
}

// run starts every background task and blocks until ctx is cancelled,
// then shuts down the HTTP API and persists the station database
// before returning.
func (g *gateway) run(ctx context.Context) {
	log := gwlog.For("main")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.sched.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := g.readLoop(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("transport read loop exited: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		addr := fmt.Sprintf(":%d", g.cfg.TNCPort)
		if err := g.bridge.Serve(ctx, addr); err != nil && ctx.Err() == nil {
			log.Errorf("KISS bridge: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		addr := fmt.Sprintf(":%d", g.cfg.AGWPEPort)
		if err := g.agw.Serve(ctx, addr); err != nil && ctx.Err() == nil {
			log.Errorf("AGWPE server: %v", err)
		}
	}()

	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", g.cfg.WebUIPort), Handler: g.sseSrv.Mux()}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("web API listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("web API: %v", err)
		}
	}()

	if g.cfg.Beacon {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.beaconLoop(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		g.persistLoop(ctx)
	}()

	<-ctx.Done()
	log.Infof("shutting down (HTTP API grace %s)", shutdownGrace)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	_ = httpSrv.Shutdown(shutdownCtx)
	cancel()

	g.link.CloseAll()
	g.persist()
	wg.Wait()
}

func (g *gateway) persistLoop(ctx context.Context) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			g.persist()
		}
	}
}

func (g *gateway) persist() {
	log := gwlog.For("main")
	if err := g.db.Save(stationDBPath(g.stateDir)); err != nil {
		log.Warnf("saving station database: %v", err)
	}
}

func stationDBPath(stateDir string) string {
	return stateDir + "/stations.json.gz"
}

func loadStationDB(stateDir string) *station.DB {
	log := gwlog.For("main")
	db, err := station.Load(stationDBPath(stateDir))
	if err != nil {
		log.Warnf("station database: starting empty: %v", err)
		return station.New()
	}
	return db
}

// readLoop is the single reader of the transport (spec.md §5): it
// decodes KISS framing once and fans the result out to the raw KISS
// mirror and the AX.25/APRS pipeline, instead of racing two readers
// on the same transport.TNC.
func (g *gateway) readLoop(ctx context.Context) error {
	log := gwlog.For("main")
	dec := kissframe.NewDecoder(func(reason kissframe.DropReason) {
		gwmetrics.FramesDropped.WithLabelValues(reason.String()).Inc()
		log.Warnf("dropped partial KISS frame: %s", reason)
	})

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := g.tnc.Read(buf)
		if err != nil {
			return err
		}
		raw := append([]byte(nil), buf[:n]...)
		g.bridge.Ingest(raw)

		for _, kf := range dec.Feed(raw) {
			f, err := ax25.Decode(kf.Payload)
			if err != nil {
				gwmetrics.FramesDropped.WithLabelValues("ax25-decode").Inc()
				log.Debugf("bad AX.25 frame: %v", err)
				continue
			}
			g.handleFrame(f)
		}
	}
}

func (g *gateway) handleFrame(f ax25.Frame) {
	gwmetrics.FramesReceived.WithLabelValues(g.transportName, channelFor(f)).Inc()

	digipeated := false
	for _, rep := range f.Repeaters {
		if rep.HBit {
			g.db.Ingest(rep.Call, time.Now(), g.transportName, 0, nil, nil, false, false, false, true)
			digipeated = true
		}
	}
	if digipeated && f.Src == g.local {
		g.msgs.ObserveDigipeat(f.Info)
	}

	if !f.IsUI() {
		if f.Kind == ax25.KindI {
			g.agw.MonitorI(f.Src.String(), f.Info)
		}
		g.link.Dispatch(f)
		return
	}

	g.agw.MonitorUI(f)
	g.handleUI(f)

	if rewritten, ok := digipeater.Digipeat(g.policy, f, f.RepeatedCount() == 0); ok {
		if !g.digiDedup.IsDuplicate(f.Src.String()+">"+f.Dest.String(), string(f.Info)) {
			g.transmit(rewritten, txsched.PriorityUser)
			gwmetrics.DigipeatedTotal.Inc()
		}
	}
}

func channelFor(f ax25.Frame) string {
	if f.IsUI() {
		return "ui"
	}
	return "connected"
}

func (g *gateway) handleUI(f ax25.Frame) {
	p, err := aprs.Decode(f.Dest.Base, f.Info)
	if err != nil {
		return
	}

	digiHops := f.RepeatedCount()
	heardDirect := p.Kind != aprs.KindThirdParty
	heardZeroHop := digiHops == 0
	viaThirdParty := p.Kind == aprs.KindThirdParty

	var path []string
	for _, rep := range f.Repeaters {
		if rep.HBit {
			path = append(path, rep.Call.String())
		}
	}

	switch p.Kind {
	case aprs.KindPosition:
		g.db.Ingest(f.Src, time.Now(), g.transportName, digiHops, path, p.Position, heardDirect, heardZeroHop, viaThirdParty, false)
		g.sseSrv.Publish(sse.EventStationUpdate, f.Src.String())
		if p.Position.SymbolTable != 0 {
			g.sseSrv.Publish(sse.EventGPSUpdate, map[string]any{"call": f.Src.String(), "lat": p.Position.Lat, "lon": p.Position.Lon})
		}
	case aprs.KindWeather:
		g.db.Ingest(f.Src, time.Now(), g.transportName, digiHops, path, nil, heardDirect, heardZeroHop, viaThirdParty, false)
		g.db.IngestWeather(f.Src, time.Now(), p.Weather)
		g.sseSrv.Publish(sse.EventWeatherUpdate, f.Src.String())
	case aprs.KindMessage:
		g.db.Ingest(f.Src, time.Now(), g.transportName, digiHops, path, nil, heardDirect, heardZeroHop, viaThirdParty, false)
		g.handleMessage(f.Src.String(), p.Message)
	case aprs.KindObject, aprs.KindItem:
		g.db.Ingest(f.Src, time.Now(), g.transportName, digiHops, path, nil, heardDirect, heardZeroHop, viaThirdParty, false)
	default:
		g.db.Ingest(f.Src, time.Now(), g.transportName, digiHops, path, nil, heardDirect, heardZeroHop, viaThirdParty, false)
	}
}

func (g *gateway) handleMessage(from string, msg *aprs.Message) {
	if msg.IsAck || msg.IsReject {
		g.msgs.HandleAck(from, msg.MsgID, msg.IsReject)
		return
	}
	g.inbox.Handle(from, msg)
	g.sseSrv.RecordMessage(from, g.cfg.MyCall, msg)
}

func (g *gateway) transmit(f ax25.Frame, p txsched.Priority) {
	wire := kissframe.EncodeData(0, ax25.Encode(f))
	_ = g.sched.Submit(context.Background(), p, wire)
	gwmetrics.FramesTransmitted.WithLabelValues(g.transportName, channelFor(f)).Inc()
}

func (g *gateway) beaconLoop(ctx context.Context) {
	interval := time.Duration(g.cfg.BeaconInterval) * time.Second
	if interval <= 0 {
		interval = gwconfig.Default().BeaconInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	_ = g.sendBeacon()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := g.sendBeacon(); err != nil {
				gwlog.For("main").Warnf("beacon: %v", err)
			}
		}
	}
}

func (g *gateway) sendBeacon() error {
	lat, lon, err := aprs.MaidenheadToLatLon(g.cfg.MyLocation)
	if err != nil {
		return fmt.Errorf("beacon requires a valid MYLOCATION grid square: %w", err)
	}
	table, code := symbolTableAndCode(g.cfg.BeaconSymbol)
	pos := &aprs.Position{
		Lat: lat, Lon: lon,
		SymbolTable: table, SymbolCode: code,
		Comment: g.currentConfig().BeaconComment,
	}
	info, err := aprs.Encode(&aprs.Payload{Kind: aprs.KindPosition, Position: pos})
	if err != nil {
		return err
	}
	pid := byte(ax25.PIDNoLayer3)
	f := ax25.Frame{Dest: g.dest, Src: g.local, Repeaters: g.beaconPath, Kind: ax25.KindUI, PID: &pid, Info: info}
	g.transmit(f, txsched.PriorityBeacon)
	return nil
}

func symbolTableAndCode(s string) (byte, byte) {
	if len(s) != 2 {
		return '/', '>' // primary table, car symbol: a reasonable generic default
	}
	return s[0], s[1]
}

func parsePath(s string) []ax25.Digipeater {
	var out []ax25.Digipeater
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := callsign.Parse(part)
		if err != nil {
			continue
		}
		out = append(out, ax25.Digipeater{Call: c})
	}
	return out
}

// txTransmitter adapts txsched.Scheduler to ax25link.Transmitter: the
// connected-mode state machine and the message manager both ultimately
// hand one AX.25 frame to the single transmit scheduler serialized
// onto the one transport (spec.md §5).
type txTransmitter struct {
	sched *txsched.Scheduler
}

func (t *txTransmitter) SendFrame(f ax25.Frame) error {
	wire := kissframe.EncodeData(0, ax25.Encode(f))
	priority := txsched.PriorityUser
	if f.Kind == ax25.KindS || (f.Kind == ax25.KindI && f.NS == 0) {
		priority = txsched.PriorityAck
	}
	gwmetrics.FramesTransmitted.WithLabelValues("radio", "connected").Inc()
	return t.sched.Submit(context.Background(), priority, wire)
}

// messageSender adapts txsched.Scheduler to message.Sender, encoding
// an APRS message/ack payload into a UI frame addressed via tocall and
// the configured beacon path.
type messageSender struct {
	local callsign.Callsign
	dest  callsign.Callsign
	path  []ax25.Digipeater
	sched *txsched.Scheduler
}

func (s *messageSender) SendMessage(msg *aprs.Message) error {
	info := aprs.EncodeMessage(msg)
	pid := byte(ax25.PIDNoLayer3)
	f := ax25.Frame{Dest: s.dest, Src: s.local, Repeaters: s.path, Kind: ax25.KindUI, PID: &pid, Info: info}
	wire := kissframe.EncodeData(0, ax25.Encode(f))
	priority := txsched.PriorityUser
	if msg.IsAck {
		priority = txsched.PriorityAck
	}
	gwmetrics.FramesTransmitted.WithLabelValues("radio", "message").Inc()
	return s.sched.Submit(context.Background(), priority, wire)
}
