// Package transport connects to the tracking middleware and feeds decoded
// events to a single-threaded handler.
//
// A TCP control connection carries the data_on handshake. Records then
// arrive either as UDP datagrams on the local data port or, in stream mode,
// as framed records on the control connection itself. Readers only copy
// bytes; decoding, the gesture handler, the watchdog sweep and the
// reconnect timer all run on the goroutine that called Run.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/wallinput/internal/monitoring"
	"github.com/banshee-data/wallinput/internal/omicron"
	"github.com/banshee-data/wallinput/internal/timeutil"
)

// Data channel modes.
const (
	ModeUDP    = "udp"
	ModeStream = "stream"
)

const (
	defaultReconnectInterval = 15 * time.Second
	defaultStatsInterval     = time.Minute
	defaultQueueSize         = 1024
	defaultRcvBuf            = 1 << 20
	dialTimeout              = 5 * time.Second
	readTimeout              = 100 * time.Millisecond
	maxDatagram              = 64 * 1024
)

// EventHandler consumes decoded events. *gesture.Engine implements it.
type EventHandler interface {
	Handle(ev omicron.TrackingEvent)
	Sweep() int
	SweepInterval() time.Duration
}

// Config configures a Manager. Zero values take defaults.
type Config struct {
	Host        string
	ControlPort int
	DataPort    int
	Mode        string
	Flags       omicron.ClientFlag

	// ReconnectInterval is the fixed delay between control-channel attempts.
	ReconnectInterval time.Duration
	StatsInterval     time.Duration
	// QueueSize bounds the packets waiting for the event loop. UDP packets
	// arriving while it is full are dropped.
	QueueSize int
	RcvBuf    int

	Clock   timeutil.Clock
	Dial    DialFunc
	Sockets UDPSocketFactory
}

// Manager owns the middleware connection and the event loop.
type Manager struct {
	cfg     Config
	handler EventHandler
	clock   timeutil.Clock
	stats   *PacketStats

	connected atomic.Bool
	conn      net.Conn
	session   string
}

// NewManager creates a Manager delivering events to handler.
func NewManager(cfg Config, handler EventHandler) *Manager {
	if cfg.Mode == "" {
		cfg.Mode = ModeUDP
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = defaultStatsInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.RcvBuf <= 0 {
		cfg.RcvBuf = defaultRcvBuf
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Dial == nil {
		cfg.Dial = (&net.Dialer{}).DialContext
	}
	if cfg.Sockets == nil {
		cfg.Sockets = RealUDPSocketFactory{}
	}
	return &Manager{
		cfg:     cfg,
		handler: handler,
		clock:   cfg.Clock,
		stats:   NewPacketStats(cfg.Clock),
	}
}

// Connected reports whether the control channel is up.
func (m *Manager) Connected() bool {
	return m.connected.Load()
}

// Stats returns the packet counters.
func (m *Manager) Stats() *PacketStats {
	return m.stats
}

// Run connects and processes events until ctx is cancelled. It returns an
// error only if the UDP data port cannot be opened; control-channel
// failures are logged and retried.
func (m *Manager) Run(ctx context.Context) error {
	switch m.cfg.Mode {
	case ModeUDP, ModeStream:
	default:
		return fmt.Errorf("unknown transport mode %q", m.cfg.Mode)
	}

	readCtx, cancelReaders := context.WithCancel(ctx)
	var readers sync.WaitGroup
	packets := make(chan []byte, m.cfg.QueueSize)
	lost := make(chan net.Conn, 1)
	// Dials run off the loop; at most one is outstanding, so the buffered
	// result channel never blocks the dialer.
	dialed := make(chan dialResult, 1)

	var sock UDPSocket
	if m.cfg.Mode == ModeUDP {
		var err error
		sock, err = m.listen()
		if err != nil {
			cancelReaders()
			return err
		}
		readers.Add(1)
		go func() {
			defer readers.Done()
			m.readUDP(readCtx, sock, packets)
		}()
	}

	defer func() {
		m.disconnect(true)
		cancelReaders()
		readers.Wait()
		select {
		case res := <-dialed:
			if res.conn != nil {
				res.conn.Close()
			}
		default:
		}
		if sock != nil {
			sock.Close()
		}
	}()

	dialing := false
	startDial := func() {
		dialing = true
		readers.Add(1)
		go func() {
			defer readers.Done()
			conn, err := m.dial(readCtx)
			dialed <- dialResult{conn: conn, err: err}
		}()
	}
	reconnect := m.clock.NewTimer(m.cfg.ReconnectInterval)
	defer reconnect.Stop()
	startDial()

	sweep := m.clock.NewTicker(m.handler.SweepInterval())
	defer sweep.Stop()
	statsTicker := m.clock.NewTicker(m.cfg.StatsInterval)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt := <-packets:
			m.dispatch(pkt)
		case res := <-dialed:
			dialing = false
			if res.err != nil {
				monitoring.Logf("transport: %v; retrying in %v", res.err, m.cfg.ReconnectInterval)
				continue
			}
			reconnect.Stop()
			m.attach(readCtx, res.conn, &readers, packets, lost)
		case c := <-lost:
			if c != m.conn {
				continue
			}
			monitoring.Logf("transport: control connection lost (session %s); retrying in %v", m.session, m.cfg.ReconnectInterval)
			m.disconnect(false)
			reconnect.Reset(m.cfg.ReconnectInterval)
		case <-reconnect.C():
			switch {
			case m.Connected():
			case dialing:
				reconnect.Reset(m.cfg.ReconnectInterval)
			default:
				reconnect.Reset(m.cfg.ReconnectInterval)
				startDial()
			}
		case <-sweep.C():
			m.handler.Sweep()
		case <-statsTicker.C():
			m.stats.LogStats()
		}
	}
}

type dialResult struct {
	conn net.Conn
	err  error
}

func (m *Manager) dispatch(pkt []byte) {
	ev := omicron.Decode(pkt)
	m.stats.AddDecoded(!ev.Complete())
	m.handler.Handle(ev)
}

func (m *Manager) listen() (UDPSocket, error) {
	addr := &net.UDPAddr{Port: m.cfg.DataPort}
	sock, err := m.cfg.Sockets.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP port %d: %w", m.cfg.DataPort, err)
	}
	if err := sock.SetReadBuffer(m.cfg.RcvBuf); err != nil {
		monitoring.Logf("Warning: Failed to set UDP receive buffer size to %d: %v", m.cfg.RcvBuf, err)
	}
	monitoring.Logf("UDP listener started on %v with receive buffer %d bytes", sock.LocalAddr(), m.cfg.RcvBuf)
	return sock, nil
}

func (m *Manager) readUDP(ctx context.Context, sock UDPSocket, packets chan<- []byte) {
	buffer := make([]byte, maxDatagram)
	for ctx.Err() == nil {
		sock.SetReadDeadline(time.Now().Add(readTimeout))

		n, addr, err := sock.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			monitoring.Logf("UDP read error: %v", err)
			continue
		}

		m.stats.AddPacket(n)
		pkt := make([]byte, n)
		copy(pkt, buffer[:n])
		select {
		case packets <- pkt:
		default:
			m.stats.AddDropped()
			monitoring.Debugf("transport: queue full, dropped %d bytes from %v", n, addr)
		}
	}
}

// dial opens the control connection and sends the handshake. It runs on its
// own goroutine and touches no Manager state besides the config.
func (m *Manager) dial(ctx context.Context) (net.Conn, error) {
	addr := m.controlAddr()
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, err := m.cfg.Dial(dctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	conn.SetWriteDeadline(time.Now().Add(dialTimeout))
	if _, err := io.WriteString(conn, omicron.DataOnLine(m.cfg.DataPort, m.cfg.Flags)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake with %s failed: %w", addr, err)
	}
	conn.SetWriteDeadline(time.Time{})
	return conn, nil
}

// attach adopts a handshaken connection on the event loop.
func (m *Manager) attach(ctx context.Context, conn net.Conn, readers *sync.WaitGroup, packets chan<- []byte, lost chan<- net.Conn) {
	m.conn = conn
	m.session = uuid.NewString()
	m.connected.Store(true)
	monitoring.Logf("transport: connected to %s (session %s, %s mode, flags %d)", m.controlAddr(), m.session, m.cfg.Mode, uint32(m.cfg.Flags))

	readers.Add(1)
	go func() {
		defer readers.Done()
		m.readControl(ctx, conn, packets, lost)
	}()
}

func (m *Manager) controlAddr() string {
	return net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.ControlPort))
}

// readControl drains the control connection until it fails. In stream mode
// the connection carries framed records; otherwise anything the middleware
// sends is discarded.
func (m *Manager) readControl(ctx context.Context, conn net.Conn, packets chan<- []byte, lost chan<- net.Conn) {
	var err error
	if m.cfg.Mode == ModeStream {
		for {
			var frame []byte
			frame, err = omicron.ReadFrame(conn)
			if err != nil {
				break
			}
			m.stats.AddPacket(len(frame))
			select {
			case packets <- frame:
			case <-ctx.Done():
				return
			}
		}
	} else {
		_, err = io.Copy(io.Discard, conn)
	}
	if ctx.Err() != nil {
		return
	}
	monitoring.Debugf("transport: control read ended: %v", err)
	select {
	case lost <- conn:
	case <-ctx.Done():
	}
}

// disconnect closes the control connection. On shutdown the middleware is
// asked to stop streaming first.
func (m *Manager) disconnect(graceful bool) {
	if m.conn == nil {
		return
	}
	if graceful {
		m.conn.SetWriteDeadline(time.Now().Add(time.Second))
		if _, err := io.WriteString(m.conn, omicron.DataOffLine); err != nil {
			monitoring.Debugf("transport: data_off failed: %v", err)
		}
		monitoring.Logf("transport: closed session %s", m.session)
	}
	m.conn.Close()
	m.conn = nil
	m.connected.Store(false)
}
