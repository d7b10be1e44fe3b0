package sink

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/banshee-data/wallinput/internal/gesture"
	"github.com/banshee-data/wallinput/internal/monitoring"
)

// ClientIDHeader carries the sink's client id on the websocket handshake.
const ClientIDHeader = "X-Wallinput-Client"

// Window is one application window as reported by the window manager, in
// display pixels.
type Window struct {
	App    string  `json:"app"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (w Window) contains(x, y float64) bool {
	return x >= w.X && x < w.X+w.Width && y >= w.Y && y < w.Y+w.Height
}

// layoutMessage is sent by the window manager whenever its windows change.
// Windows are listed topmost first.
type layoutMessage struct {
	Type    string   `json:"type"`
	Windows []Window `json:"windows"`
}

// WebSocketConfig configures a WebSocket sink. Zero values take defaults.
type WebSocketConfig struct {
	URL           string
	QueueSize     int
	PingEvery     time.Duration
	PongWait      time.Duration
	WriteTimeout  time.Duration
	RetryInterval time.Duration
}

// WebSocket streams DisplayPointer records as JSON text messages. It dials
// in the background and redials when the connection drops. Records are
// queued; when the queue is full new records are dropped.
type WebSocket struct {
	cfg      WebSocketConfig
	clientID string
	queue    chan gesture.DisplayPointer

	layoutMu sync.RWMutex
	layout   []Window

	dropped   atomic.Int64
	sent      atomic.Int64
	connected atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWebSocket creates the sink and starts its writer.
func NewWebSocket(ctx context.Context, cfg WebSocketConfig) *WebSocket {
	w := newWebSocket(cfg)
	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
	return w
}

func newWebSocket(cfg WebSocketConfig) *WebSocket {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.PingEvery <= 0 {
		cfg.PingEvery = 10 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 3 * cfg.PingEvery
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}
	return &WebSocket{
		cfg:      cfg,
		clientID: uuid.NewString(),
		queue:    make(chan gesture.DisplayPointer, cfg.QueueSize),
		cancel:   func() {},
		done:     make(chan struct{}),
	}
}

// ClientID identifies this sink to the window manager.
func (w *WebSocket) ClientID() string { return w.clientID }

// Connected reports whether a connection is currently open.
func (w *WebSocket) Connected() bool { return w.connected.Load() }

// Dropped is the number of records discarded because the queue was full.
func (w *WebSocket) Dropped() int64 { return w.dropped.Load() }

// Sent is the number of records written.
func (w *WebSocket) Sent() int64 { return w.sent.Load() }

// Send queues p without blocking.
func (w *WebSocket) Send(p gesture.DisplayPointer) {
	select {
	case w.queue <- p:
	default:
		w.dropped.Add(1)
	}
}

// Close stops the writer and closes the connection.
func (w *WebSocket) Close() error {
	w.cancel()
	<-w.done
	return nil
}

func (w *WebSocket) run(ctx context.Context) {
	defer close(w.done)
	for ctx.Err() == nil {
		conn, errC, err := w.dial(ctx)
		if err != nil {
			monitoring.Logf("sink: websocket dial %s failed: %v", w.cfg.URL, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.cfg.RetryInterval):
			}
			continue
		}

		monitoring.Logf("sink: websocket connected to %s as %s", w.cfg.URL, w.clientID)
		w.connected.Store(true)
		err = w.pump(ctx, conn, errC)
		w.connected.Store(false)
		conn.Close()
		if ctx.Err() == nil {
			monitoring.Logf("sink: websocket %s lost: %v", w.cfg.URL, err)
		}
	}
}

func (w *WebSocket) dial(ctx context.Context) (*websocket.Conn, <-chan error, error) {
	d := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		NetDialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 15 * time.Second,
		}).DialContext,
	}
	header := http.Header{}
	header.Set(ClientIDHeader, w.clientID)

	conn, _, err := d.DialContext(ctx, w.cfg.URL, header)
	if err != nil {
		return nil, nil, err
	}

	// Reading is needed to process pong and close frames.
	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(w.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(w.cfg.PongWait))
	})

	errC := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				errC <- err
				return
			}
			w.handleMessage(data)
		}
	}()
	return conn, errC, nil
}

func (w *WebSocket) handleMessage(data []byte) {
	var msg layoutMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		monitoring.Debugf("sink: ignoring websocket message: %v", err)
		return
	}
	if msg.Type != "layout" {
		return
	}
	w.layoutMu.Lock()
	w.layout = append([]Window(nil), msg.Windows...)
	w.layoutMu.Unlock()
}

// AppAt names the topmost window under a display position from the last
// layout the window manager sent. It makes the sink a gesture.TargetResolver.
func (w *WebSocket) AppAt(x, y float64) string {
	w.layoutMu.RLock()
	defer w.layoutMu.RUnlock()
	for _, win := range w.layout {
		if win.contains(x, y) {
			return win.App
		}
	}
	return ""
}

// pump is the only writer on conn.
func (w *WebSocket) pump(ctx context.Context, conn *websocket.Conn, errC <-chan error) error {
	ping := time.NewTicker(w.cfg.PingEvery)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return ctx.Err()
		case err := <-errC:
			return err
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(w.cfg.WriteTimeout)); err != nil {
				return err
			}
		case p := <-w.queue:
			_ = conn.SetWriteDeadline(time.Now().Add(w.cfg.WriteTimeout))
			if err := conn.WriteJSON(p); err != nil {
				return err
			}
			w.sent.Add(1)
		}
	}
}
