// Package realtime maintains the push channel to the backend: a single
// Socket.IO connection over WebSocket that delivers order and stats
// events to subscribers.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"orders-dashboard/internal/domain"
	"orders-dashboard/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Event names emitted by the backend.
const (
	EventOrderUpdated     = "orderUpdated"
	EventNewOrder         = "newOrder"
	EventStatsUpdated     = "statsUpdated"
	EventLiveViewsUpdated = "liveViewsUpdated"
)

var (
	errServerClosed     = errors.New("server closed the connection")
	errServerDisconnect = errors.New("server disconnected the socket")
)

type Options struct {
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	HandshakeTimeout  time.Duration
	Dialer            *websocket.Dialer
}

func (o Options) withDefaults() Options {
	if o.ReconnectAttempts < 0 {
		o.ReconnectAttempts = 0
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = time.Second
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.Dialer == nil {
		o.Dialer = &websocket.Dialer{HandshakeTimeout: o.HandshakeTimeout}
	}
	return o
}

// Manager owns the process's single push connection. Construct one in
// main and pass it to whoever needs the connection.
type Manager struct {
	endpoint string
	opts     Options

	mu   sync.Mutex
	conn *Conn
}

// NewManager builds a manager for the backend at baseURL (http, https,
// ws or wss).
func NewManager(baseURL string, opts Options) (*Manager, error) {
	endpoint, err := socketEndpoint(baseURL)
	if err != nil {
		return nil, err
	}
	return &Manager{endpoint: endpoint, opts: opts.withDefaults()}, nil
}

// Connect starts the connection on first use and returns the same Conn
// on every later call until Release.
func (m *Manager) Connect(ctx context.Context) *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return m.conn
	}
	m.conn = newConn(m.endpoint, m.opts)
	m.conn.start(ctx)
	return m.conn
}

// Release closes the connection, if any.
func (m *Manager) Release() error {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

type handlers struct {
	mu           sync.RWMutex
	orderUpdated []func(domain.Order)
	newOrder     []func(domain.Order)
	statsUpdated []func(domain.Stats)
	liveViews    []func(domain.LiveViews)
	connectivity []func(bool)
}

type handlerSet struct {
	orderUpdated []func(domain.Order)
	newOrder     []func(domain.Order)
	statsUpdated []func(domain.Stats)
	liveViews    []func(domain.LiveViews)
	connectivity []func(bool)
}

// snapshot copies the subscriber lists so handlers run without the lock
// held and may subscribe further.
func (h *handlers) snapshot() handlerSet {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return handlerSet{
		orderUpdated: append(([]func(domain.Order))(nil), h.orderUpdated...),
		newOrder:     append(([]func(domain.Order))(nil), h.newOrder...),
		statsUpdated: append(([]func(domain.Stats))(nil), h.statsUpdated...),
		liveViews:    append(([]func(domain.LiveViews))(nil), h.liveViews...),
		connectivity: append(([]func(bool))(nil), h.connectivity...),
	}
}

// Conn is a live push channel with automatic reconnection.
type Conn struct {
	endpoint string
	opts     Options
	handlers handlers

	connected atomic.Bool

	wsMu    sync.Mutex
	ws      *websocket.Conn
	writeMu sync.Mutex

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(endpoint string, opts Options) *Conn {
	return &Conn{
		endpoint: endpoint,
		opts:     opts,
		done:     make(chan struct{}),
	}
}

// OnOrderUpdated subscribes to orderUpdated events.
func (c *Conn) OnOrderUpdated(fn func(domain.Order)) {
	c.handlers.mu.Lock()
	c.handlers.orderUpdated = append(c.handlers.orderUpdated, fn)
	c.handlers.mu.Unlock()
}

// OnNewOrder subscribes to newOrder events.
func (c *Conn) OnNewOrder(fn func(domain.Order)) {
	c.handlers.mu.Lock()
	c.handlers.newOrder = append(c.handlers.newOrder, fn)
	c.handlers.mu.Unlock()
}

// OnStatsUpdated subscribes to statsUpdated events.
func (c *Conn) OnStatsUpdated(fn func(domain.Stats)) {
	c.handlers.mu.Lock()
	c.handlers.statsUpdated = append(c.handlers.statsUpdated, fn)
	c.handlers.mu.Unlock()
}

// OnLiveViewsUpdated subscribes to liveViewsUpdated events.
func (c *Conn) OnLiveViewsUpdated(fn func(domain.LiveViews)) {
	c.handlers.mu.Lock()
	c.handlers.liveViews = append(c.handlers.liveViews, fn)
	c.handlers.mu.Unlock()
}

// OnConnectivity is called with true on connect and false on disconnect.
// It is informational only.
func (c *Conn) OnConnectivity(fn func(bool)) {
	c.handlers.mu.Lock()
	c.handlers.connectivity = append(c.handlers.connectivity, fn)
	c.handlers.mu.Unlock()
}

// Connected reports whether the socket is currently connected.
func (c *Conn) Connected() bool {
	return c.connected.Load()
}

// Done is closed once the connection loop has exited, either after
// Close or after reconnection attempts ran out.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close stops reconnecting, disconnects the socket and waits for the
// loop to exit.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}

		c.wsMu.Lock()
		ws := c.ws
		c.wsMu.Unlock()
		if ws != nil {
			_ = c.write(ws, encodeSocket(socketPacket{Type: socketDisconnect, AckID: -1}))
			c.writeMu.Lock()
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			c.writeMu.Unlock()
			err = ws.Close()
		}
		<-c.done
	})
	return err
}

func (c *Conn) start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
}

func (c *Conn) run(ctx context.Context) {
	defer close(c.done)
	log := logger.Get().With().Str("component", "realtime").Logger()

	attempts := 0
	for {
		established, err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if established {
			attempts = 0
			log.Warn().Err(err).Msg("Disconnected from server")
		} else {
			log.Warn().Err(err).Int("attempt", attempts).Msg("Push channel connect failed")
		}

		if attempts >= c.opts.ReconnectAttempts {
			log.Error().Int("attempts", attempts).Msg("Push channel reconnection attempts exhausted")
			return
		}
		attempts++

		timer := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session dials, performs the handshake and pumps frames until the
// connection fails. established reports whether the socket connect was
// acknowledged.
func (c *Conn) session(ctx context.Context) (established bool, err error) {
	ws, _, err := c.opts.Dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	c.setWS(ws)
	defer func() {
		c.setWS(nil)
		ws.Close()
		if established {
			c.setConnected(false)
		}
	}()

	// A Close racing with the dial finds no socket to close; check again.
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	ws.SetReadDeadline(time.Now().Add(c.opts.HandshakeTimeout))
	_, frame, err := ws.ReadMessage()
	if err != nil {
		return false, fmt.Errorf("read open packet: %w", err)
	}
	typ, payload, err := decodeEngine(frame)
	if err != nil {
		return false, err
	}
	if typ != engineOpen {
		return false, fmt.Errorf("expected open packet, got %q", typ)
	}
	hs, err := decodeHandshake(payload)
	if err != nil {
		return false, err
	}

	if err := c.write(ws, encodeSocket(socketPacket{Type: socketConnect, AckID: -1})); err != nil {
		return false, fmt.Errorf("send connect: %w", err)
	}

	for {
		ws.SetReadDeadline(time.Now().Add(hs.readTimeout()))
		_, frame, err := ws.ReadMessage()
		if err != nil {
			return established, err
		}

		typ, payload, err := decodeEngine(frame)
		if err != nil {
			logger.Debug().Err(err).Msg("Dropping malformed frame")
			continue
		}

		switch typ {
		case enginePing:
			if err := c.write(ws, []byte{enginePong}); err != nil {
				return established, fmt.Errorf("send pong: %w", err)
			}
		case engineClose:
			return established, errServerClosed
		case engineMessage:
			packet, err := decodeSocket(payload)
			if err != nil {
				logger.Debug().Err(err).Msg("Dropping malformed packet")
				continue
			}
			if packet.Namespace != defaultNamespace {
				continue
			}
			switch packet.Type {
			case socketConnect:
				if !established {
					established = true
					c.setConnected(true)
				}
			case socketConnectError:
				return established, fmt.Errorf("connect error: %s", string(packet.Data))
			case socketDisconnect:
				return established, errServerDisconnect
			case socketEvent:
				c.dispatch(packet.Data)
			}
		}
	}
}

func (c *Conn) dispatch(data json.RawMessage) {
	name, arg, err := decodeEvent(data)
	if err != nil {
		logger.Warn().Err(err).Msg("Dropping malformed event")
		return
	}

	h := c.handlers.snapshot()

	switch name {
	case EventOrderUpdated, EventNewOrder:
		var order domain.Order
		if err := json.Unmarshal(arg, &order); err != nil || order.ID == "" {
			logger.Warn().Err(err).Str("event", name).Msg("Dropping order event without a valid order")
			return
		}
		fns := h.orderUpdated
		if name == EventNewOrder {
			fns = h.newOrder
		}
		for _, fn := range fns {
			fn(order)
		}
	case EventStatsUpdated:
		var stats domain.Stats
		if err := json.Unmarshal(arg, &stats); err != nil {
			logger.Warn().Err(err).Str("event", name).Msg("Dropping malformed stats event")
			return
		}
		for _, fn := range h.statsUpdated {
			fn(stats)
		}
	case EventLiveViewsUpdated:
		var views domain.LiveViews
		if err := json.Unmarshal(arg, &views); err != nil {
			logger.Warn().Err(err).Str("event", name).Msg("Dropping malformed live views event")
			return
		}
		for _, fn := range h.liveViews {
			fn(views)
		}
	default:
		logger.Debug().Str("event", name).Msg("Ignoring unknown event")
	}
}

func (c *Conn) setConnected(v bool) {
	if c.connected.Swap(v) == v {
		return
	}
	if v {
		logger.Info().Msg("Connected to server")
	}

	for _, fn := range c.handlers.snapshot().connectivity {
		fn(v)
	}
}

func (c *Conn) setWS(ws *websocket.Conn) {
	c.wsMu.Lock()
	c.ws = ws
	c.wsMu.Unlock()
}

func (c *Conn) write(ws *websocket.Conn, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(c.opts.HandshakeTimeout))
	return ws.WriteMessage(websocket.TextMessage, frame)
}

// socketEndpoint turns a backend base URL into the Engine.IO WebSocket
// endpoint.
func socketEndpoint(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid socket url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported socket url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/socket.io/"
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	return u.String(), nil
}
