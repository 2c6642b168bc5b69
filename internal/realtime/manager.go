package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"breadshare-client/internal/models"
	"breadshare-client/internal/observability"
)

// State is the connection manager's lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// TokenSource supplies the handshake credential at connect time.
type TokenSource func(ctx context.Context) string

// Options configures a Manager.
type Options struct {
	URL                  string
	Token                TokenSource
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	MaxReconnectDelay    time.Duration
}

// Manager owns the single persistent connection to the backend's realtime
// channel: token handshake at dial time, bounded reconnection with a growing
// capped delay, and a pub/sub surface for named events. Construct one in the
// composition root and pass it by reference; there is no package-level
// instance.
type Manager struct {
	opts   Options
	bus    *bus
	tracer trace.Tracer

	mu          sync.Mutex
	initialized bool
	dialer      *websocket.Dialer
	conn        *websocket.Conn
	connID      string
	state       State
	attempts    int
	retryTimer  *time.Timer
	gen         int

	writeMu sync.Mutex
}

// NewManager builds a Manager in the Uninitialized state.
func NewManager(opts Options) *Manager {
	if opts.Token == nil {
		opts.Token = func(context.Context) string { return "" }
	}
	return &Manager{
		opts:   opts,
		bus:    newBus(),
		tracer: otel.Tracer("breadshare-client/realtime"),
		state:  StateUninitialized,
	}
}

// Initialize prepares the transport. It is a no-op when a connection object
// already exists.
func (m *Manager) Initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initializeLocked()
}

func (m *Manager) initializeLocked() {
	if m.initialized {
		return
	}
	m.dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	m.initialized = true
	m.setStateLocked(StateDisconnected)
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setStateLocked(next State) {
	if m.state == next {
		return
	}
	log.Printf("realtime: %s -> %s", m.state, next)
	m.state = next
}

// Connect ensures the transport exists and dials. Calling it while already
// connected or connecting is a no-op. A dial failure starts the bounded
// reconnect loop; after the loop gives up, a fresh Connect is the only
// retry trigger.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.initializeLocked()
	if m.state == StateConnected || m.state == StateConnecting || m.state == StateReconnecting {
		m.mu.Unlock()
		return nil
	}
	m.attempts = 0
	m.setStateLocked(StateConnecting)
	gen := m.gen
	m.mu.Unlock()

	if err := m.dial(ctx, gen); err != nil {
		m.mu.Lock()
		if m.gen == gen {
			m.scheduleReconnectLocked()
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// dial completes the handshake for the generation it was started under. A
// Disconnect bumps the generation, so a dial that finishes after one drops
// its connection instead of resurrecting the link.
func (m *Manager) dial(ctx context.Context, gen int) error {
	ctx, span := m.tracer.Start(ctx, "ws.handshake")
	defer span.End()

	target, err := url.Parse(m.opts.URL)
	if err != nil {
		return err
	}
	token := m.opts.Token(ctx)
	if token != "" {
		query := target.Query()
		query.Set("token", token)
		target.RawQuery = query.Encode()
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	m.mu.Lock()
	dialer := m.dialer
	m.mu.Unlock()

	conn, resp, err := dialer.DialContext(ctx, target.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		span.RecordError(err)
		log.Printf("realtime: dial %s failed: %v", m.opts.URL, err)
		return err
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		conn.Close()
		log.Printf("realtime: discarding handshake finished after disconnect")
		return nil
	}
	m.conn = conn
	m.connID = uuid.NewString()
	m.attempts = 0
	m.setStateLocked(StateConnected)
	m.mu.Unlock()

	observability.SetWSConnected(true)
	observability.IncWSEvent(models.EventConnect, "lifecycle")
	go m.readPump(conn)
	m.bus.dispatch(models.EventConnect, nil)
	return nil
}

func (m *Manager) readPump(conn *websocket.Conn) {
	for {
		var env models.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			m.handleReadError(conn, err)
			return
		}

		if env.Event == models.EventAuthFailure {
			// The server rejected our credential; no refresh is attempted.
			log.Printf("realtime: server reported auth failure, disconnecting")
			observability.IncWSEvent(models.EventError, "lifecycle")
			m.bus.dispatch(models.EventError, env.Payload)
			m.Disconnect()
			return
		}

		observability.IncWSEvent(env.Event, "in")
		m.bus.dispatch(env.Event, env.Payload)
	}
}

func (m *Manager) handleReadError(conn *websocket.Conn, err error) {
	m.mu.Lock()
	if m.conn != conn {
		// A stale pump racing a Disconnect or a newer connection.
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	conn.Close()
	observability.SetWSConnected(false)
	observability.IncWSEvent(models.EventDisconnect, "lifecycle")
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Printf("realtime: read error: %v", err)
	}
	m.bus.dispatch(models.EventDisconnect, nil)

	m.mu.Lock()
	m.scheduleReconnectLocked()
	m.mu.Unlock()
}

func (m *Manager) scheduleReconnectLocked() {
	if m.state == StateFailed {
		return
	}
	if m.attempts >= m.opts.MaxReconnectAttempts {
		m.setStateLocked(StateFailed)
		log.Printf("realtime: giving up after %d reconnect attempts", m.attempts)
		return
	}
	m.attempts++
	delay := m.reconnectDelay(m.attempts)
	m.setStateLocked(StateReconnecting)
	observability.IncWSReconnect()
	log.Printf("realtime: reconnect attempt %d/%d in %v", m.attempts, m.opts.MaxReconnectAttempts, delay)
	m.retryTimer = time.AfterFunc(delay, m.reconnect)
}

// reconnectDelay grows with each attempt and is capped.
func (m *Manager) reconnectDelay(attempt int) time.Duration {
	delay := m.opts.ReconnectDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= m.opts.MaxReconnectDelay {
			return m.opts.MaxReconnectDelay
		}
	}
	if delay > m.opts.MaxReconnectDelay {
		return m.opts.MaxReconnectDelay
	}
	return delay
}

func (m *Manager) reconnect() {
	m.mu.Lock()
	if m.state != StateReconnecting {
		m.mu.Unlock()
		return
	}
	gen := m.gen
	m.mu.Unlock()

	if err := m.dial(context.Background(), gen); err != nil {
		m.mu.Lock()
		if m.gen == gen {
			m.scheduleReconnectLocked()
		}
		m.mu.Unlock()
	}
}

// Disconnect tears the transport down and resets the reconnect counter.
// Safe to call when already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	conn := m.conn
	m.conn = nil
	m.attempts = 0
	m.gen++
	if m.initialized {
		m.setStateLocked(StateDisconnected)
	}
	m.mu.Unlock()

	if conn == nil {
		return
	}
	conn.Close()
	observability.SetWSConnected(false)
	observability.IncWSEvent(models.EventDisconnect, "lifecycle")
	m.bus.dispatch(models.EventDisconnect, nil)
}

// Emit sends a named event to the server. When no connection exists it logs
// and drops the event; callers never have to check connection state first.
func (m *Manager) Emit(event string, payload any) {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		log.Printf("realtime: emit %q dropped: not connected", event)
		return
	}

	env := models.Envelope{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Printf("realtime: emit %q dropped: %v", event, err)
			return
		}
		env.Payload = raw
	}

	m.writeMu.Lock()
	err := conn.WriteJSON(env)
	m.writeMu.Unlock()
	if err != nil {
		log.Printf("realtime: emit %q failed: %v", event, err)
		return
	}
	observability.IncWSEvent(event, "out")
}

// On registers a handler for a named event and returns its subscription.
// Subscribing before Initialize warns and registers nothing.
func (m *Manager) On(event string, fn Handler) Subscription {
	m.mu.Lock()
	initialized := m.initialized
	m.mu.Unlock()
	if !initialized {
		log.Printf("realtime: subscribe %q ignored: not initialized", event)
		return 0
	}
	return m.bus.subscribe(event, fn)
}

// Off removes a previously registered handler.
func (m *Manager) Off(event string, sub Subscription) {
	m.bus.unsubscribe(event, sub)
}
