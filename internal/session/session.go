package session

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"salehero-chat/internal/models"
	"salehero-chat/internal/observability"
	"salehero-chat/internal/store"
)

// DefaultReconnectDelay is the fixed pause before a reconnect attempt after a
// transport-level disconnect. Deliberately constant, no backoff or jitter:
// predictable behavior traded against thundering-herd reconnects under a
// correlated broker outage.
const DefaultReconnectDelay = 5 * time.Second

// Conn is the subset of a websocket connection the session needs.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens the full-duplex connection to the broker.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, *http.Response, error)
}

type wsDialer struct{}

func (wsDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, *http.Response, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, resp, err
	}
	return conn, resp, nil
}

// Options configures a Session.
type Options struct {
	BrokerURL      string
	AccessToken    string
	ReconnectDelay time.Duration
	Dialer         Dialer
}

// Session owns one lifetime of the broker connection: connect, identity
// resolution, auto-reconnect, teardown. It is the only writer of the store's
// status field; each mounted chat view owns exactly one Session.
type Session struct {
	mu         sync.Mutex
	opts       Options
	store      *store.Store
	conn       Conn
	res        *resolver
	reconnect  *time.Timer
	connecting bool
	closed     bool
	gen        int
}

// New builds a Session publishing state into st.
func New(st *store.Store, opts Options) *Session {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.Dialer == nil {
		opts.Dialer = wsDialer{}
	}
	return &Session{opts: opts, store: st}
}

// Connect opens the broker connection. Idempotent per session instance:
// calling it while already connecting or connected does nothing. A pending
// reconnect timer is cancelled, the dial itself runs asynchronously.
func (s *Session) Connect() {
	s.mu.Lock()
	if s.closed || s.connecting || s.conn != nil {
		s.mu.Unlock()
		return
	}
	s.connecting = true
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
	s.mu.Unlock()

	s.store.SetStatus(store.StatusConnecting)
	go s.dial()
}

func (s *Session) dial() {
	header := http.Header{}
	if s.opts.AccessToken != "" {
		header.Set("Authorization", "Bearer "+s.opts.AccessToken)
	}

	conn, resp, err := s.opts.Dialer.Dial(context.Background(), s.opts.BrokerURL, header)

	s.mu.Lock()
	s.connecting = false
	if s.closed {
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		s.mu.Unlock()
		if resp != nil && resp.StatusCode >= http.StatusBadRequest {
			// The broker answered and refused the handshake. That is a
			// protocol-level failure, not a network loss: no automatic retry.
			log.Printf("chat session: broker rejected handshake (%d): %v", resp.StatusCode, err)
			observability.IncSessionEvent("error")
			s.store.SetStatus(store.StatusError)
			return
		}
		log.Printf("chat session: connect failed: %v", err)
		observability.IncSessionEvent("disconnect")
		s.store.SetStatus(store.StatusDisconnected)
		s.scheduleReconnect()
		return
	}

	// A new connection means the broker may assign a new name, so identity
	// resolution starts over with a fresh correlation token.
	s.conn = conn
	s.res = newResolver()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.store.SetLocalIdentity("")
	s.store.SetStatus(store.StatusConnected)
	observability.IncSessionEvent("connect")
	go s.readLoop(conn, gen)
}

func (s *Session) readLoop(conn Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleReadError(conn, gen, err)
			return
		}
		var msg models.Message
		if jerr := json.Unmarshal(data, &msg); jerr != nil {
			log.Printf("chat session: dropping malformed frame: %v", jerr)
			continue
		}
		s.deliver(msg)
	}
}

func (s *Session) deliver(msg models.Message) {
	s.mu.Lock()
	res := s.res
	cleaned, resolvedNow := res.inspect(msg)
	s.mu.Unlock()

	if resolvedNow {
		s.store.SetLocalIdentity(cleaned.Sender)
	}
	s.store.Append(cleaned)
}

func (s *Session) handleReadError(conn Conn, gen int, err error) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.mu.Unlock()
	conn.Close()

	if isProtocolClose(err) {
		log.Printf("chat session: broker protocol error: %v", err)
		observability.IncSessionEvent("error")
		s.store.SetStatus(store.StatusError)
		return
	}

	log.Printf("chat session: disconnected: %v", err)
	observability.IncSessionEvent("disconnect")
	s.store.SetStatus(store.StatusDisconnected)
	s.scheduleReconnect()
}

// isProtocolClose separates broker-reported protocol failures from plain
// transport loss. Only the latter triggers the reconnect loop.
func isProtocolClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseProtocolError,
		websocket.ClosePolicyViolation,
		websocket.CloseUnsupportedData,
	)
}

func (s *Session) scheduleReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.reconnect != nil {
		return
	}
	observability.IncSessionReconnectScheduled()
	s.reconnect = time.AfterFunc(s.opts.ReconnectDelay, func() {
		s.mu.Lock()
		s.reconnect = nil
		s.mu.Unlock()
		s.Connect()
	})
}

// Send publishes a CHAT frame. While the identity is unresolved the content
// is tagged with the correlation marker. Outside the Connected state the
// message is dropped with a warning, never an error: a transient disconnect
// should not crash the caller.
func (s *Session) Send(content string) error {
	s.mu.Lock()
	if s.conn == nil || s.store.Status() != store.StatusConnected {
		s.mu.Unlock()
		log.Printf("chat session: not connected, dropping outbound message")
		return nil
	}
	payload := models.Message{
		Type:    models.KindChat,
		Sender:  s.store.LocalIdentity(),
		Content: s.res.tag(content),
	}
	conn := s.conn
	s.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// CorrelationToken exposes the current connection's token, empty before the
// first successful connect.
func (s *Session) CorrelationToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.res == nil {
		return ""
	}
	return s.res.token
}

// Close tears the session down: cancels any pending reconnect and closes the
// transport unconditionally, regardless of current state.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.store.SetStatus(store.StatusDisconnected)
}
