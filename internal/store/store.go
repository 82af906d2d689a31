package store

import (
	"sync"

	"salehero-chat/internal/models"
)

// Status is the connection state published by the transport session.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// Store is the session state shared between the transport session, the rate
// limiter and the view: an append-only message log plus connection status,
// the resolved local identity and a history-loading flag. Each field has a
// single writer; the store itself only serializes access.
type Store struct {
	mu             sync.RWMutex
	messages       []models.Message
	status         Status
	localIdentity  string
	historyLoading bool
	listeners      []func()
}

// New creates an empty store. One store per active chat session.
func New() *Store {
	return &Store{status: StatusDisconnected}
}

// Subscribe registers a listener invoked after every log growth. Listeners
// must not call back into the store while holding their own locks.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Append pushes a message onto the tail of the log. Never reorders, never
// deduplicates.
func (s *Store) Append(msg models.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// PrependHistory splices a chronological page of historical messages before
// the current head of the log. Called once per session, at startup.
func (s *Store) PrependHistory(msgs []models.Message) {
	s.mu.Lock()
	combined := make([]models.Message, 0, len(msgs)+len(s.messages))
	combined = append(combined, msgs...)
	combined = append(combined, s.messages...)
	s.messages = combined
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Messages returns a copy of the log, history first, live tail in arrival
// order.
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len reports the current log length.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// SetStatus records a connection state transition. The transport session is
// the only writer.
func (s *Store) SetStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Status returns the current connection state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetLocalIdentity records the display name resolved as belonging to this
// client. The identity resolver is the only writer; an empty string means
// unresolved.
func (s *Store) SetLocalIdentity(name string) {
	s.mu.Lock()
	s.localIdentity = name
	s.mu.Unlock()
}

// LocalIdentity returns the resolved display name, or "" while unknown.
func (s *Store) LocalIdentity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.localIdentity
}

// SetHistoryLoading flags an in-flight history fetch.
func (s *Store) SetHistoryLoading(loading bool) {
	s.mu.Lock()
	s.historyLoading = loading
	s.mu.Unlock()
}

// HistoryLoading reports whether the initial history fetch is still running.
func (s *Store) HistoryLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historyLoading
}
