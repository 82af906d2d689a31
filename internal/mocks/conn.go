package mocks

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"salehero-chat/internal/session"
)

// ErrConnClosed is returned by ScriptedConn reads after Close.
var ErrConnClosed = errors.New("connection closed")

type frame struct {
	data []byte
	err  error
}

// ScriptedConn is a fake broker connection driven by the test: frames pushed
// with Deliver come out of ReadMessage, writes are recorded for assertions.
type ScriptedConn struct {
	mu     sync.Mutex
	frames chan frame
	done   chan struct{}
	once   sync.Once
	writes [][]byte
}

func NewScriptedConn() *ScriptedConn {
	return &ScriptedConn{
		frames: make(chan frame, 16),
		done:   make(chan struct{}),
	}
}

// Deliver queues an inbound frame.
func (c *ScriptedConn) Deliver(data []byte) {
	c.frames <- frame{data: data}
}

// Fail queues a read error, simulating a transport failure.
func (c *ScriptedConn) Fail(err error) {
	c.frames <- frame{err: err}
}

func (c *ScriptedConn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.frames:
		if f.err != nil {
			return 0, nil, f.err
		}
		return 1, f.data, nil
	case <-c.done:
		return 0, nil, ErrConnClosed
	}
}

func (c *ScriptedConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.writes = append(c.writes, buf)
	return nil
}

// Writes returns a copy of everything written so far.
func (c *ScriptedConn) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

func (c *ScriptedConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// DialerFunc adapts a function to the session.Dialer interface.
type DialerFunc func(ctx context.Context, url string, header http.Header) (session.Conn, *http.Response, error)

func (f DialerFunc) Dial(ctx context.Context, url string, header http.Header) (session.Conn, *http.Response, error) {
	return f(ctx, url, header)
}

var _ session.Conn = (*ScriptedConn)(nil)
var _ session.Dialer = (DialerFunc)(nil)
