// Package hubtest provides an in-memory types.Conn for tests.
package hubtest

import (
	"errors"
	"sync"

	"github.com/fasthttp/websocket"
)

// ErrClosed is returned by reads and writes after Close.
var ErrClosed = errors.New("connection closed")

// Frame is one inbound frame queued with Push.
type Frame struct {
	Type int
	Data []byte
}

// Conn implements types.Conn without a network. Written frames are recorded;
// inbound frames are queued with Push.
type Conn struct {
	mu       sync.Mutex
	written  [][]byte
	readCh   chan Frame
	closed   bool
	closedCh chan struct{}
	closes   int

	// WriteErr, when set, is returned by every write.
	WriteErr error
}

// NewConn returns an open mock connection.
func NewConn() *Conn {
	return &Conn{
		readCh:   make(chan Frame, 16),
		closedCh: make(chan struct{}),
	}
}

func (m *Conn) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.written = append(m.written, cp)
	return nil
}

func (m *Conn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-m.readCh:
		return f.Type, f.Data, nil
	case <-m.closedCh:
		return 0, nil, ErrClosed
	}
}

func (m *Conn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	if !m.closed {
		m.closed = true
		close(m.closedCh)
	}
	return nil
}

// Push queues an inbound text frame.
func (m *Conn) Push(data string) {
	m.readCh <- Frame{Type: websocket.TextMessage, Data: []byte(data)}
}

// Written returns a copy of every frame written so far.
func (m *Conn) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]byte, len(m.written))
	copy(cp, m.written)
	return cp
}

// Closed reports whether Close has been called.
func (m *Conn) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// CloseCount returns how many times Close was called.
func (m *Conn) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}
