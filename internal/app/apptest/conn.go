// Package apptest provides an in-memory app.Conn for exercising rooms without a transport.
package apptest

import (
	"sync"

	"quiz-room-service/internal/domain"
)

// Conn records every message it is sent.
type Conn struct {
	mu       sync.Mutex
	messages []domain.ServerMessage
	closed   bool
	capacity int
}

// NewConn returns a connection that accepts unlimited messages.
func NewConn() *Conn {
	return &Conn{}
}

// NewBoundedConn returns a connection that overflows (and closes) after capacity messages.
func NewBoundedConn(capacity int) *Conn {
	return &Conn{capacity: capacity}
}

func (c *Conn) Send(msg domain.ServerMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if c.capacity > 0 && len(c.messages) >= c.capacity {
		c.closed = true
		return false
	}
	c.messages = append(c.messages, msg)
	return true
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close was called or the buffer overflowed.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Messages returns a copy of everything received so far.
func (c *Conn) Messages() []domain.ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ServerMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Last returns the most recent message, or nil.
func (c *Conn) Last() domain.ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

// Reset forgets recorded messages.
func (c *Conn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
