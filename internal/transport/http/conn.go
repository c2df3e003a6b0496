package http

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quiz-room-service/internal/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size.
	maxMessageSize = 4096

	defaultSendBuffer = 32
)

// wsConn adapts a gorilla connection to app.Conn. All writes happen on writeLoop, so Send
// never blocks the room that is broadcasting.
type wsConn struct {
	ws   *websocket.Conn
	send chan domain.ServerMessage
	done chan struct{}
	log  logrus.FieldLogger

	mu     sync.Mutex
	closed bool
}

func newWSConn(ws *websocket.Conn, buffer int, log logrus.FieldLogger) *wsConn {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	return &wsConn{
		ws:   ws,
		send: make(chan domain.ServerMessage, buffer),
		done: make(chan struct{}),
		log:  log,
	}
}

func (c *wsConn) Send(msg domain.ServerMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		// Slow peer: close rather than stall everyone else in the room.
		c.log.Warn("ws send buffer full, closing connection")
		c.closed = true
		close(c.send)
		return false
	}
}

// Close stops accepting messages; writeLoop drains what is queued and sends a close frame.
func (c *wsConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		close(c.done)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				c.log.WithError(err).Debug("ws write failed")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
