package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client is one WebSocket connection.
type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

// trySend queues data without blocking.
func (c *client) trySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// close closes the send channel once so the write pump can exit.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump reads frames from the connection and forwards them to the sink.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		c.hub.readers.Done()
	}()

	h := c.hub
	deadline := h.pingInterval() + h.pongWait()

	c.conn.SetReadLimit(int64(h.cfg.MaxMessageSize))
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", "connection_id", c.id, "error", err)
			} else {
				h.logger.Debug("websocket closed", "connection_id", c.id, "error", err)
			}
			return
		}
		// Any client frame keeps the connection alive, even without pongs.
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(deadline))

		h.stats.messagesReceived.Add(1)
		h.stats.bytesReceived.Add(int64(len(message)))
		h.sink(Event{Type: EventMessage, ConnectionID: c.id, Data: message})
	}
}

// writePump writes queued frames and keepalive pings to the connection.
func (c *client) writePump() {
	h := c.hub
	ticker := time.NewTicker(h.pingInterval())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(h.pongWait()))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.stats.sendFailures.Add(1)
				h.logger.Debug("websocket write failed", "connection_id", c.id, "error", err)
				return
			}
			h.stats.messagesSent.Add(1)
			h.stats.bytesSent.Add(int64(len(message)))
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(h.pongWait()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
