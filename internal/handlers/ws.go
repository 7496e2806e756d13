package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pulsechat/pulse-backend/internal/middleware"
	"github.com/pulsechat/pulse-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for the websocket handshake is handled at the HTTP layer.
		return true
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 90 * time.Second
	pingInterval   = 30 * time.Second
	maxFrameSize   = 64 * 1024
	sendBufferSize = 32
)

// wsClientMessage represents messages coming from the client over the
// websocket. Only keepalive pings are meaningful; sends go through REST.
type wsClientMessage struct {
	Type string `json:"type"`
}

// wsConn adapts a gorilla connection to the presence registry's handle
// interface. All writes funnel through the send channel into a single writer
// goroutine, since gorilla connections allow only one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	send chan services.Event
	done chan struct{}
	once sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		conn: conn,
		send: make(chan services.Event, sendBufferSize),
		done: make(chan struct{}),
	}
}

// SendEvent queues an event for delivery. It never blocks: a full buffer or
// a closed connection reports an error and the event is dropped, which is
// acceptable for best-effort push.
func (c *wsConn) SendEvent(evt services.Event) error {
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}
	select {
	case c.send <- evt:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.conn.Close()
}

// writePump is the connection's single writer: it drains queued events and
// keeps the peer alive with protocol pings.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case evt := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(evt); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// WebSocket is the live-connection endpoint. The handshake must carry a
// valid session cookie; unauthenticated dials are refused before any
// registry mutation. On disconnect the connection is unregistered
// synchronously, so no push can race against a dead handle.
func WebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.AuthenticateRequest(cfg.JWTSecret, r)
	if err != nil {
		http.Error(w, "missing or invalid session", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newWSConn(conn)
	go c.writePump()

	presence.Register(userID, c)
	defer func() {
		presence.Unregister(c)
		c.Close()
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg wsClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "ping":
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		default:
			// Ignore unknown types.
		}
	}
}
