package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	sendBufferSize = 256
)

// Connection is one WebSocket client: a browser tab or the debug wire
// client. It tracks the player identity it's currently bound to so the
// dispatcher can resolve connection -> player -> room without a store
// round trip on every event.
type Connection struct {
	ID   string
	Conn *websocket.Conn

	writeMu sync.Mutex
	mu      sync.Mutex // guards PlayerID/RoomCode
	Send    chan []byte

	PlayerID string
	RoomCode string
}

func newConnection(id string, conn *websocket.Conn) *Connection {
	return &Connection{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, sendBufferSize),
	}
}

// bind records which player/room this connection currently represents.
func (c *Connection) bind(playerID, roomCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PlayerID = playerID
	c.RoomCode = roomCode
}

func (c *Connection) identity() (playerID, roomCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.PlayerID, c.RoomCode
}

// enqueue drops a pre-marshalled payload onto the send channel without
// blocking. A full channel means the client is too slow to keep up; the
// push is dropped rather than stalling the broadcaster (and, upstream of
// that, the room lock).
func (c *Connection) enqueue(payload []byte) {
	select {
	case c.Send <- payload:
	default:
		log.Printf("⚠️ dropping push for connection %s: send buffer full", c.ID)
	}
}

// writePump drains Send onto the socket. One per connection; exits (and
// closes the socket) once Send is closed or a write fails.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.writeMu.Lock()
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				c.writeMu.Unlock()
				return
			}
			err := c.Conn.WriteMessage(websocket.TextMessage, msg)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-ticker.C:
			c.writeMu.Lock()
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.Conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// readPump reads inbound frames and hands each to the server's dispatcher.
// Exits (and triggers HandleDisconnect) on any read error, including the
// client going away.
func (c *Connection) readPump(s *Server) {
	defer func() {
		s.onDisconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ read error on connection %s: %v", c.ID, err)
			}
			return
		}
		s.dispatch(c, raw)
	}
}
