// Package websocket provides the WebSocket server and connection handling.
// file: websocket/connection.go
package websocket

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"heart-sync/logger"
	"heart-sync/services"
)

// WSConn is an interface for the WebSocket connection.
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	ReadMessage() (int, []byte, error)
	Close() error
	RemoteAddr() net.Addr
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
}

// Configuration constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2048
)

// Upgrader upgrades HTTP requests to WebSocket connections.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Game clients connect from native apps and local dev pages.
		return true
	},
}

// Connection represents a single WebSocket connection for one player's
// session. It is owned by its read pump; the registry only holds a
// membership reference.
type Connection struct {
	conn   WSConn
	send   chan []byte
	roomID string
	store  services.RoomServiceInterface

	// lastKeepalive holds unix nanos of the most recent ping. Written by the
	// read pump, read by the liveness monitor.
	lastKeepalive atomic.Int64

	mu             sync.Mutex
	playerID       string             // bound on the first heart_rate, never rebound
	livenessOnce   bool               // the one-shot playing check has run
	cancelLiveness context.CancelFunc // nil until the monitor starts
	closed         bool               // teardown has run

	closeOnce sync.Once
}

// ServeWs upgrades the HTTP request to a WebSocket connection, attaches it to
// the room's broadcast group and starts the read and write pumps. The room ID
// comes from the request path, once per connection.
func ServeWs(w http.ResponseWriter, r *http.Request, roomID string, store services.RoomServiceInterface) {
	if roomID == "" {
		logger.Error.Println("[ServeWs] no room in path; rejecting WebSocket connection")
		http.Error(w, "No room selected", http.StatusBadRequest)
		return
	}

	logger.Info.Printf("[ServeWs] upgrading to WS: remoteAddr=%v, roomID=%q", r.RemoteAddr, roomID)
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error.Printf("[ServeWs] WebSocket upgrade error: %v", err)
		return
	}

	c := &Connection{
		conn:   wsConn,
		send:   make(chan []byte, 256),
		roomID: roomID,
		store:  store,
	}
	c.lastKeepalive.Store(time.Now().UnixNano())

	defaultRegistry.Join(roomID, c)

	go c.readPump()
	go c.writePump()
}

// readPump handles inbound messages from the client for the connection's
// lifetime. It is also the owner of session teardown.
func (c *Connection) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Warn.Printf("[readPump] read error from %v: %v", c.conn.RemoteAddr(), err)
			break
		}
		if messageType != websocket.TextMessage {
			logger.Debug.Printf("[readPump] ignoring non-text messageType=%d", messageType)
			continue
		}

		var gm GameMessage
		if err := json.Unmarshal(message, &gm); err != nil {
			// Recoverable protocol violation: tell the sender, keep reading.
			logger.Warn.Printf("[readPump] invalid JSON from %v: %v", c.conn.RemoteAddr(), err)
			c.enqueue(invalidJSONPayload)
			continue
		}
		c.handleIncoming(gm)
	}
}

// handleIncoming classifies an inbound frame. Unknown kinds are dropped so
// newer clients can speak to older servers.
func (c *Connection) handleIncoming(gm GameMessage) {
	switch gm.Type {
	case MessagePing:
		c.lastKeepalive.Store(time.Now().UnixNano())
		c.enqueue(pongPayload)
	case MessageHeartRate:
		c.handleHeartRate(gm)
	default:
		logger.Debug.Printf("[handleIncoming] unhandled message type: %q", gm.Type)
	}
}

// handleHeartRate binds the session to its player on first sight, arms the
// liveness monitor once, and fans the sample out to the whole room. The sender
// receives its own sample too, so every client renders the same view.
func (c *Connection) handleHeartRate(gm GameMessage) {
	c.bindPlayer(gm.PlayerID)

	out, err := json.Marshal(GameMessage{Type: MessageHeartRate, PlayerID: gm.PlayerID, BPM: gm.BPM})
	if err != nil {
		logger.Error.Printf("[handleHeartRate] error marshalling fan-out: %v", err)
		return
	}
	defaultRegistry.Broadcast(c.roomID, out, nil)
}

// bindPlayer fixes the session's player ID on the first heart_rate and runs
// the one-shot "is this player actually playing" check that arms the liveness
// monitor. Later heart_rate frames never rebind and never re-query the store.
func (c *Connection) bindPlayer(playerID string) {
	if playerID == "" {
		return
	}

	c.mu.Lock()
	if c.playerID == "" {
		c.playerID = playerID
		logger.Info.Printf("[bindPlayer] session in room %s bound to player %s", c.roomID, playerID)
	}
	bound := c.playerID
	checked := c.livenessOnce
	c.livenessOnce = true
	c.mu.Unlock()

	if checked {
		return
	}

	// Store call happens outside every lock; it may block.
	if !c.store.IsPlayerPlaying(bound) {
		logger.Debug.Printf("[bindPlayer] player %s not playing; liveness monitor stays off", bound)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.closed {
		// The peer hung up while we were asking the store; never arm.
		c.mu.Unlock()
		cancel()
		return
	}
	c.cancelLiveness = cancel
	c.mu.Unlock()

	// Fresh baseline so the grace window starts now, not at connect time.
	c.lastKeepalive.Store(time.Now().UnixNano())
	go c.runLivenessMonitor(ctx, bound)
}

// writePump handles outbound messages to the client, including periodic
// transport-level pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn.Printf("[writePump] error writing to %v: %v", c.conn.RemoteAddr(), err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn.Printf("[writePump] ping error for %v: %v", c.conn.RemoteAddr(), err)
				return
			}
		}
	}
}

// enqueue offers a message to the connection's outbound buffer without ever
// blocking the caller. A full or dead peer just misses the message.
func (c *Connection) enqueue(message []byte) {
	select {
	case c.send <- message:
	default:
		logger.Warn.Printf("[enqueue] dropping message for connection %v", c.conn.RemoteAddr())
	}
}

// teardown releases everything the session holds: the liveness monitor, the
// registry membership and the socket itself. It is safe to call from the
// read pump's exit path and from the liveness timeout path in any order.
func (c *Connection) teardown() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		cancel := c.cancelLiveness
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}

		defaultRegistry.Leave(c.roomID, c)
		if err := c.conn.Close(); err != nil {
			logger.Debug.Printf("[teardown] close error for %v: %v", c.conn.RemoteAddr(), err)
		}
		logger.Info.Printf("[teardown] session closed in room %s", c.roomID)
	})
}
