package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/agrovest/agrovest-api/internal/logger"
)

const (
	// Maximum wait for a pong from the client.
	pongWait = 60 * time.Second

	// Ping interval, must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size.
	maxMessageSize = 64 * 1024

	// Outbound message buffer size.
	writeBufferSize = 256
)

// Client is a single WebSocket connection.
type Client struct {
	ID        uuid.UUID
	UserID    string
	conn      *websocket.Conn
	send      chan []byte
	hub       *Hub
	closeChan chan struct{}
}

// NewClient creates a new Client instance.
func NewClient(userID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:        uuid.New(),
		UserID:    userID,
		conn:      conn,
		send:      make(chan []byte, writeBufferSize),
		hub:       hub,
		closeChan: make(chan struct{}),
	}
}

// Start registers the client and runs the read and write pumps.
func (c *Client) Start() {
	c.hub.AddClient(c)

	go c.readPump()
	go c.writePump()
}

// readPump drains inbound frames. Events only flow server to client; the
// read loop exists to process control frames and detect disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c.ID)
		c.conn.Close()
		close(c.closeChan)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.L.Warn("unexpected websocket close", zap.Error(err))
			}
			break
		}
	}
}

// writePump forwards queued events to the client and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.L.Warn("writing websocket message", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closeChan:
			return
		}
	}
}
