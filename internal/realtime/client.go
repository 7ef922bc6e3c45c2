package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/questboard/questboard/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client is one authenticated websocket connection.
type Client struct {
	ID       string
	UserID   uint
	Username string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// rooms is owned by the hub and mutated only under hub.mu.
	rooms map[uint]struct{}
}

// NewClient wraps an upgraded connection, registers it with the hub and
// starts the read/write pumps. It returns once the pumps are running.
func NewClient(hub *Hub, conn *websocket.Conn, userID uint, username string) *Client {
	c := &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[uint]struct{}),
	}
	hub.register(c)

	go c.writePump()
	go c.readPump()
	return c
}

// readPump consumes inbound frames until the connection drops, handling
// room join/leave requests and relaying project events to room peers. It
// owns the read side of the connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Str("conn_id", c.ID).Msg("websocket read error")
			}
			return
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}

		switch event.Event {
		case EventJoinProject:
			if event.ProjectID != 0 {
				c.hub.joinRoom(c, event.ProjectID)
			}
		case EventLeaveProject:
			if event.ProjectID != 0 {
				c.hub.leaveRoom(c, event.ProjectID)
			}
		default:
			if _, ok := relayable[event.Event]; ok && event.ProjectID != 0 {
				c.hub.Relay(c, event)
			}
		}
	}
}

// writePump flushes the send channel to the connection and keeps the
// connection alive with pings. It owns the write side of the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
