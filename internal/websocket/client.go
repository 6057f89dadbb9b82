package websocket

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBuffer = 32

	// Time allowed for the periodic session check.
	checkTimeout = 5 * time.Second
)

// SessionCheck reports an error once the credential a connection was opened
// with no longer resolves to its user.
type SessionCheck func(ctx context.Context) error

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	UserID int64

	// Buffered channel of outbound messages. Closed by the hub.
	Send chan []byte

	check     SessionCheck
	pingEvery time.Duration
}

// NewClient creates a client for the live feed of userID. A non-nil check is
// run on every ping tick and the connection is closed when it fails.
func NewClient(hub *Hub, conn *websocket.Conn, userID int64, check SessionCheck) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		UserID:    userID,
		Send:      make(chan []byte, sendBuffer),
		check:     check,
		pingEvery: pingPeriod,
	}
}

// ReadPump pumps messages from the connection to handle until the peer goes
// away, then unregisters the client.
func (c *Client) ReadPump(handle func(*Client, []byte)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Int64("user_id", c.UserID).Msg("Unexpected websocket close")
			}
			return
		}
		handle(c, message)
	}
}

// WritePump pumps messages from Send to the connection and keeps it alive
// with pings. It returns when Send is closed, the session check fails or a
// write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if !c.sessionValid() {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session ended"))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Reply queues message for this client only.
func (c *Client) Reply(message []byte) {
	c.hub.direct(c, message)
}

func (c *Client) sessionValid() bool {
	if c.check == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	if err := c.check(ctx); err != nil {
		log.Info().Err(err).Int64("user_id", c.UserID).Msg("Closing websocket of ended session")
		return false
	}
	return true
}
