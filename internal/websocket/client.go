package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tagwatch/tagwatchgo/internal/live"
	"github.com/tagwatch/tagwatchgo/internal/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Viewers only listen.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Reader dashboards are served from arbitrary hosts on the LAN
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one live viewer connection: a websocket, its outbound
// queue, and the session feeding it.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Connection ID for hub bookkeeping
	ID string

	// ReaderID the viewer is watching
	ReaderID string
}

// SessionConfig carries everything needed to build a live session for
// an accepted connection.
type SessionConfig struct {
	Fetcher  live.Fetcher
	Bus      live.Subscriber
	Window   time.Duration
	Interval time.Duration
}

// ServeWs upgrades the request and streams the reader's live presence
// view until the client goes away. The session's context is cancelled
// by the read pump noticing the disconnect, which tears down the bus
// subscription before the connection resources are released.
func ServeWs(hub *Hub, cfg SessionConfig, reader models.Reader, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		ID:       "viewer_" + uuid.New().String(),
		ReaderID: reader.ID,
	}
	client.hub.register <- client

	// The request context dies when this handler returns; the session
	// outlives it and is cancelled by the read pump instead.
	ctx, cancel := context.WithCancel(context.Background())

	session := live.NewSession(reader, cfg.Fetcher, cfg.Bus, cfg.Window, cfg.Interval, client.emitView)

	go client.writePump()
	go client.readPump(cancel)
	go func() {
		defer cancel()
		if err := session.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Live session error (reader %s): %v", reader.ID, err)
		}
		client.hub.unregister <- client
	}()
}

// emitView queues one full view for delivery. A viewer that cannot
// drain 256 pending views is beyond saving; dropping ends the session
// rather than blocking the recompute loop.
func (c *Client) emitView(view live.View) error {
	msg, err := json.Marshal(view)
	if err != nil {
		return err
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return websocket.ErrCloseSent
	}
}

// readPump discards inbound frames and cancels the session when the
// peer goes away.
func (c *Client) readPump(cancel context.CancelFunc) {
	defer func() {
		cancel()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS error: %v", err)
			}
			return
		}
	}
}

// writePump pumps queued views to the websocket connection.
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
				// The hub closed the channel.
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
