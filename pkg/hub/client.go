package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Connection timing. Viewers never send data; reads only serve to notice
// disconnects and pongs.
const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	maxInbound   = 4 * 1024
	closeTimeout = time.Second
)

// Client is one websocket viewer.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient registers a viewer on conn with h.
// Returns nil if the hub has been stopped.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	c := newClient(h, conn)
	select {
	case h.register <- c:
		return c
	case <-h.done:
		return nil
	}
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString()[:8],
		hub:  h,
		conn: conn,
		send: make(chan Message, h.buffer),
	}
}

// ID identifies the client in logs.
func (c *Client) ID() string {
	return c.id
}

// offer queues m without blocking. With shed set, a full queue loses its
// oldest message to make room. Returns false if m could not be queued.
// Only the hub goroutine calls offer.
func (c *Client) offer(m Message, shed bool) bool {
	select {
	case c.send <- m:
		return true
	default:
	}
	if !shed {
		return false
	}

	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- m:
		return true
	default:
		return false
	}
}

// Serve pumps messages to the viewer until either side goes away.
// It blocks; call it from the websocket handler.
func (c *Client) Serve() {
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInbound)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer on conn.
func (c *Client) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case m, ok := <-c.send:
			if !ok {
				c.goodbye()
				return
			}
			if err := c.write(m); err != nil {
				return
			}

		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(m Message) error {
	frame := websocket.TextMessage
	if m.Kind == Binary {
		frame = websocket.BinaryMessage
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(frame, m.Data)
}

// goodbye tells the viewer the dashboard is going away.
func (c *Client) goodbye() {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "dashboard stopped")
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
}
