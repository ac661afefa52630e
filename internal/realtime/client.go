package realtime

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 32
)

type inboundMessage struct {
	Type    string `json:"type"`
	EventID string `json:"eventId"`
}

// Client is one websocket connection. readPump handles room commands in
// arrival order; writePump is the only writer to the socket.
type Client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	registry *Registry
	logger   *slog.Logger
}

func newClient(conn *websocket.Conn, registry *Registry, logger *slog.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:       id,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		registry: registry,
		logger:   logger.With("conn_id", id),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) reply(msgType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		c.logger.Error("failed to marshal ws reply", "type", msgType, "error", err)
		return
	}
	if !c.Send(payload) {
		// Same treatment as a full queue during Publish.
		c.logger.Debug("ws reply dropped, closing connection", "type", msgType)
		c.registry.OnDisconnect(c)
		c.Close()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.registry.OnDisconnect(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("ws read failed", "error", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(TypeError, errorPayload{Message: "malformed message"})
			continue
		}
		if !c.handle(msg) {
			return
		}
	}
}

// handle applies one room command. It returns false when the connection
// should be torn down.
func (c *Client) handle(msg inboundMessage) bool {
	eventID := strings.TrimSpace(msg.EventID)

	switch msg.Type {
	case TypeJoinEvent:
		if eventID == "" {
			c.reply(TypeError, errorPayload{Message: "eventId is required"})
			return true
		}
		if !c.registry.Join(eventID, c) {
			return false
		}
		c.reply(TypeJoined, roomAck{EventID: eventID})
	case TypeLeaveEvent:
		if eventID == "" {
			c.reply(TypeError, errorPayload{Message: "eventId is required"})
			return true
		}
		c.registry.Leave(eventID, c)
		c.reply(TypeLeft, roomAck{EventID: eventID})
	default:
		c.reply(TypeError, errorPayload{Message: "unknown message type " + msg.Type})
	}
	return true
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("ws write failed", "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
