package realtime

import (
	"sync"
	"time"

	"github.com/dalemusser/kanbanhub/internal/app/system/limits"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// MaxFrameSize bounds inbound frames.
	MaxFrameSize = limits.MaxWSFrame

	// DefaultSendBuffer is the outbound queue length per connection.
	DefaultSendBuffer = 64
)

// Client is one authenticated realtime connection. Outbound frames go
// through a bounded queue drained by WritePump; a full queue drops the
// frame for this client only.
type Client struct {
	ID     string
	UserID primitive.ObjectID

	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewClient creates a client for userID with a fresh socket id.
func NewClient(userID primitive.ObjectID, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// Send queues frame without blocking. It returns false when the client is
// closed or its queue is full.
func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close stops the client. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Outbox exposes queued frames. WritePump is the normal consumer.
func (c *Client) Outbox() <-chan []byte { return c.send }

// WritePump writes queued frames and keepalive pings to ws until the
// client is closed or a write fails.
func (c *Client) WritePump(ws *websocket.Conn, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case frame := <-c.send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug("ws write failed", zap.String("socket_id", c.ID), zap.Error(err))
				c.Close()
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// ReadPump passes each inbound text frame to handle until the peer goes
// away or stops answering pings. It closes the client on return.
func (c *Client) ReadPump(ws *websocket.Conn, handle func([]byte), log *zap.Logger) {
	defer c.Close()

	ws.SetReadLimit(MaxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("ws read failed", zap.String("socket_id", c.ID), zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		handle(msg)
	}
}
