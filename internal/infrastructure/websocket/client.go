package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/usecase"
	"zorkdi/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// Client is one websocket connection. It owns the thread view and, for
// staff, the inbox watcher of that connection.
type Client struct {
	ID    string
	Actor usecase.Actor
	Conn  *websocket.Conn
	Send  chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	view   *usecase.ThreadView

	mu     sync.Mutex
	inbox  *usecase.InboxWatcher
	closed bool
}

func NewClient(ctx context.Context, conn *websocket.Conn, actor usecase.Actor, access usecase.ThreadAccess) *Client {
	ctx, cancel := context.WithCancel(ctx)
	c := &Client{
		ID:     uuid.New().String(),
		Actor:  actor,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
	c.view = usecase.NewThreadView(ctx, access, actor, func(batch entity.MessageBatch) {
		c.Enqueue(messagesFrame(batch))
	})
	return c
}

// Enqueue drops the frame when the connection is closed. A client that
// lets its buffer fill up is disconnected: Send is closed so WritePump ends
// the socket, and ReadPump then tears the client down and unregisters it.
func (c *Client) Enqueue(frame ServerFrame) bool {
	frame.Timestamp = time.Now().UTC()
	data, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Failed to encode %s frame: %v", frame.Type, err)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		logger.Warn("Send buffer full for client %s, disconnecting (%s frame dropped)", c.ID, frame.Type)
		c.closed = true
		close(c.Send)
		c.cancel()
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) setInbox(watcher *usecase.InboxWatcher) *usecase.InboxWatcher {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.inbox
	c.inbox = watcher
	return previous
}

func (c *Client) inboxWatcher() *usecase.InboxWatcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inbox
}

// teardown cancels every subscription of the connection. Nothing is
// delivered or marked read for it afterwards.
func (c *Client) teardown() {
	c.view.CloseAll()
	if watcher := c.setInbox(nil); watcher != nil {
		watcher.Close()
	}
	c.cancel()
}

// ReadPump reads frames until the connection fails, then tears the client
// down and unregisters it.
func (c *Client) ReadPump(m *Manager, h *MessageHandler) {
	defer func() {
		c.teardown()
		m.Remove(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Websocket read error for client %s: %v", c.ID, err)
			}
			return
		}
		h.Handle(c.ctx, c, message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("Websocket write error for client %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
