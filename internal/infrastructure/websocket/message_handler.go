package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/usecase"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
)

// Client frame types
const (
	FramePing        = "ping"
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameMarkRead    = "mark_read"
	FrameSendMessage = "send_message"
	FrameWatchInbox  = "watch_inbox"
)

// Server frame types
const (
	FramePong       = "pong"
	FrameMessages   = "messages"
	FrameSent       = "sent"
	FrameInbox      = "inbox"
	FrameSendFailed = "send_failed"
	FrameError      = "error"
)

// ThreadRef addresses a thread from the client side. A client may omit
// user_id; staff may omit it for project threads.
type ThreadRef struct {
	UserID    string            `json:"user_id,omitempty"`
	Kind      entity.ThreadKind `json:"kind"`
	ProjectID string            `json:"project_id,omitempty"`
}

type ClientFrame struct {
	Type          string     `json:"type"`
	Thread        *ThreadRef `json:"thread,omitempty"`
	Body          string     `json:"body,omitempty"`
	AttachmentURL string     `json:"attachment_url,omitempty"`
	TempID        string     `json:"temp_id,omitempty"`
}

type ServerFrame struct {
	Type      string                   `json:"type"`
	Thread    *entity.ThreadKey        `json:"thread,omitempty"`
	Messages  []*entity.Message        `json:"messages,omitempty"`
	Message   *entity.Message          `json:"message,omitempty"`
	Initial   bool                     `json:"initial,omitempty"`
	Summaries []*usecase.ThreadSummary `json:"summaries,omitempty"`
	TempID    string                   `json:"temp_id,omitempty"`
	Draft     string                   `json:"draft,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
}

func messagesFrame(batch entity.MessageBatch) ServerFrame {
	thread := batch.Thread
	return ServerFrame{
		Type:     FrameMessages,
		Thread:   &thread,
		Messages: batch.Messages,
		Initial:  batch.Initial,
	}
}

func errorFrame(message string) ServerFrame {
	return ServerFrame{Type: FrameError, Error: message}
}

type ChatService interface {
	usecase.ThreadAccess
	AppendMessage(ctx context.Context, actor usecase.Actor, key entity.ThreadKey, input usecase.AppendInput) (*entity.Message, error)
	ProjectThread(ctx context.Context, actor usecase.Actor, projectID, userID string) (entity.ThreadKey, error)
}

type InboxService interface {
	WatchInbox(ctx context.Context, actor usecase.Actor, sink func([]*usecase.ThreadSummary)) (*usecase.InboxWatcher, error)
}

// MessageHandler dispatches client frames to the usecases.
type MessageHandler struct {
	chat  ChatService
	inbox InboxService
}

func NewMessageHandler(chat ChatService, inbox InboxService) *MessageHandler {
	return &MessageHandler{
		chat:  chat,
		inbox: inbox,
	}
}

func (h *MessageHandler) Handle(ctx context.Context, c *Client, raw []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.Enqueue(errorFrame("Invalid frame"))
		return
	}

	switch frame.Type {
	case FramePing:
		c.Enqueue(ServerFrame{Type: FramePong})

	case FrameSubscribe:
		key, ok := h.thread(ctx, c, frame.Thread)
		if !ok {
			return
		}
		if err := c.view.Open(key); err != nil {
			c.Enqueue(errorFrame(errorMessage(err)))
		}

	case FrameUnsubscribe:
		key, ok := h.thread(ctx, c, frame.Thread)
		if !ok {
			return
		}
		c.view.Close(key)

	case FrameMarkRead:
		key, ok := h.thread(ctx, c, frame.Thread)
		if !ok {
			return
		}
		if err := h.chat.MarkRead(ctx, c.Actor, key); err != nil {
			c.Enqueue(errorFrame(errorMessage(err)))
		}

	case FrameSendMessage:
		h.handleSend(ctx, c, frame)

	case FrameWatchInbox:
		h.handleWatchInbox(ctx, c)

	default:
		c.Enqueue(errorFrame("Unknown frame type: " + frame.Type))
	}
}

func (h *MessageHandler) handleSend(ctx context.Context, c *Client, frame ClientFrame) {
	failed := func(err error) {
		c.Enqueue(ServerFrame{
			Type:   FrameSendFailed,
			TempID: frame.TempID,
			Draft:  frame.Body,
			Error:  errorMessage(err),
		})
	}

	key, err := h.resolve(ctx, c, frame.Thread)
	if err != nil {
		failed(err)
		return
	}

	msg, err := h.chat.AppendMessage(ctx, c.Actor, key, usecase.AppendInput{
		Body:          frame.Body,
		AttachmentURL: frame.AttachmentURL,
	})
	if err != nil {
		failed(err)
		return
	}

	c.Enqueue(ServerFrame{Type: FrameSent, Thread: &key, Message: msg, TempID: frame.TempID})
}

// handleWatchInbox starts the connection's live inbox. The watcher follows
// client sign-ups on its own, so a repeated frame only re-sends the list.
func (h *MessageHandler) handleWatchInbox(ctx context.Context, c *Client) {
	if !c.Actor.IsStaff() {
		c.Enqueue(errorFrame("Staff access required"))
		return
	}

	if watcher := c.inboxWatcher(); watcher != nil {
		watcher.Refresh()
		return
	}

	watcher, err := h.inbox.WatchInbox(c.ctx, c.Actor, func(summaries []*usecase.ThreadSummary) {
		c.Enqueue(ServerFrame{Type: FrameInbox, Summaries: summaries})
	})
	if err != nil {
		logger.Warn("Inbox watch failed for client %s: %v", c.ID, err)
		c.Enqueue(errorFrame(errorMessage(err)))
		return
	}
	if previous := c.setInbox(watcher); previous != nil {
		previous.Close()
	}
}

func (h *MessageHandler) thread(ctx context.Context, c *Client, ref *ThreadRef) (entity.ThreadKey, bool) {
	key, err := h.resolve(ctx, c, ref)
	if err != nil {
		c.Enqueue(errorFrame(errorMessage(err)))
		return entity.ThreadKey{}, false
	}
	return key, true
}

func (h *MessageHandler) resolve(ctx context.Context, c *Client, ref *ThreadRef) (entity.ThreadKey, error) {
	if ref == nil {
		return entity.ThreadKey{}, errors.BadRequest("Thread is required", nil)
	}

	switch ref.Kind {
	case entity.ThreadKindGeneral:
		userID := ref.UserID
		if userID == "" && !c.Actor.IsStaff() {
			userID = c.Actor.UserID
		}
		key := entity.GeneralThread(userID)
		if !key.Valid() {
			return entity.ThreadKey{}, errors.BadRequest("user_id is required", nil)
		}
		return key, nil

	case entity.ThreadKindProject:
		if ref.ProjectID == "" {
			return entity.ThreadKey{}, errors.BadRequest("project_id is required", nil)
		}
		return h.chat.ProjectThread(ctx, c.Actor, ref.ProjectID, ref.UserID)
	}

	return entity.ThreadKey{}, errors.BadRequest("Unknown thread kind", nil)
}

func errorMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong"
}
