package handler

import (
	"context"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"zorkdi/internal/adapter/api/middleware"
	"zorkdi/internal/usecase"
	ws "zorkdi/internal/infrastructure/websocket"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/response"
)

// maxConnectionsPerUser bounds the sockets one account may hold open.
const maxConnectionsPerUser = 8

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	ctx            context.Context
	wsManager      *ws.Manager
	messageHandler *ws.MessageHandler
	access         usecase.ThreadAccess
	authMiddleware *middleware.AuthMiddleware
}

// NewWebSocketHandler binds connections to ctx, which is cancelled on
// shutdown, rather than to the upgrade request.
func NewWebSocketHandler(
	ctx context.Context,
	wsManager *ws.Manager,
	messageHandler *ws.MessageHandler,
	access usecase.ThreadAccess,
	authMiddleware *middleware.AuthMiddleware,
) *WebSocketHandler {
	return &WebSocketHandler{
		ctx:            ctx,
		wsManager:      wsManager,
		messageHandler: messageHandler,
		access:         access,
		authMiddleware: authMiddleware,
	}
}

// HandleWebSocket authenticates with ?token= since browsers cannot set
// headers on the upgrade request.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	user, err := h.authMiddleware.Identify(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.admit(user.ID); err != nil {
		return response.Error(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(h.ctx, conn, usecase.Actor{UserID: user.ID, Role: user.Role}, h.access)
	if !h.wsManager.Add(client) {
		conn.Close()
		return nil
	}

	go client.ReadPump(h.wsManager, h.messageHandler)
	go client.WritePump()

	return nil
}

func (h *WebSocketHandler) admit(userID string) error {
	if h.wsManager.CountForUser(userID) >= maxConnectionsPerUser {
		return errors.TooManyRequests("Too many open connections", 30*time.Second)
	}
	return nil
}
