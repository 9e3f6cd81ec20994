package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/usecase"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type sendMessageRequest struct {
	Body          string `json:"body" validate:"max=5000"`
	AttachmentURL string `json:"attachment_url" validate:"omitempty,url"`
}

// ListThreads: staff pass ?user_id= to list a participant's threads.
func (h *ChatHandler) ListThreads(c echo.Context) error {
	actor := actorFrom(c)

	overviews, err := h.chatUseCase.ListThreads(c.Request().Context(), actor, c.QueryParam("user_id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, overviews, len(overviews))
}

func (h *ChatHandler) ListGeneralMessages(c echo.Context) error {
	key, err := h.generalThread(c)
	if err != nil {
		return response.Error(c, err)
	}
	return h.listMessages(c, key)
}

func (h *ChatHandler) SendGeneralMessage(c echo.Context) error {
	key, err := h.generalThread(c)
	if err != nil {
		return response.Error(c, err)
	}
	return h.sendMessage(c, key)
}

func (h *ChatHandler) MarkGeneralRead(c echo.Context) error {
	key, err := h.generalThread(c)
	if err != nil {
		return response.Error(c, err)
	}
	return h.markRead(c, key)
}

func (h *ChatHandler) ListProjectMessages(c echo.Context) error {
	key, err := h.projectThread(c)
	if err != nil {
		return response.Error(c, err)
	}
	return h.listMessages(c, key)
}

func (h *ChatHandler) SendProjectMessage(c echo.Context) error {
	key, err := h.projectThread(c)
	if err != nil {
		return response.Error(c, err)
	}
	return h.sendMessage(c, key)
}

func (h *ChatHandler) MarkProjectRead(c echo.Context) error {
	key, err := h.projectThread(c)
	if err != nil {
		return response.Error(c, err)
	}
	return h.markRead(c, key)
}

func (h *ChatHandler) listMessages(c echo.Context, key entity.ThreadKey) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), actorFrom(c), key, limit)
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, messages, len(messages))
}

func (h *ChatHandler) sendMessage(c echo.Context, key entity.ThreadKey) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, errors.WithDetails(
			errors.BadRequest(validationText(err), err),
			map[string]interface{}{"draft": req.Body},
		))
	}

	msg, err := h.chatUseCase.AppendMessage(c.Request().Context(), actorFrom(c), key, usecase.AppendInput{
		Body:          req.Body,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

func (h *ChatHandler) markRead(c echo.Context, key entity.ThreadKey) error {
	if err := h.chatUseCase.MarkRead(c.Request().Context(), actorFrom(c), key); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Conversation marked as read"})
}

func (h *ChatHandler) generalThread(c echo.Context) (entity.ThreadKey, error) {
	actor := actorFrom(c)
	userID := actor.UserID
	if actor.IsStaff() {
		userID = c.QueryParam("user_id")
		if userID == "" {
			return entity.ThreadKey{}, errors.BadRequest("user_id is required", nil)
		}
	}
	return entity.GeneralThread(userID), nil
}

func (h *ChatHandler) projectThread(c echo.Context) (entity.ThreadKey, error) {
	return h.chatUseCase.ProjectThread(c.Request().Context(), actorFrom(c), c.Param("projectId"), c.QueryParam("user_id"))
}
