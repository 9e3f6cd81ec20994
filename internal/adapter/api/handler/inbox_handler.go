package handler

import (
	"github.com/labstack/echo/v4"

	"zorkdi/internal/usecase"
	"zorkdi/pkg/response"
)

type InboxHandler struct {
	inboxUseCase *usecase.InboxUseCase
}

func NewInboxHandler(inboxUseCase *usecase.InboxUseCase) *InboxHandler {
	return &InboxHandler{
		inboxUseCase: inboxUseCase,
	}
}

func (h *InboxHandler) GetInbox(c echo.Context) error {
	summaries, err := h.inboxUseCase.ListInbox(c.Request().Context(), actorFrom(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, summaries, len(summaries))
}

func (h *InboxHandler) GetUserRoom(c echo.Context) error {
	room, err := h.inboxUseCase.UserRoom(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, room)
}
