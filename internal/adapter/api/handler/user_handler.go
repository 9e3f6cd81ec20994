package handler

import (
	"github.com/labstack/echo/v4"

	"zorkdi/internal/usecase"
	"zorkdi/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type deviceTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	actor := actorFrom(c)

	user, err := h.userUseCase.GetProfile(c.Request().Context(), actor.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"id":               user.ID,
		"email":            user.Email,
		"display_name":     user.DisplayName,
		"role":             user.Role,
		"has_device_token": user.HasDeviceToken(),
	})
}

func (h *UserHandler) RegisterDeviceToken(c echo.Context) error {
	var req deviceTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.userUseCase.RegisterDeviceToken(c.Request().Context(), actorFrom(c).UserID, req.Token); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Device token registered"})
}

func (h *UserHandler) ClearDeviceToken(c echo.Context) error {
	if err := h.userUseCase.ClearDeviceToken(c.Request().Context(), actorFrom(c).UserID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Device token removed"})
}
