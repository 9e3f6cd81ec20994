package handler

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"zorkdi/internal/usecase"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
	"zorkdi/pkg/response"
	"zorkdi/pkg/utils"
)

type ContactHandler struct {
	contactUseCase *usecase.ContactUseCase
}

func NewContactHandler(contactUseCase *usecase.ContactUseCase) *ContactHandler {
	return &ContactHandler{
		contactUseCase: contactUseCase,
	}
}

// contactResult is the public contact endpoint's own wire shape.
type contactResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (h *ContactHandler) Submit(c echo.Context) error {
	var req usecase.ContactInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, contactResult{Message: "Invalid request body"})
	}

	if err := c.Validate(&req); err != nil {
		var validationErr validator.ValidationErrors
		if stderrors.As(err, &validationErr) {
			return c.JSON(http.StatusBadRequest, contactResult{Message: response.ValidationMessage(validationErr)})
		}
		return c.JSON(http.StatusBadRequest, contactResult{Message: "Invalid input data"})
	}

	if _, err := h.contactUseCase.Submit(c.Request().Context(), req); err != nil {
		if errors.Is(err, "BAD_REQUEST") {
			return c.JSON(http.StatusBadRequest, contactResult{Message: "All fields are required"})
		}
		logger.Error("Contact submission failed: %v", err)
		return c.JSON(http.StatusInternalServerError, contactResult{Message: "Failed to send message, please try again later"})
	}

	return c.JSON(http.StatusOK, contactResult{Success: true})
}

// Deny renders a rate-limited contact submission.
func (h *ContactHandler) Deny(c echo.Context, wait time.Duration) error {
	return c.JSON(http.StatusTooManyRequests, contactResult{Message: "Too many messages, please try again later"})
}

func (h *ContactHandler) List(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	messages, total, err := h.contactUseCase.List(c.Request().Context(), actorFrom(c), params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, messages, total)
}

func (h *ContactHandler) MarkRead(c echo.Context) error {
	if err := h.contactUseCase.MarkRead(c.Request().Context(), actorFrom(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Marked as read"})
}
