package handler

import (
	"github.com/labstack/echo/v4"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/service"
	"zorkdi/internal/usecase"
)

var (
	userHandler    *UserHandler
	chatHandler    *ChatHandler
	inboxHandler   *InboxHandler
	projectHandler *ProjectHandler
	contactHandler *ContactHandler
	uploadHandler  *UploadHandler
)

func Setup(
	userUseCase *usecase.UserUseCase,
	chatUseCase *usecase.ChatUseCase,
	inboxUseCase *usecase.InboxUseCase,
	projectUseCase *usecase.ProjectUseCase,
	contactUseCase *usecase.ContactUseCase,
	fileService service.FileUploadService,
	maxUploadBytes int64,
) {
	userHandler = NewUserHandler(userUseCase)
	chatHandler = NewChatHandler(chatUseCase)
	inboxHandler = NewInboxHandler(inboxUseCase)
	projectHandler = NewProjectHandler(projectUseCase)
	contactHandler = NewContactHandler(contactUseCase)
	uploadHandler = NewUploadHandler(fileService, maxUploadBytes)
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetInboxHandler() *InboxHandler {
	return inboxHandler
}

func GetProjectHandler() *ProjectHandler {
	return projectHandler
}

func GetContactHandler() *ContactHandler {
	return contactHandler
}

func GetUploadHandler() *UploadHandler {
	return uploadHandler
}

// actorFrom reads the identity stored by the auth middleware.
func actorFrom(c echo.Context) usecase.Actor {
	uid, _ := c.Get("uid").(string)
	role, _ := c.Get("role").(entity.Role)
	if role == "" {
		role = entity.RoleClient
	}
	return usecase.Actor{UserID: uid, Role: role}
}
