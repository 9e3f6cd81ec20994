package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"zorkdi/internal/domain/service"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
	"zorkdi/pkg/response"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type UploadHandler struct {
	fileService service.FileUploadService
	maxFileSize int64
}

func NewUploadHandler(fileService service.FileUploadService, maxFileSize int64) *UploadHandler {
	if maxFileSize <= 0 {
		maxFileSize = 5 * 1024 * 1024
	}
	return &UploadHandler{
		fileService: fileService,
		maxFileSize: maxFileSize,
	}
}

// UploadChatImage stores an image for a chat message and returns its URL,
// which the client then sends as attachment_url.
func (h *UploadHandler) UploadChatImage(c echo.Context) error {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.maxFileSize+1024*1024)

	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("File is required", err))
	}

	if file.Size > h.maxFileSize {
		logger.Warn("File too large: %d bytes (max: %d)", file.Size, h.maxFileSize)
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	fileType := file.Header.Get("Content-Type")
	if !allowedImageTypes[fileType] {
		return response.Error(c, errors.BadRequest("Only image uploads are allowed", nil))
	}

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to read file", err))
	}
	defer src.Close()

	folder := chatFolder(actorFrom(c).UserID)
	url, err := h.fileService.UploadFile(c.Request().Context(), src, fileType, folder, true)
	if err != nil {
		logger.Error("Chat image upload failed: %v", err)
		return response.Error(c, errors.Internal("Failed to upload file", err))
	}

	return response.Created(c, map[string]string{"url": url})
}

type deleteChatImageRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// DeleteChatImage removes an uploaded chat image that was never sent, for
// example when the client discards its draft. Clients may only delete their
// own uploads.
func (h *UploadHandler) DeleteChatImage(c echo.Context) error {
	var req deleteChatImageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, errors.BadRequest(validationText(err), err))
	}

	actor := actorFrom(c)
	if !ownsChatImage(actor.UserID, actor.IsStaff(), req.URL) {
		return response.Error(c, errors.Forbidden("You can only delete your own uploads", nil))
	}

	if err := h.fileService.DeleteFile(c.Request().Context(), req.URL); err != nil {
		logger.Error("Chat image delete failed: %v", err)
		return response.Error(c, errors.Internal("Failed to delete file", err))
	}
	return response.Success(c, map[string]bool{"deleted": true})
}

func chatFolder(userID string) string {
	return "chat/" + userID
}

// ownsChatImage reports whether fileURL points into userID's chat folder.
// Staff may remove any chat upload.
func ownsChatImage(userID string, staff bool, fileURL string) bool {
	u, err := url.Parse(fileURL)
	if err != nil || strings.Contains(u.Path, "..") {
		return false
	}
	if staff {
		return strings.Contains(u.Path, "/public/chat/")
	}
	return userID != "" && strings.Contains(u.Path, "/public/"+chatFolder(userID)+"/")
}
