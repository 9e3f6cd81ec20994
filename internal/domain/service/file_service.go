package service

import (
	"context"
	"io"
)

// FileUploadService is the blob store. UploadFile returns the retrieval URL.
type FileUploadService interface {
	UploadFile(ctx context.Context, file io.Reader, fileType, folder string, isPublic bool) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	Close() error
}
