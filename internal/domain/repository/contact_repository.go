package repository

import (
	"context"

	"zorkdi/internal/domain/entity"
)

type ContactRepository interface {
	Create(ctx context.Context, message *entity.ContactMessage) error
	List(ctx context.Context, limit, offset int) ([]*entity.ContactMessage, int, error)
	MarkRead(ctx context.Context, id string) error
}
