package usecase

import (
	"context"
	"time"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
)

const ActionSendMessage = "send_message"

// Actor is the authenticated caller of a usecase operation.
type Actor struct {
	UserID string
	Role   entity.Role
}

func (a Actor) IsStaff() bool {
	return a.Role == entity.RoleStaff
}

type RateLimiter interface {
	Allow(key, action string) (bool, time.Duration)
}

// ThreadAccess is the part of ChatUseCase a realtime view needs.
type ThreadAccess interface {
	Subscribe(ctx context.Context, actor Actor, key entity.ThreadKey) (repository.MessageSubscription, error)
	MarkRead(ctx context.Context, actor Actor, key entity.ThreadKey) error
}
