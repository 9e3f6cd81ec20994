package repository

import (
	"context"

	"zorkdi/internal/domain/entity"
)

// UserSubscription yields the full matching user set on every change.
type UserSubscription interface {
	Updates() <-chan []*entity.User
	Cancel()
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// Upsert creates the user with the given role if missing, otherwise only
	// refreshes email and display name.
	Upsert(ctx context.Context, user *entity.User) (*entity.User, error)
	UpdateDeviceToken(ctx context.Context, id, token string) error
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)
	WatchByRole(ctx context.Context, role entity.Role) (UserSubscription, error)
}
