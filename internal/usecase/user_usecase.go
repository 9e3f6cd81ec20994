package usecase

import (
	"context"
	"strings"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
)

type UserUseCase struct {
	userRepo repository.UserRepository
}

func NewUserUseCase(userRepo repository.UserRepository) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
	}
}

// EnsureProfile creates the profile of a verified identity on first sight
// and keeps its email and name in step with the token afterwards.
func (uc *UserUseCase) EnsureProfile(ctx context.Context, uid, email, name string) (*entity.User, error) {
	if uid == "" {
		return nil, errors.Unauthorized("Missing identity", nil)
	}

	user, err := uc.userRepo.Upsert(ctx, &entity.User{
		ID:          uid,
		Email:       email,
		DisplayName: name,
		Role:        entity.RoleClient,
	})
	if err != nil {
		logger.Error("EnsureProfile Error: %v", err)
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) GetProfile(ctx context.Context, uid string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, uid)
}

func (uc *UserUseCase) RegisterDeviceToken(ctx context.Context, uid, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.BadRequest("Device token is required", nil)
	}

	if err := uc.userRepo.UpdateDeviceToken(ctx, uid, token); err != nil {
		logger.Error("RegisterDeviceToken Error: %v", err)
		return err
	}
	return nil
}

func (uc *UserUseCase) ClearDeviceToken(ctx context.Context, uid string) error {
	if err := uc.userRepo.UpdateDeviceToken(ctx, uid, ""); err != nil {
		logger.Error("ClearDeviceToken Error: %v", err)
		return err
	}
	return nil
}

// ListClients returns the users the staff inbox is built from.
func (uc *UserUseCase) ListClients(ctx context.Context, actor Actor) ([]*entity.User, error) {
	if !actor.IsStaff() {
		return nil, errors.Forbidden("Staff access required", nil)
	}
	return uc.userRepo.ListByRole(ctx, entity.RoleClient)
}
