package usecase

import (
	"context"
	"strings"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
)

type ContactUseCase struct {
	contactRepo repository.ContactRepository
}

func NewContactUseCase(contactRepo repository.ContactRepository) *ContactUseCase {
	return &ContactUseCase{
		contactRepo: contactRepo,
	}
}

type ContactInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (uc *ContactUseCase) Submit(ctx context.Context, input ContactInput) (*entity.ContactMessage, error) {
	message := &entity.ContactMessage{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Subject: strings.TrimSpace(input.Subject),
		Message: strings.TrimSpace(input.Message),
		Status:  entity.ContactStatusUnread,
	}
	if message.Name == "" || message.Email == "" || message.Subject == "" || message.Message == "" {
		return nil, errors.BadRequest("All fields are required", nil)
	}

	if err := uc.contactRepo.Create(ctx, message); err != nil {
		logger.Error("SubmitContact Error: %v", err)
		return nil, err
	}
	return message, nil
}

func (uc *ContactUseCase) List(ctx context.Context, actor Actor, limit, offset int) ([]*entity.ContactMessage, int, error) {
	if !actor.IsStaff() {
		return nil, 0, errors.Forbidden("Staff access required", nil)
	}
	return uc.contactRepo.List(ctx, limit, offset)
}

func (uc *ContactUseCase) MarkRead(ctx context.Context, actor Actor, id string) error {
	if !actor.IsStaff() {
		return errors.Forbidden("Staff access required", nil)
	}
	return uc.contactRepo.MarkRead(ctx, id)
}
