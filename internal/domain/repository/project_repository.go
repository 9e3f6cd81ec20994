package repository

import (
	"context"

	"zorkdi/internal/domain/entity"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	GetByID(ctx context.Context, id string) (*entity.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Project, error)
	ListAll(ctx context.Context, limit, offset int) ([]*entity.Project, int, error)
	// UpdateStatus applies next atomically and returns the previous status.
	// check runs against the stored status inside the same transaction.
	UpdateStatus(ctx context.Context, id string, next entity.ProjectStatus, check func(current entity.ProjectStatus) error) (*entity.Project, entity.ProjectStatus, error)
}
