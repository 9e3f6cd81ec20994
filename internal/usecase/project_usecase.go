package usecase

import (
	"context"
	"strings"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/internal/domain/service"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
)

type ProjectUseCase struct {
	projectRepo repository.ProjectRepository
	bus         service.EventBus
}

func NewProjectUseCase(projectRepo repository.ProjectRepository, bus service.EventBus) *ProjectUseCase {
	return &ProjectUseCase{
		projectRepo: projectRepo,
		bus:         bus,
	}
}

type CreateProjectInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=5000"`
}

func (uc *ProjectUseCase) Create(ctx context.Context, actor Actor, input CreateProjectInput) (*entity.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.BadRequest("Project name is required", nil)
	}

	project := &entity.Project{
		OwnerID:     actor.UserID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      entity.ProjectStatusPending,
	}
	if err := uc.projectRepo.Create(ctx, project); err != nil {
		logger.Error("CreateProject Error: %v", err)
		return nil, err
	}

	logger.Info("Project %s created by %s", project.ID, actor.UserID)
	return project, nil
}

// List returns the caller's projects, or every project for staff.
func (uc *ProjectUseCase) List(ctx context.Context, actor Actor, limit, offset int) ([]*entity.Project, int, error) {
	if actor.IsStaff() {
		return uc.projectRepo.ListAll(ctx, limit, offset)
	}

	projects, err := uc.projectRepo.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, 0, err
	}
	return projects, len(projects), nil
}

func (uc *ProjectUseCase) Get(ctx context.Context, actor Actor, id string) (*entity.Project, error) {
	project, err := uc.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && project.OwnerID != actor.UserID {
		return nil, errors.NotFound("Project", nil)
	}
	return project, nil
}

// UpdateStatus moves a project along its lifecycle and emits a status
// change trigger.
func (uc *ProjectUseCase) UpdateStatus(ctx context.Context, actor Actor, id string, next entity.ProjectStatus) (*entity.Project, error) {
	if !actor.IsStaff() {
		return nil, errors.Forbidden("Staff access required", nil)
	}
	if !next.Valid() {
		return nil, errors.BadRequest("Invalid project status", nil)
	}

	project, previous, err := uc.projectRepo.UpdateStatus(ctx, id, next, func(current entity.ProjectStatus) error {
		if !current.CanTransitionTo(next) {
			return errors.Conflict("Cannot change project status from " + string(current) + " to " + string(next))
		}
		return nil
	})
	if err != nil {
		logger.Error("UpdateProjectStatus Error: %v", err)
		return nil, err
	}

	if uc.bus != nil {
		event, err := entity.NewEvent(entity.EventProjectStatusChanged, entity.ProjectStatusChanged{
			ProjectID:   project.ID,
			ProjectName: project.Name,
			OwnerID:     project.OwnerID,
			OldStatus:   previous,
			NewStatus:   project.Status,
		})
		if err == nil {
			err = uc.bus.Publish(context.WithoutCancel(ctx), event)
		}
		if err != nil {
			logger.Error("UpdateProjectStatus: failed to publish trigger for %s: %v", project.ID, err)
		}
	}

	return project, nil
}
