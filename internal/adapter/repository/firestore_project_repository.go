package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/pkg/errors"
)

type firestoreProjectRepository struct {
	client *firestore.Client
}

func NewFirestoreProjectRepository(client *firestore.Client) repository.ProjectRepository {
	return &firestoreProjectRepository{
		client: client,
	}
}

func (r *firestoreProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}

	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	if _, err := r.client.Collection(projectsCollection).Doc(project.ID).Create(ctx, project); err != nil {
		return errors.Internal("Failed to create project", err)
	}
	return nil
}

func (r *firestoreProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	doc, err := r.client.Collection(projectsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Project", err)
		}
		return nil, errors.Internal("Failed to get project", err)
	}

	var project entity.Project
	if err := doc.DataTo(&project); err != nil {
		return nil, errors.Internal("Failed to parse project data", err)
	}
	project.ID = doc.Ref.ID
	return &project, nil
}

func (r *firestoreProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Project, error) {
	query := r.client.Collection(projectsCollection).
		Where("userId", "==", ownerID).
		OrderBy("createdAt", firestore.Desc)

	projects, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list projects", err)
	}
	return projects, nil
}

func (r *firestoreProjectRepository) ListAll(ctx context.Context, limit, offset int) ([]*entity.Project, int, error) {
	base := r.client.Collection(projectsCollection).OrderBy("createdAt", firestore.Desc)

	countDocs, err := base.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count projects", err)
	}

	query := base
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	projects, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, 0, errors.Internal("Failed to list projects", err)
	}
	return projects, len(countDocs), nil
}

func (r *firestoreProjectRepository) UpdateStatus(ctx context.Context, id string, next entity.ProjectStatus, check func(current entity.ProjectStatus) error) (*entity.Project, entity.ProjectStatus, error) {
	ref := r.client.Collection(projectsCollection).Doc(id)

	var (
		project  entity.Project
		previous entity.ProjectStatus
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if err := doc.DataTo(&project); err != nil {
			return err
		}
		project.ID = doc.Ref.ID
		previous = project.Status

		if check != nil {
			if err := check(previous); err != nil {
				return err
			}
		}

		project.Status = next
		project.UpdatedAt = time.Now()
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(next)},
			{Path: "updatedAt", Value: project.UpdatedAt},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, "", errors.NotFound("Project", err)
		}
		if _, ok := err.(*errors.AppError); ok {
			return nil, "", err
		}
		return nil, "", errors.Internal("Failed to update project status", err)
	}

	return &project, previous, nil
}

func (r *firestoreProjectRepository) collect(iter *firestore.DocumentIterator) ([]*entity.Project, error) {
	defer iter.Stop()

	var projects []*entity.Project
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var project entity.Project
		if err := doc.DataTo(&project); err != nil {
			return nil, err
		}
		project.ID = doc.Ref.ID
		projects = append(projects, &project)
	}
	return projects, nil
}
