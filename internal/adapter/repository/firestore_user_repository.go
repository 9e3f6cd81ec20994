package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection("users").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

func (r *firestoreUserRepository) Upsert(ctx context.Context, user *entity.User) (*entity.User, error) {
	ref := r.client.Collection("users").Doc(user.ID)

	var stored entity.User
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now()
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			stored = *user
			stored.CreatedAt = now
			stored.UpdatedAt = now
			if stored.Role == "" {
				stored.Role = entity.RoleClient
			}
			return tx.Create(ref, &stored)
		}

		if err := doc.DataTo(&stored); err != nil {
			return err
		}
		stored.ID = doc.Ref.ID

		// Only the identity fields follow the token; role and device token
		// are owned by this store.
		updates := map[string]interface{}{"updatedAt": now}
		if user.Email != "" && user.Email != stored.Email {
			updates["email"] = user.Email
			stored.Email = user.Email
		}
		if user.DisplayName != "" && user.DisplayName != stored.DisplayName {
			updates["displayName"] = user.DisplayName
			stored.DisplayName = user.DisplayName
		}
		if len(updates) == 1 {
			return nil
		}
		stored.UpdatedAt = now
		return tx.Set(ref, updates, firestore.MergeAll)
	})
	if err != nil {
		return nil, errors.Internal("Failed to upsert user", err)
	}

	return &stored, nil
}

func (r *firestoreUserRepository) UpdateDeviceToken(ctx context.Context, id, token string) error {
	var value interface{} = token
	if token == "" {
		value = firestore.Delete
	}

	_, err := r.client.Collection("users").Doc(id).Update(ctx, []firestore.Update{
		{Path: "fcmToken", Value: value},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to update device token", err)
	}
	return nil
}

func (r *firestoreUserRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	docs, err := r.byRole(role).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list users", err)
	}
	return decodeUsers(docs), nil
}

func (r *firestoreUserRepository) WatchByRole(ctx context.Context, role entity.Role) (repository.UserSubscription, error) {
	query := r.byRole(role)
	return newSnapshotFeed(ctx, func(ctx context.Context, emit func([]*entity.User) bool) {
		iter := query.Snapshots(ctx)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if listenerStopped(ctx, "WatchByRole "+string(role), err) {
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Error("WatchByRole %s: failed to read snapshot: %v", role, err)
				return
			}
			if !emit(decodeUsers(docs)) {
				return
			}
		}
	}), nil
}

func (r *firestoreUserRepository) byRole(role entity.Role) firestore.Query {
	return r.client.Collection("users").Where("role", "==", string(role))
}

func decodeUsers(docs []*firestore.DocumentSnapshot) []*entity.User {
	users := make([]*entity.User, 0, len(docs))
	for _, doc := range docs {
		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			logger.Warn("Skipping malformed user %s: %v", doc.Ref.ID, err)
			continue
		}
		user.ID = doc.Ref.ID
		users = append(users, &user)
	}
	return users
}
