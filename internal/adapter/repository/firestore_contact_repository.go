package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/utils"
)

const contactCollection = "contactMessages"

type firestoreContactRepository struct {
	client *firestore.Client
}

func NewFirestoreContactRepository(client *firestore.Client) repository.ContactRepository {
	return &firestoreContactRepository{
		client: client,
	}
}

func (r *firestoreContactRepository) Create(ctx context.Context, message *entity.ContactMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	if _, err := r.client.Collection(contactCollection).Doc(message.ID).Set(ctx, message); err != nil {
		return errors.Internal("Failed to save contact message", err)
	}
	return nil
}

func (r *firestoreContactRepository) List(ctx context.Context, limit, offset int) ([]*entity.ContactMessage, int, error) {
	docs, err := r.client.Collection(contactCollection).OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to list contact messages", err)
	}

	total := len(docs)
	start, end := utils.Window(total, limit, offset)

	messages := make([]*entity.ContactMessage, 0, end-start)
	for _, doc := range docs[start:end] {
		var message entity.ContactMessage
		if err := doc.DataTo(&message); err != nil {
			continue
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}
	return messages, total, nil
}

func (r *firestoreContactRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.client.Collection(contactCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(entity.ContactStatusRead)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Contact message", err)
		}
		return errors.Internal("Failed to update contact message", err)
	}
	return nil
}
