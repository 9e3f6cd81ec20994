package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
)

const (
	chatsCollection           = "chats"
	generalMessagesCollection = "messages"
	projectsCollection        = "projects"
	projectMessagesCollection = "chatMessages"
)

type firestoreThreadRepository struct {
	client *firestore.Client
}

func NewFirestoreThreadRepository(client *firestore.Client) repository.ThreadRepository {
	return &firestoreThreadRepository{
		client: client,
	}
}

// General threads live at chats/{uid}; project threads reuse projects/{pid}.
func (r *firestoreThreadRepository) threadRef(key entity.ThreadKey) *firestore.DocumentRef {
	if key.Kind == entity.ThreadKindProject {
		return r.client.Collection(projectsCollection).Doc(key.ProjectID)
	}
	return r.client.Collection(chatsCollection).Doc(key.UserID)
}

func (r *firestoreThreadRepository) messagesRef(key entity.ThreadKey) *firestore.CollectionRef {
	if key.Kind == entity.ThreadKindProject {
		return r.threadRef(key).Collection(projectMessagesCollection)
	}
	return r.threadRef(key).Collection(generalMessagesCollection)
}

func unreadField(reader entity.Role) string {
	if reader == entity.RoleStaff {
		return "unreadByStaff"
	}
	return "unreadByClient"
}

func (r *firestoreThreadRepository) AppendMessage(ctx context.Context, key entity.ThreadKey, msg *entity.Message, meta repository.ThreadMeta) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.Thread = key

	// createdAt carries the serverTimestamp option, so the commit time is
	// stored and echoed back through the write result.
	wr, err := r.messagesRef(key).Doc(msg.ID).Create(ctx, msg)
	if err != nil {
		return errors.Internal("Failed to append message", err)
	}
	msg.CreatedAt = wr.UpdateTime

	parent := map[string]interface{}{
		"userId":         key.UserID,
		"lastMessage":    meta.Preview,
		"lastMessageAt":  firestore.ServerTimestamp,
		"lastSenderRole": string(meta.SenderRole),
	}
	if meta.UserName != "" {
		parent["userName"] = meta.UserName
	}
	if meta.UserEmail != "" {
		parent["userEmail"] = meta.UserEmail
	}

	// The log is authoritative; a stale parent only affects listing order.
	if _, err := r.threadRef(key).Set(ctx, parent, firestore.MergeAll); err != nil {
		logger.Warn("AppendMessage: failed to upsert parent of %s: %v", key, err)
	}

	return nil
}

func (r *firestoreThreadRepository) GetThread(ctx context.Context, key entity.ThreadKey) (*entity.Thread, error) {
	doc, err := r.threadRef(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Thread", err)
		}
		return nil, errors.Internal("Failed to get thread", err)
	}

	var thread entity.Thread
	if err := doc.DataTo(&thread); err != nil {
		return nil, errors.Internal("Failed to parse thread data", err)
	}
	thread.Key = key
	return &thread, nil
}

func (r *firestoreThreadRepository) ListGeneralThreads(ctx context.Context) ([]*entity.Thread, error) {
	docs, err := r.client.Collection(chatsCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list threads", err)
	}

	threads := make([]*entity.Thread, 0, len(docs))
	for _, doc := range docs {
		var thread entity.Thread
		if err := doc.DataTo(&thread); err != nil {
			logger.Warn("ListGeneralThreads: skipping malformed thread %s: %v", doc.Ref.ID, err)
			continue
		}
		thread.Key = entity.GeneralThread(doc.Ref.ID)
		thread.UserID = doc.Ref.ID
		threads = append(threads, &thread)
	}
	return threads, nil
}

func (r *firestoreThreadRepository) ListMessages(ctx context.Context, key entity.ThreadKey, limit int) ([]*entity.Message, error) {
	// Newest N, then reversed into ascending order.
	query := r.messagesRef(key).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list messages", err)
	}

	messages := make([]*entity.Message, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		msg, err := decodeMessage(key, docs[i])
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (r *firestoreThreadRepository) Subscribe(ctx context.Context, key entity.ThreadKey) (repository.MessageSubscription, error) {
	query := r.messagesRef(key).OrderBy("createdAt", firestore.Asc)
	return newSnapshotSubscription(ctx, key, query, false), nil
}

func (r *firestoreThreadRepository) WatchThread(ctx context.Context, key entity.ThreadKey) (repository.ThreadSubscription, error) {
	ref := r.threadRef(key)
	return newSnapshotFeed(ctx, func(ctx context.Context, emit func(*entity.Thread) bool) {
		iter := ref.Snapshots(ctx)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if listenerStopped(ctx, "WatchThread "+key.String(), err) {
				return
			}

			thread := &entity.Thread{UserID: key.UserID}
			if snap.Exists() {
				if err := snap.DataTo(thread); err != nil {
					logger.Warn("WatchThread %s: skipping malformed thread: %v", key, err)
					continue
				}
			}
			thread.Key = key
			if !emit(thread) {
				return
			}
		}
	}), nil
}

func (r *firestoreThreadRepository) IncrementUnread(ctx context.Context, key entity.ThreadKey, reader entity.Role, messageID string) (bool, error) {
	parentRef := r.threadRef(key)
	msgRef := r.messagesRef(key).Doc(messageID)

	var applied bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		applied = false

		doc, err := tx.Get(msgRef)
		if err != nil {
			return err
		}

		var msg entity.Message
		if err := doc.DataTo(&msg); err != nil {
			return err
		}
		if msg.Counted {
			return nil
		}

		if err := tx.Update(msgRef, []firestore.Update{{Path: "counted", Value: true}}); err != nil {
			return err
		}
		if err := tx.Set(parentRef, map[string]interface{}{
			unreadField(reader): firestore.Increment(1),
		}, firestore.MergeAll); err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, errors.NotFound("Message", err)
		}
		return false, errors.Internal("Failed to increment unread counter", err)
	}

	return applied, nil
}

func (r *firestoreThreadRepository) ResetUnread(ctx context.Context, key entity.ThreadKey, reader entity.Role) error {
	_, err := r.threadRef(key).Set(ctx, map[string]interface{}{
		unreadField(reader): 0,
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to reset unread counter", err)
	}
	return nil
}

func decodeMessage(key entity.ThreadKey, doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	var msg entity.Message
	if err := doc.DataTo(&msg); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	if msg.ID == "" {
		msg.ID = doc.Ref.ID
	}
	msg.Thread = key
	return &msg, nil
}
