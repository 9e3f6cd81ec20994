package repository

import (
	"context"

	"zorkdi/internal/domain/entity"
)

// MessageSubscription is a live view of a thread's message log. Updates
// yields batches until Cancel is called, after which the channel is closed.
type MessageSubscription interface {
	Updates() <-chan entity.MessageBatch
	Cancel()
}

// ThreadSubscription follows a thread's parent record. A missing record is
// delivered as a Thread with only its Key set.
type ThreadSubscription interface {
	Updates() <-chan *entity.Thread
	Cancel()
}

// ThreadMeta is written onto the parent record alongside every append.
type ThreadMeta struct {
	SenderRole entity.Role
	Preview    string
	UserName   string
	UserEmail  string
}

type ThreadRepository interface {
	// AppendMessage stores msg with a store-assigned timestamp and upserts the
	// parent record. msg.ID and msg.CreatedAt are filled in on success.
	AppendMessage(ctx context.Context, key entity.ThreadKey, msg *entity.Message, meta ThreadMeta) error
	GetThread(ctx context.Context, key entity.ThreadKey) (*entity.Thread, error)
	ListGeneralThreads(ctx context.Context) ([]*entity.Thread, error)
	ListMessages(ctx context.Context, key entity.ThreadKey, limit int) ([]*entity.Message, error)

	Subscribe(ctx context.Context, key entity.ThreadKey) (MessageSubscription, error)
	WatchThread(ctx context.Context, key entity.ThreadKey) (ThreadSubscription, error)

	// IncrementUnread bumps the reader's counter once per message. It reports
	// false when the message was already counted.
	IncrementUnread(ctx context.Context, key entity.ThreadKey, reader entity.Role, messageID string) (bool, error)
	ResetUnread(ctx context.Context, key entity.ThreadKey, reader entity.Role) error
}
