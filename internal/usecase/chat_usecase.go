package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/internal/domain/service"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
)

const (
	defaultMessageLimit = 100
	maxMessageLimit     = 500
	previewLength       = 120
	attachmentPreview   = "Sent an attachment"
)

type ChatUseCase struct {
	threadRepo  repository.ThreadRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	bus         service.EventBus
	limiter     RateLimiter
}

func NewChatUseCase(
	threadRepo repository.ThreadRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	bus service.EventBus,
	limiter RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		threadRepo:  threadRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		bus:         bus,
		limiter:     limiter,
	}
}

type AppendInput struct {
	Body          string `json:"body"`
	AttachmentURL string `json:"attachment_url"`
}

// ThreadOverview is one entry of a participant's thread list.
type ThreadOverview struct {
	Thread  *entity.Thread  `json:"thread"`
	Project *entity.Project `json:"project,omitempty"`
	Unread  int             `json:"unread"`
}

// AppendMessage validates, authorizes and commits one message, then hands
// it to the trigger bus. Any failure carries the submitted body back as
// details.draft.
func (uc *ChatUseCase) AppendMessage(ctx context.Context, actor Actor, key entity.ThreadKey, input AppendInput) (*entity.Message, error) {
	draft := map[string]interface{}{"draft": input.Body}

	body := strings.TrimSpace(input.Body)
	attachment := strings.TrimSpace(input.AttachmentURL)
	if body == "" && attachment == "" {
		return nil, errors.WithDetails(errors.BadRequest("Message body is required", nil), draft)
	}

	if err := uc.authorize(ctx, actor, key); err != nil {
		return nil, errors.WithDetails(err, draft)
	}

	if uc.limiter != nil {
		if ok, wait := uc.limiter.Allow(actor.UserID, ActionSendMessage); !ok {
			return nil, errors.WithDetails(
				errors.TooManyRequests("Too many messages, please slow down", wait),
				map[string]interface{}{"draft": input.Body, "retry_after_seconds": wait.Seconds()},
			)
		}
	}

	meta := repository.ThreadMeta{
		SenderRole: actor.Role,
		Preview:    Preview(body, attachment != ""),
	}
	if actor.IsStaff() {
		participant, err := uc.userRepo.GetByID(ctx, key.UserID)
		if err != nil {
			logger.Warn("AppendMessage: participant %s lookup failed: %v", key.UserID, err)
		} else {
			meta.UserName = participant.Name()
			meta.UserEmail = participant.Email
		}
	}

	msg := &entity.Message{
		SenderID:      actor.UserID,
		SenderRole:    actor.Role,
		Body:          body,
		AttachmentURL: attachment,
	}
	if err := uc.threadRepo.AppendMessage(ctx, key, msg, meta); err != nil {
		logger.Error("AppendMessage Error: %v", err)
		return nil, errors.WithDetails(err, draft)
	}

	uc.publishAppended(ctx, msg)
	return msg, nil
}

func (uc *ChatUseCase) publishAppended(ctx context.Context, msg *entity.Message) {
	if uc.bus == nil {
		return
	}

	event, err := entity.NewEvent(entity.EventMessageAppended, entity.MessageAppended{
		Thread:        msg.Thread,
		MessageID:     msg.ID,
		SenderID:      msg.SenderID,
		SenderRole:    msg.SenderRole,
		Body:          msg.Body,
		HasAttachment: msg.AttachmentURL != "",
	})
	if err == nil {
		// The message is committed; the caller going away must not drop the trigger.
		err = uc.bus.Publish(context.WithoutCancel(ctx), event)
	}
	if err != nil {
		logger.Error("AppendMessage: failed to publish trigger for %s/%s: %v", msg.Thread, msg.ID, err)
	}
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, actor Actor, key entity.ThreadKey, limit int) ([]*entity.Message, error) {
	if err := uc.authorize(ctx, actor, key); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	messages, err := uc.threadRepo.ListMessages(ctx, key, limit)
	if err != nil {
		logger.Error("ListMessages Error: %v", err)
		return nil, err
	}
	return messages, nil
}

func (uc *ChatUseCase) Subscribe(ctx context.Context, actor Actor, key entity.ThreadKey) (repository.MessageSubscription, error) {
	if err := uc.authorize(ctx, actor, key); err != nil {
		return nil, err
	}

	sub, err := uc.threadRepo.Subscribe(ctx, key)
	if err != nil {
		logger.Error("Subscribe Error: %v", err)
		return nil, err
	}
	return sub, nil
}

// MarkRead resets the caller's side of the thread's unread counter.
func (uc *ChatUseCase) MarkRead(ctx context.Context, actor Actor, key entity.ThreadKey) error {
	if err := uc.authorize(ctx, actor, key); err != nil {
		return err
	}

	if err := uc.threadRepo.ResetUnread(ctx, key, actor.Role); err != nil {
		logger.Error("MarkRead Error: %v", err)
		return err
	}
	return nil
}

// ListThreads returns the general thread of userID followed by one entry
// per project they own. Clients can only list their own threads.
func (uc *ChatUseCase) ListThreads(ctx context.Context, actor Actor, userID string) ([]*ThreadOverview, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if !actor.IsStaff() && userID != actor.UserID {
		return nil, errors.Forbidden("You can only view your own conversations", nil)
	}

	general, err := uc.loadThread(ctx, entity.GeneralThread(userID))
	if err != nil {
		return nil, err
	}
	overviews := []*ThreadOverview{{Thread: general, Unread: general.UnreadFor(actor.Role)}}

	projects, err := uc.projectRepo.ListByOwner(ctx, userID)
	if err != nil {
		logger.Error("ListThreads Error: %v", err)
		return nil, err
	}
	for _, project := range projects {
		thread, err := uc.loadThread(ctx, project.ThreadKey())
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, &ThreadOverview{
			Thread:  thread,
			Project: project,
			Unread:  thread.UnreadFor(actor.Role),
		})
	}

	return overviews, nil
}

// ProjectThread resolves the thread of projectID. Staff may omit userID,
// in which case the project owner is used.
func (uc *ChatUseCase) ProjectThread(ctx context.Context, actor Actor, projectID, userID string) (entity.ThreadKey, error) {
	if !actor.IsStaff() || userID != "" {
		if userID == "" {
			userID = actor.UserID
		}
		return entity.ProjectThread(userID, projectID), nil
	}

	project, err := uc.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return entity.ThreadKey{}, err
	}
	return project.ThreadKey(), nil
}

func (uc *ChatUseCase) loadThread(ctx context.Context, key entity.ThreadKey) (*entity.Thread, error) {
	thread, err := uc.threadRepo.GetThread(ctx, key)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return &entity.Thread{Key: key, UserID: key.UserID}, nil
		}
		logger.Error("GetThread Error: %v", err)
		return nil, err
	}
	return thread, nil
}

func (uc *ChatUseCase) authorize(ctx context.Context, actor Actor, key entity.ThreadKey) error {
	if !key.Valid() {
		return errors.BadRequest("Invalid conversation", nil)
	}
	if !actor.IsStaff() && key.UserID != actor.UserID {
		return errors.Forbidden("You do not have access to this conversation", nil)
	}
	if key.IsGeneral() {
		return nil
	}

	project, err := uc.projectRepo.GetByID(ctx, key.ProjectID)
	if err != nil {
		return err
	}
	if project.OwnerID != key.UserID {
		return errors.NotFound("Project", nil)
	}
	return nil
}

// Preview is the inbox line for a message.
func Preview(body string, hasAttachment bool) string {
	if body == "" {
		if hasAttachment {
			return attachmentPreview
		}
		return ""
	}
	if utf8.RuneCountInString(body) <= previewLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewLength]) + "…"
}
