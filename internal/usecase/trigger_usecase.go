package usecase

import (
	"context"
	"fmt"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/internal/domain/service"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
)

// TriggerOutcome is the terminal state of one trigger run.
type TriggerOutcome string

const (
	OutcomeNotificationSent   TriggerOutcome = "notification_sent"
	OutcomeNotificationFailed TriggerOutcome = "notification_failed"
	OutcomeSkipped            TriggerOutcome = "skipped"
	OutcomeDuplicate          TriggerOutcome = "duplicate"
)

// TriggerUseCase reacts to committed writes: it maintains the unread
// counters and sends push notifications. A counter failure is returned so
// the bus can redeliver; a push failure is only logged.
type TriggerUseCase struct {
	threadRepo repository.ThreadRepository
	userRepo   repository.UserRepository
	notifier   service.PushNotifier
	pushTitle  string
}

func NewTriggerUseCase(
	threadRepo repository.ThreadRepository,
	userRepo repository.UserRepository,
	notifier service.PushNotifier,
	pushTitle string,
) *TriggerUseCase {
	return &TriggerUseCase{
		threadRepo: threadRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		pushTitle:  pushTitle,
	}
}

func (uc *TriggerUseCase) Register(bus service.EventBus) {
	bus.Subscribe(entity.EventMessageAppended, func(ctx context.Context, event entity.Event) error {
		var payload entity.MessageAppended
		if err := event.Decode(&payload); err != nil {
			logger.Error("Trigger: malformed %s event %s: %v", event.Type, event.ID, err)
			return nil
		}
		_, err := uc.OnMessageAppended(ctx, payload)
		return err
	})

	bus.Subscribe(entity.EventProjectStatusChanged, func(ctx context.Context, event entity.Event) error {
		var payload entity.ProjectStatusChanged
		if err := event.Decode(&payload); err != nil {
			logger.Error("Trigger: malformed %s event %s: %v", event.Type, event.ID, err)
			return nil
		}
		_, err := uc.OnProjectStatusChanged(ctx, payload)
		return err
	})
}

func (uc *TriggerUseCase) OnMessageAppended(ctx context.Context, event entity.MessageAppended) (TriggerOutcome, error) {
	log := logger.With("thread", event.Thread.String(), "message", event.MessageID)
	log.Debugw("trigger state", "state", "MessageCommitted")

	reader := entity.RoleClient
	if event.SenderRole != entity.RoleStaff {
		reader = entity.RoleStaff
	}

	counted, err := uc.threadRepo.IncrementUnread(ctx, event.Thread, reader, event.MessageID)
	if err != nil {
		log.Errorw("unread counter update failed", "error", err)
		return "", fmt.Errorf("increment unread: %w", err)
	}
	if !counted {
		log.Infow("trigger already handled", "state", string(OutcomeDuplicate))
		return OutcomeDuplicate, nil
	}
	log.Debugw("trigger state", "state", "CounterUpdated", "reader", string(reader))

	if reader != entity.RoleClient {
		log.Debugw("trigger state", "state", string(OutcomeSkipped), "reason", "staff reader")
		return OutcomeSkipped, nil
	}

	body := event.Body
	if body == "" {
		body = attachmentPreview
	}
	data := map[string]string{"type": "chat"}
	if !event.Thread.IsGeneral() {
		data = map[string]string{"type": "project", "projectId": event.Thread.ProjectID}
	}

	return uc.notify(ctx, event.Thread.UserID, body, data), nil
}

func (uc *TriggerUseCase) OnProjectStatusChanged(ctx context.Context, event entity.ProjectStatusChanged) (TriggerOutcome, error) {
	if event.OldStatus == event.NewStatus {
		return OutcomeSkipped, nil
	}

	body := fmt.Sprintf("Your project %s is now %s", event.ProjectName, event.NewStatus)
	data := map[string]string{"type": "project", "projectId": event.ProjectID}

	return uc.notify(ctx, event.OwnerID, body, data), nil
}

func (uc *TriggerUseCase) notify(ctx context.Context, userID, body string, data map[string]string) TriggerOutcome {
	log := logger.With("user", userID)

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			log.Warnw("recipient lookup failed", "error", err)
		}
		return OutcomeSkipped
	}
	if !user.HasDeviceToken() {
		log.Debugw("trigger state", "state", string(OutcomeSkipped), "reason", "no device token")
		return OutcomeSkipped
	}

	err = uc.notifier.Send(ctx, service.PushNotification{
		Token: user.FCMToken,
		Title: uc.pushTitle,
		Body:  body,
		Data:  data,
	})
	if err != nil {
		log.Errorw("push notification failed", "error", err)
		return OutcomeNotificationFailed
	}

	log.Infow("trigger state", "state", string(OutcomeNotificationSent))
	return OutcomeNotificationSent
}
