package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
)

const (
	noMessagesPreview = "No messages yet"
	roomMessageLimit  = 200
)

type ThreadSummary struct {
	Participant        *entity.User     `json:"participant"`
	Thread             entity.ThreadKey `json:"thread"`
	LastMessagePreview string           `json:"last_message_preview"`
	LastActivity       time.Time        `json:"last_activity"`
	LastSenderRole     entity.Role      `json:"last_sender_role,omitempty"`
	Unread             int              `json:"unread"`
}

// UserRoom is the staff view of one participant: every thread merged into
// a single timeline, plus the thread a reply should go to.
type UserRoom struct {
	User        *entity.User      `json:"user"`
	Projects    []*entity.Project `json:"projects"`
	Messages    []*entity.Message `json:"messages"`
	ReplyTarget entity.ThreadKey  `json:"reply_target"`
}

type InboxUseCase struct {
	userRepo    repository.UserRepository
	threadRepo  repository.ThreadRepository
	projectRepo repository.ProjectRepository
}

func NewInboxUseCase(
	userRepo repository.UserRepository,
	threadRepo repository.ThreadRepository,
	projectRepo repository.ProjectRepository,
) *InboxUseCase {
	return &InboxUseCase{
		userRepo:    userRepo,
		threadRepo:  threadRepo,
		projectRepo: projectRepo,
	}
}

// ListInbox returns one summary per client user, including users who never
// wrote, most recent activity first.
func (uc *InboxUseCase) ListInbox(ctx context.Context, actor Actor) ([]*ThreadSummary, error) {
	if !actor.IsStaff() {
		return nil, errors.Forbidden("Staff access required", nil)
	}

	users, err := uc.userRepo.ListByRole(ctx, entity.RoleClient)
	if err != nil {
		logger.Error("ListInbox Error: %v", err)
		return nil, err
	}

	threads, err := uc.threadRepo.ListGeneralThreads(ctx)
	if err != nil {
		logger.Error("ListInbox Error: %v", err)
		return nil, err
	}
	byUser := make(map[string]*entity.Thread, len(threads))
	for _, thread := range threads {
		byUser[thread.UserID] = thread
	}

	summaries := make([]*ThreadSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, SummaryFor(user, byUser[user.ID]))
	}
	SortSummaries(summaries)

	return summaries, nil
}

// WatchInbox starts a live inbox for staff: sink receives the sorted
// summaries whenever a client signs up or a general thread changes.
func (uc *InboxUseCase) WatchInbox(ctx context.Context, actor Actor, sink func([]*ThreadSummary)) (*InboxWatcher, error) {
	if !actor.IsStaff() {
		return nil, errors.Forbidden("Staff access required", nil)
	}

	users, err := uc.userRepo.WatchByRole(ctx, entity.RoleClient)
	if err != nil {
		logger.Error("WatchInbox Error: %v", err)
		return nil, err
	}

	watcher := NewInboxWatcher(ctx, uc.threadRepo, sink)
	if err := watcher.Follow(users); err != nil {
		return nil, err
	}
	return watcher, nil
}

// SummaryFor builds the inbox line of user; thread may be nil.
func SummaryFor(user *entity.User, thread *entity.Thread) *ThreadSummary {
	summary := &ThreadSummary{
		Participant:        user,
		Thread:             entity.GeneralThread(user.ID),
		LastMessagePreview: noMessagesPreview,
	}
	if thread == nil || thread.LastMessageAt.IsZero() {
		return summary
	}

	if thread.LastMessage != "" {
		summary.LastMessagePreview = thread.LastMessage
	}
	summary.LastActivity = thread.LastMessageAt
	summary.LastSenderRole = thread.LastSenderRole
	summary.Unread = thread.UnreadByStaff
	return summary
}

// SortSummaries orders by last activity descending. Participants without
// activity go last, by name.
func SortSummaries(summaries []*ThreadSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.LastActivity.IsZero() != b.LastActivity.IsZero() {
			return b.LastActivity.IsZero()
		}
		if !a.LastActivity.Equal(b.LastActivity) {
			return a.LastActivity.After(b.LastActivity)
		}
		return strings.ToLower(a.Participant.Name()) < strings.ToLower(b.Participant.Name())
	})
}

func (uc *InboxUseCase) UserRoom(ctx context.Context, actor Actor, userID string) (*UserRoom, error) {
	if !actor.IsStaff() {
		return nil, errors.Forbidden("Staff access required", nil)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	projects, err := uc.projectRepo.ListByOwner(ctx, userID)
	if err != nil {
		logger.Error("UserRoom Error: %v", err)
		return nil, err
	}

	general := entity.GeneralThread(userID)
	keys := []entity.ThreadKey{general}
	for _, project := range projects {
		keys = append(keys, project.ThreadKey())
	}

	threads := make(map[entity.ThreadKey][]*entity.Message, len(keys))
	for _, key := range keys {
		messages, err := uc.threadRepo.ListMessages(ctx, key, roomMessageLimit)
		if err != nil {
			logger.Error("UserRoom Error: %v", err)
			return nil, err
		}
		threads[key] = messages
	}

	return &UserRoom{
		User:        user,
		Projects:    projects,
		Messages:    MergeThreads(threads),
		ReplyTarget: InferReplyTarget(general, threads),
	}, nil
}
