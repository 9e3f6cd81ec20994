package usecase

import (
	"context"
	"fmt"
	"sync"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/domain/repository"
	"zorkdi/pkg/logger"
)

// InboxWatcher keeps one general-thread subscription per inbox participant
// and re-emits the sorted summary list to sink on every change. Summaries
// are rebuilt from the thread record, so Unread is always the stored
// unreadByStaff counter.
type InboxWatcher struct {
	threads repository.ThreadRepository
	sink    func([]*ThreadSummary)

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	subs         map[string]repository.ThreadSubscription
	summaries    map[string]*ThreadSummary
	pending      map[string]bool
	participants repository.UserSubscription
	closed       bool
}

func NewInboxWatcher(ctx context.Context, threads repository.ThreadRepository, sink func([]*ThreadSummary)) *InboxWatcher {
	ctx, cancel := context.WithCancel(ctx)
	return &InboxWatcher{
		threads:   threads,
		sink:      sink,
		ctx:       ctx,
		cancel:    cancel,
		subs:      make(map[string]repository.ThreadSubscription),
		summaries: make(map[string]*ThreadSummary),
		pending:   make(map[string]bool),
	}
}

// Follow syncs the watcher to every participant list users delivers. The
// watcher owns users from here on and cancels it on Close.
func (w *InboxWatcher) Follow(users repository.UserSubscription) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		users.Cancel()
		return fmt.Errorf("inbox watcher closed")
	}
	if w.participants != nil {
		w.participants.Cancel()
	}
	w.participants = users
	w.mu.Unlock()

	go func() {
		for list := range users.Updates() {
			if err := w.Sync(list); err != nil {
				return
			}
		}
	}()
	return nil
}

// Sync makes the watched set equal to participants. Only participants that
// are new get a subscription and only those that left are cancelled.
func (w *InboxWatcher) Sync(participants []*entity.User) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("inbox watcher closed")
	}

	desired := make(map[string]*entity.User, len(participants))
	for _, user := range participants {
		desired[user.ID] = user
	}

	for id, sub := range w.subs {
		if _, ok := desired[id]; !ok {
			sub.Cancel()
			delete(w.subs, id)
			delete(w.summaries, id)
			delete(w.pending, id)
		}
	}

	for id, user := range desired {
		copied := *user
		if summary, ok := w.summaries[id]; ok {
			summary.Participant = &copied
			continue
		}

		w.summaries[id] = SummaryFor(&copied, nil)
		sub, err := w.threads.WatchThread(w.ctx, entity.GeneralThread(id))
		if err != nil {
			logger.Error("InboxWatcher: watch %s failed: %v", id, err)
			continue
		}
		w.subs[id] = sub
		w.pending[id] = true
		go w.pump(id, sub)
	}

	w.emitLocked()
	return nil
}

func (w *InboxWatcher) pump(id string, sub repository.ThreadSubscription) {
	for thread := range sub.Updates() {
		w.apply(id, sub, thread)
	}

	// A listener that ended before its first record still lists the
	// participant, with the empty summary.
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed && w.subs[id] == sub && w.pending[id] {
		delete(w.pending, id)
		w.emitLocked()
	}
}

func (w *InboxWatcher) apply(id string, sub repository.ThreadSubscription, thread *entity.Thread) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.subs[id] != sub {
		return
	}
	summary, ok := w.summaries[id]
	if !ok {
		return
	}

	w.summaries[id] = SummaryFor(summary.Participant, thread)
	delete(w.pending, id)
	w.emitLocked()
}

// emitLocked leaves out participants whose thread record has not arrived
// yet, so a known thread never shows as empty.
func (w *InboxWatcher) emitLocked() {
	summaries := make([]*ThreadSummary, 0, len(w.summaries))
	for id, summary := range w.summaries {
		if w.pending[id] {
			continue
		}
		copied := *summary
		summaries = append(summaries, &copied)
	}
	SortSummaries(summaries)
	w.sink(summaries)
}

// Refresh re-emits the current summaries.
func (w *InboxWatcher) Refresh() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.emitLocked()
	}
}

// Watching returns the participant IDs with a live subscription.
func (w *InboxWatcher) Watching() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]string, 0, len(w.subs))
	for id := range w.subs {
		ids = append(ids, id)
	}
	return ids
}

func (w *InboxWatcher) Close() {
	w.mu.Lock()
	w.closed = true
	subs := w.subs
	participants := w.participants
	w.subs = make(map[string]repository.ThreadSubscription)
	w.participants = nil
	w.mu.Unlock()

	w.cancel()
	if participants != nil {
		participants.Cancel()
	}
	for _, sub := range subs {
		sub.Cancel()
	}
}
