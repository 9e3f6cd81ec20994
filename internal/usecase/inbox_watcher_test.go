package usecase

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zorkdi/internal/domain/entity"
	"zorkdi/pkg/errors"
)

type summarySink struct {
	mu   sync.Mutex
	last []*ThreadSummary
	n    int
}

func (s *summarySink) deliver(summaries []*ThreadSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = summaries
	s.n++
}

func (s *summarySink) snapshot() ([]*ThreadSummary, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.n
}

// summaryOf returns the last delivered summary for id, or nil.
func (s *summarySink) summaryOf(id string) *ThreadSummary {
	summaries, _ := s.snapshot()
	for _, summary := range summaries {
		if summary.Participant.ID == id {
			return summary
		}
	}
	return nil
}

func (s *summarySink) waitFor(t *testing.T, id string, ok func(*ThreadSummary) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		summary := s.summaryOf(id)
		return summary != nil && ok(summary)
	}, time.Second, 5*time.Millisecond)
}

func clientUser(id string) *entity.User {
	return &entity.User{ID: id, DisplayName: id, Role: entity.RoleClient}
}

func watching(w *InboxWatcher) []string {
	ids := w.Watching()
	sort.Strings(ids)
	return ids
}

func TestInboxWatcher_SyncSubscribesOnlyTheDelta(t *testing.T) {
	threads := newFakeThreadRepo()
	sink := &summarySink{}
	w := NewInboxWatcher(context.Background(), threads, sink.deliver)
	defer w.Close()

	require.NoError(t, w.Sync([]*entity.User{clientUser("alice"), clientUser("bob")}))
	assert.Equal(t, []string{"alice", "bob"}, watching(w))

	aliceFeed := threads.threadWatches(entity.GeneralThread("alice"))[0]
	bobFeed := threads.threadWatches(entity.GeneralThread("bob"))[0]

	require.NoError(t, w.Sync([]*entity.User{clientUser("alice"), clientUser("carol")}))
	assert.Equal(t, []string{"alice", "carol"}, watching(w))

	assert.Len(t, threads.threadWatches(entity.GeneralThread("alice")), 1, "kept participant is not resubscribed")
	assert.False(t, aliceFeed.Canceled())
	assert.True(t, bobFeed.Canceled())
	assert.Len(t, threads.threadWatches(entity.GeneralThread("carol")), 1)

	require.Eventually(t, func() bool {
		summaries, _ := sink.snapshot()
		return len(summaries) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Nil(t, sink.summaryOf("bob"))
}

func TestInboxWatcher_FirstClientMessageRaisesUnread(t *testing.T) {
	f := newTriggerFixture()
	ctx := context.Background()
	sink := &summarySink{}
	w := NewInboxWatcher(ctx, f.threads, sink.deliver)
	defer w.Close()

	require.NoError(t, w.Sync([]*entity.User{aliceUser, bobUser}))
	sink.waitFor(t, "alice", func(s *ThreadSummary) bool { return s.LastMessagePreview == "No messages yet" })

	key := entity.GeneralThread("alice")
	_, err := f.trigger.OnMessageAppended(ctx, f.appended(t, alice, key, "hello there"))
	require.NoError(t, err)

	sink.waitFor(t, "alice", func(s *ThreadSummary) bool { return s.Unread == 1 })
	summary := sink.summaryOf("alice")
	assert.Equal(t, "hello there", summary.LastMessagePreview)

	summaries, _ := sink.snapshot()
	assert.Equal(t, "alice", summaries[0].Participant.ID, "thread with the newest message sorts first")
}

func TestInboxWatcher_UnreadFollowsStoredCounter(t *testing.T) {
	f := newTriggerFixture()
	ctx := context.Background()
	sink := &summarySink{}
	w := NewInboxWatcher(ctx, f.threads, sink.deliver)
	defer w.Close()

	require.NoError(t, w.Sync([]*entity.User{aliceUser}))
	key := entity.GeneralThread("alice")

	for _, body := range []string{"one", "two"} {
		_, err := f.trigger.OnMessageAppended(ctx, f.appended(t, alice, key, body))
		require.NoError(t, err)
	}
	sink.waitFor(t, "alice", func(s *ThreadSummary) bool { return s.Unread == 2 })

	require.NoError(t, f.chat.MarkRead(ctx, staff, key))
	sink.waitFor(t, "alice", func(s *ThreadSummary) bool { return s.Unread == 0 })

	event := f.appended(t, alice, key, "three")
	_, err := f.trigger.OnMessageAppended(ctx, event)
	require.NoError(t, err)
	sink.waitFor(t, "alice", func(s *ThreadSummary) bool { return s.Unread == 1 })

	outcome, err := f.trigger.OnMessageAppended(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 1, sink.summaryOf("alice").Unread, "redelivered event is not counted twice")
}

func TestInboxWatcher_StaffMessageLeavesUnreadAlone(t *testing.T) {
	f := newTriggerFixture()
	ctx := context.Background()
	sink := &summarySink{}
	w := NewInboxWatcher(ctx, f.threads, sink.deliver)
	defer w.Close()

	require.NoError(t, w.Sync([]*entity.User{bobUser}))
	key := entity.GeneralThread("bob")
	_, err := f.trigger.OnMessageAppended(ctx, f.appended(t, staff, key, "welcome"))
	require.NoError(t, err)

	sink.waitFor(t, "bob", func(s *ThreadSummary) bool { return s.LastMessagePreview == "welcome" })
	assert.Equal(t, 0, sink.summaryOf("bob").Unread)
}

func TestWatchInbox_PicksUpNewClients(t *testing.T) {
	f, inbox := newInboxFixture()
	sink := &summarySink{}

	_, err := inbox.WatchInbox(context.Background(), alice, sink.deliver)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	w, err := inbox.WatchInbox(context.Background(), staff, sink.deliver)
	require.NoError(t, err)
	defer w.Close()

	require.Eventually(t, func() bool {
		summaries, _ := sink.snapshot()
		return len(summaries) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Nil(t, sink.summaryOf("staff-1"), "staff users are not inbox participants")

	f.users.add(&entity.User{ID: "dave", Email: "dave@example.com", DisplayName: "Dave", Role: entity.RoleClient})

	sink.waitFor(t, "dave", func(s *ThreadSummary) bool { return s.LastMessagePreview == "No messages yet" })
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, watching(w))
}

func TestInboxWatcher_Close(t *testing.T) {
	f, inbox := newInboxFixture()
	sink := &summarySink{}

	w, err := inbox.WatchInbox(context.Background(), staff, sink.deliver)
	require.NoError(t, err)
	sink.waitFor(t, "alice", func(*ThreadSummary) bool { return true })

	feed := f.threads.threadWatches(entity.GeneralThread("alice"))[0]
	users := f.users.roleWatches(entity.RoleClient)[0]

	w.Close()
	assert.True(t, feed.Canceled())
	assert.True(t, users.Canceled())
	assert.Empty(t, w.Watching())
	assert.Error(t, w.Sync([]*entity.User{aliceUser}))

	_, before := sink.snapshot()
	f.users.add(clientUser("erin"))
	_, after := sink.snapshot()
	assert.Equal(t, before, after)
}
